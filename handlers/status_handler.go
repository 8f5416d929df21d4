package handlers

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"kaisan-bot/bot"
	"kaisan-bot/utils/database"
)

func handleStatus(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	cpuCount, _ := cpu.Counts(true)
	cpuPercent, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()
	hostInfo, _ := host.Info()

	pendingGuild, err := database.CountPendingTasks(b.GetDB(), m.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to count pending tasks")
	}
	pendingTotal, err := database.CountPendingTasks(b.GetDB(), "")
	if err != nil {
		log.Error().Err(err).Msg("failed to count pending tasks")
	}

	cpuUsage := "n/a"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.1f%%", cpuPercent[0])
	}

	uptime := time.Since(b.StartedAt()).Truncate(time.Second)

	embed := &discordgo.MessageEmbed{
		Title: "ステータス",
		Color: 0x5865F2, // Discord Blurple
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 OS", Value: fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion), Inline: true},
			{Name: "🐹 Go バージョン", Value: runtime.Version(), Inline: true},
			{Name: "⏳ 稼働時間", Value: uptime.String(), Inline: true},
			{Name: "🔼 CPU 数", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 CPU 使用率", Value: cpuUsage, Inline: true},
			{Name: "🧠 メモリ", Value: fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024), Inline: true},
			{Name: "⏱️ WebSocket 遅延", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "📋 予約中の解散", Value: fmt.Sprintf("%d (全体: %d)", pendingGuild, pendingTotal), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: time.Now().Format("2006-01-02 15:04"),
		},
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Error().Err(err).Str("channel_id", m.ChannelID).Msg("failed to send status embed")
	}
}
