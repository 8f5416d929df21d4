package handlers

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kaisan-bot/bot"
	"kaisan-bot/model"
	"kaisan-bot/schedule"
	"kaisan-bot/utils"
	"kaisan-bot/utils/database"
)

func handleKaisan(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	cfg := b.GetConfig()

	settings, err := database.GetGuildSettings(b.GetDB(), m.GuildID, cfg.DefaultTimezone)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to load guild settings")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}

	voiceChannelID := connectedVoiceChannel(s, m.GuildID, m.Author.ID)
	if voiceChannelID == "" {
		utils.ReplyError(s, m.ChannelID, "ボイスチャンネルに参加していません")
		return
	}

	if settings.RequirePermission && cmd.Target.MayIncludeOthers(m.Author.ID) {
		ok, err := utils.HasPermission(s, m.ChannelID, m.Author.ID, discordgo.PermissionVoiceMoveMembers)
		if err != nil {
			log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to check permissions")
			utils.ReplyError(s, m.ChannelID, genericErrorReply)
			return
		}
		if !ok {
			utils.ReplyError(s, m.ChannelID, "他のメンバーを解散させるには「メンバーを移動」権限が必要です")
			return
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	resolved, err := schedule.Resolve(cmd, settings, time.Now().UTC(), rng)
	if err != nil {
		var pastErr *schedule.PastTimeError
		var tzErr *schedule.BadTimezoneError
		switch {
		case errors.As(err, &pastErr):
			utils.ReplyError(s, m.ChannelID, "指定された時刻は過去です")
		case errors.As(err, &tzErr):
			utils.ReplyError(s, m.ChannelID, "タイムゾーン設定が不正です: "+settings.Timezone)
		default:
			log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to resolve schedule")
			utils.ReplyError(s, m.ChannelID, genericErrorReply)
		}
		return
	}

	task := model.ScheduledTask{
		GuildID:        m.GuildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  m.ChannelID,
		AuthorID:       m.Author.ID,
		FireAt:         resolved.FireAt,
		Random:         resolved.Random,
	}
	task.SetTarget(cmd.Target)

	taskID, err := b.GetEngine().Schedule(task, resolved.Reminders)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to schedule task")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}

	utils.React(s, m.ChannelID, m.ID, "✅")
	loc, _ := time.LoadLocation(settings.Timezone)
	if resolved.Random {
		utils.Reply(s, m.ChannelID, fmt.Sprintf("🎲 %s までのどこかで解散します (id: %s)",
			resolved.Bound.In(loc).Format("15:04"), taskID))
	} else {
		utils.Reply(s, m.ChannelID, fmt.Sprintf("⏰ %s に解散します (id: %s)",
			resolved.FireAt.In(loc).Format("15:04:05"), taskID))
	}
}

// connectedVoiceChannel returns the voice channel the user is in, or ""
// when they are not connected.
func connectedVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}
