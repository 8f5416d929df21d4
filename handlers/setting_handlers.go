package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kaisan-bot/bot"
	"kaisan-bot/model"
	"kaisan-bot/utils"
	"kaisan-bot/utils/database"
)

// requireManageGuild gates configuration commands on the manage-server
// capability. Returns false after replying to the user.
func requireManageGuild(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	ok, err := utils.HasPermission(s, m.ChannelID, m.Author.ID, discordgo.PermissionManageServer)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to check permissions")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return false
	}
	if !ok {
		utils.ReplyError(s, m.ChannelID, "設定の変更には「サーバー管理」権限が必要です")
		return false
	}
	return true
}

func handleTimezone(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	if !requireManageGuild(s, m) {
		return
	}
	if _, err := time.LoadLocation(cmd.Timezone); err != nil {
		utils.ReplyError(s, m.ChannelID, "不明なタイムゾーンです: "+cmd.Timezone)
		return
	}
	if err := database.SetTimezone(b.GetDB(), m.GuildID, b.GetConfig().DefaultTimezone, cmd.Timezone); err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to set timezone")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}
	utils.React(s, m.ChannelID, m.ID, "✅")
}

func handleRequirePermission(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	if !requireManageGuild(s, m) {
		return
	}
	if err := database.SetRequirePermission(b.GetDB(), m.GuildID, b.GetConfig().DefaultTimezone, cmd.Flag); err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to set require_permission")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}
	utils.React(s, m.ChannelID, m.ID, "✅")
}

func handleRemindRandom(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	if !requireManageGuild(s, m) {
		return
	}
	if err := database.SetRemindRandom(b.GetDB(), m.GuildID, b.GetConfig().DefaultTimezone, cmd.Flag); err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to set remind_random")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}
	utils.React(s, m.ChannelID, m.ID, "✅")
}

func handleAddReminder(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	if !requireManageGuild(s, m) {
		return
	}
	added, err := database.AddReminderOffset(b.GetDB(), m.GuildID, cmd.Minutes)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to add reminder offset")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}
	if !added {
		utils.ReplyError(s, m.ChannelID, fmt.Sprintf("%d分前のリマインダーは既に登録されています", cmd.Minutes))
		return
	}
	utils.React(s, m.ChannelID, m.ID, "✅")
}

func handleRemoveReminder(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	if !requireManageGuild(s, m) {
		return
	}
	removed, err := database.RemoveReminderOffset(b.GetDB(), m.GuildID, cmd.Minutes)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to remove reminder offset")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}
	if !removed {
		utils.ReplyError(s, m.ChannelID, fmt.Sprintf("%d分前のリマインダーは登録されていません", cmd.Minutes))
		return
	}
	utils.React(s, m.ChannelID, m.ID, "✅")
}

func handleShowSetting(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	settings, err := database.GetGuildSettings(b.GetDB(), m.GuildID, b.GetConfig().DefaultTimezone)
	if err != nil {
		log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to load guild settings")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}

	reminders := "なし"
	if len(settings.ReminderOffsets) > 0 {
		parts := make([]string, len(settings.ReminderOffsets))
		for i, minutes := range settings.ReminderOffsets {
			parts[i] = fmt.Sprintf("%d分前", minutes)
		}
		reminders = strings.Join(parts, ", ")
	}

	utils.Reply(s, m.ChannelID, fmt.Sprintf(
		"⚙️ 設定\nタイムゾーン: %s\n権限を必要とする: %t\nランダム解散のリマインド: %t\nリマインダー: %s",
		settings.Timezone, settings.RequirePermission, settings.RemindRandom, reminders))
}
