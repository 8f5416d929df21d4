package handlers

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kaisan-bot/bot"
	"kaisan-bot/model"
	"kaisan-bot/scheduler"
	"kaisan-bot/utils"
)

const cancelNotFoundReply = "タスクが見つかりません（既に実行またはキャンセル済みです）"

func handleCancel(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, cmd model.Command) {
	engine := b.GetEngine()

	task, err := engine.Task(cmd.TaskID)
	if errors.Is(err, scheduler.ErrNotFound) {
		utils.ReplyError(s, m.ChannelID, cancelNotFoundReply)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("task_id", cmd.TaskID).Msg("failed to load task for cancel")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
		return
	}

	hasManageGuild := false
	if task.GuildID == m.GuildID && task.AuthorID != m.Author.ID {
		hasManageGuild, err = utils.HasPermission(s, m.ChannelID, m.Author.ID, discordgo.PermissionManageServer)
		if err != nil {
			log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to check permissions")
			utils.ReplyError(s, m.ChannelID, genericErrorReply)
			return
		}
	}

	switch err := cancelAuth(task, m.GuildID, m.Author.ID, hasManageGuild); {
	case errors.Is(err, scheduler.ErrNotFound):
		utils.ReplyError(s, m.ChannelID, cancelNotFoundReply)
		return
	case errors.Is(err, scheduler.ErrForbidden):
		utils.ReplyError(s, m.ChannelID, "他のメンバーが予約した解散はキャンセルできません")
		return
	}

	switch err := engine.Cancel(cmd.TaskID); {
	case errors.Is(err, scheduler.ErrNotFound):
		// Raced with the firing pass; the task is gone either way.
		utils.ReplyError(s, m.ChannelID, cancelNotFoundReply)
	case err != nil:
		log.Error().Err(err).Str("task_id", cmd.TaskID).Msg("failed to cancel task")
		utils.ReplyError(s, m.ChannelID, genericErrorReply)
	default:
		utils.React(s, m.ChannelID, m.ID, "✅")
	}
}

// cancelAuth decides whether the caller may cancel the task: the author
// always may, anyone else needs manage-server. Task ids are global, so
// tasks of other guilds read as absent rather than leak their existence.
func cancelAuth(task model.ScheduledTask, guildID, authorID string, hasManageGuild bool) error {
	if task.GuildID != guildID {
		return scheduler.ErrNotFound
	}
	if task.AuthorID == authorID || hasManageGuild {
		return nil
	}
	return scheduler.ErrForbidden
}
