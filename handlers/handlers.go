// Package handlers wires Discord gateway events to the parser, settings
// store, and scheduling engine.
package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kaisan-bot/bot"
	"kaisan-bot/model"
	"kaisan-bot/parser"
	"kaisan-bot/utils"
)

const genericErrorReply = "内部エラーが発生しました。しばらくしてからもう一度お試しください"

// Register attaches the message-command handler to the session.
func Register(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handleMessage(b, s, m)
	})
}

func handleMessage(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	text, ok := extractCommand(m.Content, s.State.User.ID, b.GetConfig().CommandPrefix)
	if !ok {
		return
	}
	log.Debug().Str("guild_id", m.GuildID).Str("author_id", m.Author.ID).Str("text", text).Msg("handling command")

	cmd, err := parser.Parse(text)
	if err != nil {
		// Parse rejections go back to the user verbatim; nothing was
		// applied.
		utils.React(s, m.ChannelID, m.ID, "❌")
		utils.ReplyError(s, m.ChannelID, err.Error())
		return
	}

	switch cmd.Kind {
	case model.CommandHelp:
		handleHelp(s, m)
	case model.CommandShowSetting:
		handleShowSetting(b, s, m)
	case model.CommandTimezone:
		handleTimezone(b, s, m, cmd)
	case model.CommandRequirePermission:
		handleRequirePermission(b, s, m, cmd)
	case model.CommandAddReminder:
		handleAddReminder(b, s, m, cmd)
	case model.CommandRemoveReminder:
		handleRemoveReminder(b, s, m, cmd)
	case model.CommandRemindRandom:
		handleRemindRandom(b, s, m, cmd)
	case model.CommandCancel:
		handleCancel(b, s, m, cmd)
	case model.CommandStatus:
		handleStatus(b, s, m)
	case model.CommandKaisan:
		handleKaisan(b, s, m, cmd)
	}
}

// extractCommand strips the trigger surface: a leading or trailing bot
// mention, or the command prefix.
func extractCommand(content, botID, prefix string) (string, bool) {
	for _, mention := range []string{"<@!" + botID + ">", "<@" + botID + ">"} {
		if rest, ok := strings.CutPrefix(content, mention); ok {
			return strings.TrimSpace(rest), true
		}
		if rest, ok := strings.CutSuffix(content, mention); ok {
			return strings.TrimSpace(rest), true
		}
	}
	if rest, ok := strings.CutPrefix(content, prefix); ok {
		// The prefix must end the message or be followed by a space, so
		// an unrelated word that merely starts with it is not a trigger.
		r, _ := utf8.DecodeRuneInString(rest)
		if rest == "" || r == ' ' || r == '　' {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
