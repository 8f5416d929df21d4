package utils

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Reply sends a plain message to a channel.
func Reply(s *discordgo.Session, channelID, message string) {
	if _, err := s.ChannelMessageSend(channelID, message); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to send reply")
	}
}

// ReplyError sends a rejection message.
func ReplyError(s *discordgo.Session, channelID, message string) {
	Reply(s, channelID, "❌ "+message)
}

// React adds a reaction to a message. Reaction failures are logged and
// otherwise ignored; they never fail the command.
func React(s *discordgo.Session, channelID, messageID, emoji string) {
	if err := s.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to add reaction")
	}
}
