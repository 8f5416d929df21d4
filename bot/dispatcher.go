package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kaisan-bot/model"
	"kaisan-bot/utils"
)

// discordErrTargetNotInVoice is Discord's error code for moving a member
// who is not connected to voice.
const discordErrTargetNotInVoice = 40032

// Dispatcher performs disbands and reminders through the Discord
// session. Implements scheduler.Dispatcher.
type Dispatcher struct {
	session    *discordgo.Session
	webhookURL string
}

func NewDispatcher(session *discordgo.Session, webhookURL string) *Dispatcher {
	return &Dispatcher{session: session, webhookURL: webhookURL}
}

// Disband disconnects the task's resolved targets from the voice
// channel. Targets that already left count as success, which keeps the
// engine's at-least-once redelivery harmless.
func (d *Dispatcher) Disband(ctx context.Context, task model.ScheduledTask) error {
	members, err := d.voiceChannelMembers(task.GuildID, task.VoiceChannelID)
	if err != nil {
		d.report("disband", task, err)
		return err
	}

	targets := resolveTargets(task, members)
	var failed int
	for _, userID := range targets {
		err := d.session.GuildMemberMove(task.GuildID, userID, nil, discordgo.WithContext(ctx))
		if err != nil && !isTargetGone(err) {
			log.Error().Err(err).Str("guild_id", task.GuildID).Str("user_id", userID).Msg("failed to disconnect member")
			failed++
			continue
		}
		log.Debug().Str("guild_id", task.GuildID).Str("user_id", userID).Msg("disconnected member")
	}
	if failed > 0 {
		err := fmt.Errorf("failed to disconnect %d of %d member(s)", failed, len(targets))
		d.report("disband", task, err)
		return err
	}

	if len(targets) > 0 {
		mentions := make([]string, len(targets))
		for i, id := range targets {
			mentions[i] = "<@" + id + ">"
		}
		text := fmt.Sprintf("%s を解散しました 👋", strings.Join(mentions, " "))
		if _, err := d.session.ChannelMessageSend(task.TextChannelID, text, discordgo.WithContext(ctx)); err != nil {
			// The disconnects went through; a lost farewell is not
			// worth a redelivery.
			log.Error().Err(err).Str("channel_id", task.TextChannelID).Msg("failed to send disband message")
		}
	}
	return nil
}

// Remind notifies the task's text channel that the disband is coming up.
func (d *Dispatcher) Remind(ctx context.Context, task model.ScheduledTask, offsetMinutes int) error {
	text := fmt.Sprintf("⏰ %s はあと%d分で解散です", targetText(task), offsetMinutes)
	if _, err := d.session.ChannelMessageSend(task.TextChannelID, text, discordgo.WithContext(ctx)); err != nil {
		d.report("remind", task, err)
		return err
	}
	return nil
}

// voiceChannelMembers lists the users currently connected to a voice
// channel, from the gateway state.
func (d *Dispatcher) voiceChannelMembers(guildID, channelID string) ([]string, error) {
	guild, err := d.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}
	var members []string
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			members = append(members, vs.UserID)
		}
	}
	return members, nil
}

// resolveTargets intersects the stored target with who is actually in
// the channel right now.
func resolveTargets(task model.ScheduledTask, members []string) []string {
	present := make(map[string]bool, len(members))
	for _, id := range members {
		present[id] = true
	}

	switch target := task.Target(); target.Kind {
	case model.TargetMe:
		if present[task.AuthorID] {
			return []string{task.AuthorID}
		}
		return nil
	case model.TargetUsers:
		var out []string
		for _, id := range target.UserIDs {
			if present[id] {
				out = append(out, id)
			}
		}
		return out
	default:
		return members
	}
}

func targetText(task model.ScheduledTask) string {
	switch target := task.Target(); target.Kind {
	case model.TargetMe:
		return "<@" + task.AuthorID + ">"
	case model.TargetUsers:
		mentions := make([]string, len(target.UserIDs))
		for i, id := range target.UserIDs {
			mentions[i] = "<@" + id + ">"
		}
		return strings.Join(mentions, " ")
	default:
		return "全員"
	}
}

func isTargetGone(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordErrTargetNotInVoice
	}
	return false
}

func (d *Dispatcher) report(operation string, task model.ScheduledTask, err error) {
	detail := fmt.Sprintf("task %s (guild %s): %v", task.ID, task.GuildID, err)
	if werr := utils.LogError(d.webhookURL, "dispatcher", operation, detail); werr != nil {
		log.Error().Err(werr).Msg("failed to report to webhook")
	}
}
