package model

import (
	"strings"
	"time"
)

// ScheduledTask is a persisted disband action. FireAt is fixed when the
// task is created; randomized ranges are drawn once at resolution time.
type ScheduledTask struct {
	ID             string    `db:"id"`
	GuildID        string    `db:"guild_id"`
	VoiceChannelID string    `db:"voice_channel_id"`
	TextChannelID  string    `db:"text_channel_id"`
	AuthorID       string    `db:"author_id"`
	TargetKind     string    `db:"target_kind"`
	TargetIDs      string    `db:"target_ids"` // comma-joined user ids
	FireAt         time.Time `db:"fire_at"`
	CreatedAt      time.Time `db:"created_at"`
	Random         bool      `db:"random"`
}

// Target reconstructs the typed target from the persisted columns.
func (t ScheduledTask) Target() Target {
	target := Target{Kind: TargetKind(t.TargetKind)}
	if t.TargetIDs != "" {
		target.UserIDs = strings.Split(t.TargetIDs, ",")
	}
	return target
}

// SetTarget stores a typed target into the persisted columns.
func (t *ScheduledTask) SetTarget(target Target) {
	t.TargetKind = string(target.Kind)
	t.TargetIDs = strings.Join(target.UserIDs, ",")
}

// TaskReminder is one reminder notification derived from a task. Sent is
// flipped when the notification goes out so restarts do not repeat it.
type TaskReminder struct {
	TaskID        string    `db:"task_id"`
	OffsetMinutes int       `db:"offset_minutes"`
	RemindAt      time.Time `db:"remind_at"`
	Sent          bool      `db:"sent"`
}
