package model

import "time"

// CommandKind enumerates the commands understood by the bot.
type CommandKind int

const (
	CommandKaisan CommandKind = iota
	CommandHelp
	CommandShowSetting
	CommandTimezone
	CommandRequirePermission
	CommandAddReminder
	CommandRemoveReminder
	CommandRemindRandom
	CommandCancel
	CommandStatus
)

// TargetKind selects who gets disconnected.
type TargetKind string

const (
	TargetMe    TargetKind = "me"
	TargetAll   TargetKind = "all"
	TargetUsers TargetKind = "users"
)

// Target is the set of members a kaisan applies to.
type Target struct {
	Kind    TargetKind
	UserIDs []string // populated only for TargetUsers
}

// MayIncludeOthers reports whether the target can reach members other
// than the author.
func (t Target) MayIncludeOthers(authorID string) bool {
	switch t.Kind {
	case TargetMe:
		return false
	case TargetUsers:
		return len(t.UserIDs) != 1 || t.UserIDs[0] != authorID
	default:
		return true
	}
}

// SpecKind tags the time expression variants produced by the parser.
type SpecKind int

const (
	SpecNow SpecKind = iota
	SpecAfter
	SpecAt
	SpecExact
)

// AfterSpec is a relative duration expression ("after 1h30m").
type AfterSpec struct {
	Hours   int
	Minutes int
	Seconds int
}

// Duration converts the expression into a time.Duration.
func (a AfterSpec) Duration() time.Duration {
	return time.Duration(a.Hours)*time.Hour +
		time.Duration(a.Minutes)*time.Minute +
		time.Duration(a.Seconds)*time.Second
}

// AtSpec is a wall-clock expression ("at 18:00", "10時半"). Either both
// fields, only the hour, or only the minute may be present.
type AtSpec struct {
	Hour      int
	Minute    int
	HasHour   bool
	HasMinute bool
	Tomorrow  bool
}

// TimeSpec is one concrete time expression.
type TimeSpec struct {
	Kind  SpecKind
	After AfterSpec
	At    AtSpec
	Exact time.Time // SpecExact only
}

// TimeRange wraps a TimeSpec with the by/within marker. By means the fire
// time is drawn at random between now and the given instant instead of
// landing exactly on it.
type TimeRange struct {
	Spec TimeSpec
	By   bool
}

// Command is the parsed form of one user message.
type Command struct {
	Kind CommandKind

	// CommandKaisan
	Target         Target
	Time           TimeRange
	RemindOverride []int // minute offsets; nil means use guild settings

	// Settings commands
	Timezone string
	Flag     bool
	Minutes  int

	// CommandCancel
	TaskID string
}
