// Package schedule converts a parsed kaisan command plus guild settings
// into the concrete fire instant and reminder instants that get persisted.
package schedule

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"kaisan-bot/model"
)

// Resolved is the concrete schedule for one kaisan request. FireAt is
// fixed here, once; randomized ranges are never re-rolled later.
type Resolved struct {
	FireAt    time.Time
	Random    bool
	Bound     time.Time // upper bound of a randomized range; zero otherwise
	Reminders []model.TaskReminder
}

// PastTimeError reports a resolved fire instant that is not in the future.
type PastTimeError struct {
	Specified time.Time
	Now       time.Time
}

func (e *PastTimeError) Error() string {
	return fmt.Sprintf("specified time %s is not after %s", e.Specified.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}

// BadTimezoneError reports an unloadable guild timezone setting.
type BadTimezoneError struct {
	Name string
	Err  error
}

func (e *BadTimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q: %v", e.Name, e.Err)
}

func (e *BadTimezoneError) Unwrap() error { return e.Err }

// Resolve computes the fire instant and reminder instants for cmd.
// Wall-clock expressions resolve in the guild timezone; times already
// past today roll to the next occurrence. For by/within ranges one
// instant is drawn uniformly from [now, bound] using rng and fixed for
// the task's lifetime. rng need not be cryptographic; the jitter is a
// usability feature, not a security boundary.
func Resolve(cmd model.Command, settings model.GuildSettings, now time.Time, rng *rand.Rand) (Resolved, error) {
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return Resolved{}, &BadTimezoneError{Name: settings.Timezone, Err: err}
	}
	now = now.UTC()

	fireAt := resolveSpec(cmd.Time.Spec, now, loc)
	var bound time.Time
	if cmd.Time.By {
		if !fireAt.After(now) {
			return Resolved{}, &PastTimeError{Specified: fireAt, Now: now}
		}
		bound = fireAt
		window := int64(bound.Sub(now) / time.Second)
		fireAt = now.Add(time.Duration(rng.Int63n(window+1)) * time.Second)
	} else if cmd.Time.Spec.Kind != model.SpecNow && !fireAt.After(now) {
		return Resolved{}, &PastTimeError{Specified: fireAt, Now: now}
	}

	resolved := Resolved{
		FireAt: fireAt,
		Random: cmd.Time.By,
		Bound:  bound,
	}

	offsets := settings.ReminderOffsets
	if cmd.RemindOverride != nil {
		offsets = cmd.RemindOverride
	}
	// Reminder lead time is meaningless against an unpredictable fire
	// time, so randomized schedules carry no reminders unless the guild
	// opted in.
	if resolved.Random && !settings.RemindRandom {
		offsets = nil
	}
	for _, minutes := range offsets {
		at := fireAt.Add(-time.Duration(minutes) * time.Minute)
		if !at.After(now) {
			continue
		}
		resolved.Reminders = append(resolved.Reminders, model.TaskReminder{
			OffsetMinutes: minutes,
			RemindAt:      at,
		})
	}
	sort.Slice(resolved.Reminders, func(i, j int) bool {
		return resolved.Reminders[i].RemindAt.Before(resolved.Reminders[j].RemindAt)
	})

	return resolved, nil
}

// resolveSpec turns one time expression into a UTC instant.
func resolveSpec(spec model.TimeSpec, now time.Time, loc *time.Location) time.Time {
	switch spec.Kind {
	case model.SpecAfter:
		return now.Add(spec.After.Duration())
	case model.SpecExact:
		return spec.Exact.UTC()
	case model.SpecAt:
		return resolveAt(spec.At, now, loc)
	default: // SpecNow
		return now
	}
}

func resolveAt(at model.AtSpec, now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	hour := local.Hour()
	minute := 0
	if at.HasHour {
		hour = at.Hour
	}
	if at.HasMinute {
		minute = at.Minute
	}

	t := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if at.Tomorrow {
		t = t.AddDate(0, 0, 1)
	} else if !t.After(now) {
		// Roll a dateless wall-clock time forward to its next
		// occurrence: minute-only to the next hour, otherwise to
		// tomorrow.
		if !at.HasHour {
			t = t.Add(time.Hour)
		} else {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t.UTC()
}
