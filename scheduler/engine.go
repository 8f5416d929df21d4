// Package scheduler owns the durable set of pending disband tasks and
// the poll loop that fires them. The store is the only source of truth:
// the engine keeps no in-memory schedule, which is what makes restart
// durability work.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"kaisan-bot/model"
	"kaisan-bot/utils/database"
)

var (
	// ErrNotFound is returned by Cancel when the task already fired or
	// was already canceled.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden is returned by callers that gate Cancel on the chat
	// client's permission check.
	ErrForbidden = errors.New("not allowed to cancel this task")
)

const (
	defaultPollInterval    = 10 * time.Second
	defaultDispatchTimeout = 15 * time.Second
)

// Engine drives the timer loop over persisted tasks and reminders.
type Engine struct {
	db              *sqlx.DB
	dispatcher      Dispatcher
	pollInterval    time.Duration
	dispatchTimeout time.Duration
	now             func() time.Time
}

// New creates an engine over the given store and dispatcher. Zero
// intervals fall back to defaults.
func New(db *sqlx.DB, dispatcher Dispatcher, pollInterval, dispatchTimeout time.Duration) *Engine {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if dispatchTimeout <= 0 {
		dispatchTimeout = defaultDispatchTimeout
	}
	return &Engine{
		db:              db,
		dispatcher:      dispatcher,
		pollInterval:    pollInterval,
		dispatchTimeout: dispatchTimeout,
		now:             time.Now,
	}
}

// Schedule persists a task and its reminders and returns the task id.
// Safe for concurrent use; tasks never share rows.
func (e *Engine) Schedule(task model.ScheduledTask, reminders []model.TaskReminder) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.FireAt = task.FireAt.UTC()
	task.CreatedAt = e.now().UTC()
	for i := range reminders {
		reminders[i].TaskID = task.ID
		reminders[i].RemindAt = reminders[i].RemindAt.UTC()
	}
	if err := database.InsertTask(e.db, task, reminders); err != nil {
		return "", err
	}
	log.Info().
		Str("task_id", task.ID).
		Str("guild_id", task.GuildID).
		Time("fire_at", task.FireAt).
		Bool("random", task.Random).
		Int("reminders", len(reminders)).
		Msg("scheduled kaisan")
	return task.ID, nil
}

// Task loads a pending task, for cancel authorization.
func (e *Engine) Task(taskID string) (model.ScheduledTask, error) {
	task, err := database.GetTask(e.db, taskID)
	if errors.Is(err, database.ErrTaskNotFound) {
		return model.ScheduledTask{}, ErrNotFound
	}
	return task, err
}

// Cancel removes a pending task. Racing against the firing pass is
// fine: the loser sees ErrNotFound, never a duplicate fire.
func (e *Engine) Cancel(taskID string) error {
	err := database.DeleteTask(e.db, taskID)
	if errors.Is(err, database.ErrTaskNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	log.Info().Str("task_id", taskID).Msg("canceled kaisan")
	return nil
}

// Run drives sweeps until done is closed. One sweep runs immediately so
// tasks that came due while the process was down fire promptly after a
// restart.
func (e *Engine) Run(done <-chan struct{}) {
	log.Info().Dur("poll_interval", e.pollInterval).Msg("scheduler started")
	e.sweep()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.sweep()
		case <-done:
			log.Info().Msg("scheduler stopped")
			return
		}
	}
}

// sweep processes every due reminder and task once. Store errors are
// retried on the next cycle; one item's failure never blocks the rest.
func (e *Engine) sweep() {
	now := e.now().UTC()

	reminders, err := database.GetDueReminders(e.db, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to scan due reminders")
	}
	for _, r := range reminders {
		e.fireReminder(r)
	}

	tasks, err := database.GetDueTasks(e.db, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to scan due tasks")
		return
	}
	for _, task := range tasks {
		e.fireTask(task)
	}
}

func (e *Engine) fireReminder(r model.TaskReminder) {
	task, err := database.GetTask(e.db, r.TaskID)
	if errors.Is(err, database.ErrTaskNotFound) {
		return // task canceled between scans
	}
	if err != nil {
		log.Error().Err(err).Str("task_id", r.TaskID).Msg("failed to load task for reminder")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.dispatchTimeout)
	err = e.dispatcher.Remind(ctx, task, r.OffsetMinutes)
	cancel()
	if err != nil {
		// Not marked sent; the next cycle is the retry boundary.
		log.Error().Err(err).Str("task_id", r.TaskID).Int("offset", r.OffsetMinutes).Msg("failed to send reminder")
		return
	}

	if _, err := database.MarkReminderSent(e.db, r.TaskID, r.OffsetMinutes); err != nil {
		log.Error().Err(err).Str("task_id", r.TaskID).Int("offset", r.OffsetMinutes).Msg("failed to mark reminder sent")
	}
}

func (e *Engine) fireTask(task model.ScheduledTask) {
	// The due snapshot goes stale while earlier items dispatch; a cancel
	// that landed in the meantime must win, so re-check the row first.
	if _, err := database.GetTask(e.db, task.ID); err != nil {
		if !errors.Is(err, database.ErrTaskNotFound) {
			log.Error().Err(err).Str("task_id", task.ID).Msg("failed to reload task before disband")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.dispatchTimeout)
	err := e.dispatcher.Disband(ctx, task)
	cancel()
	if err != nil {
		// Task row stays; it fires again next cycle.
		log.Error().Err(err).Str("task_id", task.ID).Msg("failed to disband, will retry")
		return
	}

	err = database.DeleteTask(e.db, task.ID)
	switch {
	case errors.Is(err, database.ErrTaskNotFound):
		// Lost a race with Cancel after the disband went out; nothing
		// left to do.
	case err != nil:
		log.Error().Err(err).Str("task_id", task.ID).Msg("failed to delete fired task")
	default:
		log.Info().Str("task_id", task.ID).Str("guild_id", task.GuildID).Msg("kaisan fired")
	}
}
