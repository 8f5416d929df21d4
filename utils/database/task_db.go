package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"kaisan-bot/model"
)

// ErrTaskNotFound is returned when a task id has already fired, been
// canceled, or never existed.
var ErrTaskNotFound = errors.New("task not found")

// InsertTask persists a task and its derived reminders in one
// transaction.
func InsertTask(db *sqlx.DB, task model.ScheduledTask, reminders []model.TaskReminder) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `INSERT INTO tasks (id, guild_id, voice_channel_id, text_channel_id, author_id, target_kind, target_ids, fire_at, created_at, random)
	          VALUES (:id, :guild_id, :voice_channel_id, :text_channel_id, :author_id, :target_kind, :target_ids, :fire_at, :created_at, :random)`
	if _, err := tx.NamedExec(query, task); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert task: %w", err)
	}

	for _, r := range reminders {
		r.TaskID = task.ID
		_, err := tx.NamedExec(`INSERT INTO task_reminders (task_id, offset_minutes, remind_at, sent)
		                        VALUES (:task_id, :offset_minutes, :remind_at, 0)`, r)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert reminder: %w", err)
		}
	}

	return tx.Commit()
}

// GetTask retrieves a single task by id.
func GetTask(db *sqlx.DB, taskID string) (model.ScheduledTask, error) {
	var task model.ScheduledTask
	err := db.Get(&task, "SELECT * FROM tasks WHERE id = ?", taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledTask{}, ErrTaskNotFound
	}
	if err != nil {
		return model.ScheduledTask{}, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return task, nil
}

// GetDueTasks retrieves tasks whose fire time has arrived, oldest
// creation first so same-instant tasks fire in a stable order.
func GetDueTasks(db *sqlx.DB, now time.Time) ([]model.ScheduledTask, error) {
	var tasks []model.ScheduledTask
	query := "SELECT * FROM tasks WHERE fire_at <= ? ORDER BY fire_at, created_at"
	if err := db.Select(&tasks, query, now); err != nil {
		return nil, fmt.Errorf("failed to get due tasks: %w", err)
	}
	return tasks, nil
}

// GetDueReminders retrieves unsent reminders whose time has arrived but
// whose task is not itself due yet; a due task makes its reminders moot.
func GetDueReminders(db *sqlx.DB, now time.Time) ([]model.TaskReminder, error) {
	var reminders []model.TaskReminder
	query := `SELECT r.* FROM task_reminders r
	          JOIN tasks t ON t.id = r.task_id
	          WHERE r.sent = 0 AND r.remind_at <= ? AND t.fire_at > ?
	          ORDER BY r.remind_at`
	if err := db.Select(&reminders, query, now, now); err != nil {
		return nil, fmt.Errorf("failed to get due reminders: %w", err)
	}
	return reminders, nil
}

// MarkReminderSent flips the sent flag for one reminder. It reports
// whether this call did the flip, so a lost race is detectable.
func MarkReminderSent(db *sqlx.DB, taskID string, offsetMinutes int) (bool, error) {
	res, err := db.Exec("UPDATE task_reminders SET sent = 1 WHERE task_id = ? AND offset_minutes = ? AND sent = 0",
		taskID, offsetMinutes)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteTask removes a task and its reminders. Deleting the task row is
// the commit point for a firing; ErrTaskNotFound means someone else got
// there first.
func DeleteTask(db *sqlx.DB, taskID string) error {
	res, err := db.Exec("DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for task %s: %w", taskID, err)
	}
	if _, err := db.Exec("DELETE FROM task_reminders WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("failed to delete reminders for task %s: %w", taskID, err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CountPendingTasks returns the number of pending tasks in a guild, or
// in all guilds when guildID is empty.
func CountPendingTasks(db *sqlx.DB, guildID string) (int, error) {
	var count int
	var err error
	if guildID == "" {
		err = db.Get(&count, "SELECT COUNT(*) FROM tasks")
	} else {
		err = db.Get(&count, "SELECT COUNT(*) FROM tasks WHERE guild_id = ?", guildID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	return count, nil
}
