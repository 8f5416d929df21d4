package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Init opens the sqlite database and ensures all tables exist.
func Init(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT NOT NULL PRIMARY KEY,
		guild_id TEXT NOT NULL,
		voice_channel_id TEXT NOT NULL,
		text_channel_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		target_kind TEXT NOT NULL,
		target_ids TEXT NOT NULL DEFAULT '',
		fire_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		random INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS task_reminders (
		task_id TEXT NOT NULL,
		offset_minutes INTEGER NOT NULL,
		remind_at DATETIME NOT NULL,
		sent INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (task_id, offset_minutes)
	);
	CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id TEXT NOT NULL PRIMARY KEY,
		timezone TEXT NOT NULL,
		require_permission INTEGER NOT NULL DEFAULT 0,
		remind_random INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS guild_reminders (
		guild_id TEXT NOT NULL,
		offset_minutes INTEGER NOT NULL,
		PRIMARY KEY (guild_id, offset_minutes)
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_fire_at ON tasks (fire_at, created_at);
	CREATE INDEX IF NOT EXISTS idx_task_reminders_remind_at ON task_reminders (remind_at, sent);`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}
