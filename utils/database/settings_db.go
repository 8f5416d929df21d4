package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"kaisan-bot/model"
)

// GetGuildSettings loads a guild's settings, falling back to defaults
// when the guild has never configured anything. Absence is not an error.
func GetGuildSettings(db *sqlx.DB, guildID, defaultTimezone string) (model.GuildSettings, error) {
	settings := model.DefaultGuildSettings(guildID, defaultTimezone)
	err := db.Get(&settings, "SELECT guild_id, timezone, require_permission, remind_random FROM guild_settings WHERE guild_id = ?", guildID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.GuildSettings{}, fmt.Errorf("failed to get settings for guild %s: %w", guildID, err)
	}

	if err := db.Select(&settings.ReminderOffsets,
		"SELECT offset_minutes FROM guild_reminders WHERE guild_id = ? ORDER BY offset_minutes", guildID); err != nil {
		return model.GuildSettings{}, fmt.Errorf("failed to get reminder offsets for guild %s: %w", guildID, err)
	}
	return settings, nil
}

// ensureGuildRow creates the settings row with defaults so the column
// upserts below always have a row to land on.
func ensureGuildRow(db *sqlx.DB, guildID, defaultTimezone string) error {
	_, err := db.Exec(`INSERT INTO guild_settings (guild_id, timezone, require_permission, remind_random)
	                   VALUES (?, ?, 0, 1) ON CONFLICT(guild_id) DO NOTHING`, guildID, defaultTimezone)
	if err != nil {
		return fmt.Errorf("failed to ensure settings row for guild %s: %w", guildID, err)
	}
	return nil
}

// SetTimezone durably updates a guild's timezone.
func SetTimezone(db *sqlx.DB, guildID, defaultTimezone, timezone string) error {
	if err := ensureGuildRow(db, guildID, defaultTimezone); err != nil {
		return err
	}
	if _, err := db.Exec("UPDATE guild_settings SET timezone = ? WHERE guild_id = ?", timezone, guildID); err != nil {
		return fmt.Errorf("failed to set timezone for guild %s: %w", guildID, err)
	}
	return nil
}

// SetRequirePermission durably updates the permission requirement flag.
func SetRequirePermission(db *sqlx.DB, guildID, defaultTimezone string, required bool) error {
	if err := ensureGuildRow(db, guildID, defaultTimezone); err != nil {
		return err
	}
	if _, err := db.Exec("UPDATE guild_settings SET require_permission = ? WHERE guild_id = ?", required, guildID); err != nil {
		return fmt.Errorf("failed to set require_permission for guild %s: %w", guildID, err)
	}
	return nil
}

// SetRemindRandom durably updates the randomized-reminder policy.
func SetRemindRandom(db *sqlx.DB, guildID, defaultTimezone string, remind bool) error {
	if err := ensureGuildRow(db, guildID, defaultTimezone); err != nil {
		return err
	}
	if _, err := db.Exec("UPDATE guild_settings SET remind_random = ? WHERE guild_id = ?", remind, guildID); err != nil {
		return fmt.Errorf("failed to set remind_random for guild %s: %w", guildID, err)
	}
	return nil
}

// AddReminderOffset registers a reminder offset and reports whether it
// was newly added. Adding an existing offset is a no-op.
func AddReminderOffset(db *sqlx.DB, guildID string, minutes int) (bool, error) {
	res, err := db.Exec(`INSERT INTO guild_reminders (guild_id, offset_minutes) VALUES (?, ?)
	                     ON CONFLICT(guild_id, offset_minutes) DO NOTHING`, guildID, minutes)
	if err != nil {
		return false, fmt.Errorf("failed to add reminder offset for guild %s: %w", guildID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveReminderOffset removes a reminder offset and reports whether it
// was present.
func RemoveReminderOffset(db *sqlx.DB, guildID string, minutes int) (bool, error) {
	res, err := db.Exec("DELETE FROM guild_reminders WHERE guild_id = ? AND offset_minutes = ?", guildID, minutes)
	if err != nil {
		return false, fmt.Errorf("failed to remove reminder offset for guild %s: %w", guildID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n > 0, nil
}
