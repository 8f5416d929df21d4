package model

// GuildSettings is the per-guild configuration read on every scheduling
// request. Rows are created lazily; absent guilds get the defaults.
type GuildSettings struct {
	GuildID           string `db:"guild_id"`
	Timezone          string `db:"timezone"`
	RequirePermission bool   `db:"require_permission"`
	RemindRandom      bool   `db:"remind_random"`

	// ReminderOffsets are minute counts before the fire time, ascending.
	// Loaded from a separate table, not a column.
	ReminderOffsets []int `db:"-"`
}

// DefaultGuildSettings returns the settings used before a guild has
// configured anything.
func DefaultGuildSettings(guildID, timezone string) GuildSettings {
	return GuildSettings{
		GuildID:      guildID,
		Timezone:     timezone,
		RemindRandom: true,
	}
}
