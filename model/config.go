package model

import "time"

// Config is the process configuration loaded at startup.
type Config struct {
	BotToken        string
	DBPath          string
	DefaultTimezone string
	CommandPrefix   string
	PollInterval    time.Duration
	DispatchTimeout time.Duration
	LogLevel        string
	LogWebhookURL   string
}
