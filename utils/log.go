package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook observability channel: engine and dispatcher failures are
// mirrored to a Discord webhook so operators see them without shell
// access. An empty webhook URL disables the channel.

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

type discordEmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type discordEmbed struct {
	Title  string              `json:"title"`
	Color  int                 `json:"color"`
	Fields []discordEmbedField `json:"fields"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func embedColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

func sendLog(webhookURL string, level LogLevel, component, operation, detail string) error {
	if webhookURL == "" {
		return nil
	}

	payload := discordWebhookPayload{
		Embeds: []discordEmbed{{
			Title: string(level) + " Log",
			Color: embedColor(level),
			Fields: []discordEmbedField{
				{Name: "Component", Value: component},
				{Name: "Operation", Value: operation},
				{Name: "Detail", Value: detail},
			},
		}},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send log to discord, status: %s, body: %s", resp.Status, string(body))
	}
	return nil
}

func LogInfo(webhookURL, component, operation, detail string) error {
	return sendLog(webhookURL, Info, component, operation, detail)
}

func LogWarn(webhookURL, component, operation, detail string) error {
	return sendLog(webhookURL, Warn, component, operation, detail)
}

func LogError(webhookURL, component, operation, detail string) error {
	return sendLog(webhookURL, Error, component, operation, detail)
}
