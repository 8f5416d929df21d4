package bot

import (
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"

	"kaisan-bot/model"
	"kaisan-bot/scheduler"
)

// Bot ties the Discord session, the database, and the scheduling engine
// together.
type Bot struct {
	Session   *discordgo.Session
	DB        *sqlx.DB
	engine    *scheduler.Engine
	config    atomic.Value // *model.Config
	startedAt time.Time
	done      chan struct{}
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	// Voice states are required to know who to disconnect.
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuildVoiceStates

	b := &Bot{
		Session:   dg,
		DB:        db,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	b.config.Store(cfg)
	b.engine = scheduler.New(db, NewDispatcher(dg, cfg.LogWebhookURL), cfg.PollInterval, cfg.DispatchTimeout)
	return b, nil
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func (b *Bot) GetDB() *sqlx.DB {
	return b.DB
}

func (b *Bot) GetEngine() *scheduler.Engine {
	return b.engine
}

func (b *Bot) StartedAt() time.Time {
	return b.startedAt
}
