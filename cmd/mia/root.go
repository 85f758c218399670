package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/ElevenAndOne/mia"
	bt "github.com/ElevenAndOne/mia/bubbletea"
	"github.com/ElevenAndOne/mia/conversation"
	miajson "github.com/ElevenAndOne/mia/json"
	"github.com/ElevenAndOne/mia/sse"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// config carries everything the command needs. Env fills defaults; flags
// bound to the same fields override them.
type config struct {
	APIURL        string        `env:"MIA_API_URL" envDefault:"http://localhost:8080"`
	SessionID     string        `env:"MIA_SESSION_ID"`
	Transcript    string        `env:"MIA_TRANSCRIPT"`
	LogFile       string        `env:"MIA_LOG_FILE"`
	StreamTimeout time.Duration `env:"MIA_STREAM_TIMEOUT" envDefault:"30s"`
	Days          int           `env:"MIA_REPORT_DAYS" envDefault:"30"`
}

func newRootCmd() *cobra.Command {
	var cfg config
	// Parse failures surface on execution so --help still works.
	parseErr := env.Parse(&cfg)

	cmd := &cobra.Command{
		Use:          "mia",
		Short:        "Guided marketing-insights chat",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if parseErr != nil {
				return fmt.Errorf("parse environment: %w", parseErr)
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Backend base URL")
	cmd.Flags().StringVar(&cfg.SessionID, "session", cfg.SessionID, "Session identifier (generated if empty)")
	cmd.Flags().StringVar(&cfg.Transcript, "transcript", cfg.Transcript, "Transcript file to resume and persist")
	cmd.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Debug log destination")
	cmd.Flags().DurationVar(&cfg.StreamTimeout, "stream-timeout", cfg.StreamTimeout, "Per-stream wall-clock timeout")
	cmd.Flags().IntVar(&cfg.Days, "days", cfg.Days, "Report period in days, ending today")

	return cmd
}

func run(parent context.Context, cfg config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	conv, err := loadOrCreateConversation(cfg.Transcript, cfg.SessionID)
	if err != nil {
		return err
	}

	client := sse.New(cfg.APIURL)
	to := time.Now()
	from := to.AddDate(0, 0, -cfg.Days)

	updates, notify := bt.UpdateChannel()
	machine, err := conversation.New(conversation.Config{
		Source:        client,
		Facts:         client,
		Linker:        sse.NewLinkFlow(client),
		SessionID:     cfg.SessionID,
		From:          from,
		To:            to,
		Conversation:  conv,
		StreamTimeout: cfg.StreamTimeout,
		Logger:        logger,
		OnUpdate:      notify,
	})
	if err != nil {
		return err
	}

	machine.Start()
	uiErr := bt.Run(ctx, bt.New(machine, updates, mia.DefaultTheme()))
	machine.Stop()

	if cfg.Transcript != "" {
		if err := miajson.Save(cfg.Transcript, *machine.Conversation()); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
	}
	return uiErr
}

func newLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := log.New(f)
	logger.SetLevel(log.DebugLevel)
	return logger, func() { f.Close() }, nil
}

func loadOrCreateConversation(path, sessionID string) (*mia.Conversation, error) {
	if path == "" {
		return mia.NewConversation(sessionID), nil
	}
	conv, err := miajson.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mia.NewConversation(sessionID), nil
		}
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return &conv, nil
}
