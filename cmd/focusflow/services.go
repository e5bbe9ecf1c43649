package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/notify"
	"github.com/nhle/focusflow/internal/store"
	"github.com/nhle/focusflow/internal/tasks"
)

// services bundles the store and the services built on it.
type services struct {
	store *store.SQLiteStore
	nats  *notify.NATSNotifier
	auth  *auth.Service
	tasks *tasks.Service
}

// openServices opens the database and wires auth, tasks and the
// notifiers from cfg.
func openServices(cfg *model.AppConfig, logger *slog.Logger) (*services, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	svc := &services{store: s}

	notifiers := notify.Multi{notify.NewStoreNotifier(s)}
	if cfg.Events.NATSURL != "" {
		n, err := notify.DialNATS(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			// Events are best effort; the inbox still works.
			logger.Warn("NATS unavailable, events disabled", "url", cfg.Events.NATSURL, "error", err)
		} else {
			svc.nats = n
			notifiers = append(notifiers, n)
		}
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	if err != nil {
		s.Close()
		return nil, err
	}

	mailer := auth.NewOutboxMailer(cfg.Auth.OutboxDir, "FocusFlow <no-reply@focusflow.local>")
	svc.auth = auth.NewService(s, mailer, tokens, cfg.Auth, logger)
	svc.tasks = tasks.NewService(s, notifiers, logger)
	return svc, nil
}

// Close releases the NATS connection and the database.
func (s *services) Close() error {
	var errs []error
	if s.nats != nil {
		errs = append(errs, s.nats.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

// loadConfig reads the config file and makes sure it carries a signing
// secret, so saved sessions stay valid across runs.
func loadConfig(path string) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret != "" {
		return cfg, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	cfg.Auth.JWTSecret = hex.EncodeToString(buf)
	if err := model.SaveConfig(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
