// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/api"
	"github.com/jeranaias/aimednow/internal/config"
	"github.com/jeranaias/aimednow/internal/crypt"
	"github.com/jeranaias/aimednow/internal/kv"
	"github.com/jeranaias/aimednow/internal/logging"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/storage"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// =============================================================================
// APP
// =============================================================================

type globalFlags struct {
	configPath string
	ephemeral  bool
	logLevel   string
	verbose    bool
}

// App carries what every command shares: flags, config and logger.
// Sessions are opened per command because most commands need one only briefly.
type App struct {
	flags globalFlags
	cfg   *config.Config
	log   *zap.Logger
}

// setup loads the config and builds the logger. Runs before every command.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return &CommandError{Code: ExitConfigError, Err: err}
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	config.SetGlobal(cfg)
	a.cfg = cfg

	a.log = logging.Nop()
	dir, err := cfg.LogDir()
	if err == nil {
		var logger *zap.Logger
		logger, err = logging.NewLogger(logging.Options{
			Dir:     dir,
			Level:   cfg.Log.Level,
			Console: a.flags.verbose,
		})
		if err == nil {
			a.log = logger
		}
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
	}

	a.log.Debug("config loaded",
		zap.String("command", cmd.Name()),
		zap.String("endpoint", cfg.API.BaseURL),
		zap.String("storage", a.backendName()))
	return nil
}

func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if a.flags.configPath != "" {
		return config.LoadFromPath(a.flags.configPath)
	}
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		// Load fell back to defaults; keep going
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
	}
	return cfg, nil
}

func (a *App) backendName() string {
	if a.flags.ephemeral {
		return "memory"
	}
	return a.cfg.Storage.Backend
}

// =============================================================================
// SESSION BOOTSTRAP
// =============================================================================

// openSession wires store, sealer, client and session. The returned func
// cancels in-flight requests and closes the store.
func (a *App) openSession(ctx context.Context) (*session.Session, func(), error) {
	cfg := a.cfg

	opts := kv.Options{
		Backend:  a.backendName(),
		RedisURL: cfg.Storage.RedisURL,
		Prefix:   cfg.Storage.KeyPrefix,
	}
	if opts.Backend == "sqlite" {
		path, err := cfg.DBPath()
		if err != nil {
			return nil, nil, &CommandError{Code: ExitConfigError, Err: err}
		}
		opts.Path = path
	}

	store, err := kv.Open(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}

	var sealer *crypt.Sealer
	if cfg.Storage.EncryptAnswers {
		sealer, err = crypt.NewSealer(config.Passphrase())
		if err != nil {
			store.Close()
			return nil, nil, &CommandError{
				Code: ExitConfigError,
				Err:  fmt.Errorf("storage.encrypt_answers needs %sPASSPHRASE: %w", config.EnvPrefix, err),
			}
		}
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		QnAPath:    cfg.API.QnAPath,
		UploadPath: cfg.API.UploadPath,
		Timeout:    cfg.API.Timeout(),
	})

	sess, err := session.New(ctx, session.Options{
		Backend:      client,
		Store:        store,
		Sealer:       sealer,
		Logger:       a.log,
		DefaultTheme: a.defaultTheme(),
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	done := func() {
		sess.Close()
		if err := store.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
		_ = a.log.Sync()
	}
	return sess, done, nil
}

// defaultTheme resolves ui.theme; "auto" asks the terminal.
func (a *App) defaultTheme() storage.Theme {
	if a.cfg.UI.Theme == "auto" {
		if styles.DetectDark() {
			return storage.ThemeDark
		}
		return storage.ThemeLight
	}
	theme, _ := storage.ParseTheme(a.cfg.UI.Theme)
	return theme
}
