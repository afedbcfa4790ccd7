package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"teamsbot/internal/adapter"
	"teamsbot/internal/config"
	"teamsbot/internal/connector"
	"teamsbot/internal/domain"
	"teamsbot/internal/ingress"
	"teamsbot/internal/journal"
	"teamsbot/internal/notify"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "teamsbot",
		Short: "teamsbot: activity ingress and conversation routing for team chat",
		Long:  "teamsbot normalizes inbound platform activities, tracks conversation references and routes outbound replies over the platform's REST surface.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.teamsbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the activity ingress server",
		Long:  "Starts the HTTP ingress endpoint and the outbound dispatcher. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(logger)

	if cfg.Journal.Enabled {
		journ, err := journal.Open(cfg.Journal.DBPath, logger)
		if err != nil {
			return fmt.Errorf("delivery journal: %w", err)
		}
		defer journ.Close()
		hub.Subscribe("*", journ.Notify)
		logger.Info("delivery journal enabled", "path", cfg.Journal.DBPath)
	}

	client := connector.NewClient(connector.ClientConfig{
		Token:  connector.StaticToken(os.Getenv("TEAMSBOT_TOKEN")),
		Logger: logger,
	})

	dispatcher := adapter.NewDispatcher(adapter.DispatcherConfig{
		Connector:  client,
		Notifier:   hub,
		Logger:     logger,
		Bot:        domain.ChannelAccount{ID: cfg.Bot.AppID, Name: cfg.Bot.Name},
		ServiceURL: cfg.Bot.ServiceURL,
	})

	server := ingress.NewServer(ingress.ServerConfig{
		Host:            cfg.Ingress.Host,
		Port:            cfg.Ingress.Port,
		MessagesPath:    cfg.Ingress.MessagesPath,
		EnableWebSocket: cfg.Ingress.WebSocket,
		Normalizer: adapter.Normalizer{
			Name:          cfg.Bot.Name,
			Alias:         cfg.Bot.Alias,
			AliasDisabled: cfg.Bot.AliasDisabled,
		},
		Dispatcher: dispatcher,
		Connector:  client,
		Handler:    echoHandler,
		Logger:     logger,
	})

	logger.Info("teamsbot started", "version", version, "host", cfg.Ingress.Host, "port", cfg.Ingress.Port)
	return server.Start(ctx)
}

// echoHandler is the built-in turn handler for standalone runs: it replies
// with the normalized text it received. Embedders supply their own handler
// via ingress.ServerConfig.
func echoHandler(ctx context.Context, turn *ingress.Turn) error {
	if turn.Activity.Type != domain.ActivityMessage || turn.Activity.Text == "" {
		return nil
	}
	_, err := turn.Reply(ctx, turn.Activity.Text)
	return err
}

// newLogger builds the serve logger from config: level from general.logLevel,
// output to general.logFile when set.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.General.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			out = f
		} else {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		}
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and recent deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}
			logger.Info("bot", "name", cfg.Bot.Name, "appType", cfg.Bot.AppType)
			logger.Info("ingress", "host", cfg.Ingress.Host, "port", cfg.Ingress.Port, "path", cfg.Ingress.MessagesPath)

			if !cfg.Journal.Enabled {
				logger.Info("journal", "enabled", false)
				return nil
			}
			journ, err := journal.Open(cfg.Journal.DBPath, logger)
			if err != nil {
				return fmt.Errorf("delivery journal: %w", err)
			}
			defer journ.Close()
			entries, err := journ.Recent(cmd.Context(), 10)
			if err != nil {
				return err
			}
			logger.Info("journal", "enabled", true, "recent", len(entries))
			for _, e := range entries {
				logger.Info("delivery", "kind", e.Kind, "conversation", e.ConversationID, "results", e.ResultCount, "at", e.CreatedAt)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. bot.name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. ingress.port 3978)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
