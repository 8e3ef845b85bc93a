package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keepmind9/villabot/api"
	"github.com/keepmind9/villabot/bot"
	"github.com/keepmind9/villabot/internal/config"
	"github.com/keepmind9/villabot/internal/logger"
	"github.com/keepmind9/villabot/internal/rules"
)

var (
	configFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long:  "Load the configuration, register every bot and serve their webhook callback routes",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			if err := logger.Init(logger.Config{
				Level:        cfg.Logging.Level,
				File:         cfg.Logging.File,
				MaxSize:      cfg.Logging.MaxSize,
				MaxBackups:   cfg.Logging.MaxBackups,
				MaxAge:       cfg.Logging.MaxAge,
				Compress:     cfg.Logging.Compress,
				EnableStdout: cfg.Logging.EnableStdout,
			}); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   cfg.Logging.Level,
				"bots":        len(cfg.Bots),
			}).Info("villabot-starting")

			registry := bot.NewRegistry()
			for _, botCfg := range cfg.Bots {
				if err := registerBot(registry, cfg, botCfg); err != nil {
					log.Fatalf("Failed to register bot %s: %v", botCfg.BotID, err)
				}
				logger.WithFields(logrus.Fields{
					"bot_id": botCfg.BotID,
					"path":   botCfg.CallbackPath,
					"rules":  len(botCfg.Rules),
				}).Info("bot-registered")
			}

			// Per-bot handler timeouts share one dispatcher bound; the
			// strictest configured value wins.
			dispatcher := bot.NewDispatcher(registry,
				bot.WithHandlerTimeout(minHandlerTimeout(cfg.Bots)))
			server := bot.NewServer(cfg.Server.Addr(), registry, dispatcher)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.ListenAndServe()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigChan:
				logger.WithField("signal", sig.String()).Info("shutting-down")
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					logger.Errorf("shutdown-error: %v", err)
				}
			case err := <-errChan:
				if err != nil {
					log.Fatalf("Server error: %v", err)
				}
			}

			logger.Info("villabot-stopped")
		},
	}
)

// registerBot builds the identity, API client and rule handlers for
// one configured bot and stores them in the registry.
func registerBot(registry *bot.Registry, cfg *config.Config, botCfg config.BotConfig) error {
	pubKey, err := botCfg.PubKeyPEM()
	if err != nil {
		return err
	}
	identity, err := bot.NewIdentity(botCfg.BotID, botCfg.Secret, pubKey, botCfg.CallbackPath)
	if err != nil {
		return err
	}
	identity.WaitUntilComplete = botCfg.WaitUntilComplete

	client := api.New(botCfg.BotID, botCfg.Secret, api.WithBaseURL(cfg.API.BaseURL))
	handlers, err := rules.Build(botCfg, client)
	if err != nil {
		return err
	}
	return registry.Register(identity, handlers)
}

// minHandlerTimeout returns the smallest configured handler timeout.
// Validation guarantees each value parses.
func minHandlerTimeout(bots []config.BotConfig) time.Duration {
	var minTimeout time.Duration
	for _, b := range bots {
		d, err := time.ParseDuration(b.HandlerTimeout)
		if err != nil {
			continue
		}
		if minTimeout == 0 || d < minTimeout {
			minTimeout = d
		}
	}
	return minTimeout
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
