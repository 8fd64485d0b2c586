package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coopco/relaybot/internal/app"
	"github.com/coopco/relaybot/internal/bus"
	"github.com/coopco/relaybot/internal/cache"
	"github.com/coopco/relaybot/internal/channels"
	"github.com/coopco/relaybot/internal/config"
	"github.com/coopco/relaybot/internal/relay"
	"github.com/coopco/relaybot/internal/stats"
	"github.com/coopco/relaybot/internal/translate"
)

// Version is set at build time.
var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "relaybot",
		Short:   "Relay messages between chat channels with on-demand translation",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "err", err)
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}
	if err := config.ResolveEnv(cfg); err != nil {
		return err
	}

	translator, err := translate.New(cfg.Translator.Backend, translate.Options{
		APIKey:     cfg.Translator.APIKey,
		TargetLang: cfg.Translator.TargetLang,
	})
	if err != nil {
		return err
	}

	router, err := relay.NewRouter(routeRules(cfg))
	if err != nil {
		return err
	}
	transcoder := relay.NewTranscoder(translator, cfg.Translator.TargetLang, relay.Markers{
		Original:   cfg.Messages.OriginalFooter,
		Translated: cfg.Messages.TranslatedFooter,
	})

	store, err := cache.OpenSQLite(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	msgBus := bus.NewMessageBus(0)
	manager := channels.NewManager(msgBus)

	discordCfg, _ := json.Marshal(map[string]string{
		"token":       cfg.Channels.Discord.Token,
		"buttonLabel": cfg.Messages.ButtonLabel,
	})
	if err := manager.AddChannel("discord", discordCfg); err != nil {
		return err
	}

	mirror := ""
	if cfg.Channels.TelegramMirror.ChatID != 0 {
		tgCfg, _ := json.Marshal(map[string]any{
			"token":  cfg.Channels.TelegramMirror.Token,
			"chatId": cfg.Channels.TelegramMirror.ChatID,
		})
		if err := manager.AddChannel("telegram", tgCfg); err != nil {
			return err
		}
		mirror = "telegram"
	}

	loop := app.New(app.RelayConfig{
		Bus:        msgBus,
		Router:     router,
		Transcoder: transcoder,
		Cache:      store,
		Messages:   cfg.Messages,
		Mirror:     mirror,
	})

	reporter := stats.NewService(store, "")
	if err := reporter.Start(); err != nil {
		return err
	}
	defer reporter.Stop()

	if err := manager.StartAll(ctx); err != nil {
		return err
	}
	defer manager.StopAll()

	slog.Info("relaybot started",
		"routes", len(cfg.Routes),
		"backend", cfg.Translator.Backend,
		"targetLang", cfg.Translator.TargetLang)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		msgBus.DispatchOutbound(gctx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("relaybot stopped")
	return nil
}

// routeRules converts the config routing table into router rules, sorted
// by key for deterministic duplicate reporting.
func routeRules(cfg *config.Config) []relay.Rule {
	keys := make([]string, 0, len(cfg.Routes))
	for key := range cfg.Routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rules := make([]relay.Rule, 0, len(keys))
	for _, key := range keys {
		route := cfg.Routes[key]
		rules = append(rules, relay.Rule{
			Key:          key,
			InputIDs:     route.Input,
			OutputID:     route.Output,
			NotifyRoleID: route.Role,
		})
	}
	return rules
}
