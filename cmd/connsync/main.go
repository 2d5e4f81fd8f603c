// connsync keeps a local copy of the user's connection graph in sync with
// the chat server and accepts commands on stdin.
// Usage: connsync --config configs/connsync.example.yaml
//
// Credentials may also come from the environment through ${VAR} references
// in the config file, or from the -user, -password and -token flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/connsync/internal/api"
	"github.com/rickgao/connsync/internal/auth"
	"github.com/rickgao/connsync/internal/config"
	"github.com/rickgao/connsync/internal/connection"
	"github.com/rickgao/connsync/internal/logging"
	"github.com/rickgao/connsync/internal/poller"
	"github.com/rickgao/connsync/internal/session"
	"github.com/rickgao/connsync/internal/state"
	"github.com/rickgao/connsync/internal/status"
	"github.com/rickgao/connsync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/connsync.example.yaml", "path to config file")
	user := flag.String("user", "", "username (overrides config)")
	password := flag.String("password", "", "password (overrides config)")
	token := flag.String("token", "", "access token, skips login (overrides config)")
	register := flag.Bool("register", false, "register the account before logging in")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *user, *password, *token)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stderr)
	logger.Info("starting connsync",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"ws_url", cfg.Server.WSURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	apiClient := api.NewClient(cfg.Server.APIURL,
		api.WithLogger(logger.With("component", "api")),
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetries(cfg.Server.MaxRetries, time.Second),
	)

	if *register {
		resp, err := apiClient.Register(ctx, cfg.Credentials.Username, cfg.Credentials.Password)
		if err != nil {
			logger.Error("registration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("registration complete", "message", resp.Message)
	}

	manager := connection.NewManager(managerConfig(cfg), logger.With("component", "connection"))
	store := state.NewStore(cfg.Notifications.Capacity)
	sess := session.New(session.Config{
		Refresh: poller.Config{Interval: cfg.Refresh.Interval},
	}, manager, store, apiClient, logger)

	if cfg.Credentials.Token != "" {
		err = sess.Connect(ctx, auth.Credentials{Token: cfg.Credentials.Token, Username: cfg.Credentials.Username})
	} else {
		err = sess.Login(ctx, cfg.Credentials.Username, cfg.Credentials.Password)
	}
	if err != nil {
		if sess.Username() == "" {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
		// The manager keeps retrying in the background.
		logger.Warn("channel not open yet", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		fmt.Fprint(os.Stdout, helpText)
		return runCommands(gctx, os.Stdin, os.Stdout, sess)
	})

	g.Go(func() error {
		printChanges(gctx, store, os.Stdout)
		return nil
	})

	if cfg.Status.Enabled {
		g.Go(func() error {
			return status.Serve(gctx, cfg.Status.Port, status.NewHandler(sess, logger), logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("connsync stopped with error", "error", err)
	}

	logger.Info("shutting down...")
	manager.Disconnect()

	stats := sess.Stats()
	logger.Info("connsync stopped",
		"sent", stats.Connection.Sent,
		"dropped", stats.Connection.Dropped,
		"received", stats.Dispatch.Received,
		"reconnects", stats.Connection.Reconnects,
	)
}

// applyFlags overrides config credentials with non-empty flag values.
func applyFlags(cfg *config.Config, user, password, token string) {
	if user != "" {
		cfg.Credentials.Username = user
	}
	if password != "" {
		cfg.Credentials.Password = password
	}
	if token != "" {
		cfg.Credentials.Token = token
	}
}

func managerConfig(cfg *config.Config) connection.ManagerConfig {
	return connection.ManagerConfig{
		URL:              cfg.Server.WSURL,
		ReconnectDelay:   cfg.Connection.ReconnectDelay,
		MaxAttempts:      cfg.Connection.MaxAttempts,
		PingInterval:     cfg.Connection.PingInterval,
		PingTimeout:      cfg.Connection.PingTimeout,
		WriteTimeout:     cfg.Connection.WriteTimeout,
		HandshakeTimeout: cfg.Connection.HandshakeTimeout,
		BufferSize:       cfg.Connection.BufferSize,
	}
}
