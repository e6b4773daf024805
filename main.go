package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/Edward-Boguslavsky/Birthday-Bot/bot"
	"github.com/Edward-Boguslavsky/Birthday-Bot/config"
	"github.com/Edward-Boguslavsky/Birthday-Bot/dal"
	"github.com/Edward-Boguslavsky/Birthday-Bot/discordutils"
	"github.com/Edward-Boguslavsky/Birthday-Bot/editor"
	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/metrics"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// CLI holds the global flags and subcommands.
type CLI struct {
	Config      string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose     bool   `short:"v" help:"Enable verbose logging"`
	Token       string `help:"Bot access token." env:"DISCORD_BOT_TOKEN"`
	Guild       string `help:"Guild ID. If set, slash commands are registered there and only that guild is swept."`
	DataDir     string `help:"Directory holding the birthday and settings documents." type:"path"`
	Storage     string `help:"Storage driver (json or sqlite)."`
	MetricsAddr string `help:"Address for the metrics endpoint, e.g. :9090."`

	Run   RunCmd   `cmd:"" default:"1" help:"Connect to Discord and run the bot"`
	Check CheckCmd `cmd:"" help:"Run one birthday role sweep and exit"`
}

// load reads the config file, applies flag overrides and sets up logging.
func (c *CLI) load() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.DataDir != "" {
		cfg.DataDir = c.DataDir
	}
	if c.Storage != "" {
		cfg.Storage = c.Storage
	}
	if c.MetricsAddr != "" {
		cfg.Metrics.Addr = c.MetricsAddr
	}
	if c.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

func (c *CLI) token() (string, error) {
	if c.Token == "" {
		return "", fmt.Errorf("a bot token must be provided with --token or DISCORD_BOT_TOKEN")
	}
	return c.Token, nil
}

// RunCmd runs the bot until interrupted.
type RunCmd struct{}

func (r *RunCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	token, err := cli.token()
	if err != nil {
		return err
	}

	store, err := dal.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", logfields.Error(err))
		}
	}()
	slog.Info("Opened store", slog.String("driver", cfg.Storage), slog.String("path", cfg.DataDir))

	recorder := metrics.NewRecorder(nil)
	clock := clockwork.NewRealClock()

	s, err := bot.NewSession(token)
	if err != nil {
		return err
	}
	guild := discordutils.NewGuild(s, cli.Guild)

	scheduler, err := bot.NewScheduler(clock)
	if err != nil {
		return err
	}
	checker := bot.NewRoleChecker(store, guild, clock, recorder)

	registry := session.NewRegistry(clock, cfg.Session.TTL)
	ed := editor.New(editor.Config{
		Store:           store,
		Registry:        registry,
		Members:         guild,
		Scope:           cfg.Scope(),
		NotificationTTL: cfg.Session.NotificationTTL,
		Metrics:         recorder,
		OnChange:        scheduler.RunSweep,
	})

	if err := scheduler.ScheduleSweep(cfg.Sweep.Interval, checker); err != nil {
		return err
	}

	b := bot.New(s, cli.Guild, ed, registry)
	if err := b.Open(); err != nil {
		return err
	}
	scheduler.Start()

	var server *metrics.Server
	if cfg.Metrics.Addr != "" {
		server = metrics.NewServer(cfg.Metrics.Addr, recorder)
		server.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("Shutdown signal received")

	if err := scheduler.Stop(); err != nil {
		slog.Warn("Failed to stop scheduler", logfields.Error(err))
	}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to stop metrics server", logfields.Error(err))
		}
	}
	return b.Shutdown()
}

// CheckCmd runs one sweep, which is handy from cron or after editing the
// documents by hand.
type CheckCmd struct{}

func (c *CheckCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	token, err := cli.token()
	if err != nil {
		return err
	}

	store, err := dal.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := bot.NewSession(token)
	if err != nil {
		return err
	}
	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	checker := bot.NewRoleChecker(store, discordutils.NewGuild(s, cli.Guild), nil, nil)
	result, err := checker.CheckRoles(ctx)
	if err != nil {
		return err
	}
	slog.Info("Sweep finished",
		slog.Bool("idle", result.Idle),
		slog.Int("granted", result.Granted),
		slog.Int("revoked", result.Revoked),
		slog.Int("announced", result.Announced),
		slog.Int("skipped", result.Skipped))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("birthday-bot"),
		kong.Description("Discord bot that hands out a birthday role and announces birthdays."),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
