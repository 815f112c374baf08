package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nkarpov/roombook/internal/session"
	"github.com/nkarpov/roombook/internal/tui"
	"github.com/nkarpov/roombook/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

type config struct {
	APIURL      string `env:"ROOMBOOK_API_URL" envDefault:"http://localhost:8000"`
	AuthMode    string `env:"ROOMBOOK_AUTH_MODE" envDefault:"token"`
	PageSize    int    `env:"ROOMBOOK_PAGE_SIZE" envDefault:"10"`
	SessionFile string `env:"ROOMBOOK_SESSION_FILE"`
	LogFile     string `env:"ROOMBOOK_LOG_FILE"`
	Token       string `env:"ROOMBOOK_TOKEN"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stateDir returns ~/.roombook, creating it if needed.
func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".roombook")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

func loadConfig() (config, error) {
	// A local .env is a convenience for development; absence is not an error.
	godotenv.Load() //nolint:errcheck

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}
	if cfg.SessionFile == "" || cfg.LogFile == "" {
		dir, err := stateDir()
		if err != nil {
			return cfg, err
		}
		if cfg.SessionFile == "" {
			cfg.SessionFile = filepath.Join(dir, "session.json")
		}
		if cfg.LogFile == "" {
			cfg.LogFile = filepath.Join(dir, "roombook.log")
		}
	}
	return cfg, nil
}

// newLogger writes structured logs to a rotated file. Stdout belongs to the
// TUI, so nothing is ever logged there.
func newLogger(path string) *zap.Logger {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), writer, zap.InfoLevel)
	return zap.New(core).With(zap.String("version", version))
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("roombook " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mode, err := session.ParseMode(cfg.AuthMode)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogFile)
	defer log.Sync() //nolint:errcheck

	opts := []client.Option{client.WithLogger(log)}
	if mode == session.ModeCookie {
		opts = append(opts, client.WithCookies())
	} else if cfg.Token != "" {
		// An explicit token from the environment wins over the session file.
		opts = append(opts, client.WithToken(strings.TrimSpace(cfg.Token)))
	}
	api := client.New(cfg.APIURL, opts...)

	store := session.NewStore(api, mode, cfg.SessionFile, log)

	log.Info("starting",
		zap.String("api_url", cfg.APIURL),
		zap.String("auth_mode", cfg.AuthMode),
		zap.Int("page_size", cfg.PageSize))

	app := tui.NewApp(api, store, cfg.PageSize, version)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func printHelp() {
	fmt.Print(`roombook — terminal client for the room reservation service

Usage:
  roombook            launch the TUI
  roombook version    print version
  roombook help       show this help

Environment:
  ROOMBOOK_API_URL       API base URL (default http://localhost:8000)
  ROOMBOOK_AUTH_MODE     "token" or "cookie" (default token)
  ROOMBOOK_TOKEN         bearer token, overrides the saved session
  ROOMBOOK_PAGE_SIZE     reservations per page (default 10)
  ROOMBOOK_SESSION_FILE  session path (default ~/.roombook/session.json)
  ROOMBOOK_LOG_FILE      log path (default ~/.roombook/roombook.log)
`)
}
