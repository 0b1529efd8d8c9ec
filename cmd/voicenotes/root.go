package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes"
)

var (
	verbose    bool
	dataDir    string
	adapter    string
	configPath string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "voicenotes",
	Short: "Local-first notes with continuous dictation",
	Long: `voicenotes keeps a list of notes in a local data directory (or a SQLite
database), feeds speech from an external recognizer into the open note,
and exports notes as plain text.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command context so editors flush before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress confirmations")
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "", "Data directory (default: .voicenotes in the project root)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: voicenotes.yaml in the project root)")
}

// stderrNotifier prints confirmations the way a toast would show them.
type stderrNotifier struct{}

func (stderrNotifier) Success(msg string) {
	if !quiet {
		fmt.Fprintln(os.Stderr, msg)
	}
}

func (stderrNotifier) Failure(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
}

// loadConfig resolves the project root and reads its config, then applies
// environment overrides. Flags win over both.
func loadConfig() (voicenotes.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return voicenotes.Config{}, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := voicenotes.FindRoot(cwd)
	if err != nil {
		root = cwd
	}

	var cfg voicenotes.Config
	path := configPath
	if path == "" {
		path = filepath.Join(root, "voicenotes.yaml")
	}
	cfg, err = voicenotes.LoadConfig(path)
	if err != nil && (configPath != "" || !errors.Is(err, os.ErrNotExist)) {
		return cfg, root, err
	}

	cfg, err = cfg.ApplyEnv(os.LookupEnv)
	if err != nil {
		return cfg, root, err
	}
	if adapter != "" {
		cfg.Adapter = adapter
	}
	return cfg, root, nil
}

// openApp builds the application for a command, with extra options applied last.
func openApp(ctx context.Context, extra ...voicenotes.Option) (*voicenotes.App, error) {
	cfg, root, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dir := dataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	if dir == "" {
		dir = ".voicenotes"
	}
	if !filepath.IsAbs(dir) && dir != ":memory:" {
		dir = filepath.Join(root, dir)
	}

	if cfg.ExportDir != "" && !filepath.IsAbs(cfg.ExportDir) {
		cfg.ExportDir = filepath.Join(root, cfg.ExportDir)
	}

	opts := append(cfg.Options(),
		voicenotes.WithLogger(slog.Default()),
		voicenotes.WithNotifier(stderrNotifier{}),
	)
	return voicenotes.New(ctx, dir, append(opts, extra...)...)
}
