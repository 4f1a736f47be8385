package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/transcript"
)

var (
	settingsPath string
	logFile      string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Heading outline for chat transcripts",
	Long: `outline builds a collapsible outline of the headings in a chat
transcript (Markdown, plain text, HTML, PDF, DOCX or CSV). "tree" prints it
once; "view" opens an interactive viewer that follows the file as it is
rewritten.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", config.Load().SettingsPath, "outline settings file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// newLogger discards logs unless --log-file is set; the terminal belongs
// to the outline.
func newLogger() (*slog.Logger, io.Closer, error) {
	if logFile == "" {
		return slog.New(slog.DiscardHandler), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

// loadDocument imports path into a fresh transcript document and returns
// the follower that can keep it in sync.
func loadDocument(path string, quiet time.Duration, log *slog.Logger) (*transcript.Document, *transcript.Follower, error) {
	cfg := config.Load()
	doc := transcript.New(cfg.LayoutWidth)
	doc.SetViewportHeight(float64(cfg.ViewportHeight))
	f := transcript.NewFollower(path, doc, quiet, log)
	if err := f.Load(); err != nil {
		return nil, nil, err
	}
	return doc, f, nil
}
