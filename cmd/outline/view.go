package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/settings"
	"github.com/dgallion1/outlinesync/internal/transcript"
	"github.com/dgallion1/outlinesync/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view FILE",
	Short: "Browse the outline interactively and follow file changes",
	Long: `view opens the outline of FILE in an interactive viewer. The file is
watched; a burst of writes is treated as a response being generated and
the outline follows it the way it follows a live chat.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().Duration("quiet", transcript.DefaultQuietPeriod, "time without writes that ends a generation")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetDuration("quiet")
	path := args[0]

	log, closer, err := newLogger()
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := settings.NewStore(settingsPath, log)
	if err != nil {
		return err
	}

	doc, follower, err := loadDocument(path, quiet, log)
	if err != nil {
		return err
	}

	cfg := config.Load()
	eng := outline.New(transcript.NewAdapter(doc), store.Get().Outline(),
		outline.WithLogger(log.With("file", path)),
		outline.WithMutationSource(doc),
		outline.WithTimings(outline.Timings{
			Debounce:       cfg.Debounce,
			PostGeneration: cfg.PostGenerationDelay,
			Fallback:       cfg.FallbackDelay,
		}),
		outline.WithExpandLevelCallback(store.SetExpandLevel),
		outline.WithShowUserQueriesCallback(store.SetShowUserQueries),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("outline scheduler stopped", "error", err)
		}
	}()
	go func() {
		if err := follower.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("file follower stopped", "error", err)
		}
	}()
	eng.SetActive(true)
	defer eng.StopAutoUpdate()

	p := tea.NewProgram(tui.New(eng, filepath.Base(path)), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
