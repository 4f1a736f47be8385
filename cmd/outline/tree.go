package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/render"
	"github.com/dgallion1/outlinesync/internal/settings"
	"github.com/dgallion1/outlinesync/internal/transcript"
)

var treeCmd = &cobra.Command{
	Use:   "tree FILE",
	Short: "Print the outline of a transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().Int("level", 0, "expand level (0 keeps the saved level)")
	treeCmd.Flags().String("search", "", "filter headings by a case-insensitive substring")
	treeCmd.Flags().Bool("user-queries", false, "include user queries as top-level entries")
	treeCmd.Flags().Int("max-level", 0, "deepest heading level to include (0 keeps the saved value)")
	treeCmd.Flags().Int("width", 0, "truncate rows to this many columns")
	treeCmd.Flags().Bool("json", false, "print the outline state as JSON")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetInt("level")
	query, _ := cmd.Flags().GetString("search")
	maxLevel, _ := cmd.Flags().GetInt("max-level")
	width, _ := cmd.Flags().GetInt("width")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	log, closer, err := newLogger()
	if err != nil {
		return err
	}
	defer closer.Close()

	// Flags override the saved settings for this run only.
	s, err := settings.Load(settingsPath)
	if err != nil {
		return err
	}
	opts := s.Outline()
	opts.Enabled = true
	if cmd.Flags().Changed("user-queries") {
		opts.ShowUserQueries, _ = cmd.Flags().GetBool("user-queries")
	}
	if maxLevel > 0 {
		opts.MaxLevel = maxLevel
	}

	doc, _, err := loadDocument(args[0], 0, log)
	if err != nil {
		return err
	}
	eng := outline.New(transcript.NewAdapter(doc), opts, outline.WithLogger(log))
	if level > 0 {
		eng.RefreshWithLevel(level)
	} else {
		eng.Refresh()
	}
	if query != "" {
		eng.SetSearchQuery(query)
	}

	st := eng.State()
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintln(out, render.Status(st))
	if tree := render.Tree(st, render.Options{Cursor: -1, Width: width}); tree != "" {
		fmt.Fprintln(out, tree)
	}
	return nil
}
