// Package cmd provides the weft CLI commands: validating, resolving,
// querying, and searching skill packages in a skills directory.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/weft/core/collection"
	"github.com/adalundhe/weft/core/manifest"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft - a skill package engine",
	Long:  `Weft resolves, validates, and queries agent skill packages.`,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the slog logger commands share. Logs go to stderr so
// stdout stays parseable.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// skillsDir resolves the positional directory argument, defaulting to
// ./skills.
func skillsDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "skills"
}

// loadCollection discovers a directory's skills into a fresh collection.
func loadCollection(dir string) (*collection.Collection, error) {
	records, err := manifest.Discover(dir, newLogger())
	if err != nil {
		return nil, err
	}
	c := collection.New()
	if err := c.AddBatch(records); err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	return c, nil
}
