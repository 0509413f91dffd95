package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/weft/core/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate every skill package in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := skillsDir(args)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		failures := 0
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			var err error
			switch {
			case entry.IsDir():
				_, err = manifest.ReadSkillMD(path)
			case strings.HasSuffix(entry.Name(), ".json"):
				_, err = manifest.LoadPackage(path)
			default:
				continue
			}

			if err != nil {
				failures++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %v\n", entry.Name(), err)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "ok    %s\n", entry.Name())
			}
		}

		if failures > 0 {
			return fmt.Errorf("%d invalid skill package(s)", failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
