package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/weft/core/resolver"
)

var resolveSkipVersions bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [dir]",
	Short: "Compute the skill load order",
	Long: `Resolve builds the dependency graph over the discovered skills and
prints a load order in which every skill follows its prerequisites.
Missing dependencies, cycles, and unmet version requirements are
reported as distinct failures.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCollection(skillsDir(args))
		if err != nil {
			return err
		}

		graph := c.Graph()
		r := c.BuildResolver()

		result := r.Resolve(graph)
		switch result.Status {
		case resolver.StatusMissing:
			return fmt.Errorf("missing dependencies: %s", strings.Join(result.Missing, ", "))
		case resolver.StatusCircular:
			return fmt.Errorf("circular dependency: %s", strings.Join(result.Cycle, " -> "))
		}

		if !resolveSkipVersions {
			if err := r.CheckVersions(graph); err != nil {
				return fmt.Errorf("version check: %w", err)
			}
		}

		for i, id := range result.LoadOrder {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, id)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveSkipVersions, "no-version-check", false,
		"skip the version compatibility pass")
	rootCmd.AddCommand(resolveCmd)
}
