package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adalundhe/weft/core/collection"
	"github.com/adalundhe/weft/core/semver"
)

var compatCurrent string

var compatCmd = &cobra.Command{
	Use:   "compat <skill> <requirement> [dir]",
	Short: "Check a skill's installed version against a requirement",
	Long: `Compat checks whether the discovered version of a skill satisfies a
version requirement expression. With --current, it also reports whether
the discovered version is an update over the given one.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID, requirement := args[0], args[1]

		c, err := loadCollection(skillsDir(args[2:]))
		if err != nil {
			return err
		}

		checker, err := buildChecker(c)
		if err != nil {
			return err
		}

		if err := checker.Check(skillID, requirement); err != nil {
			return err
		}
		installed, _ := checker.Version(skillID)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s satisfies %s\n", skillID, installed, requirement)

		if compatCurrent != "" {
			newer, err := checker.UpdateAvailable(skillID, compatCurrent)
			if err != nil {
				return err
			}
			if newer {
				fmt.Fprintf(cmd.OutOrStdout(), "update available: %s -> %s\n", compatCurrent, installed)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "up to date at %s\n", compatCurrent)
			}
		}
		return nil
	},
}

// buildChecker seeds a version checker from the discovered records.
func buildChecker(c *collection.Collection) (*semver.Checker, error) {
	checker := semver.NewChecker()
	for _, id := range c.IDs() {
		record, _ := c.GetByID(id)
		if err := checker.AddVersion(id, record.Version.String()); err != nil {
			return nil, err
		}
	}
	return checker, nil
}

func init() {
	compatCmd.Flags().StringVar(&compatCurrent, "current", "",
		"report whether the discovered version is newer than this one")
	rootCmd.AddCommand(compatCmd)
}
