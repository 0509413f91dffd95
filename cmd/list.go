package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List discovered skills",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCollection(skillsDir(args))
		if err != nil {
			return err
		}

		for _, id := range c.IDs() {
			record, _ := c.GetByID(id)
			line := fmt.Sprintf("%s %s", record.ID, record.Version.String())
			if len(record.Tags) > 0 {
				line += "  [" + strings.Join(record.Tags, ", ") + "]"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
