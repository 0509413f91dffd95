package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adalundhe/weft/core/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <text> [dir]",
	Short: "Full-text search over skill names and descriptions",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		c, err := loadCollection(skillsDir(args[1:]))
		if err != nil {
			return err
		}

		index, err := search.NewSkillIndex()
		if err != nil {
			return err
		}
		defer func() {
			if err := index.Close(); err != nil {
				logger.Warn("closing search index", "error", err)
			}
		}()

		for _, id := range c.IDs() {
			record, _ := c.GetByID(id)
			if err := index.Index(record); err != nil {
				return err
			}
		}

		hits, err := index.Search(args[0], searchLimit)
		if err != nil {
			return err
		}

		for _, hit := range hits {
			record, ok := c.GetByID(hit.SkillID)
			if !ok {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s  %s\n", hit.Score, record.ID, record.Description)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", search.DefaultLimit, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
