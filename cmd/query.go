package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adalundhe/weft/core/tags"
)

var (
	queryHas  []string
	queryAny  []string
	queryNone []string
)

var queryCmd = &cobra.Command{
	Use:   "query [dir]",
	Short: "Query skills by tag",
	Long: `Query evaluates a tag filter over the discovered skills. --has terms
are ANDed, --any terms are ORed together, --none terms exclude. Results
print in ascending id order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := buildFilter()
		if err != nil {
			return err
		}

		c, err := loadCollection(skillsDir(args))
		if err != nil {
			return err
		}

		for _, record := range c.Query(filter) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n",
				record.ID, record.Version.String(), record.Description)
		}
		return nil
	},
}

func buildFilter() (tags.Filter, error) {
	var filter tags.Filter

	if len(queryHas) > 0 {
		filter = tags.AllOf(queryHas...)
	}
	if len(queryAny) > 0 {
		any := tags.AnyOf(queryAny...)
		if filter == nil {
			filter = any
		} else {
			filter = tags.And(filter, any)
		}
	}
	if len(queryNone) > 0 {
		none := tags.NoneOf(queryNone...)
		if filter == nil {
			filter = none
		} else {
			filter = tags.And(filter, none)
		}
	}

	if filter == nil {
		return nil, errors.New("at least one of --has, --any, --none is required")
	}
	return filter, nil
}

func init() {
	queryCmd.Flags().StringSliceVar(&queryHas, "has", nil, "tags the skill must carry (ANDed)")
	queryCmd.Flags().StringSliceVar(&queryAny, "any", nil, "tags of which at least one must match")
	queryCmd.Flags().StringSliceVar(&queryNone, "none", nil, "tags the skill must not carry")
	rootCmd.AddCommand(queryCmd)
}
