package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/search"
	"github.com/arthur-debert/nanotree/types"
)

func (cli *CLI) addFindCommand() {
	var (
		nameOnly      bool
		caseSensitive bool
		exact         bool
		kind          string
		limit         int
	)

	cmd := &cobra.Command{
		Use:     "find <query>",
		Aliases: []string{"search"},
		Short:   "Find nodes by name or location",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.outputFormat()
			if err != nil {
				return err
			}

			opts := search.Options{
				Query:         args[0],
				CaseSensitive: caseSensitive,
				ExactMatch:    exact,
				MaxResults:    limit,
			}
			if nameOnly {
				opts.Fields = []search.Field{search.FieldName}
			}
			switch kind {
			case "":
			case string(types.KindLeaf), string(types.KindFolder):
				opts.Kind = types.Kind(kind)
			default:
				return NewValidationError("find", "kind", kind, "Use 'leaf' or 'folder'")
			}

			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}

			var results []search.Result
			_ = tree.View(func(s *hierarchy.Store) error {
				results = search.Find(s, opts)
				return nil
			})

			entries := make([]entry, 0, len(results))
			for _, r := range results {
				entries = append(entries, entryFor(r.Node))
			}
			return writeEntries(cmd.OutOrStdout(), entries, format)
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "Match names only, not locations")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().BoolVar(&exact, "exact", false, "Require the whole field to match")
	cmd.Flags().StringVar(&kind, "kind", "", "Only leaf or folder nodes")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	cli.rootCmd.AddCommand(cmd)
}
