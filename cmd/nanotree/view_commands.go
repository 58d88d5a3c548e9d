package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanotree/nanotree/export"
	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/types"
)

func (cli *CLI) addListCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:     "ls [folder-id]",
		Aliases: []string{"list"},
		Short:   "List the children of a folder, or the top level",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.outputFormat()
			if err != nil {
				return err
			}
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			id, err := cli.resolve(tree, "list", ref)
			if err != nil {
				return err
			}

			var entries []entry
			err = tree.View(func(s *hierarchy.Store) error {
				children, err := s.ListChildren(id)
				if err != nil {
					return err
				}
				entries = make([]entry, 0, len(children))
				for _, childID := range children {
					node, ok := s.Get(childID)
					if !ok {
						entries = append(entries, entry{ID: childID, Missing: true})
						continue
					}
					entries = append(entries, entryFor(node))
				}
				return nil
			})
			if err != nil {
				return translateError("list", ref, err)
			}
			return writeEntries(cmd.OutOrStdout(), entries, format)
		},
	})
}

// nodeDetails is what show prints
type nodeDetails struct {
	entry    `yaml:",inline"`
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Path     []string `json:"path" yaml:"path"`
	Children int      `json:"children,omitempty" yaml:"children,omitempty"`
}

func (cli *CLI) addShowCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a node with its place in the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.outputFormat()
			if err != nil {
				return err
			}
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}
			id, err := cli.resolveNode(tree, "show", args[0])
			if err != nil {
				return err
			}

			var details nodeDetails
			err = tree.View(func(s *hierarchy.Store) error {
				node, ok := s.Get(id)
				if !ok {
					return types.NewNodeError("show", id, types.ErrNotFound)
				}
				path, err := s.Path(id)
				if err != nil {
					return err
				}
				parent, _, err := s.ParentOf(id)
				if err != nil {
					return err
				}
				details = nodeDetails{
					entry:    entryFor(node),
					Parent:   parent,
					Path:     make([]string, 0, len(path)),
					Children: len(node.Children),
				}
				for _, n := range path {
					details.Path = append(details.Path, n.Name)
				}
				return nil
			})
			if err != nil {
				return translateError("show", args[0], err)
			}

			if format != export.FormatText {
				return writeStructured(cmd.OutOrStdout(), details, format)
			}
			printf(cmd, "id:       %s\n", details.ID)
			printf(cmd, "kind:     %s\n", details.Kind)
			printf(cmd, "name:     %s\n", details.Name)
			if details.Kind == types.KindLeaf {
				printf(cmd, "location: %s\n", details.Location)
			} else {
				printf(cmd, "children: %d\n", details.Children)
			}
			printf(cmd, "path:     /%s\n", strings.Join(details.Path, "/"))
			return nil
		},
	})
}

func (cli *CLI) addTreeCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "tree [folder-id]",
		Short: "Print the hierarchy, or one subtree, as an outline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.outputFormat()
			if err != nil {
				return err
			}
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			id, err := cli.resolve(tree, "print tree", ref)
			if err != nil {
				return err
			}

			err = tree.View(func(s *hierarchy.Store) error {
				if id == hierarchy.Root {
					return export.Write(cmd.OutOrStdout(), s, format)
				}
				root, err := export.BuildFrom(s, id)
				if err != nil {
					return err
				}
				return export.WriteOutline(cmd.OutOrStdout(), []*export.OutlineNode{root}, format)
			})
			return translateError("print tree", ref, err)
		},
	})
}

func (cli *CLI) addLocateCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "locate <id>",
		Short: "Print the location a leaf points at",
		Long: `Print the location of a leaf, for use in scripts:

  cd "$(nanotree locate 9c1e)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}
			id, err := cli.resolveNode(tree, "locate", args[0])
			if err != nil {
				return err
			}

			node, ok := tree.Get(id)
			if !ok {
				return NewNotFoundError("locate", args[0], commonSuggestions.ListIDs)
			}
			if !node.IsLeaf() {
				return &CLIError{
					Operation: "locate",
					Cause:     fmt.Sprintf("%q is a folder and has no location", node.Name),
				}
			}
			printf(cmd, "%s\n", node.Location)
			return nil
		},
	})
}
