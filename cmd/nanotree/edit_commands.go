package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
)

func (cli *CLI) addAddCommand() {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a leaf or a folder",
	}

	leafCmd := &cobra.Command{
		Use:   "leaf <name> <location>",
		Short: "Add a leaf pointing at a location",
		Long: `Add a leaf at the end of a folder, or of the top level when --parent
is omitted. The new id is printed.

Examples:
  nanotree add leaf api ~/src/api
  nanotree add leaf web ~/src/web --parent 3f2a`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentRef, _ := cmd.Flags().GetString("parent")
			return cli.runAdd(cmd, parentRef, func(t treeAdder, parentID string) (string, error) {
				return t.AddLeaf(args[0], args[1], parentID)
			})
		},
	}
	leafCmd.Flags().StringP("parent", "p", "", "folder to add to (default: top level)")

	folderCmd := &cobra.Command{
		Use:   "folder <name>",
		Short: "Add an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentRef, _ := cmd.Flags().GetString("parent")
			return cli.runAdd(cmd, parentRef, func(t treeAdder, parentID string) (string, error) {
				return t.AddFolder(args[0], parentID)
			})
		},
	}
	folderCmd.Flags().StringP("parent", "p", "", "folder to add to (default: top level)")

	addCmd.AddCommand(leafCmd, folderCmd)
	cli.rootCmd.AddCommand(addCmd)
}

// treeAdder is the part of the tree the add commands need
type treeAdder interface {
	AddLeaf(name, location, parentID string) (string, error)
	AddFolder(name, parentID string) (string, error)
}

func (cli *CLI) runAdd(cmd *cobra.Command, parentRef string, add func(treeAdder, string) (string, error)) error {
	tree, err := cli.openTree(cmd)
	if err != nil {
		return err
	}
	parentID, err := cli.resolve(tree, "add", parentRef)
	if err != nil {
		return err
	}

	id, err := add(tree, parentID)
	if err != nil {
		return translateError("add", parentRef, err)
	}
	cli.logger.Info("node added", "id", id, "parent", parentID)
	printf(cmd, "%s\n", id)
	return nil
}

func (cli *CLI) addRenameCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}
			id, err := cli.resolveNode(tree, "rename", args[0])
			if err != nil {
				return err
			}
			if err := tree.Rename(id, args[1]); err != nil {
				return translateError("rename", args[0], err)
			}
			cli.logger.Info("node renamed", "id", id, "name", args[1])
			return nil
		},
	})
}

func (cli *CLI) addMoveCommand() {
	moveCmd := &cobra.Command{
		Use:     "move <id>",
		Aliases: []string{"mv"},
		Short:   "Move a node to another folder or position",
		Long: `Move a node, with its whole subtree, to a new place.

Use --to and --index to name the destination folder and position, or
--before / --after to place the node next to a sibling. The index is
clamped to the destination size; a negative index appends.

Examples:
  nanotree move 9c1e --to 3f2a
  nanotree move 9c1e --index 0
  nanotree move 9c1e --after 77ab`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			toRef, _ := flags.GetString("to")
			index, _ := flags.GetInt("index")
			beforeRef, _ := flags.GetString("before")
			afterRef, _ := flags.GetString("after")

			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}
			id, err := cli.resolveNode(tree, "move", args[0])
			if err != nil {
				return err
			}

			switch {
			case beforeRef != "":
				siblingID, err := cli.resolveNode(tree, "move", beforeRef)
				if err != nil {
					return err
				}
				err = tree.MoveBefore(id, siblingID)
				if err != nil {
					return translateError("move", args[0], err)
				}
			case afterRef != "":
				siblingID, err := cli.resolveNode(tree, "move", afterRef)
				if err != nil {
					return err
				}
				err = tree.MoveAfter(id, siblingID)
				if err != nil {
					return translateError("move", args[0], err)
				}
			default:
				parentID, err := cli.resolve(tree, "move", toRef)
				if err != nil {
					return err
				}
				if err := tree.Move(id, parentID, index); err != nil {
					return translateError("move", args[0], err)
				}
			}
			cli.logger.Info("node moved", "id", id)
			return nil
		},
	}

	flags := moveCmd.Flags()
	flags.String("to", "", "destination folder (default: top level)")
	flags.IntP("index", "i", hierarchy.Append, "position in the destination (negative appends)")
	flags.String("before", "", "place right before this sibling")
	flags.String("after", "", "place right after this sibling")
	moveCmd.MarkFlagsMutuallyExclusive("before", "after", "to")
	moveCmd.MarkFlagsMutuallyExclusive("before", "after", "index")

	cli.rootCmd.AddCommand(moveCmd)
}

func (cli *CLI) addRemoveCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a node and everything under it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}
			id, err := cli.resolveNode(tree, "remove", args[0])
			if err != nil {
				return err
			}
			removed, err := tree.Delete(id)
			if err != nil {
				return translateError("remove", args[0], err)
			}
			cli.logger.Info("subtree removed", "id", id, "count", len(removed))
			printf(cmd, "removed %d node(s)\n", len(removed))
			return nil
		},
	})
}
