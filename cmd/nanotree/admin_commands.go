package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanotree/nanotree/export"
	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
)

func (cli *CLI) addCheckCommand() {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Look for structural problems in the store",
		Long: `Look for ids listed without a node, nodes listed more than once or
under several folders, cycles, and nodes nothing lists. With --repair the
problems are fixed and the store is saved: bad references are dropped and
unreachable nodes are appended to the top level.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repair, _ := cmd.Flags().GetBool("repair")
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}

			if repair {
				report, err := tree.Repair()
				if err != nil {
					return translateError("repair", "", err)
				}
				for _, p := range report.Problems {
					printf(cmd, "fixed: %s\n", p)
				}
				if !report.Changed() {
					printf(cmd, "no problems found\n")
				}
				cli.logger.Info("repair finished", "fixed", len(report.Problems))
				return nil
			}

			problems := tree.Check()
			if len(problems) == 0 {
				printf(cmd, "no problems found\n")
				return nil
			}
			for _, p := range problems {
				printf(cmd, "%s\n", p)
			}
			return &CLIError{
				Operation:   "check",
				Cause:       fmt.Sprintf("found %d problem(s)", len(problems)),
				Suggestions: []string{commonSuggestions.RunCheck},
			}
		},
	}
	checkCmd.Flags().Bool("repair", false, "fix the problems found and save")
	cli.rootCmd.AddCommand(checkCmd)
}

func (cli *CLI) addExportCommand() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole hierarchy as an outline",
		Long: `Write the hierarchy as a nested outline in the --format chosen, to
stdout or to the file given with --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			format, err := cli.outputFormat()
			if err != nil {
				return err
			}
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := tree.View(func(s *hierarchy.Store) error {
				return export.Write(&buf, s, format)
			}); err != nil {
				return NewStoreError("export", err)
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return NewStoreError("export", err, "Check that the output directory exists and is writable")
			}
			printf(cmd, "exported to %s\n", output)
			return nil
		},
	}
	exportCmd.Flags().StringP("output", "o", "", "file to write instead of stdout")
	cli.rootCmd.AddCommand(exportCmd)
}

func (cli *CLI) addBackupCommand() {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a zip backup of the hierarchy",
		Long: `Write a zip archive holding the store document and a readable YAML
outline. Without --output the archive is named after the current time and
written to the working directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}

			now := time.Now()
			if output == "" {
				output = export.ArchiveFilename(now)
			}

			var buf bytes.Buffer
			if err := tree.View(func(s *hierarchy.Store) error {
				return export.WriteArchive(&buf, s, now)
			}); err != nil {
				return NewStoreError("back up", err)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return NewStoreError("back up", err, "Check that the output directory exists and is writable")
			}

			cli.logger.Info("backup written", "path", output)
			printf(cmd, "backup written to %s\n", output)
			return nil
		},
	}
	backupCmd.Flags().StringP("output", "o", "", "archive path")
	cli.rootCmd.AddCommand(backupCmd)
}

func (cli *CLI) addRestoreCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "restore <archive>",
		Short: "Replace the hierarchy with the contents of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return NewStoreError("restore", err, "Check the archive path")
			}
			defer func() { _ = file.Close() }()

			info, err := file.Stat()
			if err != nil {
				return NewStoreError("restore", err)
			}
			restored, report, err := export.ReadArchive(file, info.Size())
			if err != nil {
				return NewStoreError("restore", err, "Make sure the file was written by 'nanotree backup'")
			}
			if !report.Clean() {
				warnLoad(cmd.ErrOrStderr(), args[0], report)
			}

			tree, err := cli.openTree(cmd)
			if err != nil {
				return err
			}
			if err := tree.Replace(restored.Snapshot()); err != nil {
				return translateError("restore", "", err)
			}

			cli.logger.Info("backup restored", "path", args[0], "nodes", restored.Len())
			printf(cmd, "restored %d node(s)\n", restored.Len())
			return nil
		},
	})
}

func (cli *CLI) addConfigCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.outputFormat()
			if err != nil {
				return err
			}

			settings := map[string]interface{}{
				"store":      cli.storePath(),
				"backend":    cli.viperInst.GetString("backend"),
				"format":     string(format),
				"log-level":  cli.viperInst.GetString("log-level"),
				"log-stderr": cli.viperInst.GetBool("log-stderr"),
			}
			if used := cli.viperInst.ConfigFileUsed(); used != "" {
				settings["config-file"] = used
			}

			if format != export.FormatText {
				return writeStructured(cmd.OutOrStdout(), settings, format)
			}
			for _, key := range []string{"config-file", "store", "backend", "format", "log-level", "log-stderr"} {
				if value, ok := settings[key]; ok {
					printf(cmd, "%-12s %v\n", key+":", value)
				}
			}
			return nil
		},
	})
}
