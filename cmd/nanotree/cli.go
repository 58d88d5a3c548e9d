package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/nanotree/nanotree/export"
	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/store"
	"github.com/arthur-debert/nanotree/nanotree/workspace"
)

// defaultStoreName is the file used when no store is configured
const defaultStoreName = "projects.json"

// CLI holds the command tree together with the state a single run shares:
// configuration, the logger, and the opened tree.
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper

	logger  *slog.Logger
	logFile io.Closer
	tree    *workspace.Tree
}

// NewCLI builds a CLI with a fresh configuration and command tree
func NewCLI() *CLI {
	cli := &CLI{
		viperInst: viper.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()

	return cli
}

// setupViperConfig wires config file discovery, environment variables and
// defaults
func (cli *CLI) setupViperConfig() {
	v := cli.viperInst

	if configFile := os.Getenv("NANOTREE_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nanotree")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.nanotree")
		v.AddConfigPath("/etc/nanotree")
	}

	v.SetEnvPrefix("NANOTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", filepath.Join(getXDGDataDir(), defaultStoreName))
	v.SetDefault("backend", "auto")
	v.SetDefault("format", string(export.FormatText))
	v.SetDefault("log-level", "warn")
	v.SetDefault("log-stderr", false)
}

// readConfig loads the config file if one was found. A missing file in the
// default locations is fine; a missing or broken explicit file is not.
func (cli *CLI) readConfig() error {
	err := cli.viperInst.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return NewConfigError("read configuration", err.Error(), commonSuggestions.CheckConfig)
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "nanotree",
		Short: "Organize projects into an ordered tree of folders",
		Long: `nanotree keeps an ordered hierarchy of folders and leaves. A leaf
points at a location, usually a project directory; folders group leaves
and other folders. Order is meaningful at every level.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (NANOTREE_*)
3. Configuration file (NANOTREE_CONFIG, ./nanotree.yaml,
   ~/.nanotree/nanotree.yaml or /etc/nanotree/nanotree.yaml)

Nodes can be referred to by their full id or by a unique prefix of at
least four characters.

Examples:
  nanotree add folder Work
  nanotree add leaf api ~/src/api --parent 3f2a
  nanotree move 9c1e --before 77ab
  nanotree tree --format yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.readConfig(); err != nil {
				return err
			}

			var stderr io.Writer
			if cli.viperInst.GetBool("log-stderr") {
				stderr = cmd.ErrOrStderr()
			}
			logger, logFile, err := initLogging(cli.viperInst.GetString("log-level"), stderr)
			if err != nil {
				return err
			}
			cli.logger = logger
			cli.logFile = logFile
			logger.Debug("command started", "command", cmd.CommandPath(), "args", args)
			return nil
		},
	}

	cli.addGlobalFlags()
}

func (cli *CLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	flags.StringP("store", "s", "", "path to the store file (.json, or .db for SQLite)")
	flags.String("backend", "", "storage backend (auto|json|sqlite)")
	flags.StringP("format", "f", "", "output format (text|json|yaml)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.Bool("log-stderr", false, "also write log records to stderr")

	for _, name := range []string{"store", "backend", "format", "log-level", "log-stderr"} {
		flag := flags.Lookup(name)
		_ = cli.viperInst.BindPFlag(name, flag)
	}
}

func (cli *CLI) addCommands() {
	cli.addAddCommand()
	cli.addRenameCommand()
	cli.addMoveCommand()
	cli.addRemoveCommand()

	cli.addListCommand()
	cli.addShowCommand()
	cli.addTreeCommand()
	cli.addLocateCommand()
	cli.addFindCommand()

	cli.addCheckCommand()
	cli.addExportCommand()
	cli.addBackupCommand()
	cli.addRestoreCommand()
	cli.addConfigCommand()
}

// Execute runs the command line and releases everything the run opened
func (cli *CLI) Execute() error {
	err := cli.rootCmd.Execute()
	if closeErr := cli.close(); err == nil && closeErr != nil {
		err = closeErr
	}
	return err
}

func (cli *CLI) close() error {
	var err error
	if cli.tree != nil {
		if closeErr := cli.tree.Close(); closeErr != nil {
			err = NewStoreError("close store", closeErr)
		}
		cli.tree = nil
	}
	if cli.logFile != nil {
		_ = cli.logFile.Close()
		cli.logFile = nil
	}
	return err
}

// storePath returns the configured store path with ~ expanded
func (cli *CLI) storePath() string {
	path := cli.viperInst.GetString("store")
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// outputFormat returns the validated --format value
func (cli *CLI) outputFormat() (export.Format, error) {
	value := cli.viperInst.GetString("format")
	format, err := export.ParseFormat(value)
	if err != nil {
		return "", NewValidationError("render output", "format", value, "Use one of: text, json, yaml")
	}
	return format, nil
}

// openTree opens the configured store once per run. Recovered load
// problems are reported on stderr but never stop the command.
func (cli *CLI) openTree(cmd *cobra.Command) (*workspace.Tree, error) {
	if cli.tree != nil {
		return cli.tree, nil
	}

	backendName := cli.viperInst.GetString("backend")
	kind, err := store.ParseKind(backendName)
	if err != nil {
		return nil, NewConfigError("open store", err.Error(), "Use --backend json or --backend sqlite")
	}

	path := cli.storePath()
	backend, err := store.Open(path, store.WithKind(kind), store.WithLogger(cli.logger))
	if err != nil {
		return nil, NewStoreError("open store", err, commonSuggestions.CheckStore)
	}

	tree, err := workspace.Open(backend, workspace.WithLogger(cli.logger))
	if err != nil {
		_ = backend.Close()
		return nil, NewStoreError("open store", err, commonSuggestions.CheckStore)
	}

	if report := tree.Report(); !report.Clean() {
		warnLoad(cmd.ErrOrStderr(), path, report)
	}

	cli.tree = tree
	return tree, nil
}

// resolve turns a user reference into a node id. The empty reference means
// the top level.
func (cli *CLI) resolve(tree *workspace.Tree, operation, ref string) (string, error) {
	if ref == "" {
		return hierarchy.Root, nil
	}
	var id string
	err := tree.View(func(s *hierarchy.Store) error {
		var err error
		id, err = s.Resolve(ref)
		return err
	})
	if err != nil {
		return "", translateError(operation, ref, err)
	}
	return id, nil
}

// resolveNode is resolve for references that must name a node
func (cli *CLI) resolveNode(tree *workspace.Tree, operation, ref string) (string, error) {
	if ref == "" {
		return "", NewValidationError(operation, "id", ref, commonSuggestions.ListIDs)
	}
	return cli.resolve(tree, operation, ref)
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
