// Package cli implements the entities command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entities/internal/paths"
	"github.com/mesh-intelligence/entities/pkg/sqlite"
	"github.com/mesh-intelligence/entities/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state shared by the subcommands of one root command.
type app struct {
	flags    rootFlags
	settings settings
	logger   *slog.Logger
}

// NewRootCmd creates the top-level "entities" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	root := &cobra.Command{
		Use:   "entities",
		Short: "Local storage for versioned entity lists",
		Long: "entities keeps named lists of versioned entities in a local SQLite\n" +
			"database. Each entity carries an id, an optional label, version\n" +
			"information, free-form properties and an offline/online state.",
		Version: Version,
		// Errors are printed once by Execute.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newListsCmd(a))
	root.AddCommand(newAddListCmd(a))
	root.AddCommand(newHashCmd(a))
	root.AddCommand(newSaveCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newAtCmd(a))
	root.AddCommand(newFindCmd(a))
	root.AddCommand(newAllCmd(a))
	root.AddCommand(newCountCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newClearCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}
	color.New(color.FgRed).Fprintln(root.ErrOrStderr(), "Error:", err)
	return ExitCode(err)
}

// setup loads config.yaml and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	configLoc, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	s, err := loadSettings(configLoc.Dir)
	if err != nil {
		return userError(err)
	}
	if a.flags.logLevel != "" {
		s.LogLevel = a.flags.logLevel
	}

	logger, err := newLogger(cmd.ErrOrStderr(), s.LogLevel)
	if err != nil {
		return userError(err)
	}

	a.settings = s
	a.logger = logger
	a.logger.Debug("config resolved", "dir", configLoc.Dir, "source", configLoc.Source)
	return nil
}

// resolveDataDir applies --data-dir > config data_dir > ENTITIES_DATA_DIR >
// $(CWD)/.entities-db.
func (a *app) resolveDataDir() (paths.Location, error) {
	loc, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return paths.Location{}, err
	}
	a.logger.Debug("data dir resolved", "dir", loc.Dir, "source", loc.Source)
	return loc, nil
}

// openStore attaches a SQLite backend for the resolved data directory. The
// caller must defer Detach.
func (a *app) openStore() (*sqlite.Backend, error) {
	dataLoc, err := a.resolveDataDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	cfg := a.settings.Config
	cfg.DataDir = dataLoc.Dir

	store := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := store.Attach(cfg); err != nil {
		return nil, classify(fmt.Errorf("attach store: %w", err))
	}
	return store, nil
}

// withStore opens the store, runs fn and detaches.
func (a *app) withStore(fn func(store *sqlite.Backend) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	if err := fn(store); err != nil {
		return classify(err)
	}
	return nil
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// classify maps store errors to exit codes: invalid input is a user error,
// anything else a system error. Already classified errors pass through.
func classify(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range []error{
		types.ErrInvalidListName,
		types.ErrInvalidID,
		types.ErrInvalidProperty,
		types.ErrInvalidState,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrJournalModeUnknown,
		types.ErrBusyTimeoutInvalid,
		types.ErrCacheSizeInvalid,
	} {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// ExitCode returns the process exit code for an error returned by the root
// command. Unclassified errors, such as cobra argument errors, are user
// errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
