// Package cli implements the treasury command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/treasury/pkg/types"
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
}

var flags rootFlags

// NewRootCmd creates the top-level "treasury" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "treasury",
		Short: "Manage group treasuries held in Safe accounts",
		Long: "Treasury binds groups to Safe multisig accounts, keeps their signer sets\n" +
			"in step with group membership, and queues transaction proposals.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $TREASURY_CONFIG_DIR or the platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .treasury-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newCreateCmd(),
		newActivateCmd(),
		newReconnectCmd(),
		newUnbindCmd(),
		newShowCmd(),
		newProposeCmd(),
		newProposalsCmd(),
		newSyncCmd(),
		newCheckCmd(),
		newInspectCmd(),
		newExportCmd(),
		newServeCmd(),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// sysError marks failures of the environment (storage, filesystem, network)
// rather than of the user's input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// userFacing are the domain errors a user can fix by changing the request.
var userFacing = []error{
	types.ErrInvalidInput,
	types.ErrNotFound,
	types.ErrAlreadyBound,
	types.ErrAccountNotActive,
	types.ErrInvalidTransition,
}

// serviceErr classifies an error returned by the treasury service.
func serviceErr(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range userFacing {
		if errors.Is(err, target) {
			return err
		}
	}
	return &sysError{err: err}
}

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
