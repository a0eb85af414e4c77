package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	gderrors "github.com/fluxcd/graphdiff/pkg/errors"
)

const (
	exitDifferent = 1
	exitTrouble   = 2
)

type usageError struct {
	error
}

func newUsageError(msg string) usageError {
	return usageError{error: errors.New(msg)}
}

// errDifferent is returned by compare when the documents differ. It
// has nothing to say beyond the exit status.
var errDifferent = errors.New("documents differ")

var errorWantedTwoArgs = newUsageError("please supply two documents (a filename, or - for stdin)")
var errorInvalidOutputFormat = newUsageError("output format --output,-o must be 'text', 'json' or 'yaml'")
var errorInvalidLogFormat = newUsageError("log format --log-format must be 'fmt' or 'json'")

// handleError reports err on cmd's error output and returns the exit
// status it calls for. When the command was asked for JSON output,
// typed errors are written as JSON too.
func handleError(cmd *cobra.Command, err error) int {
	switch err := err.(type) {
	case usageError:
		cmd.PrintErrln("Error: " + err.Error())
		cmd.PrintErrln("")
		cmd.PrintErrln(cmd.UsageString())
	case *gderrors.Error:
		printError(cmd, err)
	default:
		if err == errDifferent {
			return exitDifferent
		}
		printError(cmd, gderrors.CoverAllError(err))
	}
	return exitTrouble
}

func printError(cmd *cobra.Command, err *gderrors.Error) {
	if f := cmd.Flags().Lookup("output"); f != nil && f.Value.String() == "json" {
		if bytes, jsonErr := json.Marshal(err); jsonErr == nil {
			cmd.PrintErrln(string(bytes))
			return
		}
	}
	cmd.PrintErrln(err.Help)
}
