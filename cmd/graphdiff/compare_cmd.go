package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type compareOpts struct {
	*rootOpts
	quiet bool
}

func newCompare(root *rootOpts) *compareOpts {
	return &compareOpts{rootOpts: root}
}

func (opts *compareOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <original> <revised>",
		Short: "Report whether two documents are equal; exits with status 1 if they are not",
		RunE:  opts.RunE,
	}
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "output nothing, and only set the exit status")
	return cmd
}

func (opts *compareOpts) RunE(cmd *cobra.Command, args []string) error {
	original, revised, err := loadDocuments(cmd.InOrStdin(), args, opts.path)
	if err != nil {
		return err
	}
	defer opts.logMetrics()

	equal := opts.engine.Compare(original, revised)
	if !opts.quiet {
		if equal {
			fmt.Fprintln(cmd.OutOrStdout(), "documents are equal")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "documents differ")
		}
	}
	if !equal {
		return errDifferent
	}
	return nil
}
