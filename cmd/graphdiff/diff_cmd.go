package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/fluxcd/graphdiff/pkg/diff"
	"github.com/fluxcd/graphdiff/pkg/element"
	gderrors "github.com/fluxcd/graphdiff/pkg/errors"
)

type diffOpts struct {
	*rootOpts
	format string
}

func newDiff(root *rootOpts) *diffOpts {
	return &diffOpts{rootOpts: root}
}

func (opts *diffOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <original> <revised>",
		Short: "Show the differences between one document and another",
		RunE:  opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.format, "output", "o", "text", "(yaml|json|text) whether to output differences in YAML or JSON, or just summarise in text")
	return cmd
}

func (opts *diffOpts) RunE(cmd *cobra.Command, args []string) error {
	output := func(el element.Element) error {
		diff.Summarise(cmd.OutOrStdout(), el)
		return nil
	}

	switch opts.format {
	case "text":
		// already output
	case "json":
		output = func(el element.Element) error {
			bytes, err := json.MarshalIndent(changes(el), "", "  ")
			if err != nil {
				return errors.Wrap(err, "marshalling to output format json")
			}
			cmd.OutOrStdout().Write(append(bytes, '\n'))
			return nil
		}
	case "yaml":
		output = func(el element.Element) error {
			bytes, err := yaml.Marshal(changes(el))
			if err != nil {
				return errors.Wrap(err, "marshalling to output format yaml")
			}
			cmd.OutOrStdout().Write(bytes)
			return nil
		}
	default:
		return errorInvalidOutputFormat
	}

	original, revised, err := loadDocuments(cmd.InOrStdin(), args, opts.path)
	if err != nil {
		return err
	}
	defer opts.logMetrics()

	el, err := opts.engine.Diff(original, revised)
	switch errors.Cause(err) {
	case nil:
	case diff.ErrShapeMismatch:
		return gderrors.ShapeMismatch(err)
	case diff.ErrMaxDepth:
		return gderrors.DepthExceeded(err)
	default:
		return err
	}
	return output(el)
}

// changes never returns nil, so that no changes are output as an
// empty list.
func changes(el element.Element) []diff.Change {
	cs := diff.Changes(el)
	if cs == nil {
		cs = []diff.Change{}
	}
	return cs
}
