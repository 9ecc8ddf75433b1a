package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/panelstate/internal/presentation/graph"
	"github.com/aretw0/panelstate/internal/presentation/tui"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/treeio"
	"github.com/spf13/cobra"
)

// errNoValue is returned by resolve when the shape matches nothing.
var errNoValue = errors.New("no value at shape")

// addOutputFlag registers --output on commands printing a tree.
func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}

func writeTree(cmd *cobra.Command, t *domain.Tree) error {
	name, _ := cmd.Flags().GetString("output")
	format, err := treeio.ParseFormat(name)
	if err != nil {
		return err
	}
	return treeio.Encode(cmd.OutOrStdout(), t, format)
}

func readTrees(paths []string) ([]*domain.Tree, error) {
	trees := make([]*domain.Tree, len(paths))
	for i, p := range paths {
		t, err := treeio.ReadFile(p)
		if err != nil {
			return nil, err
		}
		trees[i] = t
	}
	return trees, nil
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Deep-merge trees, later files winning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trees, err := readTrees(args)
			if err != nil {
				return err
			}
			return writeTree(cmd, domain.MergeCopy(trees...))
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Show what changed between two trees",
		Long: `Compares two trees.

Formats:
- patch (default): the patch domain.Diff computes. Removed keys are recorded
  as null, so merging it into before leaves them null rather than deleting them.
- merge-patch: an RFC 7386 merge patch, lists replaced whole.
- text: a line diff of both flattened listings.
- mermaid: a flowchart of after with the changed paths highlighted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trees, err := readTrees(args)
			if err != nil {
				return err
			}
			before, after := trees[0], trees[1]
			format, _ := cmd.Flags().GetString("format")
			out := cmd.OutOrStdout()

			switch format {
			case "patch":
				patch := domain.Diff(before, after)
				if patch == nil {
					patch = domain.NewMap()
				}
				return writeTree(cmd, patch)
			case "merge-patch":
				patch, err := treeio.MergePatch(before, after)
				if err != nil {
					return err
				}
				return writeTree(cmd, patch)
			case "text":
				return printer(cmd).Diff(out, treeio.TextDiff(before, after))
			case "mermaid":
				var changed []string
				for _, pv := range domain.Flatten(domain.Diff(before, after), "") {
					changed = append(changed, pv.Path)
				}
				_, err := fmt.Fprint(out, graph.GenerateMermaid(after, args[1], &graph.Overlay{Changed: changed}))
				return err
			default:
				return fmt.Errorf("unknown diff format %q", format)
			}
		},
	}
	cmd.Flags().String("format", "patch", "Diff format: patch, merge-patch, text, mermaid")
	cmd.Flags().Bool("color", false, "Colour the text format")
	addOutputFlag(cmd)
	return cmd
}

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <file> <patch>",
		Short: "Apply a merge patch (RFC 7386) or JSON patch (RFC 6902) to a tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := treeio.ReadFile(args[0])
			if err != nil {
				return err
			}

			var result *domain.Tree
			if jsonPatch, _ := cmd.Flags().GetBool("json-patch"); jsonPatch {
				ops, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[1], err)
				}
				result, err = treeio.ApplyJSONPatch(doc, ops)
				if err != nil {
					return err
				}
			} else {
				patch, err := treeio.ReadFile(args[1])
				if err != nil {
					return err
				}
				result, err = treeio.ApplyMergePatch(doc, patch)
				if err != nil {
					return err
				}
			}
			return writeTree(cmd, result)
		},
	}
	cmd.Flags().Bool("json-patch", false, "Read the patch as an RFC 6902 operation list")
	addOutputFlag(cmd)
	return cmd
}

func newFlattenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten <file>",
		Short: "List every leaf of a tree with its dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := treeio.ReadFile(args[0])
			if err != nil {
				return err
			}
			prefix, _ := cmd.Flags().GetString("prefix")
			return printer(cmd).Listing(cmd.OutOrStdout(), t, prefix)
		},
	}
	cmd.Flags().String("prefix", "", "Prefix prepended to every path")
	cmd.Flags().Bool("color", false, "Colour the output")
	return cmd
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <shape> <data>",
		Short: "Read the value a shape describes, falling back to defaults",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trees, err := readTrees(args)
			if err != nil {
				return err
			}
			var defaults *domain.Tree
			if path, _ := cmd.Flags().GetString("defaults"); path != "" {
				if defaults, err = treeio.ReadFile(path); err != nil {
					return err
				}
			}

			value := domain.Load(trees[0], trees[1], defaults)
			if value == nil {
				return errNoValue
			}
			return writeTree(cmd, value)
		},
	}
	cmd.Flags().String("defaults", "", "Tree read when data has no truthy value")
	addOutputFlag(cmd)
	return cmd
}

// printer colours output only when --color is set and the command has it.
func printer(cmd *cobra.Command) tui.Printer {
	if f := cmd.Flags().Lookup("color"); f != nil && f.Value.String() == "true" {
		return tui.NewPrinter()
	}
	return tui.Plain()
}
