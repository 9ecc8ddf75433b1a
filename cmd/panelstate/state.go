package main

import (
	"fmt"

	"github.com/aretw0/panelstate/internal/config"
	"github.com/aretw0/panelstate/internal/presentation/graph"
	"github.com/aretw0/panelstate/internal/presentation/tui"
	"github.com/aretw0/panelstate/pkg/ports"
	"github.com/aretw0/panelstate/pkg/treeio"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Manage stored panel states",
		Long: `List, inspect, write and remove the states kept in the snapshot store.
Without a redis store the file store under --store-path is used.`,
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List all stored states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openStateStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore(closeFn)

			ids, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing states: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No stored states found.")
				return nil
			}
			fmt.Fprintln(out, "Stored States:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <id>",
		Short: "Print a stored state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			store, closeFn, err := openStateStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore(closeFn)

			state, err := store.Load(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error loading state '%s': %w", id, err)
			}

			out := cmd.OutOrStdout()
			pretty, _ := cmd.Flags().GetBool("pretty")
			mermaid, _ := cmd.Flags().GetBool("mermaid")
			switch {
			case mermaid:
				_, err = fmt.Fprint(out, graph.GenerateMermaid(state, id, nil))
				return err
			case pretty:
				render, err := tui.NewRenderer()
				if err != nil {
					return err
				}
				text, err := render(tui.StateMarkdown(id, state))
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, text)
				return err
			default:
				return writeTree(cmd, state)
			}
		},
	}
	inspectCmd.Flags().Bool("pretty", false, "Render the state as a table")
	inspectCmd.Flags().Bool("mermaid", false, "Print the state as a Mermaid flowchart")
	addOutputFlag(inspectCmd)

	putCmd := &cobra.Command{
		Use:   "put <id> <file>",
		Short: "Write a tree to the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			state, err := treeio.ReadFile(args[1])
			if err != nil {
				return err
			}
			store, closeFn, err := openStateStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore(closeFn)

			if err := store.Save(cmd.Context(), id, state); err != nil {
				return fmt.Errorf("error saving state '%s': %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved state '%s'\n", id)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove one or more stored states",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if !all && len(args) == 0 {
				return fmt.Errorf("requires at least 1 id, or --all")
			}

			store, closeFn, err := openStateStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore(closeFn)

			if all {
				if args, err = store.List(cmd.Context()); err != nil {
					return fmt.Errorf("error listing states: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, id := range args {
				if err := store.RemoveEntry(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(out, "Removed state '%s'\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d state(s) could not be removed", failed)
			}
			return nil
		},
	}
	rmCmd.Flags().Bool("all", false, "Remove every stored state")

	stateCmd.AddCommand(lsCmd, inspectCmd, putCmd, rmCmd)
	return stateCmd
}

// openStateStore opens the configured store. The in-process kinds make no
// sense from the command line, so they fall back to the file store.
func openStateStore(cmd *cobra.Command) (ports.SnapshotStore, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Kind != config.StoreRedis {
		cfg.Store.Kind = config.StoreFile
	}
	return buildStore(cfg.Store)
}

func closeStore(closeFn func() error) {
	if closeFn != nil {
		_ = closeFn()
	}
}
