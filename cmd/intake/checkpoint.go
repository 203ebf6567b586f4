package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimdesk/intake/internal/cli"
	"github.com/claimdesk/intake/internal/presentation/graph"
	"github.com/claimdesk/intake/internal/presentation/tui"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:     "checkpoint",
	Aliases: []string{"cp"},
	Short:   "Inspect and manage saved wizard progress",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List progress keys with a saved checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store ports.CheckpointStore) error {
			keys, err := store.List(ctx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k.String())
			}
			return nil
		})
	},
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved progress of one key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyFromFlags(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		return withStore(cmd.Context(), func(ctx context.Context, store ports.CheckpointStore) error {
			cp, err := store.Load(ctx, key)
			if err != nil {
				return err
			}
			if cp.Expired(time.Now()) {
				logger.Warn("checkpoint expired; it will not be resumed", "key", key.String(), "expired_at", cp.ExpiresAt)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, cp)
			}

			reg, err := cli.LoadRegistry(cfg.Variants)
			if err != nil {
				return err
			}
			steps, err := reg.Steps(key.Variant)
			if err != nil {
				return err
			}
			if format == "mermaid" {
				_, err := fmt.Fprint(out, graph.GenerateMermaid(steps, graph.OverlayFromCheckpoint(cp, steps)))
				return err
			}
			return writeMarkdown(out, tui.CheckpointMarkdown(cp, steps))
		})
	},
}

var checkpointDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Discard the saved progress of one key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyFromFlags(cmd)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(ctx context.Context, store ports.CheckpointStore) error {
			if err := store.Delete(ctx, key); err != nil {
				return err
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Deleted progress for %s.", key)
			return nil
		})
	},
}

// expiryPruner is implemented by stores that can delete expired records in bulk.
type expiryPruner interface {
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

var checkpointPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired checkpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := cli.OpenBackend(cfg.Store)
		if err != nil {
			return err
		}
		if backend.Closer != nil {
			defer backend.Closer.Close()
		}
		ctx := cmd.Context()
		now := time.Now()

		var pruned int64
		if p, ok := backend.Store.(expiryPruner); ok {
			if pruned, err = p.PruneExpired(ctx, now); err != nil {
				return err
			}
		} else {
			// Expiry metadata stays in clear text, so the raw store is enough here.
			keys, err := backend.Store.List(ctx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				cp, err := backend.Store.Load(ctx, k)
				if errors.Is(err, domain.ErrCheckpointNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if cp.Expired(now) {
					if err := backend.Store.Delete(ctx, k); err != nil {
						return err
					}
					pruned++
				}
			}
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Pruned %d expired checkpoint(s).", pruned)
		return nil
	},
}

// withStore opens the configured store with its middleware for the duration of fn.
func withStore(ctx context.Context, fn func(context.Context, ports.CheckpointStore) error) error {
	backend, err := cli.OpenBackend(cfg.Store)
	if err != nil {
		return err
	}
	if backend.Closer != nil {
		defer backend.Closer.Close()
	}
	store, err := cli.WrapStore(backend.Store, cfg.Persistence)
	if err != nil {
		return err
	}
	return fn(ctx, store)
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointListCmd, checkpointShowCmd, checkpointDeleteCmd, checkpointPruneCmd)

	addKeyFlags(checkpointShowCmd)
	addKeyFlags(checkpointDeleteCmd)
	checkpointShowCmd.Flags().StringP("format", "f", "markdown", "output format: markdown, json, mermaid")
}
