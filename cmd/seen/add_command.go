package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"seen/internal/config"
	"seen/internal/daemon"
	"seen/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Queue a local video for normalization and sampling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				item, err := daemon.EnqueueFile(cmd.Context(), cfg, store, absPath)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"id": item.ID, "publicId": item.PublicID})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as job #%d (%s)\n", filepath.Base(absPath), item.ID, item.PublicID)
				return nil
			})
		},
	}
}
