package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/config"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// storeCommand manages the local file store holding snapshots and cached
// renders.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the local snapshot and render store",
	}
	cmd.AddCommand(c.storePathCommand())
	cmd.AddCommand(c.storeClearCommand())
	return cmd
}

func (c *CLI) storeDir() (string, error) {
	if c.cfg.Store.Dir != "" {
		return c.cfg.Store.Dir, nil
	}
	return config.StoreDir()
}

func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the store directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.storeDir()
			if err != nil {
				return fmt.Errorf("get store dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func (c *CLI) storeClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every snapshot and cached render in the file store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if b := c.cfg.Store.Backend; b != "" && b != store.BackendFile {
				return fmt.Errorf("store clear only handles the file backend (configured: %s)", b)
			}
			dir, err := c.storeDir()
			if err != nil {
				return fmt.Errorf("get store dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Store is empty")
				return nil
			}
			fs, err := store.NewFileStore(dir)
			if err != nil {
				return err
			}
			defer fs.Close()
			n, err := fs.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d stored entries", n)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}
