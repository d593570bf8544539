package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/buildinfo"
	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/session"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

func (c *CLI) snapshotCommand() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the automatic snapshot of a workspace",
		Long: `The editor periodically saves the open diagram to a snapshot slot in the
configured store, one slot per workspace. These commands read and clear it
without starting the editor.`,
	}
	cmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace name (default from config)")

	open := func(ctx context.Context, cmd *cobra.Command) (*session.Snapshotter, func() error, error) {
		if !cmd.Flags().Changed("workspace") {
			workspace = c.cfg.Snapshot.Workspace
		}
		st, err := c.openStore(ctx, false, true)
		if err != nil {
			return nil, nil, err
		}
		key := store.NewDefaultKeyer().SnapshotKey(workspace)
		return session.NewSnapshotter(st, key, 0, 0, c.Logger.WithPrefix("snapshot")), st.Close, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Describe the stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, closeStore, err := open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			snap, ok, err := snaps.Latest(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				printInfo("No snapshot for workspace %q", workspace)
				return nil
			}
			printKeyValue("Workspace", workspace)
			printKeyValue("Key", snaps.Key())
			printKeyValue("Saved", fmt.Sprintf("%s (%s ago)", snap.SavedAt.Local().Format(time.DateTime), time.Since(snap.SavedAt).Round(time.Second)))
			printKeyValue("Hash", snap.Hash[:min(12, len(snap.Hash))])
			printKeyValue("Contents", formatStats(snap.Document.Stats()))
			printNextStep("Write it to a file", "thinkingspace snapshot restore -o diagram.yaml")
			return nil
		},
	})

	var output string
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Write the stored snapshot to a document file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, closeStore, err := open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			snap, ok, err := snaps.Latest(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no snapshot for workspace %q", workspace)
			}
			if err := codec.WriteFile(output, snap.Document, codec.Metadata{Exported: snap.SavedAt, Version: buildinfo.Version}); err != nil {
				return err
			}
			printSuccess("Restored snapshot from %s", snap.SavedAt.Local().Format(time.DateTime))
			printFile(output)
			return nil
		},
	}
	restore.Flags().StringVarP(&output, "output", "o", defaultExportPath, "output file (.yaml or .json)")
	cmd.AddCommand(restore)

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, closeStore, err := open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := snaps.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Cleared snapshot for workspace %q", workspace)
			return nil
		},
	})
	return cmd
}
