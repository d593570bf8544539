package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/server"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		dataDir string
		origins []string
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a diagram's section files and render API over HTTP",
		Long: `Serve the diagram kept in a data directory.

The directory holds nodes.yaml, connections.yaml and groups.yaml; they are
served under /data/ for the initial load and rewritten when a document is
PUT to /api/document. Snapshots and cached renders live in the configured
store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()
			if !flags.Changed("addr") {
				addr = c.cfg.Server.Addr
			}
			if !flags.Changed("data") {
				dataDir = c.cfg.Server.DataDir
			}
			if !flags.Changed("origin") {
				origins = c.cfg.Server.AllowedOrigins
			}
			repo, err := server.OpenDir(ctx, dataDir, c.Logger.WithPrefix("repo"))
			if err != nil {
				return err
			}
			var st store.Store = store.NewMemoryStore()
			if !noStore {
				if st, err = c.openStore(ctx, false, false); err != nil {
					return err
				}
			}
			defer st.Close()

			srv := server.New(repo, server.Options{
				AllowedOrigins: origins,
				Store:          st,
				SnapshotTTL:    c.cfg.Snapshot.TTL.Duration,
			}, c.Logger.WithPrefix("http"))

			printSuccess("Serving %s", formatStats(repo.Document().Stats()))
			printKeyValue("Address", "http://"+addr)
			printKeyValue("Data", repo.Dir())
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", c.cfg.Server.Addr, "listen address")
	cmd.Flags().StringVar(&dataDir, "data", c.cfg.Server.DataDir, "directory holding the section files")
	cmd.Flags().StringSliceVar(&origins, "origin", c.cfg.Server.AllowedOrigins, "allowed CORS origins")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "keep snapshots and renders in memory only")
	return cmd
}
