package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/editor"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/scene"
	"github.com/matzehuels/thinkingspace/pkg/session"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

type editOpts struct {
	file       string
	workspace  string
	noSnapshot bool
	grid       float64
	noSnap     bool
	mode       string
	logFile    string
}

func (c *CLI) editCommand() *cobra.Command {
	var opts editOpts
	cmd := &cobra.Command{
		Use:   "edit [source]",
		Short: "Edit a diagram in the terminal",
		Long: `Open the interactive terminal editor.

The diagram is loaded from source (a document file, a section directory or
an http(s) base URL), or from --file when no source is given. A source that
cannot be fetched opens an empty diagram.

The diagram is drawn top down: x runs left to right and z top to bottom.
Press ? in the editor for the key bindings. With --file the file is watched
and reloaded when it changes, and ctrl+s writes back to it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd, sourceArg(args), &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "document file to import, watch and export to")
	cmd.Flags().StringVarP(&opts.workspace, "workspace", "w", "", "snapshot workspace (default from config)")
	cmd.Flags().BoolVar(&opts.noSnapshot, "no-snapshot", false, "disable automatic snapshots")
	cmd.Flags().Float64Var(&opts.grid, "grid", 0, "grid size (default from config)")
	cmd.Flags().BoolVar(&opts.noSnap, "no-snap", false, "start with grid snapping off")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "initial gizmo mode: translate, rotate or scale")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file while the editor runs")
	return cmd
}

// editorOptions merges the configured editor settings with the flags.
func (c *CLI) editorOptions(cmd *cobra.Command, opts *editOpts) (editor.Options, error) {
	eo := editor.DefaultOptions()
	cfg := c.cfg.Editor
	if cfg.GridSize > 0 {
		eo.GridSize = cfg.GridSize
	}
	eo.Snap = cfg.Snap
	if cfg.Mode != "" {
		eo.Mode = editor.Mode(cfg.Mode)
	}
	if cmd.Flags().Changed("grid") {
		if opts.grid <= 0 {
			return eo, errors.New(errors.ErrCodeInvalidInput, "grid size must be positive, got %v", opts.grid)
		}
		eo.GridSize = opts.grid
	}
	if opts.noSnap {
		eo.Snap = false
	}
	if opts.mode != "" {
		eo.Mode = editor.Mode(opts.mode)
	}
	switch eo.Mode {
	case editor.ModeTranslate, editor.ModeRotate, editor.ModeScale:
	default:
		return eo, errors.New(errors.ErrCodeInvalidInput, "unknown mode %q (want translate, rotate or scale)", eo.Mode)
	}
	return eo, nil
}

func (c *CLI) runEdit(cmd *cobra.Command, src string, opts *editOpts) error {
	ctx := cmd.Context()
	eo, err := c.editorOptions(cmd, opts)
	if err != nil {
		return err
	}
	if src == "" && opts.file != "" {
		if _, err := os.Stat(opts.file); err == nil {
			src = opts.file
		}
	}

	var notice error
	doc, err := c.loadDocument(ctx, src)
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeFetch {
			return err
		}
		notice = err
	}

	workspace := c.cfg.Snapshot.Workspace
	if cmd.Flags().Changed("workspace") {
		workspace = opts.workspace
	}
	snapshots := c.cfg.Snapshot.Enabled && !opts.noSnapshot
	st, err := c.openStore(ctx, !snapshots, false)
	if err != nil {
		return err
	}
	defer st.Close()
	if _, null := st.(*store.NullStore); null {
		snapshots = false
	}
	interval := c.cfg.Snapshot.Interval.Duration
	if !snapshots {
		interval = 0
	}

	restore, err := logToFile(c.Logger, opts.logFile)
	if err != nil {
		return err
	}
	defer restore()

	renderer := scene.NewMemoryRenderer()
	gizmo := editor.NewTransformGizmo()
	panel := &termPanel{}
	sess := session.New(doc, renderer, session.Options{
		Editor:           eo,
		Picker:           renderer,
		Gizmo:            gizmo,
		Panel:            panel,
		Store:            st,
		Workspace:        workspace,
		SnapshotInterval: interval,
		SnapshotTTL:      c.cfg.Snapshot.TTL.Duration,
	}, c.Logger)
	defer sess.Close()

	var watcher *session.FileWatcher
	if opts.file != "" {
		if _, err := os.Stat(opts.file); err == nil {
			if watcher, err = session.WatchFile(opts.file, 0, c.Logger.WithPrefix("watch")); err != nil {
				c.Logger.Warn("not watching file", "path", opts.file, "err", err)
			} else {
				defer watcher.Close()
			}
		}
	}

	m := newEditorModel(ctx, sess, renderer, gizmo, panel, editorConfig{
		File:          opts.file,
		Watcher:       watcher,
		Snapshots:     snapshots,
		ConfirmDelete: c.cfg.Editor.ConfirmDelete,
	}, c.Logger.WithPrefix("tui"))
	if notice != nil {
		m.fail(fmt.Errorf("%s; starting empty", errors.UserMessage(notice)))
	}
	if snapshots {
		if snap, ok, err := sess.Snapshots().Latest(ctx); err != nil {
			c.Logger.Warn("snapshot unreadable", "err", err)
		} else if ok && !snap.Document.Equal(doc) {
			m.askRestore(snap)
		}
		sess.Snapshots().Start()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}

	if snapshots {
		if _, err := sess.Snapshots().Save(context.WithoutCancel(ctx), sess.Document()); err != nil {
			c.Logger.Warn("final snapshot failed", "err", err)
		}
	}
	return nil
}
