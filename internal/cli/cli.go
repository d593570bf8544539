// Package cli implements the thinkingspace command-line interface.
package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/buildinfo"
	"github.com/matzehuels/thinkingspace/pkg/config"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/export"
	"github.com/matzehuels/thinkingspace/pkg/httputil"
	"github.com/matzehuels/thinkingspace/pkg/loader"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/observability"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// defaultExportPath is where a quick export goes without --file.
	defaultExportPath = "system-architecture.yaml"

	// retryDelay is the wait before the first retry of an HTTP load.
	retryDelay = 500 * time.Millisecond
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "thinkingspace",
		Short: "ThinkingSpace edits 3D system architecture diagrams",
		Long: `ThinkingSpace is an editor for system architecture diagrams made of nodes,
connections and groups laid out in 3D space. Diagrams are plain YAML or JSON
documents that can be edited interactively, served over HTTP, and rendered
to DOT, SVG and PNG.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/thinkingspace/config.toml)")

	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and, at debug level, routes the
// observability hooks to the log.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			c.Logger.Debug("no config directory", "err", err)
			return nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.configPath = path
	if c.Logger.GetLevel() <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Install()
	}
	return nil
}

// =============================================================================
// Store & Runner Factory
// =============================================================================

// openStore opens the configured store. Unless required, a store that
// cannot be opened degrades to the null store with a warning.
func (c *CLI) openStore(ctx context.Context, disabled, required bool) (store.Store, error) {
	if disabled {
		return store.NewNullStore(), nil
	}
	opts, err := c.cfg.StoreOptions()
	if err == nil {
		var st store.Store
		if st, err = store.Open(ctx, opts); err == nil {
			c.Logger.Debug("store opened", "backend", opts.Backend)
			return st, nil
		}
	}
	if required {
		return nil, err
	}
	c.Logger.Warn("store unavailable, continuing without persistence", "err", err)
	return store.NewNullStore(), nil
}

// newRunner creates an export runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*export.Runner, error) {
	st, err := c.openStore(ctx, noCache, false)
	if err != nil {
		return nil, err
	}
	return export.NewRunner(st, nil, c.Logger.WithPrefix("export")), nil
}

// =============================================================================
// Document Sources
// =============================================================================

// loadDocument reads a diagram from src: an http(s) base URL serving the
// three section files, a directory holding them, or a single document file.
// An empty src falls back to loader.base_url and then to an empty
// document.
//
// Section loads follow the loader's contract: on failure the returned
// document is empty and the error carries FETCH_ERROR.
func (c *CLI) loadDocument(ctx context.Context, src string) (*model.Document, error) {
	if src == "" {
		src = c.cfg.Loader.BaseURL
	}
	if src == "" {
		return model.New(), nil
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if err := errors.ValidateURL(src); err != nil {
			return model.New(), err
		}
		client := httputil.NewClient(&http.Client{Timeout: c.cfg.Loader.Timeout.Duration}, c.cfg.Loader.Attempts, retryDelay)
		return loader.New(loader.NewHTTPSource(src, client), c.Logger.WithPrefix("loader")).Load(ctx)
	}
	info, err := os.Stat(src)
	if err != nil {
		return model.New(), errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", src)
	}
	if info.IsDir() {
		return loader.New(loader.DirSource{Dir: src}, c.Logger.WithPrefix("loader")).Load(ctx)
	}
	return loader.ReadFile(ctx, src)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, def string) []string {
	if s == "" {
		return []string{def}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
