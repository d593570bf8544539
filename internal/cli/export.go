package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/export"
	"github.com/matzehuels/thinkingspace/pkg/render/dot"
)

// exportOpts holds the flags shared by export and render.
type exportOpts struct {
	formats    string
	output     string
	width      int
	height     int
	background string
	scale      float64
	noCache    bool
	refresh    bool
}

func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts
	cmd := &cobra.Command{
		Use:   "export [source]",
		Short: "Export a diagram as YAML or JSON",
		Long: `Export a diagram with a provenance header.

The source is a document file, a directory holding nodes.yaml,
connections.yaml and groups.yaml, or an http(s) URL serving them. Without a
source, loader.base_url from the configuration is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.exportDefaults(cmd, &opts)
			return c.runExport(cmd.Context(), sourceArg(args), c.cfg.Export.Dialect, &opts)
		},
	}
	c.exportFlags(cmd, &opts, "output format(s): yaml (default), json, dot, svg, png (comma-separated)")
	return cmd
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts exportOpts
	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render a diagram to SVG, PNG or DOT",
		Long: `Render a diagram as an image.

svg and dot show the plan view (x/z plane) laid out with Graphviz; png
shows the front view (x/y plane) with connection arcs. Renders are cached
in the store by document content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.exportDefaults(cmd, &opts)
			return c.runExport(cmd.Context(), sourceArg(args), export.FormatSVG, &opts)
		},
	}
	c.exportFlags(cmd, &opts, "output format(s): svg (default), png, dot (comma-separated)")
	return cmd
}

func (c *CLI) exportFlags(cmd *cobra.Command, opts *exportOpts, formatHelp string) {
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", formatHelp)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (multiple), or - for stdout")
	cmd.Flags().IntVar(&opts.width, "width", c.cfg.Export.Width, "png width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", c.cfg.Export.Height, "png height in pixels")
	cmd.Flags().StringVar(&opts.background, "background", "", "png background color (default transparent)")
	cmd.Flags().Float64Var(&opts.scale, "scale", dot.DefaultScale, "inches per world unit in svg and dot")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
}

// exportDefaults applies the configuration file to flags left unset.
func (c *CLI) exportDefaults(cmd *cobra.Command, opts *exportOpts) {
	if !cmd.Flags().Changed("width") {
		opts.width = c.cfg.Export.Width
	}
	if !cmd.Flags().Changed("height") {
		opts.height = c.cfg.Export.Height
	}
}

func sourceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (c *CLI) runExport(ctx context.Context, src, defaultFormat string, opts *exportOpts) error {
	formats := parseFormats(opts.formats, defaultFormat)
	if err := export.ValidateFormats(formats); err != nil {
		return err
	}
	if opts.output == "-" && len(formats) > 1 {
		return fmt.Errorf("stdout output takes a single format, got %s", strings.Join(formats, ","))
	}

	prog := newProgress(c.Logger)
	doc, err := c.loadDocument(ctx, src)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(ctx, "Exporting "+strings.Join(formats, ", "))
	spin.Start()
	res, err := runner.Execute(ctx, doc, export.Options{
		Formats:    formats,
		Width:      opts.width,
		Height:     opts.height,
		Background: opts.background,
		Scale:      opts.scale,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	})
	spin.Stop()
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(res.Artifacts[formats[0]])
		return err
	}

	base := basePath(opts.output, src)
	for _, f := range formats {
		path := base + "." + f
		if len(formats) == 1 && opts.output != "" {
			path = opts.output
		} else if src != "" && filepath.Clean(path) == filepath.Clean(src) {
			path = base + ".export." + f
		}
		if err := os.WriteFile(path, res.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(doc.Stats(), len(res.CacheHits) == len(formats) && len(res.CacheHits) > 0)
	prog.done(fmt.Sprintf("Exported %s", plural(len(formats), "artifact")))
	return nil
}

// basePath derives the output path without extension. Without -o it is
// the source file name stripped of its extension, or the default export
// name for directories and URLs.
func basePath(output, src string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if export.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if src == "" || strings.Contains(src, "://") {
		return strings.TrimSuffix(defaultExportPath, filepath.Ext(defaultExportPath))
	}
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return filepath.Join(src, strings.TrimSuffix(defaultExportPath, filepath.Ext(defaultExportPath)))
	}
	return strings.TrimSuffix(src, filepath.Ext(src))
}
