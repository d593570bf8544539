// Package export turns a document into downloadable artifacts.
//
// Five formats are supported: the two text dialects ("yaml", "json") with a
// provenance header, Graphviz source ("dot"), a plan-view drawing ("svg")
// and a front-view raster image ("png").
//
// # Usage
//
//	runner := export.NewRunner(st, nil, logger)
//	res, err := runner.Execute(ctx, doc, export.Options{Formats: []string{"svg", "png"}})
//	svg := res.Artifacts["svg"]
//
// # Caching
//
// Rendered formats (dot, svg, png) depend only on the document and the
// options, so the [Runner] keeps them in a [store.Store] keyed by the
// document's content hash. The text dialects embed an export timestamp and
// are always produced fresh.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/render/dot"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

const (
	// DefaultWidth is the default raster width in pixels.
	DefaultWidth = 1200

	// DefaultHeight is the default raster height in pixels.
	DefaultHeight = 800

	// TTLArtifact bounds how long rendered artifacts stay cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatYAML: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

var contentTypes = map[string]string{
	FormatYAML: "application/yaml",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Cacheable reports whether a format's output is a pure function of the
// document and options.
func Cacheable(format string) bool {
	return format == FormatDOT || format == FormatSVG || format == FormatPNG
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: yaml, json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures an export.
type Options struct {
	Formats []string `json:"formats,omitempty"`

	// Raster options
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Background string `json:"background,omitempty"`

	// Scale is the plan view's inches per world unit.
	Scale float64 `json:"scale,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatYAML}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "image size must not be negative, got %dx%d", o.Width, o.Height)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = dot.DefaultScale
	}
	if o.Background != "" {
		if err := errors.ValidateColor(o.Background); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ArtifactKeyOpts returns the store key options for one format.
func (o *Options) ArtifactKeyOpts(format string) store.ArtifactKeyOpts {
	k := store.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatDOT, FormatSVG:
		k.Layout = fmt.Sprintf("plan@%g", o.Scale)
	case FormatPNG:
		k.Layout = "front:" + o.Background
		k.Width, k.Height = o.Width, o.Height
	}
	return k
}

// Result contains the outputs of an export.
type Result struct {
	// DocHash is the content hash of the exported document.
	DocHash string

	// Artifacts contains outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheHits lists the formats served from the store.
	CacheHits map[string]bool
}

// Stats contains export statistics.
type Stats struct {
	Nodes       int
	Connections int
	Groups      int
	RenderTime  time.Duration
}
