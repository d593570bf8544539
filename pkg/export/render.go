package export

import (
	"context"
	"time"

	"github.com/matzehuels/thinkingspace/pkg/buildinfo"
	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/render/dot"
	"github.com/matzehuels/thinkingspace/pkg/render/raster"
)

// Render produces one format without caching. opts must have been
// validated.
func Render(ctx context.Context, doc *model.Document, format string, opts Options) ([]byte, error) {
	meta := codec.Metadata{Exported: time.Now(), Version: buildinfo.Version}
	switch format {
	case FormatYAML:
		return codec.MarshalExport(doc, codec.Block, meta)
	case FormatJSON:
		return codec.MarshalExport(doc, codec.Record, meta)
	case FormatDOT:
		return []byte(dot.ToDOT(doc, dot.Options{Scale: opts.Scale})), nil
	case FormatSVG:
		return dot.Render(ctx, doc, dot.Options{Scale: opts.Scale})
	case FormatPNG:
		return raster.Render(doc, raster.Options{
			Width:      opts.Width,
			Height:     opts.Height,
			Background: opts.Background,
		})
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
}
