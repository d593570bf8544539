package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// Dialect selects a text representation.
type Dialect string

// Supported dialects.
const (
	Block  Dialect = "yaml"
	Record Dialect = "json"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{Block, Record}

// Ext returns the canonical file extension, including the dot.
func (d Dialect) Ext() string { return "." + string(d) }

// ContentType returns the HTTP media type of the dialect.
func (d Dialect) ContentType() string {
	if d == Record {
		return "application/json"
	}
	return "application/yaml"
}

// ParseDialect accepts "yaml", "yml" and "json" in any case.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return Block, nil
	case "json":
		return Record, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDialect, "unsupported dialect %q (want yaml or json)", s)
}

// DialectFromPath picks the dialect by file extension.
func DialectFromPath(path string) (Dialect, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidDialect, "%s: no file extension", filepath.Base(path))
	}
	return ParseDialect(ext)
}

// Section names one of the three top-level document sections.
type Section string

// Document sections, in serialized order.
const (
	SectionNodes       Section = "nodes"
	SectionConnections Section = "connections"
	SectionGroups      Section = "groups"
)

// Sections lists the sections in serialized order.
var Sections = []Section{SectionNodes, SectionConnections, SectionGroups}

// Filename returns the per-section document name used by the initial load,
// e.g. "nodes.yaml".
func (s Section) Filename(d Dialect) string { return string(s) + d.Ext() }

// Metadata is the provenance written by [MarshalExport].
type Metadata struct {
	Exported time.Time
	Version  string
	Tool     string
}

// Defaults for [Metadata] fields left empty.
const (
	DefaultTool    = "ThinkingSpace"
	DefaultVersion = "1.0.0"
)

func (m Metadata) withDefaults() Metadata {
	if m.Exported.IsZero() {
		m.Exported = time.Now()
	}
	if m.Tool == "" {
		m.Tool = DefaultTool
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	return m
}

// Marshal serializes doc in the given dialect.
func Marshal(doc *model.Document, d Dialect) ([]byte, error) {
	switch d {
	case Block:
		return marshalBlock(doc, nil, nil)
	case Record:
		return marshalRecord(toOut(doc))
	}
	return nil, errors.New(errors.ErrCodeInvalidDialect, "unsupported dialect %q", d)
}

// MarshalExport serializes doc with a provenance header.
func MarshalExport(doc *model.Document, d Dialect, meta Metadata) ([]byte, error) {
	meta = meta.withDefaults()
	switch d {
	case Block:
		return marshalBlock(doc, nil, []string{
			"Generated: " + meta.Exported.UTC().Format(time.RFC3339),
			fmt.Sprintf("Tool: %s %s", meta.Tool, meta.Version),
		})
	case Record:
		out := toOut(doc)
		out.Metadata = &metadataOut{
			Exported: meta.Exported.UTC().Format(time.RFC3339),
			Version:  meta.Version,
			Tool:     meta.Tool,
		}
		return marshalRecord(out)
	}
	return nil, errors.New(errors.ErrCodeInvalidDialect, "unsupported dialect %q", d)
}

// MarshalSection serializes one section of doc as a standalone document.
func MarshalSection(doc *model.Document, d Dialect, s Section) ([]byte, error) {
	switch d {
	case Block:
		return marshalBlock(doc, []Section{s}, nil)
	case Record:
		out := toOut(doc)
		var v any
		switch s {
		case SectionNodes:
			v = map[string]any{string(s): out.Nodes}
		case SectionConnections:
			v = map[string]any{string(s): out.Connections}
		case SectionGroups:
			v = map[string]any{string(s): out.Groups}
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown section %q", s)
		}
		return marshalRecord(v)
	}
	return nil, errors.New(errors.ErrCodeInvalidDialect, "unsupported dialect %q", d)
}

// Encode writes Marshal(doc, d) to w.
func Encode(w io.Writer, doc *model.Document, d Dialect) error {
	data, err := Marshal(doc, d)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Unmarshal parses a complete document. All three sections must be present.
// On error no document is returned.
func Unmarshal(data []byte, d Dialect) (*model.Document, error) {
	secs, err := split(data, d)
	if err != nil {
		return nil, err
	}
	doc := model.New()
	for _, s := range Sections {
		dec, ok := secs[s]
		if !ok {
			return nil, errors.New(errors.ErrCodeSchema, "missing %q section", s)
		}
		if err := decodeSection(s, dec, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Decode reads r to the end and parses it with [Unmarshal]. It does not
// close r.
func Decode(r io.Reader, d Dialect) (*model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Unmarshal(data, d)
}

// Validate reports whether data is well-formed in dialect d, without
// checking document structure.
func Validate(data []byte, d Dialect) error {
	_, err := split(data, d)
	if errors.Is(err, errors.ErrCodeSchema) {
		return nil
	}
	return err
}

// UnmarshalSection decodes section s of data and appends its entities to
// doc. A missing section key appends nothing. On error doc is unchanged.
func UnmarshalSection(data []byte, d Dialect, s Section, doc *model.Document) error {
	secs, err := split(data, d)
	if err != nil {
		return err
	}
	dec, ok := secs[s]
	if !ok {
		return nil
	}
	scratch := doc.Clone()
	if err := decodeSection(s, dec, scratch); err != nil {
		return err
	}
	doc.Replace(scratch)
	return nil
}

// ReadFile reads a document, choosing the dialect by extension.
func ReadFile(path string) (*model.Document, error) {
	d, err := DialectFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Unmarshal(data, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// WriteFile writes doc to path with a provenance header, choosing the
// dialect by extension.
func WriteFile(path string, doc *model.Document, meta Metadata) error {
	d, err := DialectFromPath(path)
	if err != nil {
		return err
	}
	data, err := MarshalExport(doc, d, meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// decoder decodes one section value into v.
type decoder func(v any) error

// split parses the top level of data into per-section decoders.
func split(data []byte, d Dialect) (map[Section]decoder, error) {
	switch d {
	case Block:
		return splitBlock(data)
	case Record:
		return splitRecord(data)
	}
	return nil, errors.New(errors.ErrCodeInvalidDialect, "unsupported dialect %q", d)
}

func decodeSection(s Section, dec decoder, doc *model.Document) error {
	switch s {
	case SectionNodes:
		var recs []nodeIn
		if err := dec(&recs); err != nil {
			return classify(s, err)
		}
		for i, r := range recs {
			n, err := r.toModel(i)
			if err != nil {
				return err
			}
			if err := doc.AddNode(n); err != nil {
				return errors.Wrap(errors.ErrCodeSchema, err, "%s[%d]", s, i)
			}
		}
	case SectionConnections:
		var recs []connectionIn
		if err := dec(&recs); err != nil {
			return classify(s, err)
		}
		for i, r := range recs {
			c, err := r.toModel(i)
			if err != nil {
				return err
			}
			if err := doc.AddConnection(c); err != nil {
				return errors.Wrap(errors.ErrCodeSchema, err, "%s[%d]", s, i)
			}
		}
	case SectionGroups:
		var recs []groupIn
		if err := dec(&recs); err != nil {
			return classify(s, err)
		}
		for i, r := range recs {
			g, err := r.toModel(i)
			if err != nil {
				return err
			}
			if err := doc.AddGroup(g); err != nil {
				return errors.Wrap(errors.ErrCodeSchema, err, "%s[%d]", s, i)
			}
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown section %q", s)
	}
	return nil
}

// trimBOM drops a UTF-8 byte order mark.
func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}
