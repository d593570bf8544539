package session

import (
	"context"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/observability"
)

// TextEditor is the text pane: the document in the block dialect, editable
// as text and applied back wholesale.
type TextEditor struct {
	sess *Session
	text string
	base string
}

func newTextEditor(s *Session) *TextEditor {
	return &TextEditor{sess: s}
}

// Text returns the current pane contents.
func (t *TextEditor) Text() string { return t.text }

// SetText replaces the pane contents without applying them.
func (t *TextEditor) SetText(text string) { t.text = text }

// Dirty reports whether the pane holds edits that were neither applied nor
// refreshed away.
func (t *TextEditor) Dirty() bool { return t.text != t.base }

// Refresh regenerates the pane from the document, discarding unapplied
// edits.
func (t *TextEditor) Refresh() {
	data, err := codec.Marshal(t.sess.doc, codec.Block)
	if err != nil {
		t.sess.logger.Error("render text pane", "err", err)
		return
	}
	t.text = string(data)
	t.base = t.text
}

// Validate checks the pane contents without applying them. It returns the
// PARSE_ERROR or SCHEMA_ERROR that Apply would fail with.
func (t *TextEditor) Validate() error {
	_, err := codec.Unmarshal([]byte(t.text), codec.Block)
	return err
}

// Apply parses the pane and replaces the document with the result. A
// document that does not parse or lacks any of the nodes, connections and
// groups sections is rejected and the model is left unchanged.
func (t *TextEditor) Apply(ctx context.Context) error {
	doc, err := codec.Unmarshal([]byte(t.text), codec.Block)
	if err != nil {
		observability.Persistence().OnImport(ctx, "text", 0, err)
		t.sess.logger.Warn("text apply rejected", "err", err)
		return err
	}
	observability.Persistence().OnImport(ctx, "text", doc.Len(), nil)
	t.sess.ResetTo(doc)
	return nil
}
