package codec

import (
	"bytes"
	"encoding/json"
	stderrors "errors"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/thinkingspace/pkg/errors"
)

func splitRecord(data []byte) (map[Section]decoder, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimBOM(data), &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return nil, errors.Wrap(errors.ErrCodeSchema, err, "top level must be an object of sections")
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "invalid json")
	}
	secs := make(map[Section]decoder, len(top))
	for k, raw := range top {
		secs[Section(k)] = func(v any) error { return json.Unmarshal(raw, v) }
	}
	return secs, nil
}

func marshalRecord(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode json")
	}
	return buf.Bytes(), nil
}

// classify maps a section decode failure to SCHEMA_ERROR when the text was
// well-formed but had the wrong shape, and to PARSE_ERROR otherwise.
func classify(s Section, err error) error {
	var (
		yamlErr *yaml.TypeError
		jsonErr *json.UnmarshalTypeError
	)
	if stderrors.As(err, &yamlErr) || stderrors.As(err, &jsonErr) {
		return errors.Wrap(errors.ErrCodeSchema, err, "%s has the wrong shape", s)
	}
	return errors.Wrap(errors.ErrCodeParse, err, "%s", s)
}
