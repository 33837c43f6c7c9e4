package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/kintree/pkg/layout"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	compact bool
	source  string
}

// WithCompactJSON disables indentation.
func WithCompactJSON() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

// WithJSONSource records where the people came from, such as a protocol
// key or a file name.
func WithJSONSource(s string) JSONOption { return func(r *jsonRenderer) { r.source = s } }

type jsonOutput struct {
	Source      string `json:"source,omitempty"`
	Generations int    `json:"generations"`
	layout.Result
}

// RenderJSON encodes res with its row count. Front ends draw directly from
// the node and connection coordinates.
func RenderJSON(res layout.Result, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{Source: r.source, Generations: res.Generations(), Result: res}

	var (
		data []byte
		err  error
	)
	if r.compact {
		data, err = json.Marshal(out)
	} else {
		data, err = json.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}
