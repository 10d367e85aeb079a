package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/sjson"
)

// Record is the normalized form of one accepted log line.
// Empty strings and a nil StructuredData mean the field was not found on the line.
type Record struct {
	Timestamp      string         `json:"timestamp,omitempty" structs:"timestamp" csv:"timestamp"`
	ErrorType      string         `json:"error_type,omitempty" structs:"error_type" csv:"error_type"`
	PayloadData    string         `json:"payload_data,omitempty" structs:"payload_data" csv:"payload_data"`
	StructuredData map[string]any `json:"structured_data" structs:"structured_data" csv:"structured_data"`
	Message        string         `json:"message" structs:"message" csv:"message"`

	// Provenance, not part of the tabular columns
	Source     string `json:"source,omitempty" structs:"-" csv:"-"`
	LineNumber int    `json:"line_number,omitempty" structs:"-" csv:"-"`
}

// MarshalJSON omits structured_data only when no fragment was parsed,
// an empty {} fragment is kept as such.
func (r Record) MarshalJSON() ([]byte, error) {
	type plainRecord Record

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(plainRecord(r)); err != nil {
		return nil, err
	}

	marshalled := bytes.TrimRight(buf.Bytes(), "\n")
	if r.StructuredData == nil {
		return sjson.DeleteBytes(marshalled, "structured_data")
	}
	return marshalled, nil
}
