package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/hainenber/sieve/internal/pipeline"
)

// JSONLinesSink writes one JSON object per record, omitting absent fields
type JSONLinesSink struct {
	buffered *bufio.Writer
	encoder  *json.Encoder
	closer   io.Closer
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	buffered := bufio.NewWriter(w)
	encoder := json.NewEncoder(buffered)
	encoder.SetEscapeHTML(false)

	sink := &JSONLinesSink{
		buffered: buffered,
		encoder:  encoder,
	}
	if closer, ok := w.(io.Closer); ok {
		sink.closer = closer
	}
	return sink
}

func (j *JSONLinesSink) Write(record *pipeline.Record) error {
	return j.encoder.Encode(record)
}

func (j *JSONLinesSink) Close() error {
	if err := j.buffered.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
