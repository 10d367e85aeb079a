package output

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/fatih/structs"
	"github.com/hainenber/sieve/internal/pipeline"
)

// Header lists the tabular columns in Record field order
func Header() []string {
	var header []string
	for _, field := range structs.Fields(pipeline.Record{}) {
		if column := field.Tag("csv"); column != "" && column != "-" {
			header = append(header, column)
		}
	}
	return header
}

type CSVSink struct {
	writer *csv.Writer
	closer io.Closer
}

// NewCSVSink writes the header straight away so an empty batch still yields a valid table
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	sink := &CSVSink{writer: csv.NewWriter(w)}
	if closer, ok := w.(io.Closer); ok {
		sink.closer = closer
	}
	if err := sink.writer.Write(Header()); err != nil {
		return nil, err
	}
	return sink, nil
}

func (c *CSVSink) Write(record *pipeline.Record) error {
	var structured string
	if record.StructuredData != nil {
		marshalled, err := json.Marshal(record.StructuredData)
		if err != nil {
			return err
		}
		structured = string(marshalled)
	}

	return c.writer.Write([]string{
		record.Timestamp,
		record.ErrorType,
		record.PayloadData,
		structured,
		record.Message,
	})
}

func (c *CSVSink) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
