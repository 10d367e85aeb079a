package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hainenber/sieve/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecords = []*pipeline.Record{
	{
		Timestamp:      "2024-01-01T10:00:00.000000",
		ErrorType:      "NullPointerException",
		StructuredData: map[string]any{"a": json.Number("1")},
		Message:        `2024-01-01T10:00:00.000000 NullPointerException {"a":1} trailing text`,
		Source:         "raw_logs.txt",
		LineNumber:     1,
	},
	{
		PayloadData: "sensor offline",
		Message:     "BASE64:c2Vuc29yIG9mZmxpbmU=, <door> & window",
		Source:      "raw_logs.txt",
		LineNumber:  3,
	},
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{"timestamp", "error_type", "payload_data", "structured_data", "message"}, Header())
}

func TestNewSink(t *testing.T) {
	var buf bytes.Buffer

	sink, err := NewSink("", &buf)
	assert.Nil(t, err)
	assert.IsType(t, &CSVSink{}, sink)

	sink, err = NewSink(JSONLinesFormat, &buf)
	assert.Nil(t, err)
	assert.IsType(t, &JSONLinesSink{}, sink)

	sink, err = NewSink("parquet", &buf)
	assert.NotNil(t, err)
	assert.Nil(t, sink)
}

func TestCSVSink(t *testing.T) {
	t.Run("write header and rows with empty cells for absent fields", func(t *testing.T) {
		var buf bytes.Buffer
		sink, err := NewCSVSink(&buf)
		require.Nil(t, err)
		for _, record := range testRecords {
			require.Nil(t, sink.Write(record))
		}
		require.Nil(t, sink.Close())

		rows, err := csv.NewReader(&buf).ReadAll()
		require.Nil(t, err)
		assert.Equal(t, [][]string{
			{"timestamp", "error_type", "payload_data", "structured_data", "message"},
			{"2024-01-01T10:00:00.000000", "NullPointerException", "", `{"a":1}`, `2024-01-01T10:00:00.000000 NullPointerException {"a":1} trailing text`},
			{"", "", "sensor offline", "", "BASE64:c2Vuc29yIG9mZmxpbmU=, <door> & window"},
		}, rows)
	})

	t.Run("write header only for an empty batch", func(t *testing.T) {
		var buf bytes.Buffer
		sink, err := NewCSVSink(&buf)
		require.Nil(t, err)
		require.Nil(t, sink.Close())
		assert.Equal(t, "timestamp,error_type,payload_data,structured_data,message\n", buf.String())
	})
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)
	for _, record := range testRecords {
		require.Nil(t, sink.Write(record))
	}
	require.Nil(t, sink.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{
		"timestamp": "2024-01-01T10:00:00.000000",
		"error_type": "NullPointerException",
		"structured_data": {"a": 1},
		"message": "2024-01-01T10:00:00.000000 NullPointerException {\"a\":1} trailing text",
		"source": "raw_logs.txt",
		"line_number": 1
	}`, lines[0])
	assert.Contains(t, lines[1], "<door> & window")
	assert.NotContains(t, lines[1], "timestamp")
}

func TestJSONLinesSink_EmptyStructuredData(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)
	require.Nil(t, sink.Write(&pipeline.Record{ErrorType: "KeyError", StructuredData: map[string]any{}, Message: "KeyError {}"}))
	require.Nil(t, sink.Close())

	assert.JSONEq(t, `{"error_type":"KeyError","structured_data":{},"message":"KeyError {}"}`, strings.TrimSpace(buf.String()))
}

func TestOpenDestination(t *testing.T) {
	t.Run("create missing parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "structured_data.csv")
		w, err := OpenDestination(path)
		require.Nil(t, err)
		_, err = w.Write([]byte("x"))
		assert.Nil(t, err)
		assert.Nil(t, w.Close())
		assert.FileExists(t, path)
	})

	t.Run("truncate previous output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		require.Nil(t, os.WriteFile(path, []byte("stale content"), 0644))
		w, err := OpenDestination(path)
		require.Nil(t, err)
		require.Nil(t, w.Close())
		content, _ := os.ReadFile(path)
		assert.Empty(t, content)
	})

	t.Run("never close stdout", func(t *testing.T) {
		w, err := OpenDestination(StdoutPath)
		require.Nil(t, err)
		assert.Nil(t, w.Close())
	})
}
