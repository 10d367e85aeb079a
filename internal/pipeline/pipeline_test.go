package pipeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMarshalJSON(t *testing.T) {
	t.Run("omit structured data when no fragment was found", func(t *testing.T) {
		marshalled, err := json.Marshal(&Record{Message: "device rebooted"})
		require.Nil(t, err)
		assert.JSONEq(t, `{"message":"device rebooted"}`, string(marshalled))
	})

	t.Run("keep empty structured data", func(t *testing.T) {
		marshalled, err := json.Marshal(&Record{StructuredData: map[string]any{}, Message: "KeyError {}"})
		require.Nil(t, err)
		assert.JSONEq(t, `{"structured_data":{},"message":"KeyError {}"}`, string(marshalled))

		var decoded Record
		require.Nil(t, json.Unmarshal(marshalled, &decoded))
		assert.NotNil(t, decoded.StructuredData)
		assert.Empty(t, decoded.StructuredData)
	})

	t.Run("leave HTML characters unescaped", func(t *testing.T) {
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetEscapeHTML(false)
		require.Nil(t, encoder.Encode(Record{Message: "<door> & window"}))
		assert.Contains(t, buf.String(), "<door> & window")
	})
}
