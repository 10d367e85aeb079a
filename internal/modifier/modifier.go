package modifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/hainenber/sieve/internal/pipeline"
	"github.com/hainenber/sieve/internal/workflow"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Modifier rewrites records by dot-notation paths over their JSON form,
// e.g. "structured_data.password" or "message"
type Modifier struct {
	logger zerolog.Logger

	modifierSettings workflow.ModifierConfig
	replacePatterns  []*regexp.Regexp
}

type ModifierOptions struct {
	ModifierSettings workflow.ModifierConfig
	Logger           zerolog.Logger
}

func NewModifier(opts ModifierOptions) (*Modifier, error) {
	patterns, err := opts.ModifierSettings.CompilePatterns()
	if err != nil {
		return nil, err
	}

	return &Modifier{
		logger:           opts.Logger,
		modifierSettings: opts.ModifierSettings,
		replacePatterns:  patterns,
	}, nil
}

// Modify returns a modified copy. On failure the original record is returned with the error.
func (m *Modifier) Modify(record *pipeline.Record) (*pipeline.Record, error) {
	// Marshal data into JSON for dot-notation traversal and modification
	marshalled, err := json.Marshal(record)
	if err != nil {
		return record, fmt.Errorf("cannot marshal record: %w", err)
	}
	marshalledString := string(marshalled)

	for path, value := range m.modifierSettings.AddFields {
		if marshalledString, err = sjson.Set(marshalledString, path, value); err != nil {
			return record, fmt.Errorf("cannot add field %s: %w", path, err)
		}
	}

	for _, path := range m.modifierSettings.DropFields {
		if marshalledString, err = sjson.Delete(marshalledString, path); err != nil {
			return record, fmt.Errorf("cannot drop field %s: %w", path, err)
		}
	}

	for i, replaceFieldSetting := range m.modifierSettings.ReplaceFields {
		// Only string values are eligible for replacement
		replacingData := gjson.Get(marshalledString, replaceFieldSetting.Path)
		if replacingData.Type != gjson.String {
			continue
		}

		replacedData := m.replacePatterns[i].ReplaceAllString(replacingData.Str, replaceFieldSetting.Replacement)
		if marshalledString, err = sjson.Set(marshalledString, replaceFieldSetting.Path, replacedData); err != nil {
			return record, fmt.Errorf("cannot replace field %s: %w", replaceFieldSetting.Path, err)
		}
	}

	// Unmarshal data back to record, numbers inside structured data stay literal
	modified := &pipeline.Record{}
	jsonDecoder := json.NewDecoder(bytes.NewReader([]byte(marshalledString)))
	jsonDecoder.UseNumber()
	if err := jsonDecoder.Decode(modified); err != nil {
		return record, fmt.Errorf("cannot unmarshal modified record: %w", err)
	}

	return modified, nil
}
