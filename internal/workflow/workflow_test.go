package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifierConfigIsEmpty(t *testing.T) {
	assert.True(t, ModifierConfig{}.IsEmpty())
	assert.True(t, ModifierConfig{AddFields: map[string]string{}}.IsEmpty())
	assert.False(t, ModifierConfig{DropFields: []string{"message"}}.IsEmpty())
}

func TestCompilePatterns(t *testing.T) {
	t.Run("compile patterns in order", func(t *testing.T) {
		patterns, err := ModifierConfig{
			ReplaceFields: []ReplaceFieldSetting{
				{Path: "structured_data.password", Pattern: ".*", Replacement: "****"},
				{Path: "message", Pattern: `\d+`, Replacement: "#"},
			},
		}.CompilePatterns()
		assert.Nil(t, err)
		assert.Len(t, patterns, 2)
		assert.Equal(t, `\d+`, patterns[1].String())
	})

	t.Run("fail on invalid pattern", func(t *testing.T) {
		_, err := ModifierConfig{
			ReplaceFields: []ReplaceFieldSetting{{Path: "message", Pattern: "("}},
		}.CompilePatterns()
		assert.NotNil(t, err)
	})

	t.Run("fail on empty path", func(t *testing.T) {
		_, err := ModifierConfig{
			ReplaceFields: []ReplaceFieldSetting{{Pattern: ".*"}},
		}.CompilePatterns()
		assert.NotNil(t, err)
	})
}
