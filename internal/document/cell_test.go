package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCell_IsBlank(t *testing.T) {
	assert.True(t, Empty().IsBlank())
	assert.True(t, Text("").IsBlank())
	assert.True(t, Text("   ").IsBlank())
	assert.False(t, Text("x").IsBlank())
	assert.False(t, Number(0).IsBlank())
	assert.False(t, Bool(false).IsBlank())
	assert.False(t, Date(time.Now()).IsBlank())
}

func TestCell_String(t *testing.T) {
	assert.Equal(t, "", Empty().String())
	assert.Equal(t, "srv1", Text("srv1").String())
	assert.Equal(t, "42.5", Number(42.5).String())
	assert.Equal(t, "1024", Number(1024).String())
	assert.Equal(t, "true", Bool(true).String())

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01T12:00:00Z", Date(ts).String())
}

func TestCell_Value(t *testing.T) {
	assert.Nil(t, Empty().Value())
	assert.Equal(t, "a", Text("a").Value())
	assert.Equal(t, 1.5, Number(1.5).Value())
	assert.Equal(t, true, Bool(true).Value())
}
