package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_ChildLoggersShareEntries(t *testing.T) {
	root := NewMockLogger()
	child := root.WithField(FieldStage, "column").WithError(errors.New("boom"))

	child.Warn("reusing first date", Field{Key: FieldCount, Value: 2})
	root.Info("done")

	entries := root.GetEntries()
	require.Len(t, entries, 2)

	warn := entries[0]
	assert.Equal(t, "WARN", warn.Level)
	assert.EqualError(t, warn.Error, "boom")
	stage, ok := warn.FieldValue(FieldStage)
	require.True(t, ok)
	assert.Equal(t, "column", stage)
	count, ok := warn.FieldValue(FieldCount)
	require.True(t, ok)
	assert.Equal(t, 2, count)

	assert.True(t, root.HasEntry("INFO", "done"))
	assert.Len(t, root.GetEntriesByLevel("WARN"), 1)
}

func TestMockLogger_ZeroValueAndClear(t *testing.T) {
	var m MockLogger
	m.Debug("first")
	m.Fatalf("code %d", 7)

	assert.True(t, m.HasEntry("FATAL", "code 7"))
	m.Clear()
	assert.Empty(t, m.GetEntries())
}
