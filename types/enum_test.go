package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEnumPanicsWithoutTypeNames(t *testing.T) {
	assert.Panics(t, func() {
		NewEnum(1, false)
	})
}

func TestNewEnumPlain(t *testing.T) {
	e := NewEnum(2, false, "System.DayOfWeek")
	assert.Equal(t, []string{"System.DayOfWeek"}, e.TypeNames)
	assert.Equal(t, int64(2), e.Value)
	assert.False(t, e.IsFlags)
	assert.Empty(t, e.Names)
}

func TestEnumHasFlagComposedValue(t *testing.T) {
	const (
		readBit    = int64(1)
		writeBit   = int64(2)
		executeBit = int64(4)
	)
	e := NewEnum(readBit|writeBit, true, "System.IO.FileAccess")
	e.Names = []string{"Read", "Write"}

	assert.True(t, e.HasFlag(readBit))
	assert.True(t, e.HasFlag(writeBit))
	assert.False(t, e.HasFlag(executeBit))
	assert.True(t, e.HasFlag(readBit|writeBit))
}

func TestEnumHasFlagZeroValue(t *testing.T) {
	e := NewEnum(0, true, "System.IO.FileAccess")
	assert.True(t, e.HasFlag(0))
	assert.False(t, e.HasFlag(1))
}

func TestEnumIsValue(t *testing.T) {
	var v Value = NewEnum(1, false, "System.DayOfWeek")
	_, ok := v.(*Enum)
	assert.True(t, ok)
}
