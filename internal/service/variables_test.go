package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableSet(t *testing.T) {
	set, err := NewVariableSet(Rain, IsDay, Snowfall)
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, "rain,is_day,snowfall", set.String())
	assert.Equal(t, []Variable{Rain, IsDay, Snowfall}, set.Variables())

	i, ok := set.Index(Snowfall)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = set.Index(Showers)
	assert.False(t, ok)
}

func TestVariableSet_VariablesIsACopy(t *testing.T) {
	set := MustVariableSet(Rain, IsDay)

	vars := set.Variables()
	vars[0] = Snowfall

	assert.Equal(t, "rain,is_day", set.String())
}

func TestVariableSet_Invalid(t *testing.T) {
	_, err := NewVariableSet(Rain, Rain)
	assert.Error(t, err)

	_, err = NewVariableSet("")
	assert.Error(t, err)

	assert.Panics(t, func() { MustVariableSet(IsDay, IsDay) })
}

func TestVariableSet_Zero(t *testing.T) {
	var set VariableSet

	assert.Equal(t, 0, set.Len())
	assert.Equal(t, "", set.String())
	_, ok := set.Index(Rain)
	assert.False(t, ok)
}
