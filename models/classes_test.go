package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSets(t *testing.T) {
	tests := []struct {
		style     ModelFamily
		size      int
		first     string
		personIdx int
	}{
		{ModelFamilyYOLO, 80, "person", 0},
		{ModelFamilyCOCO, 81, "__background__", 1},
		{ModelFamilyVOC, 21, "__background__", 15},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			set, err := Builtin(tt.style)
			require.NoError(t, err)
			assert.Equal(t, tt.size, set.Len())

			name, ok := set.Name(0)
			require.True(t, ok)
			assert.Equal(t, tt.first, name)

			idx, ok := set.Index("person")
			require.True(t, ok)
			assert.Equal(t, tt.personIdx, idx)

			for i, c := range set.Classes {
				assert.Equal(t, i, c.Index, "class indices must match positions")
			}
		})
	}

	_, err := Builtin(ModelFamilyCustom)
	assert.Error(t, err)
}

func TestNameOutOfRange(t *testing.T) {
	for _, idx := range []int{-1, 80, 1000} {
		name, ok := YOLOClasses.Name(idx)
		assert.False(t, ok, "index %d", idx)
		assert.Empty(t, name)
	}

	name, ok := YOLOClasses.Name(79)
	assert.True(t, ok)
	assert.Equal(t, "toothbrush", name)
}

func TestNewOutputClassSetRejectsInvalid(t *testing.T) {
	_, err := NewOutputClassSet(ModelFamilyCustom)
	assert.Error(t, err)

	_, err = NewOutputClassSet(ModelFamilyCustom, "cat", "dog", "cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadNames(t *testing.T) {
	set, err := LoadNames(strings.NewReader("person\n  bicycle \r\ncar\n"))
	require.NoError(t, err)

	assert.Equal(t, ModelFamilyCustom, set.Style)
	assert.Equal(t, []string{"person", "bicycle", "car"}, set.Names())

	idx, ok := set.Index("car")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, err = LoadNames(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestLoadNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coco.names")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(YOLOClasses.Names(), "\n")), 0o644))

	set, err := LoadNamesFile(path)
	require.NoError(t, err)
	assert.Equal(t, YOLOClasses.Names(), set.Names())

	_, err = LoadNamesFile(filepath.Join(t.TempDir(), "missing.names"))
	assert.Error(t, err)
}

// TestLoadNamesBlankLines verifies that interior blank lines keep their position so
// later class indices do not shift, while trailing blank lines are dropped.
//
// @example
// go test -v -run TestLoadNamesBlankLines
func TestLoadNamesBlankLines(t *testing.T) {
	set, err := LoadNames(strings.NewReader("person\n\n\ncar\n\n\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, set.Len())
	assert.Equal(t, []string{"person", "", "", "car"}, set.Names())

	name, ok := set.Name(3)
	assert.True(t, ok)
	assert.Equal(t, "car", name)

	name, ok = set.Name(1)
	assert.True(t, ok)
	assert.Empty(t, name)

	idx, ok := set.Index("car")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	_, ok = set.Index("")
	assert.False(t, ok)
}
