package elastix

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transformFile = `(Transform "TranslationTransform")
(NumberOfParameters 3)
(TransformParameters -1.250000 0.500000 3.000000)
(InitialTransformParametersFileName "NoInitialTransform")
(HowToCombineTransforms "Compose")

// Image specific
(FixedImageDimension 3)
(Size 128 128 64)
(Spacing 0.8000000000 0.8000000000 1.5000000000)
(Direction 1.000000 0.000000 0.000000 0.000000 1.000000 0.000000 0.000000 0.000000 1.000000)
(ResultImageFormat "nii") // trailing comment
`

func TestParseParameterMap(t *testing.T) {
	m, err := ParseParameterMap(strings.NewReader(transformFile))
	require.NoError(t, err)

	assert.Equal(t, 10, m.Len())
	assert.Equal(t, "TranslationTransform", m.First("Transform"))

	params, ok := m.Get("TransformParameters")
	require.True(t, ok)
	assert.Equal(t, []string{"-1.250000", "0.500000", "3.000000"}, params)

	size, _ := m.Get("Size")
	assert.Equal(t, []string{"128", "128", "64"}, size)
	assert.Equal(t, "nii", m.First("ResultImageFormat"))

	assert.Equal(t, []string{
		"Transform", "NumberOfParameters", "TransformParameters",
		"InitialTransformParametersFileName", "HowToCombineTransforms",
		"FixedImageDimension", "Size", "Spacing", "Direction", "ResultImageFormat",
	}, m.Keys(), "keys keep file order")
}

func TestParseParameterMapErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unterminated entry", input: "(Transform \"EulerTransform\"\n"},
		{name: "unterminated string", input: "(Transform \"EulerTransform)\n"},
		{name: "value outside entry", input: "Transform \"EulerTransform\"\n"},
		{name: "stray close", input: ")\n"},
		{name: "empty entry", input: "()\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParameterMap(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParameterMapWriteAndReadBack(t *testing.T) {
	m := NewParameterMap()
	m.Set("Transform", "AffineTransform")
	m.Set("TransformParameters", "1", "0", "0", "1", "2.5", "-3")
	m.Set("InitialTransformParametersFileName", `C:\data\tp.txt`)
	m.Set("AutomaticScalesEstimation", "true")

	assert.Equal(t, "(Transform \"AffineTransform\")\n"+
		"(TransformParameters 1 0 0 1 2.5 -3)\n"+
		"(InitialTransformParametersFileName \"C:\\data\\tp.txt\")\n"+
		"(AutomaticScalesEstimation \"true\")\n", m.String())

	path := filepath.Join(t.TempDir(), "tp", "TransformParameters.0.txt")
	require.NoError(t, m.WriteFile(path))

	back, err := ReadParameterFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Keys(), back.Keys())
	for _, k := range m.Keys() {
		want, _ := m.Get(k)
		got, _ := back.Get(k)
		assert.Equal(t, want, got, k)
	}
}

func TestParameterMapCloneAndDelete(t *testing.T) {
	m := NewParameterMap()
	m.Set("A", "1")
	m.Set("B", "2")

	c := m.Clone()
	c.Set("A", "changed")
	c.Delete("B")

	assert.Equal(t, "1", m.First("A"))
	assert.Equal(t, []string{"A", "B"}, m.Keys())
	assert.Equal(t, []string{"A"}, c.Keys())
	assert.Equal(t, "", c.First("B"))
}
