package elastix

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElastix mimics the files elastix and transformix leave in -out.
func fakeElastix(t *testing.T, calls *[][]string) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))

		flags := map[string][]string{}
		for i := 0; i+1 < len(args); i += 2 {
			flags[args[i]] = append(flags[args[i]], args[i+1])
		}
		out := flags["-out"][0]

		switch name {
		case "elastix":
			for i, p := range flags["-p"] {
				stage, err := ReadParameterFile(p)
				require.NoError(t, err)
				tp := NewParameterMap()
				tp.Set("Transform", stage.First("Transform"))
				tp.Set("TransformParameters", fmt.Sprint(i+1), "0", "0")
				tp.Set("InitialTransformParametersFileName", filepath.Join(out, fmt.Sprintf("TransformParameters.%d.txt", i-1)))
				require.NoError(t, tp.WriteFile(filepath.Join(out, fmt.Sprintf("TransformParameters.%d.txt", i))))
				require.NoError(t, os.WriteFile(filepath.Join(out, fmt.Sprintf("result.%d.%s", i, stage.First("ResultImageFormat"))), []byte("img"), 0644))
			}
		case "transformix":
			tp, err := ReadParameterFile(flags["-tp"][0])
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(filepath.Join(out, "result."+tp.First("ResultImageFormat")), []byte("warped"), 0644))
		}
		return []byte("Total time elapsed: 1.2s"), nil
	}
}

func TestRegisterWritesStagesAndCollectsTransforms(t *testing.T) {
	var calls [][]string
	engine := newEngineWithRunner("elastix", "transformix", fakeElastix(t, &calls))
	dir := t.TempDir()

	rigid, err := Preset("rigid")
	require.NoError(t, err)
	bspline, err := Preset("bspline")
	require.NoError(t, err)

	res, err := engine.Register(context.Background(), RegistrationJob{
		Fixed:   "/data/fixed.nrrd",
		Moving:  "/data/moving.nrrd",
		Stages:  []*ParameterMap{rigid, bspline},
		WorkDir: dir,
		Format:  "nrrd",
	})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"elastix", "-f", "/data/fixed.nrrd", "-m", "/data/moving.nrrd", "-out", dir,
		"-p", filepath.Join(dir, "stage_0.txt"), "-p", filepath.Join(dir, "stage_1.txt"),
	}, calls[0])

	assert.Equal(t, filepath.Join(dir, "result.1.nrrd"), res.ResultImage)
	require.Len(t, res.Transforms, 2)
	assert.Equal(t, "EulerTransform", res.Transforms[0].First("Transform"))
	assert.Equal(t, "BSplineTransform", res.Transforms[1].First("Transform"))
	assert.Equal(t, "nii", rigid.First("ResultImageFormat"), "stage maps are not mutated")
}

func TestRegisterEngineFailure(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("ERROR: ExceptionObject caught!\nDescription: Too many samples map outside moving image buffer"), errors.New("exit status 1")
	}
	engine := newEngineWithRunner("elastix", "transformix", run)
	tp, _ := Preset("translation")

	_, err := engine.Register(context.Background(), RegistrationJob{
		Fixed: "f.nrrd", Moving: "m.nrrd", Stages: []*ParameterMap{tp}, WorkDir: t.TempDir(), Format: "nrrd",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrEngineFailed)
	assert.Contains(t, err.Error(), "Too many samples")
}

func TestRegisterEngineMissing(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	engine := newEngineWithRunner("elastix", "transformix", run)
	tp, _ := Preset("translation")

	_, err := engine.Register(context.Background(), RegistrationJob{
		Fixed: "f.nrrd", Moving: "m.nrrd", Stages: []*ParameterMap{tp}, WorkDir: t.TempDir(), Format: "nrrd",
	})
	assert.ErrorIs(t, err, entity.ErrEngineUnavailable)
}

func TestWarpEngineMissingAbsolutePath(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, &fs.PathError{Op: "fork/exec", Path: name, Err: syscall.ENOENT}
	}
	engine := newEngineWithRunner("/opt/elastix/bin/elastix", "/opt/elastix/bin/transformix", run)
	tp, _ := Preset("translation")

	_, err := engine.Warp(context.Background(), WarpJob{
		Input: "us.nrrd", Transforms: []*ParameterMap{tp}, WorkDir: t.TempDir(), Format: "nrrd",
	})
	assert.ErrorIs(t, err, entity.ErrEngineUnavailable)
}

func TestWarpRunsTransformixOnLastChainElement(t *testing.T) {
	var calls [][]string
	engine := newEngineWithRunner("elastix", "transformix", fakeElastix(t, &calls))
	dir := t.TempDir()

	first := NewParameterMap()
	first.Set("Transform", "EulerTransform")
	second := NewParameterMap()
	second.Set("Transform", "BSplineTransform")

	out, err := engine.Warp(context.Background(), WarpJob{
		Input: "/data/us.nrrd", Transforms: []*ParameterMap{first, second}, WorkDir: dir, Format: "nii.gz",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "result.nii.gz"), out)

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"transformix", "-in", "/data/us.nrrd", "-out", dir, "-tp", filepath.Join(dir, "chain_1.txt")}, calls[0])
}

func TestWriteChainKeepsCallerOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"AffineTransform", "EulerTransform", "AffineTransform", "BSplineTransform"}

	var transforms []*ParameterMap
	for _, n := range names {
		m := NewParameterMap()
		m.Set("Transform", n)
		m.Set("ResultImageFormat", "mha")
		transforms = append(transforms, m)
	}

	paths, err := WriteChain(transforms, dir, "nrrd")
	require.NoError(t, err)
	require.Len(t, paths, len(names), "duplicates are kept")

	for i, p := range paths {
		m, err := ReadParameterFile(p)
		require.NoError(t, err)
		assert.Equal(t, names[i], m.First("Transform"))
		if i == 0 {
			assert.Equal(t, noInitialTransform, m.First("InitialTransformParametersFileName"))
		} else {
			assert.Equal(t, paths[i-1], m.First("InitialTransformParametersFileName"))
		}
		if i == len(paths)-1 {
			assert.Equal(t, "nrrd", m.First("ResultImageFormat"))
		} else {
			assert.Equal(t, "mha", m.First("ResultImageFormat"))
		}
	}
}

func TestWriteChainEmpty(t *testing.T) {
	_, err := WriteChain(nil, t.TempDir(), "nrrd")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestDetach(t *testing.T) {
	m := NewParameterMap()
	m.Set("InitialTransformParametersFileName", "/tmp/run/TransformParameters.0.txt")

	d := Detach(m)
	assert.Equal(t, noInitialTransform, d.First("InitialTransformParametersFileName"))
	assert.Equal(t, "/tmp/run/TransformParameters.0.txt", m.First("InitialTransformParametersFileName"))
}

func TestSetResultFormatForPNG(t *testing.T) {
	m, _ := Preset("affine")
	setResultFormat(m, "png")
	assert.Equal(t, "png", m.First("ResultImageFormat"))
	assert.Equal(t, "unsigned char", m.First("ResultImagePixelType"))
}
