package elastix

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/sirupsen/logrus"
)

const noInitialTransform = "NoInitialTransform"

// Engine runs registration and resampling. Both calls block until the
// engine finishes or ctx is done.
type Engine interface {
	Register(ctx context.Context, job RegistrationJob) (*RegistrationResult, error)
	Warp(ctx context.Context, job WarpJob) (string, error)
	Status() map[string]string
}

type RegistrationJob struct {
	Fixed   string
	Moving  string
	Stages  []*ParameterMap
	WorkDir string
	Format  string
}

type RegistrationResult struct {
	// ResultImage lives in the job's WorkDir.
	ResultImage string
	Transforms  []*ParameterMap
}

type WarpJob struct {
	Input      string
	Transforms []*ParameterMap
	WorkDir    string
	Format     string
}

// Runner executes a command; cliEngine uses it for elastix and transformix.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type cliEngine struct {
	elastixBin     string
	transformixBin string
	threads        int
	run            Runner
}

func NewCLIEngine(elastixBin, transformixBin string, threads int) Engine {
	return &cliEngine{
		elastixBin:     elastixBin,
		transformixBin: transformixBin,
		threads:        threads,
		run:            execRunner,
	}
}

func newEngineWithRunner(elastixBin, transformixBin string, run Runner) *cliEngine {
	return &cliEngine{elastixBin: elastixBin, transformixBin: transformixBin, run: run}
}

func (e *cliEngine) Status() map[string]string {
	status := make(map[string]string, 2)
	for name, bin := range map[string]string{"elastix": e.elastixBin, "transformix": e.transformixBin} {
		if path, err := exec.LookPath(bin); err != nil {
			status[name] = "unavailable"
		} else {
			status[name] = path
		}
	}
	return status
}

func (e *cliEngine) Register(ctx context.Context, job RegistrationJob) (*RegistrationResult, error) {
	if len(job.Stages) == 0 {
		return nil, fmt.Errorf("%w: no registration stages", entity.ErrInvalidParameterMap)
	}

	args := []string{"-f", job.Fixed, "-m", job.Moving, "-out", job.WorkDir}
	for i, stage := range job.Stages {
		m := stage.Clone()
		setResultFormat(m, job.Format)
		m.Set("WriteResultImage", "true")

		path := filepath.Join(job.WorkDir, fmt.Sprintf("stage_%d.txt", i))
		if err := m.WriteFile(path); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrOutputWrite, err)
		}
		args = append(args, "-p", path)
	}
	args = e.withThreads(args)

	if err := e.invoke(ctx, e.elastixBin, args, job.WorkDir); err != nil {
		return nil, err
	}

	last := len(job.Stages) - 1
	result := &RegistrationResult{
		ResultImage: filepath.Join(job.WorkDir, fmt.Sprintf("result.%d.%s", last, job.Format)),
	}
	if _, err := os.Stat(result.ResultImage); err != nil {
		return nil, fmt.Errorf("%w: no result image: %v", entity.ErrEngineFailed, err)
	}

	for i := range job.Stages {
		tp, err := ReadParameterFile(filepath.Join(job.WorkDir, fmt.Sprintf("TransformParameters.%d.txt", i)))
		if err != nil {
			return nil, fmt.Errorf("%w: transform parameters of stage %d: %v", entity.ErrEngineFailed, i, err)
		}
		result.Transforms = append(result.Transforms, tp)
	}
	return result, nil
}

func (e *cliEngine) Warp(ctx context.Context, job WarpJob) (string, error) {
	paths, err := WriteChain(job.Transforms, job.WorkDir, job.Format)
	if err != nil {
		return "", err
	}

	args := []string{"-in", job.Input, "-out", job.WorkDir, "-tp", paths[len(paths)-1]}
	args = e.withThreads(args)

	if err := e.invoke(ctx, e.transformixBin, args, job.WorkDir); err != nil {
		return "", err
	}

	result := filepath.Join(job.WorkDir, "result."+job.Format)
	if _, err := os.Stat(result); err != nil {
		return "", fmt.Errorf("%w: no result image: %v", entity.ErrEngineFailed, err)
	}
	return result, nil
}

// WriteChain writes transforms into dir as chain_<i>.txt, each one pointing
// at its predecessor, so the last file applies the whole sequence in order.
// The last file carries the requested result format.
func WriteChain(transforms []*ParameterMap, dir, format string) ([]string, error) {
	if len(transforms) == 0 {
		return nil, fmt.Errorf("%w: no transforms to apply", entity.ErrInvalidInput)
	}

	paths := make([]string, len(transforms))
	previous := noInitialTransform
	for i, tp := range transforms {
		m := tp.Clone()
		m.Set("InitialTransformParametersFileName", previous)
		if i == len(transforms)-1 {
			setResultFormat(m, format)
		}

		paths[i] = filepath.Join(dir, fmt.Sprintf("chain_%d.txt", i))
		if err := m.WriteFile(paths[i]); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrOutputWrite, err)
		}
		previous = paths[i]
	}
	return paths, nil
}

// Detach makes a transform self-contained so it can be stored and later
// chained in any caller-given order.
func Detach(tp *ParameterMap) *ParameterMap {
	m := tp.Clone()
	m.Set("InitialTransformParametersFileName", noInitialTransform)
	return m
}

func setResultFormat(m *ParameterMap, format string) {
	if format == "" {
		return
	}
	m.Set("ResultImageFormat", format)
	if pt := resultPixelType(format); pt != "" {
		m.Set("ResultImagePixelType", pt)
	}
}

func (e *cliEngine) withThreads(args []string) []string {
	if e.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.threads))
	}
	return args
}

func (e *cliEngine) invoke(ctx context.Context, bin string, args []string, workDir string) error {
	start := time.Now()
	logger := logrus.WithFields(logrus.Fields{"engine": filepath.Base(bin), "work_dir": workDir})
	logger.Debugf("running %s %s", bin, strings.Join(args, " "))

	out, err := e.run(ctx, bin, args...)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s interrupted: %v", entity.ErrEngineFailed, filepath.Base(bin), ctx.Err())
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", entity.ErrEngineUnavailable, err)
		}
		logger.WithField("output", tail(string(out), 20)).Error("engine failed")
		return fmt.Errorf("%w: %s: %v: %s", entity.ErrEngineFailed, filepath.Base(bin), err, tail(string(out), 5))
	}

	logger.WithField("duration", time.Since(start)).Info("engine finished")
	return nil
}

// tail keeps the last n lines of the engine output.
func tail(out string, n int) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
