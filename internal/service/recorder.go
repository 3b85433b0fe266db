package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/elastix-api/internal/database"
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/kafka"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// recorder keeps the run record and event of every operation. Failing to
// record never fails the operation itself.
type recorder struct {
	repo     database.RunRepository
	producer kafka.Producer
}

func newRecorder(repo database.RunRepository, producer kafka.Producer) *recorder {
	return &recorder{repo: repo, producer: producer}
}

func (r *recorder) start(kind entity.RunKind, inputs ...string) *entity.Run {
	return &entity.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Inputs:    inputs,
		StartedAt: time.Now().UTC(),
	}
}

func (r *recorder) finish(ctx context.Context, run *entity.Run, err error) {
	run.DurationMs = time.Since(run.StartedAt).Milliseconds()
	run.Status = entity.StatusSuccess
	if err != nil {
		run.Status = entity.StatusError
		run.Error = err.Error()
	}

	entry := logrus.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"kind":     run.Kind,
		"status":   run.Status,
		"duration": run.DurationMs,
		"output":   run.Output,
	})
	if err != nil {
		entry.WithError(err).Warn("run failed")
	} else {
		entry.Info("run completed")
	}

	if r.repo != nil {
		if err := r.repo.Save(run); err != nil {
			logrus.WithField("run_id", run.ID).Errorf("failed to save run record: %v", err)
		}
	}
	if r.producer != nil {
		if err := r.producer.Publish(context.WithoutCancel(ctx), run.Event()); err != nil {
			logrus.WithField("run_id", run.ID).Errorf("failed to publish run event: %v", err)
		}
	}
}

// checkImage reports unsupported or unreadable inputs as input errors.
func checkImage(s storage.FileStorage, role, path string, formatCheck func(string) error) error {
	if path == "" {
		return fmt.Errorf("%w: %s image path is empty", entity.ErrInvalidInput, role)
	}
	if err := formatCheck(path); err != nil {
		return fmt.Errorf("%s image: %w", role, err)
	}
	if err := s.Readable(path); err != nil {
		return fmt.Errorf("%w: %s image %s: %v", entity.ErrImageNotReadable, role, path, err)
	}
	return nil
}

// newScratch creates the private engine directory of a run. cleanup removes
// it unless keep is set.
func newScratch(s storage.FileStorage, runID string, keep bool) (string, func(), error) {
	dir, err := s.Scratch(runID)
	if err != nil {
		return "", nil, fmt.Errorf("%w: scratch directory: %v", entity.ErrOutputWrite, err)
	}
	return dir, func() {
		if keep {
			return
		}
		if err := s.Delete(dir); err != nil {
			logrus.WithField("run_id", runID).Warnf("failed to remove scratch directory: %v", err)
		}
	}, nil
}
