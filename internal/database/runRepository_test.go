package database

import (
	"testing"
	"time"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepositorySaveFind(t *testing.T) {
	repo := NewRunRepository(storage.NewFileStorage(t.TempDir()))

	run := &entity.Run{
		ID:             uuid.New().String(),
		Kind:           entity.RunRegister,
		Status:         entity.StatusSuccess,
		Inputs:         []string{"/data/mr.nrrd", "/data/us.nrrd"},
		Output:         "/data/registered_image.nrrd",
		TransformPaths: []string{"/data/transform_parameter_0.txt"},
		Stages:         2,
		StartedAt:      time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		DurationMs:     4200,
		ParameterMap: entity.ParameterMapSelector{
			{Preset: "rigid"},
			{Preset: "bspline", Overrides: map[string][]string{"NumberOfSpatialSamples": {"2000000"}}},
		},
	}
	require.NoError(t, repo.Save(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, found)

	require.NoError(t, repo.Delete(run.ID))
	_, err = repo.FindByID(run.ID)
	assert.ErrorIs(t, err, entity.ErrRunNotFound)
}

func TestRunRepositoryRejectsBadIDs(t *testing.T) {
	repo := NewRunRepository(storage.NewFileStorage(t.TempDir()))

	for _, id := range []string{"", "../../etc/passwd", "not-a-uuid"} {
		_, err := repo.FindByID(id)
		assert.ErrorIs(t, err, entity.ErrRunNotFound, id)
		assert.ErrorIs(t, repo.Delete(id), entity.ErrRunNotFound, id)
	}
}
