package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/google/uuid"
)

func NewRunRepository(storage storage.FileStorage) RunRepository {
	return &fileRunRepository{storage: storage}
}

func (r *fileRunRepository) Save(run *entity.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	return r.storage.Save(r.getRunMetadataPath(run.ID), bytes.NewReader(data))
}

func (r *fileRunRepository) FindByID(id string) (*entity.Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", entity.ErrRunNotFound, id)
	}

	reader, err := r.storage.Get(r.getRunMetadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrRunNotFound, id)
		}
		return nil, err
	}
	defer reader.Close()

	var run entity.Run
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&run); err != nil {
		return nil, err
	}

	return &run, nil
}

func (r *fileRunRepository) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", entity.ErrRunNotFound, id)
	}
	if err := r.storage.Delete(r.getRunMetadataPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *fileRunRepository) getRunMetadataPath(id string) string {
	return filepath.Join("metadata", id+".json")
}
