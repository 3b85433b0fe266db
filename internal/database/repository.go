package database

import (
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
)

type RunRepository interface {
	Save(run *entity.Run) error
	FindByID(id string) (*entity.Run, error)
	Delete(id string) error
}

type fileRunRepository struct {
	storage storage.FileStorage
}
