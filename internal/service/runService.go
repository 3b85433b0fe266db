package service

import (
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/elastix"
)

func (s *runService) GetRun(id string) (*entity.Run, error) {
	return s.repo.FindByID(id)
}

// DeleteRun removes the run record. Outputs of the run stay on disk.
func (s *runService) DeleteRun(id string) error {
	if _, err := s.repo.FindByID(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *runService) EngineStatus() map[string]string {
	return s.engine.Status()
}

func (s *runService) Presets() []string {
	return elastix.PresetNames()
}

// Preset renders the named default parameter map in elastix text format.
func (s *runService) Preset(name string) (string, error) {
	m, err := elastix.Preset(name)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}
