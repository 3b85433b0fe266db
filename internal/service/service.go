package service

import (
	"context"

	"github.com/ds124wfegd/elastix-api/internal/database"
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/elastix"
	"github.com/ds124wfegd/elastix-api/internal/pkg/kafka"
	"github.com/ds124wfegd/elastix-api/internal/pkg/preview"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
)

// Requests reaching the services carry resolved paths: callers apply
// storage.ResolveRegistration / ResolveWarp / ResolvePreview first.

type RegistrationService interface {
	Register(ctx context.Context, req entity.RegistrationRequest) (*entity.ResultEnvelope, error)
}

type WarpService interface {
	Warp(ctx context.Context, req entity.WarpRequest) (*entity.ResultEnvelope, error)
}

type PreviewService interface {
	Preview(ctx context.Context, req entity.PreviewRequest) (*entity.ResultEnvelope, error)
}

type RunService interface {
	GetRun(id string) (*entity.Run, error)
	DeleteRun(id string) error
	EngineStatus() map[string]string
	Presets() []string
	Preset(name string) (string, error)
}

type Options struct {
	DefaultParameterMap string
	KeepScratch         bool
}

type registrationService struct {
	*recorder
	storage storage.FileStorage
	engine  elastix.Engine
	opts    Options
}

type warpService struct {
	*recorder
	storage storage.FileStorage
	engine  elastix.Engine
	opts    Options
}

type previewService struct {
	*recorder
	storage   storage.FileStorage
	previewer preview.Previewer
}

type runService struct {
	repo   database.RunRepository
	engine elastix.Engine
}

func NewRegistrationService(storage storage.FileStorage, engine elastix.Engine, repo database.RunRepository, producer kafka.Producer, opts Options) RegistrationService {
	if opts.DefaultParameterMap == "" {
		opts.DefaultParameterMap = "translation"
	}
	return &registrationService{
		recorder: newRecorder(repo, producer),
		storage:  storage,
		engine:   engine,
		opts:     opts,
	}
}

func NewWarpService(storage storage.FileStorage, engine elastix.Engine, repo database.RunRepository, producer kafka.Producer, opts Options) WarpService {
	return &warpService{
		recorder: newRecorder(repo, producer),
		storage:  storage,
		engine:   engine,
		opts:     opts,
	}
}

func NewPreviewService(storage storage.FileStorage, previewer preview.Previewer, repo database.RunRepository, producer kafka.Producer) PreviewService {
	return &previewService{
		recorder:  newRecorder(repo, producer),
		storage:   storage,
		previewer: previewer,
	}
}

func NewRunService(repo database.RunRepository, engine elastix.Engine) RunService {
	return &runService{repo: repo, engine: engine}
}
