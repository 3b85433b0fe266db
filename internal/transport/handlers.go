package transport

import (
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/ds124wfegd/elastix-api/internal/service"
)

type ElastixHandler struct {
	registration  service.RegistrationService
	warp          service.WarpService
	preview       service.PreviewService
	runs          service.RunService
	storage       storage.FileStorage
	defaultOutput string
}

func NewElastixHandler(
	registration service.RegistrationService,
	warp service.WarpService,
	preview service.PreviewService,
	runs service.RunService,
	storage storage.FileStorage,
	defaultOutput string,
) *ElastixHandler {
	return &ElastixHandler{
		registration:  registration,
		warp:          warp,
		preview:       preview,
		runs:          runs,
		storage:       storage,
		defaultOutput: defaultOutput,
	}
}
