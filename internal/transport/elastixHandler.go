package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/gin-gonic/gin"
)

func (h *ElastixHandler) Register(c *gin.Context) {
	var req entity.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	req = storage.ResolveRegistration(h.storage, req, h.defaultOutput)

	envelope, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

func (h *ElastixHandler) Warp(c *gin.Context) {
	var req entity.WarpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	req = storage.ResolveWarp(h.storage, req)

	envelope, err := h.warp.Warp(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

func (h *ElastixHandler) Preview(c *gin.Context) {
	var req entity.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	req = storage.ResolvePreview(h.storage, req)

	envelope, err := h.preview.Preview(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

func (h *ElastixHandler) GetRun(c *gin.Context) {
	run, err := h.runs.GetRun(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *ElastixHandler) DeleteRun(c *gin.Context) {
	id := c.Param("id")
	if err := h.runs.DeleteRun(id); err != nil {
		h.fail(c, err)
		return
	}
	envelope := entity.Success("Run deleted.", "")
	envelope.RunID = id
	c.JSON(http.StatusOK, envelope)
}

func (h *ElastixHandler) ListParameterMaps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parameter_maps": h.runs.Presets()})
}

func (h *ElastixHandler) GetParameterMap(c *gin.Context) {
	text, err := h.runs.Preset(c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusNotFound, entity.Failure(err))
		return
	}
	c.String(http.StatusOK, text)
}

func (h *ElastixHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "elastix-api",
		"engine":  h.runs.EngineStatus(),
	})
}

func (h *ElastixHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), entity.Failure(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrImageNotReadable),
		errors.Is(err, entity.ErrTransformNotFound),
		errors.Is(err, entity.ErrUnknownParameterMap),
		errors.Is(err, entity.ErrInvalidParameterMap),
		errors.Is(err, entity.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
