package entity

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ResultEnvelope is the uniform response of every operation.
type ResultEnvelope struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	OutputImagePath string   `json:"output_image_path,omitempty"`
	TransformPaths  []string `json:"transform_parameter_paths,omitempty"`
	RunID           string   `json:"run_id,omitempty"`
}

func Success(message, output string) *ResultEnvelope {
	return &ResultEnvelope{Status: StatusSuccess, Message: message, OutputImagePath: output}
}

func Failure(err error) *ResultEnvelope {
	return &ResultEnvelope{Status: StatusError, Message: err.Error()}
}

type RunKind string

const (
	RunRegister RunKind = "register"
	RunWarp     RunKind = "warp"
	RunPreview  RunKind = "preview"
)

// Run is the record kept for a finished operation.
type Run struct {
	ID             string    `json:"id"`
	Kind           RunKind   `json:"kind"`
	Status         string    `json:"status"`
	Inputs         []string  `json:"inputs"`
	Output         string    `json:"output,omitempty"`
	TransformPaths []string  `json:"transform_parameter_paths,omitempty"`
	Stages         int       `json:"stages,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	DurationMs     int64     `json:"duration_ms"`
	Error          string    `json:"error,omitempty"`

	// ParameterMap is the stage selection a registration ran with.
	ParameterMap ParameterMapSelector `json:"parameter_map,omitempty"`
}

// RunEvent is published once per finished run.
type RunEvent struct {
	RunID      string  `json:"run_id"`
	Kind       RunKind `json:"kind"`
	Status     string  `json:"status"`
	Output     string  `json:"output,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

func (r *Run) Event() RunEvent {
	return RunEvent{
		RunID:      r.ID,
		Kind:       r.Kind,
		Status:     r.Status,
		Output:     r.Output,
		DurationMs: r.DurationMs,
	}
}
