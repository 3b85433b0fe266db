package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RegistrationRequest is the body of POST /elastix_register.
type RegistrationRequest struct {
	FixedImage   string               `json:"pth_fixed_image" binding:"required"`
	MovingImage  string               `json:"pth_moving_image" binding:"required"`
	ParameterMap ParameterMapSelector `json:"parameter_map"`
	OutputImage  string               `json:"pth_output_image"`
}

// WarpRequest is the body of POST /elastix_warp. TransformMaps is applied in
// the given order.
type WarpRequest struct {
	Input         string   `json:"pth_input" binding:"required"`
	Output        string   `json:"pth_output" binding:"required"`
	TransformMaps []string `json:"pth_transform_maps" binding:"required"`
}

// PreviewRequest is the body of POST /elastix_preview.
type PreviewRequest struct {
	Image      string `json:"pth_image" binding:"required"`
	FixedImage string `json:"pth_fixed_image"`
	Output     string `json:"pth_output" binding:"required"`
	Size       int    `json:"size"`
	Tiles      int    `json:"tiles"`
}

// StageSelector picks the parameter map of one registration stage: either a
// preset name, or explicit keys optionally layered on a preset.
type StageSelector struct {
	Preset    string
	Overrides map[string][]string
}

// ParameterMapSelector is the ordered list of stages. In JSON it is a preset
// name, an object of explicit keys, or an array of either. An empty string
// counts as absent. A key given an empty list is removed from the preset.
type ParameterMapSelector []StageSelector

func (s ParameterMapSelector) IsEmpty() bool {
	return len(s) == 0
}

func (s *ParameterMapSelector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*s = nil
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		stages := make(ParameterMapSelector, 0, len(raw))
		for i, r := range raw {
			stage, err := decodeStage(r)
			if err != nil {
				return fmt.Errorf("parameter_map[%d]: %w", i, err)
			}
			stages = append(stages, stage)
		}
		*s = stages
		return nil
	}

	stage, err := decodeStage(data)
	if err != nil {
		return fmt.Errorf("parameter_map: %w", err)
	}
	*s = ParameterMapSelector{stage}
	return nil
}

func (s ParameterMapSelector) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, 0, len(s))
	for _, stage := range s {
		if len(stage.Overrides) == 0 {
			out = append(out, stage.Preset)
			continue
		}
		obj := make(map[string]interface{}, len(stage.Overrides)+1)
		for k, v := range stage.Overrides {
			if v == nil {
				v = []string{}
			}
			obj[k] = v
		}
		if stage.Preset != "" {
			obj["Preset"] = stage.Preset
		}
		out = append(out, obj)
	}
	if len(out) == 1 {
		return json.Marshal(out[0])
	}
	return json.Marshal(out)
}

func decodeStage(data []byte) (StageSelector, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return StageSelector{}, err
		}
		if name == "" {
			return StageSelector{}, fmt.Errorf("%w: empty preset name", ErrInvalidParameterMap)
		}
		return StageSelector{Preset: name}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return StageSelector{}, fmt.Errorf("%w: expected preset name or object", ErrInvalidParameterMap)
	}

	stage := StageSelector{Overrides: make(map[string][]string, len(obj))}
	for key, raw := range obj {
		values, err := decodeValues(raw)
		if err != nil {
			return StageSelector{}, fmt.Errorf("%w: key %q: %v", ErrInvalidParameterMap, key, err)
		}
		if key == "Preset" {
			if len(values) != 1 {
				return StageSelector{}, fmt.Errorf("%w: Preset takes a single name", ErrInvalidParameterMap)
			}
			stage.Preset = values[0]
			continue
		}
		stage.Overrides[key] = values
	}
	return stage, nil
}

// decodeValues accepts a scalar or a list of scalars and renders them as
// strings. Numbers keep their JSON spelling.
func decodeValues(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var item interface{}
	if err := dec.Decode(&item); err != nil {
		return nil, err
	}

	list, ok := item.([]interface{})
	if !ok {
		list = []interface{}{item}
	}
	values := make([]string, 0, len(list))
	for _, v := range list {
		str, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		values = append(values, str)
	}
	return values, nil
}

func scalarString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return fmt.Sprint(t), nil
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}
