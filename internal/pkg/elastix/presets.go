package elastix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ds124wfegd/elastix-api/internal/entity"
)

type entry struct {
	key    string
	values []string
}

var commonParameters = []entry{
	{"FixedInternalImagePixelType", []string{"float"}},
	{"MovingInternalImagePixelType", []string{"float"}},
	{"Registration", []string{"MultiResolutionRegistration"}},
	{"FixedImagePyramid", []string{"FixedSmoothingImagePyramid"}},
	{"MovingImagePyramid", []string{"MovingSmoothingImagePyramid"}},
	{"Interpolator", []string{"LinearInterpolator"}},
	{"ResampleInterpolator", []string{"FinalBSplineInterpolator"}},
	{"FinalBSplineInterpolationOrder", []string{"3"}},
	{"Resampler", []string{"DefaultResampler"}},
	{"Metric", []string{"AdvancedMattesMutualInformation"}},
	{"NumberOfHistogramBins", []string{"32"}},
	{"Optimizer", []string{"AdaptiveStochasticGradientDescent"}},
	{"MaximumNumberOfIterations", []string{"256"}},
	{"NumberOfResolutions", []string{"4"}},
	{"ImageSampler", []string{"RandomCoordinate"}},
	{"NumberOfSpatialSamples", []string{"2048"}},
	{"NewSamplesEveryIteration", []string{"true"}},
	{"CheckNumberOfSamples", []string{"true"}},
	{"MaximumNumberOfSamplingAttempts", []string{"8"}},
	{"HowToCombineTransforms", []string{"Compose"}},
	{"DefaultPixelValue", []string{"0"}},
	{"WriteResultImage", []string{"true"}},
	{"ResultImagePixelType", []string{"float"}},
	{"ResultImageFormat", []string{"nii"}},
	{"WriteIterationInfo", []string{"false"}},
}

// presets mirror the default parameter maps elastix ships for pairwise
// registration.
var presets = map[string][]entry{
	"translation": {
		{"Transform", []string{"TranslationTransform"}},
		{"AutomaticTransformInitialization", []string{"true"}},
		{"AutomaticScalesEstimation", []string{"true"}},
	},
	"rigid": {
		{"Transform", []string{"EulerTransform"}},
		{"AutomaticTransformInitialization", []string{"true"}},
		{"AutomaticScalesEstimation", []string{"true"}},
	},
	"affine": {
		{"Transform", []string{"AffineTransform"}},
		{"AutomaticTransformInitialization", []string{"true"}},
		{"AutomaticScalesEstimation", []string{"true"}},
	},
	"bspline": {
		{"Transform", []string{"BSplineTransform"}},
		{"Registration", []string{"MultiMetricMultiResolutionRegistration"}},
		{"Metric", []string{"AdvancedMattesMutualInformation", "TransformBendingEnergyPenalty"}},
		{"Metric0Weight", []string{"1.0"}},
		{"Metric1Weight", []string{"1.0"}},
		{"FinalGridSpacingInPhysicalUnits", []string{"10.0"}},
		{"GridSpacingSchedule", []string{"2.803221", "1.988100", "1.410000", "1.000000"}},
		{"MaximumNumberOfIterations", []string{"512"}},
	},
}

func init() {
	presets["nonrigid"] = presets["bspline"]
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of the named default parameter map.
func Preset(name string) (*ParameterMap, error) {
	specific, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", entity.ErrUnknownParameterMap, name, strings.Join(PresetNames(), ", "))
	}

	m := NewParameterMap()
	for _, e := range commonParameters {
		m.Set(e.key, e.values...)
	}
	for _, e := range specific {
		m.Set(e.key, e.values...)
	}
	return m, nil
}

// ResolveSelector turns the request selector into one parameter map per
// stage, in order. An empty selector yields the fallback preset.
func ResolveSelector(sel entity.ParameterMapSelector, fallback string) ([]*ParameterMap, error) {
	if sel.IsEmpty() {
		sel = entity.ParameterMapSelector{{Preset: fallback}}
	}

	maps := make([]*ParameterMap, 0, len(sel))
	for i, stage := range sel {
		m, err := resolveStage(stage)
		if err != nil {
			if len(sel) > 1 {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}

func resolveStage(stage entity.StageSelector) (*ParameterMap, error) {
	var m *ParameterMap
	if stage.Preset != "" {
		p, err := Preset(stage.Preset)
		if err != nil {
			return nil, err
		}
		m = p
	} else {
		if len(stage.Overrides) == 0 {
			return nil, fmt.Errorf("%w: empty parameter map", entity.ErrInvalidParameterMap)
		}
		m = NewParameterMap()
	}

	keys := make([]string, 0, len(stage.Overrides))
	for k := range stage.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(stage.Overrides[k]) == 0 {
			m.Delete(k)
			continue
		}
		m.Set(k, stage.Overrides[k]...)
	}

	if m.First("Transform") == "" {
		return nil, fmt.Errorf("%w: missing Transform", entity.ErrInvalidParameterMap)
	}
	return m, nil
}
