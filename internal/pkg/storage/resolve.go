package storage

import "github.com/ds124wfegd/elastix-api/internal/entity"

// ResolveRegistration applies Resolve to every path of req. An empty output
// falls back to defaultOutput, which is resolved the same way.
func ResolveRegistration(s FileStorage, req entity.RegistrationRequest, defaultOutput string) entity.RegistrationRequest {
	if req.OutputImage == "" {
		req.OutputImage = defaultOutput
	}
	req.FixedImage = s.Resolve(req.FixedImage)
	req.MovingImage = s.Resolve(req.MovingImage)
	req.OutputImage = s.Resolve(req.OutputImage)
	return req
}

// ResolveWarp applies Resolve to every path of req, keeping transform order.
func ResolveWarp(s FileStorage, req entity.WarpRequest) entity.WarpRequest {
	req.Input = s.Resolve(req.Input)
	req.Output = s.Resolve(req.Output)

	transforms := make([]string, len(req.TransformMaps))
	for i, p := range req.TransformMaps {
		transforms[i] = s.Resolve(p)
	}
	req.TransformMaps = transforms
	return req
}

func ResolvePreview(s FileStorage, req entity.PreviewRequest) entity.PreviewRequest {
	req.Image = s.Resolve(req.Image)
	req.FixedImage = s.Resolve(req.FixedImage)
	req.Output = s.Resolve(req.Output)
	return req
}
