package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ds124wfegd/elastix-api/internal/appServer"
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type registerOptions struct {
	fixed        string
	moving       string
	parameterMap string
	output       string
}

func (o *registerOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.fixed, "fixed", "f", "", "fixed (reference) image")
	fs.StringVarP(&o.moving, "moving", "m", "", "moving image")
	fs.StringVarP(&o.parameterMap, "parameter-map", "p", "",
		`preset name or JSON parameter map, e.g. '["rigid", "bspline"]'`)
	fs.StringVarP(&o.output, "output", "o", "", "registered image (default from config)")
}

func newRegisterCommand() *cobra.Command {
	opts := &registerOptions{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a moving image onto a fixed image",
		RunE: func(cmd *cobra.Command, args []string) error {
			selector, err := parseSelector(opts.parameterMap)
			if err != nil {
				return printResult(cmd.OutOrStdout(), nil, err)
			}

			components := appServer.NewComponents(cfg)
			defer components.Close()

			req := storage.ResolveRegistration(components.Storage, entity.RegistrationRequest{
				FixedImage:   opts.fixed,
				MovingImage:  opts.moving,
				ParameterMap: selector,
				OutputImage:  opts.output,
			}, cfg.App.DefaultOutput)

			envelope, err := components.Registration.Register(cmd.Context(), req)
			return printResult(cmd.OutOrStdout(), envelope, err)
		},
	}

	opts.addFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("fixed")
	_ = cmd.MarkFlagRequired("moving")
	return cmd
}

func newWarpCommand() *cobra.Command {
	var input, output string
	var transforms []string

	cmd := &cobra.Command{
		Use:   "warp",
		Short: "Apply saved transform parameter files to an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			components := appServer.NewComponents(cfg)
			defer components.Close()

			req := storage.ResolveWarp(components.Storage, entity.WarpRequest{
				Input:         input,
				Output:        output,
				TransformMaps: transforms,
			})

			envelope, err := components.Warp.Warp(cmd.Context(), req)
			return printResult(cmd.OutOrStdout(), envelope, err)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "image to warp")
	cmd.Flags().StringVarP(&output, "output", "o", "", "warped image")
	cmd.Flags().StringArrayVarP(&transforms, "transform", "t", nil,
		"transform parameter file, repeat to chain in order")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("transform")
	return cmd
}

func newParameterMapsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parameter-maps [name]",
		Short: "List presets, or print one as an elastix parameter file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components := appServer.NewComponents(cfg)
			defer components.Close()

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(components.Runs.Presets(), "\n"))
				return nil
			}
			text, err := components.Runs.Preset(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

// parseSelector accepts a bare preset name as well as the JSON forms.
func parseSelector(value string) (entity.ParameterMapSelector, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if !strings.HasPrefix(value, "{") && !strings.HasPrefix(value, "[") && !strings.HasPrefix(value, `"`) {
		return entity.ParameterMapSelector{{Preset: value}}, nil
	}

	var selector entity.ParameterMapSelector
	if err := json.Unmarshal([]byte(value), &selector); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameterMap, err)
	}
	return selector, nil
}
