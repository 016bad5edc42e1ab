package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/dioder/internal/api/models"
	"github.com/smazurov/dioder/internal/light"
	"github.com/smazurov/dioder/internal/metrics"
	"github.com/smazurov/dioder/internal/pca9685"
)

// registerLightRoutes registers light control endpoints
func (s *Server) registerLightRoutes() {
	if s.options.Light == nil {
		s.logger.Debug("Light not available, skipping light routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-light",
		Method:      http.MethodGet,
		Path:        "/api/light",
		Summary:     "Get Light",
		Description: "Get the on/off state, color and PWM frequency of the light",
		Tags:        []string{"light"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.LightResponse, error) {
		return &models.LightResponse{Body: toLightData(s.options.Light.State())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "turn-on-light",
		Method:      http.MethodPost,
		Path:        "/api/light/on",
		Summary:     "Turn On",
		Description: "Wake the controller and show a color. Without a body the last color is used. " +
			"When both rgb and hs are given, hs wins.",
		Tags:     []string{"light"},
		Security: withAuth(),
		Errors:   []int{400, 401, 503},
	}, func(_ context.Context, input *models.TurnOnRequest) (*models.LightResponse, error) {
		opts, err := turnOnOptions(input.Body)
		if err != nil {
			metrics.RecordRejectedInput("color")
			return nil, huma.Error400BadRequest("Invalid color", err)
		}

		state, err := s.options.Light.TurnOn(opts)
		if err != nil {
			return nil, lightError("Failed to turn on light", err)
		}
		return &models.LightResponse{Body: toLightData(state)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "turn-off-light",
		Method:      http.MethodPost,
		Path:        "/api/light/off",
		Summary:     "Turn Off",
		Description: "Zero every output and put the controller to sleep",
		Tags:        []string{"light"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.LightResponse, error) {
		state, err := s.options.Light.TurnOff()
		if err != nil {
			return nil, lightError("Failed to turn off light", err)
		}
		return &models.LightResponse{Body: toLightData(state)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-channel",
		Method:      http.MethodPut,
		Path:        "/api/light/channels/{channel}",
		Summary:     "Set Channel",
		Description: "Write a raw duty cycle to one PCA9685 output. The tracked color is not changed.",
		Tags:        []string{"light"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 503},
	}, func(_ context.Context, input *models.ChannelRequest) (*models.ChannelResponse, error) {
		if err := s.options.Light.SetChannel(input.Channel, input.Body.Duty); err != nil {
			if errors.Is(err, light.ErrOutOfRange) {
				metrics.RecordRejectedInput("duty")
			}
			return nil, lightError("Failed to set channel", err)
		}
		return &models.ChannelResponse{
			Body: models.ChannelData{Channel: input.Channel, Duty: input.Body.Duty},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-frequency",
		Method:      http.MethodPut,
		Path:        "/api/light/frequency",
		Summary:     "Set Frequency",
		Description: "Reprogram the PWM base frequency. The prescaler must land in 4-255.",
		Tags:        []string{"light"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 503},
	}, func(_ context.Context, input *models.FrequencyRequest) (*models.FrequencyResponse, error) {
		prescale, err := s.options.Light.SetFrequency(input.Body.Hz)
		if err != nil {
			if errors.Is(err, light.ErrOutOfRange) {
				metrics.RecordRejectedInput("frequency")
			}
			return nil, lightError("Failed to set frequency", err)
		}
		return &models.FrequencyResponse{
			Body: models.FrequencyData{Hz: input.Body.Hz, Prescale: prescale},
		}, nil
	})

	s.logger.Info("Light routes registered")
}

// turnOnOptions validates the request body and converts it.
func turnOnOptions(body *models.TurnOnRequestData) (light.TurnOnOptions, error) {
	var opts light.TurnOnOptions
	if body == nil {
		return opts, nil
	}

	if body.RGB != nil {
		if len(body.RGB) != 3 {
			return opts, fmt.Errorf("rgb needs 3 components, got %d", len(body.RGB))
		}
		var rgb [3]uint8
		for i, c := range body.RGB {
			if c < 0 || c > 255 {
				return opts, fmt.Errorf("rgb[%d] = %d not in 0..255", i, c)
			}
			rgb[i] = uint8(c)
		}
		opts.RGB = &rgb
	}

	if body.HS != nil {
		if len(body.HS) != 2 {
			return opts, fmt.Errorf("hs needs 2 components, got %d", len(body.HS))
		}
		h, sat := body.HS[0], body.HS[1]
		if !(h >= 0 && h <= 360) {
			return opts, fmt.Errorf("hue %v not in 0..360", h)
		}
		if !(sat >= 0 && sat <= 100) {
			return opts, fmt.Errorf("saturation %v not in 0..100", sat)
		}
		opts.HS = &[2]float64{h, sat}
	}

	return opts, nil
}

// lightError maps light and driver errors to HTTP status codes.
func lightError(msg string, err error) error {
	switch {
	case errors.Is(err, light.ErrOutOfRange):
		return huma.Error400BadRequest(msg, err)
	case pca9685.IsIOError(err):
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func toLightData(st light.State) models.LightData {
	return models.LightData{
		Name:          st.Name,
		On:            st.On,
		RGB:           st.RGB,
		FrequencyHz:   st.FrequencyHz,
		Available:     st.Available,
		SupportsColor: st.SupportsColor,
	}
}
