package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/luffyplayer/internal/api/models"
	"github.com/smazurov/luffyplayer/internal/audio"
)

// registerAudioRoutes lists the ALSA cards so a missing DAC overlay is
// visible without a shell.
func (s *Server) registerAudioRoutes() {
	plan := s.options.CheckPlan
	if plan == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-audio-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices/audio",
		Summary:     "List Audio Devices",
		Description: "List the sound cards and PCM devices the kernel reports",
		Tags:        []string{"devices"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.AudioDevicesResponse, error) {
		cards, err := audio.ListCards(plan.ProcRoot)
		if err != nil && !errors.Is(err, audio.ErrNoCards) {
			return nil, huma.Error500InternalServerError("Failed to enumerate sound cards", err)
		}
		devices, err := audio.ListDevices(plan.ProcRoot)
		if err != nil {
			s.logger.Debug("No PCM device list", "error", err)
		}
		if cards == nil {
			cards = []audio.Card{}
		}
		if devices == nil {
			devices = []audio.Device{}
		}

		return &models.AudioDevicesResponse{
			Body: models.AudioDevicesData{
				Cards:   cards,
				Devices: devices,
				Default: plan.Card,
				Count:   len(cards),
			},
		}, nil
	})
}
