package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/luffyplayer/internal/api/models"
	"github.com/smazurov/luffyplayer/internal/engine"
	"github.com/smazurov/luffyplayer/internal/library"
	"github.com/smazurov/luffyplayer/internal/player"
)

// registerPlayerRoutes mirrors the four buttons over HTTP.
func (s *Server) registerPlayerRoutes() {
	p := s.options.Player
	if p == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-player",
		Method:      http.MethodGet,
		Path:        "/api/player",
		Summary:     "Player Status",
		Description: "Current track, volume, playback state and position",
		Tags:        []string{"player"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PlayerStatusResponse, error) {
		return &models.PlayerStatusResponse{Body: p.Status(ctx)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-tracks",
		Method:      http.MethodGet,
		Path:        "/api/player/tracks",
		Summary:     "List Tracks",
		Description: "Track file names in play order",
		Tags:        []string{"player"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.TrackListResponse, error) {
		tracks := p.Tracks()
		return &models.TrackListResponse{
			Body: models.TrackListData{Tracks: tracks, Count: len(tracks)},
		}, nil
	})

	s.registerPlayerAction("toggle-playback", "/api/player/toggle", "Toggle Playback",
		"Same as button A: play, pause or resume", p.TogglePlayback)
	s.registerPlayerAction("next-track", "/api/player/next", "Next Track",
		"Same as button B: advance to the next track, wrapping at the end",
		func(ctx context.Context) error { return p.NextTrack(ctx, player.ReasonAPI) })
	s.registerPlayerAction("stop-playback", "/api/player/stop", "Stop Playback",
		"Stop playback and unload the track", p.Stop)

	huma.Register(s.api, huma.Operation{
		OperationID: "set-volume",
		Method:      http.MethodPost,
		Path:        "/api/player/volume",
		Summary:     "Change Volume",
		Description: "Same as buttons X and Y with an arbitrary delta, or set an absolute volume",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 409, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.VolumeRequest) (*models.PlayerStatusResponse, error) {
		var err error
		switch {
		case input.Body.Volume != nil:
			err = p.SetVolume(ctx, *input.Body.Volume)
		case input.Body.Delta != nil:
			err = p.AdjustVolume(ctx, *input.Body.Delta)
		default:
			return nil, huma.Error400BadRequest("delta or volume is required")
		}
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.PlayerStatusResponse{Body: p.Status(ctx)}, nil
	})
}

func (s *Server) registerPlayerAction(id, path, summary, description string, action func(context.Context) error) {
	p := s.options.Player
	huma.Register(s.api, huma.Operation{
		OperationID: id,
		Method:      http.MethodPost,
		Path:        path,
		Summary:     summary,
		Description: description,
		Tags:        []string{"player"},
		Errors:      []int{401, 409, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PlayerStatusResponse, error) {
		if err := action(ctx); err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.PlayerStatusResponse{Body: p.Status(ctx)}, nil
	})
}

// mapPlayerError converts player and engine errors to Huma HTTP errors.
func mapPlayerError(err error) error {
	switch {
	case errors.Is(err, engine.ErrNotLoaded), errors.Is(err, library.ErrEmpty):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError("Playback failed", err)
	}
}
