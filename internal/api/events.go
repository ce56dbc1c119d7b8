package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/luffyplayer/internal/events"
)

// registerEventRoutes streams bus events to web clients.
func (s *Server) registerEventRoutes() {
	bus := s.options.EventBus
	if bus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Player Events",
		Description: "Server-Sent Events for playback, track, volume, button and library changes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"playback-state-changed": events.PlaybackStateChangedEvent{},
		"track-changed":          events.TrackChangedEvent{},
		"volume-changed":         events.VolumeChangedEvent{},
		"button-pressed":         events.ButtonPressedEvent{},
		"library-rescanned":      events.LibraryRescannedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.PlaybackStateChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.TrackChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.VolumeChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.ButtonPressedEvent](bus, eventCh),
			events.SubscribeToChannel[events.LibraryRescannedEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Current state first so a client needs no separate GET.
		if p := s.options.Player; p != nil {
			st := p.Status(ctx)
			state := events.StateStopped
			if st.Playing {
				state = events.StatePlaying
			} else if st.MediaLoaded {
				state = events.StatePaused
			}
			if err := send.Data(events.PlaybackStateChangedEvent{State: state, Track: st.Track}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
