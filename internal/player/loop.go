package player

import (
	"context"
	"time"

	"github.com/smazurov/luffyplayer/internal/display"
	"github.com/smazurov/luffyplayer/internal/metrics"
)

// Run draws the first frame and serves buttons, media end and the periodic
// redraw until ctx is cancelled. It then stops playback and releases the
// engine and panel.
func (p *Player) Run(ctx context.Context) error {
	p.logger.Info("Starting audio player")
	p.redraw(ctx)

	if p.autoplay {
		if err := p.StartPlayback(ctx); err != nil {
			p.logger.Error("Autoplay failed", "error", err)
		}
	}

	presses := p.buttons.Events(ctx)
	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.cleanup()
			return nil

		case b, ok := <-presses:
			if !ok {
				presses = nil
				continue
			}
			if err := p.HandleButton(ctx, b); err != nil {
				p.logger.Error("Error handling button press", "button", b, "error", err)
			}

		case <-ticker.C:
			p.mu.Lock()
			playing := p.playing
			p.mu.Unlock()
			if playing {
				p.redraw(ctx)
			}

		case <-p.ended:
			p.logger.Debug("Media ended")
			if err := p.NextTrack(ctx, ReasonEnd); err != nil {
				p.logger.Error("Failed to advance after media end", "error", err)
			}

		case <-p.redraws:
			p.redraw(ctx)
		}
	}
}

// redraw renders the current status and shows it. Failures are logged; the
// player keeps running without a screen.
func (p *Player) redraw(ctx context.Context) {
	frame := p.renderer.Render(p.DisplayStatus(ctx))
	err := p.panel.Show(frame)
	metrics.RecordFrame(err)
	if err != nil {
		p.logger.Error("Error updating display", "error", err)
	}
}

// DisplayStatus is the current status as the screen shows it.
func (p *Player) DisplayStatus(ctx context.Context) display.Status {
	st := p.Status(ctx)
	return display.Status{
		Path:        st.Path,
		Playing:     st.Playing,
		MediaLoaded: st.MediaLoaded,
		Volume:      st.Volume,
		Elapsed:     st.Elapsed,
		Total:       st.Total,
	}
}

func (p *Player) cleanup() {
	p.logger.Info("Starting cleanup")
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	p.mu.Lock()
	if err := p.stop(ctx); err != nil {
		p.logger.Warn("Failed to stop playback", "error", err)
	}
	p.persist()
	p.mu.Unlock()

	if err := p.engine.Close(); err != nil {
		p.logger.Warn("Failed to close engine", "error", err)
	}
	if err := p.panel.Close(); err != nil {
		p.logger.Warn("Failed to close display", "error", err)
	}
	p.logger.Info("Cleanup completed")
}
