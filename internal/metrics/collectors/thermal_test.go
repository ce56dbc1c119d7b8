package collectors

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smazurov/luffyplayer/internal/events"
	"github.com/smazurov/luffyplayer/internal/logging"
)

func TestParseMilliCelsius(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "typical", raw: "48312\n", want: 48.312},
		{name: "negative", raw: "-5000", want: -5},
		{name: "garbage", raw: "hot", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMilliCelsius(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestThermalCollectorReadZones(t *testing.T) {
	root := t.TempDir()
	writeZone := func(name, typ, temp string) {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if typ != "" {
			os.WriteFile(filepath.Join(dir, "type"), []byte(typ+"\n"), 0o644)
		}
		os.WriteFile(filepath.Join(dir, "temp"), []byte(temp), 0o644)
	}
	writeZone("thermal_zone0", "cpu-thermal", "51200\n")
	writeZone("thermal_zone1", "", "40000\n")
	writeZone("thermal_zone2", "broken", "n/a\n")

	c := &ThermalCollector{logger: logging.GetLogger("metrics"), root: root}
	zones, err := c.readZones()
	if err != nil {
		t.Fatalf("readZones: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("got %d zones, want 2: %+v", len(zones), zones)
	}
	if zones[0].Name != "cpu-thermal" || zones[0].Celsius != 51.2 {
		t.Errorf("zone0 = %+v", zones[0])
	}
	if zones[1].Name != "thermal_zone1" {
		t.Errorf("zone1 name = %q, want thermal_zone1", zones[1].Name)
	}
}

func gatheredValue(t *testing.T, name string) (float64, bool) {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name || len(mf.GetMetric()) == 0 {
			continue
		}
		return mf.GetMetric()[0].GetGauge().GetValue(), true
	}
	return 0, false
}

func TestEventCollector(t *testing.T) {
	bus := events.New()
	c := NewEventCollector(bus)
	c.Start()
	defer c.Stop()

	bus.Publish(events.VolumeChangedEvent{Volume: 80})
	bus.Publish(events.PlaybackStateChangedEvent{State: events.StatePlaying})

	// Give subscribers time to process
	time.Sleep(50 * time.Millisecond)

	if v, ok := gatheredValue(t, "luffyplayer_player_volume_percent"); !ok || v != 80 {
		t.Errorf("volume gauge = %v (found %v), want 80", v, ok)
	}
	if v, ok := gatheredValue(t, "luffyplayer_player_playing"); !ok || v != 1 {
		t.Errorf("playing gauge = %v (found %v), want 1", v, ok)
	}
}
