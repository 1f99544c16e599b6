package managers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/weatherlink/internal/storage/sqlite"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/chrissnell/weatherlink/pkg/config"
	"github.com/chrissnell/weatherlink/pkg/derived"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) config.ConfigProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return config.NewYAMLProvider(path)
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStorageManagerDistributes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	cfg := config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "readings.db")},
	}
	sm, err := NewStorageManager(ctx, &wg, cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewStorageManager: %v", err)
	}

	if len(sm.Engines) != 2 || sm.Engines[0].Name != "memory" || sm.Engines[1].Name != "sqlite" {
		t.Fatalf("engines = %+v", sm.Engines)
	}
	db, ok := sm.Engines[1].Engine.(*sqlite.Storage)
	if !ok {
		t.Fatalf("sqlite engine is %T", sm.Engines[1].Engine)
	}

	reading := types.NewReading("backyard", "davis", derived.Record{
		Timestamp:          time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC),
		TemperatureOutside: decimal.NewNullDecimal(decimal.RequireFromString("58.5")),
	})
	sm.GetReadingDistributor() <- reading

	waitFor(t, "memory engine", func() bool {
		r, err := sm.Latest.Latest(ctx, "backyard")
		return err == nil && r.ID == reading.ID
	})
	waitFor(t, "sqlite engine", func() bool {
		r, err := db.Latest(ctx, "backyard")
		return err == nil && r.ID == reading.ID
	})
	waitFor(t, "health checks", func() bool {
		return len(sm.Health.GetAllHealth()) == 2
	})

	cancel()
	wg.Wait()
	sm.Close()
}

func TestStorageManagerBadSQLitePath(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	cfg := config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "missing", "dir", "readings.db")},
	}
	if _, err := NewStorageManager(ctx, &wg, cfg, nil); err == nil {
		t.Fatal("expected an error for an unwritable database path")
	}

	cancel()
	wg.Wait()
}

func TestWeatherStationManager(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	provider := writeConfig(t, `
devices:
  - name: barn
    hostname: 127.0.0.1
  - name: backyard
    serialdevice: /dev/ttyUSB0
`)
	wsm, err := NewWeatherStationManager(ctx, &wg, provider, make(chan types.Reading), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewWeatherStationManager: %v", err)
	}

	if got := strings.Join(wsm.Stations(), ","); got != "backyard,barn" {
		t.Errorf("Stations() = %q", got)
	}
	if s := wsm.GetStation("barn"); s == nil || s.StationName() != "barn" {
		t.Errorf("GetStation(barn) = %v", s)
	}
	if s := wsm.GetStation("attic"); s != nil {
		t.Errorf("GetStation(attic) = %v, want nil", s)
	}
}

func TestCreateStationUnknownType(t *testing.T) {
	var wg sync.WaitGroup
	_, err := createStationFromConfig(context.Background(), &wg, config.DeviceData{Name: "x", Type: "campbell"}, nil, zap.NewNop().Sugar())
	if err == nil || !strings.Contains(err.Error(), "campbell") {
		t.Errorf("err = %v", err)
	}
}

func TestControllerManager(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	sm, err := NewStorageManager(ctx, &wg, config.StorageData{}, nil)
	if err != nil {
		t.Fatalf("NewStorageManager: %v", err)
	}

	provider := writeConfig(t, `
devices:
  - name: barn
    hostname: 127.0.0.1
controllers:
  - type: rest
    rest:
      listen-addr: 127.0.0.1
      port: 0
`)
	cm, err := NewControllerManager(ctx, &wg, provider, sm, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewControllerManager: %v", err)
	}
	if n := len(cm.(*controllerManager).controllers); n != 1 {
		t.Errorf("got %d controllers, want 1", n)
	}

	cancel()
	wg.Wait()
}

func TestCreateControllerUnknownType(t *testing.T) {
	cm := &controllerManager{storage: &StorageManager{}}
	if _, err := cm.createController(config.ControllerData{Type: "aprs"}); err == nil {
		t.Error("expected an error for an unknown controller type")
	}
}
