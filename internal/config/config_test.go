package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/seatjumper")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CurveExponent != 2.5 {
		t.Errorf("CurveExponent = %v, want 2.5", cfg.CurveExponent)
	}
	if cfg.DefaultMarginPct != 0.30 {
		t.Errorf("DefaultMarginPct = %v, want 0.30", cfg.DefaultMarginPct)
	}
	if cfg.VIPWinProbability != 0.0002 {
		t.Errorf("VIPWinProbability = %v, want 0.0002", cfg.VIPWinProbability)
	}
	if cfg.PoolFloor != 5 {
		t.Errorf("PoolFloor = %d, want 5", cfg.PoolFloor)
	}
	if cfg.MonitorInterval != 30*time.Second {
		t.Errorf("MonitorInterval = %v, want 30s", cfg.MonitorInterval)
	}
	if cfg.PreviewCacheTTL != 15*time.Second {
		t.Errorf("PreviewCacheTTL = %v, want 15s", cfg.PreviewCacheTTL)
	}
	if cfg.AMQPExchange != "seatjumper.events" {
		t.Errorf("AMQPExchange = %q, want seatjumper.events", cfg.AMQPExchange)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when DATABASE_URL is unset")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/seatjumper")
	t.Setenv("PORT", "9090")
	t.Setenv("CURVE_EXPONENT", "1.8")
	t.Setenv("MONITOR_TARGETS", "game-1:2,game-2:4:10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.CurveExponent != 1.8 {
		t.Errorf("CurveExponent = %v, want 1.8", cfg.CurveExponent)
	}
	if len(cfg.MonitorTargets) != 2 {
		t.Fatalf("MonitorTargets = %v, want 2 entries", cfg.MonitorTargets)
	}
}

func TestParseSupplyTargets(t *testing.T) {
	t.Run("with and without explicit floors", func(t *testing.T) {
		targets, err := ParseSupplyTargets([]string{"game-1:2", "game-2:4:10", " ", ""}, 5)
		if err != nil {
			t.Fatalf("ParseSupplyTargets: %v", err)
		}
		want := []SupplyTarget{
			{GameID: "game-1", BundleSize: 2, Floor: 5},
			{GameID: "game-2", BundleSize: 4, Floor: 10},
		}
		if len(targets) != len(want) {
			t.Fatalf("got %d targets, want %d", len(targets), len(want))
		}
		for i := range want {
			if targets[i] != want[i] {
				t.Errorf("target %d = %+v, want %+v", i, targets[i], want[i])
			}
		}
	})

	t.Run("malformed entries", func(t *testing.T) {
		for _, entry := range []string{"game-1", "game-1:two", "game-1:2:low", "game-1:2:3:4"} {
			if _, err := ParseSupplyTargets([]string{entry}, 5); err == nil {
				t.Errorf("entry %q: expected an error", entry)
			}
		}
	})
}
