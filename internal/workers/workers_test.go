package workers

import (
	"runtime"
	"testing"
)

func TestCountScalesWithBudget(t *testing.T) {
	t.Setenv(envOverride, "")

	budget := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		max        int
	}{
		{"cpu bound", 1.0, 0, budget},
		{"io bound", 2.0, 0, budget * 2},
		{"mixed", 1.5, 0, int(float64(budget) * 1.5)},
		{"capped below budget", 2.0, 2, 2},
		{"tiny multiplier still yields a worker", 0.1, 0, budget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < 1 {
				t.Fatalf("Count(%v, %d) = %d, want at least 1", tt.multiplier, tt.limit, got)
			}
			if got > tt.max {
				t.Errorf("Count(%v, %d) = %d, want at most %d", tt.multiplier, tt.limit, got, tt.max)
			}
		})
	}
}

func TestCountEnvOverride(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"override honored", "8", 0, 8},
		{"override capped by limit", "20", 10, 10},
		{"override below limit", "5", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envOverride, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count(1.0, %d) with %s=%s = %d, want %d",
					tt.limit, envOverride, tt.env, got, tt.want)
			}
		})
	}
}

func TestCountIgnoresBadOverride(t *testing.T) {
	for _, env := range []string{"not-a-number", "0", "-5", "1.5"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(envOverride, env)
			if got := Count(1.0, 0); got < 1 {
				t.Errorf("Count with %s=%q = %d, want the computed default", envOverride, env, got)
			}
		})
	}
}

func TestCountDegenerateMultipliers(t *testing.T) {
	t.Setenv(envOverride, "")

	for _, m := range []float64{0, -1, 100} {
		if got := Count(m, 16); got < 1 || got > 16 {
			t.Errorf("Count(%v, 16) = %d, want within [1, 16]", m, got)
		}
	}
}

func TestHelpersRespectLimit(t *testing.T) {
	t.Setenv(envOverride, "")

	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForIO(8); got > 8 {
		t.Errorf("ForIO(8) = %d, want at most 8", got)
	}
	if got := ForMixed(0); got < 1 {
		t.Errorf("ForMixed(0) = %d, want at least 1", got)
	}
}

func TestCountDeterministic(t *testing.T) {
	t.Setenv(envOverride, "")

	first := Count(1.5, 10)
	for i := 0; i < 5; i++ {
		if got := Count(1.5, 10); got != first {
			t.Fatalf("Count(1.5, 10) changed between calls: %d then %d", first, got)
		}
	}
}
