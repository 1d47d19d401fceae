package startup

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STR_SET", "photos")

	if got := getEnv("TEST_STR_SET", "fallback"); got != "photos" {
		t.Errorf("getEnv(set) = %q, want %q", got, "photos")
	}
	if got := getEnv("TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv(unset) = %q, want %q", got, "fallback")
	}

	t.Setenv("TEST_STR_EMPTY", "")
	if got := getEnv("TEST_STR_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("getEnv(empty) = %q, want the fallback", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		env      string
		fallback bool
		want     bool
	}{
		// strconv.ParseBool's accepted spellings
		{"true", false, true},
		{"TRUE", false, true},
		{"t", false, true},
		{"T", false, true},
		{"1", false, true},
		{"false", true, false},
		{"FALSE", true, false},
		{"f", true, false},
		{"F", true, false},
		{"0", true, false},
		// everything else keeps the fallback
		{"not-a-bool", true, true},
		{"yes", false, false},
		{"no", true, true},
		{"   ", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.env, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.env)
			if got := getEnvBool("TEST_BOOL", tt.fallback); got != tt.want {
				t.Errorf("getEnvBool with %q (fallback %v) = %v, want %v",
					tt.env, tt.fallback, got, tt.want)
			}
		})
	}

	if got := getEnvBool("TEST_BOOL_NEVER_SET", true); !got {
		t.Error("getEnvBool(unset, true) = false, want the fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"7", 7},
		{"0", 0},
		{"-3", -3},
		{"not-a-number", 42},
		{"3.5", 42},
		{"", 42},
	}

	for _, tt := range tests {
		t.Run("value "+tt.env, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.env)
			if got := getEnvInt("TEST_INT", 42); got != tt.want {
				t.Errorf("getEnvInt with %q = %d, want %d", tt.env, got, tt.want)
			}
		})
	}

	if got := getEnvInt("TEST_INT_NEVER_SET", 42); got != 42 {
		t.Errorf("getEnvInt(unset) = %d, want the fallback", got)
	}
}

func TestFormatBytesStartup(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{912680550, "870.4 MiB"},
		{1 << 30, "1.0 GiB"},
		{5 << 30, "5.0 GiB"},
		{1 << 40, "1.0 TiB"},
		{1 << 50, "1.0 PiB"},
		{1 << 60, "1.0 EiB"},
	}

	for _, tt := range tests {
		if got := formatBytesStartup(tt.bytes); got != tt.want {
			t.Errorf("formatBytesStartup(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

// The startup loggers format operator-facing banners; the tests only
// assert they tolerate every shape of input without panicking.
func TestLogMemoryConfigShapes(_ *testing.T) {
	LogMemoryConfig(MemoryConfig{})
	LogMemoryConfig(MemoryConfig{
		Configured: true,
		Source:     "GOMEMLIMIT",
		GoMemLimit: 500 << 20,
	})
	LogMemoryConfig(MemoryConfig{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: 1 << 30,
		GoMemLimit:     912680550,
		Ratio:          0.85,
	})
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("platform = %q/%q, want both populated", info.OS, info.Arch)
	}
}
