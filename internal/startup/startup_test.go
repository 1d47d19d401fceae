package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"simfinder/internal/media"

	"github.com/gorilla/mux"
)

func TestGetBuildInfoStartup(t *testing.T) {
	info := GetBuildInfo()

	// Check that all fields are populated
	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	// Verify that runtime values are correct
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnvStartup(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns empty string when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				// Ensure the variable is not set
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestRouteInfo(t *testing.T) {
	route := RouteInfo{
		Method: "GET",
		Path:   "/api/test",
		Name:   "TestRoute",
	}

	if route.Method != "GET" {
		t.Errorf("Expected Method=GET, got %s", route.Method)
	}
	if route.Path != "/api/test" {
		t.Errorf("Expected Path=/api/test, got %s", route.Path)
	}
	if route.Name != "TestRoute" {
		t.Errorf("Expected Name=TestRoute, got %s", route.Name)
	}
}

func TestLoadConfig(t *testing.T) {
	dataDir := t.TempDir()
	cacheDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("CACHE_DIR", cacheDir)
	t.Setenv("PORT", "18080")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("THUMBNAILS_ENABLED", "false")
	t.Setenv("SEARCH_CACHE_SIZE", "16")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.DataDir != dataDir {
		t.Errorf("Expected DataDir=%s, got %s", dataDir, config.DataDir)
	}
	if config.Port != "18080" {
		t.Errorf("Expected Port=18080, got %s", config.Port)
	}
	if config.MetricsEnabled {
		t.Error("Expected metrics to be disabled")
	}
	if config.ThumbnailsEnabled {
		t.Error("Expected thumbnails to be disabled")
	}
	if config.SearchCacheSize != 16 {
		t.Errorf("Expected SearchCacheSize=16, got %d", config.SearchCacheSize)
	}
	if want := filepath.Join(cacheDir, "thumbnails"); config.ThumbnailDir != want {
		t.Errorf("Expected ThumbnailDir=%s, got %s", want, config.ThumbnailDir)
	}
}

func TestLoadConfigCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("THUMBNAILS_ENABLED", "false")

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected data directory to be created, stat: %v", err)
	}
}

func TestLoadConfigRejectsFileDataDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_DIR", file)
	t.Setenv("CACHE_DIR", t.TempDir())

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error when DATA_DIR points at a file")
	}
}

func TestLoadConfigSanitizesValues(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("THUMBNAILS_ENABLED", "false")
	t.Setenv("HASH_WORKERS", "-4")
	t.Setenv("SEARCH_CACHE_SIZE", "-1")
	t.Setenv("MAX_IMAGE_DIMENSION", "0")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.HashWorkers != 0 {
		t.Errorf("Expected HashWorkers clamped to 0, got %d", config.HashWorkers)
	}
	if config.SearchCacheSize != 0 {
		t.Errorf("Expected SearchCacheSize clamped to 0, got %d", config.SearchCacheSize)
	}
	if config.MaxImageDimension != media.MaxImageDimension {
		t.Errorf("Expected MaxImageDimension reset to default, got %d", config.MaxImageDimension)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/indexes", "api/indexes"},
		{"/api/indexes/{name}/run", "api/indexes"},
		{"/api/jobs/{id}", "api/jobs"},
		{"/health", "health"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/indexes", func(http.ResponseWriter, *http.Request) {}).Methods("GET", "POST")
	router.HandleFunc("/health", func(http.ResponseWriter, *http.Request) {})

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}

	// Two methods on /api/indexes plus the methodless /health entry.
	if len(routes) != 3 {
		t.Errorf("Expected 3 route entries, got %d: %+v", len(routes), routes)
	}
}
