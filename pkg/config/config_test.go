package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Parse([]byte(`
[remote]
bucket = "media"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Search.PageSize != DefaultPageSize {
		t.Errorf("page size = %d, want %d", cfg.Search.PageSize, DefaultPageSize)
	}
	if cfg.Remote.ChunkSize != DefaultChunkSize {
		t.Errorf("chunk size = %d, want %d", cfg.Remote.ChunkSize, DefaultChunkSize)
	}
	if cfg.Search.Timeout.Duration != DefaultSearchTimeout {
		t.Errorf("search timeout = %v", cfg.Search.Timeout)
	}
	if cfg.Remote.Kind != "minio" {
		t.Errorf("remote kind = %q", cfg.Remote.Kind)
	}
	if cfg.Web.PublicURL != "http://localhost:8080/" {
		t.Errorf("public url = %q", cfg.Web.PublicURL)
	}
	if cfg.StorageDir == "" {
		t.Error("expected default storage dir")
	}
}

func TestParseValues(t *testing.T) {
	cfg, err := Parse([]byte(`
storage_dir = "/tmp/finder-test"

[search]
page_size = 20
languages = [" Hindi ", "TAMIL"]
concurrent = true
timeout = "2s"
cursor_ttl = "10m"

[remote]
kind = "memory"
chunk_size = 4096
requests_per_second = 2.5
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.StorageDir != "/tmp/finder-test" {
		t.Errorf("storage dir = %q", cfg.StorageDir)
	}
	if cfg.Search.PageSize != 20 || !cfg.Search.Concurrent {
		t.Errorf("search config = %+v", cfg.Search)
	}
	if cfg.Search.Timeout.Duration != 2*time.Second || cfg.Search.CursorTTL.Duration != 10*time.Minute {
		t.Errorf("durations = %v %v", cfg.Search.Timeout, cfg.Search.CursorTTL)
	}
	if cfg.Search.Languages[0] != "hindi" || cfg.Search.Languages[1] != "tamil" {
		t.Errorf("languages = %v", cfg.Search.Languages)
	}
	if cfg.Remote.ChunkSize != 4096 || cfg.Remote.RequestsPerSecond != 2.5 {
		t.Errorf("remote config = %+v", cfg.Remote)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown kind":   "storage_dir = \"/tmp/x\"\n[remote]\nkind = \"ftp\"\n",
		"missing bucket": "storage_dir = \"/tmp/x\"\n[remote]\nkind = \"minio\"\n",
		"bad duration":   "storage_dir = \"/tmp/x\"\n[search]\ntimeout = \"soon\"\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Search.PageSize != DefaultPageSize {
		t.Errorf("expected defaults, got %+v", cfg.Search)
	}
}

func TestSaveTemplateConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.toml")

	cfg := &Config{StorageDir: filepath.Join(dir, "data")}
	if err := cfg.SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading template: %v", err)
	}

	loaded, err := Parse(data)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if loaded.StorageDir != cfg.StorageDir {
		t.Errorf("storage dir = %q, want %q", loaded.StorageDir, cfg.StorageDir)
	}
	if loaded.Remote.Bucket != "media" {
		t.Errorf("bucket = %q", loaded.Remote.Bucket)
	}
}
