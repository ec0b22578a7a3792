package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
)

const sampleConfigYAML = `defaults:
  headers:
    X-Common: "1"
sites:
  docs.example.com:
    apiKey: site-key
    depth: 3
    revisionParams:
      version: ""
    indexAliases:
      - default.htm
`

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads a valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(sampleConfigYAML), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		sc, ok := cf.Sites["docs.example.com"]
		if !ok {
			t.Fatal("expected site entry for docs.example.com")
		}
		if sc.APIKey != "site-key" {
			t.Errorf("APIKey = %q, want site-key", sc.APIKey)
		}
		if sc.Depth != 3 {
			t.Errorf("Depth = %d, want 3", sc.Depth)
		}
		if v, ok := sc.RevisionParams["version"]; !ok || v != "" {
			t.Errorf("RevisionParams = %v, want version -> any", sc.RevisionParams)
		}
		if len(sc.IndexAliases) != 1 || sc.IndexAliases[0] != "default.htm" {
			t.Errorf("IndexAliases = %v", sc.IndexAliases)
		}
		if cf.Defaults.Headers["X-Common"] != "1" {
			t.Errorf("Defaults.Headers = %v", cf.Defaults.Headers)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected an error for invalid YAML")
		}
	})

	t.Run("empty file yields usable zero config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cf.Sites == nil {
			t.Error("Sites map should be initialized")
		}
		sc := cf.GetSiteConfig("anything.example.com")
		if sc.APIKey != "" || sc.Depth != 0 {
			t.Errorf("unexpected site config from empty file: %+v", sc)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path wins when it exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit path that does not exist returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yml")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("falls back to the current directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("FindConfigFile() = %q, want %s in cwd", got, DefaultConfigFile)
		}
	})

	t.Run("falls back to the XDG config directory", func(t *testing.T) {
		t.Cleanup(xdg.Reload)

		t.Setenv("HOME", t.TempDir())
		xdgHome := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdgHome)
		xdg.Reload()
		t.Chdir(t.TempDir())

		dir := filepath.Join(xdgHome, AppName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, XDGConfigFile)
		if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(""); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})
}
