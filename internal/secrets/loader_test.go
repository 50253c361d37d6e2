package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	if err := os.WriteFile(path, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	t.Setenv("CV_TEST_KEY", "from-env")

	got, err := Load(Source{Name: "openai api key", File: path, Env: "CV_TEST_KEY", Value: "inline"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadExpandsHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".secrets"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, ".secrets", "gemini"), []byte("from-home\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	got, err := Load(Source{Name: "gemini api key", File: "~/.secrets/gemini"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "from-home" {
		t.Fatalf("expected secret from home dir, got %q", got)
	}
}

func TestLoadFallsBackToEnvThenValue(t *testing.T) {
	t.Setenv("CV_TEST_KEY", " from-env ")

	got, err := Load(Source{Env: "CV_TEST_KEY", Value: "inline"})
	if err != nil || got != "from-env" {
		t.Fatalf("expected env secret, got %q (%v)", got, err)
	}

	got, err = Load(Source{Env: "CV_TEST_MISSING", Value: "inline"})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline secret, got %q (%v)", got, err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   "), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "empty file", src: Source{Name: "gemini api key", File: empty}, want: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, want: "reading secret"},
		{name: "nothing configured", src: Source{Name: "anthropic api key"}, want: "anthropic api key is not configured"},
		{name: "env named", src: Source{Env: "CV_TEST_UNSET"}, want: "$CV_TEST_UNSET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to contain %q, got %v", tt.want, err)
			}
		})
	}
}
