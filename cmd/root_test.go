package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("MAILASSIST_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAILASSIST_TEST_KEY", "")
	os.Unsetenv("MAILASSIST_TEST_KEY")

	tests := []struct {
		name     string
		path     string
		explicit bool
		wantErr  bool
	}{
		{name: "existing file", path: path, explicit: true},
		{name: "missing default ignored", path: filepath.Join(dir, ".env"), explicit: false},
		{name: "missing explicit fails", path: filepath.Join(dir, "nope.env"), explicit: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loadEnvFile(tt.path, tt.explicit)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}

	if got := os.Getenv("MAILASSIST_TEST_KEY"); got != "from-file" {
		t.Errorf("expected %q, got %q", "from-file", got)
	}
}
