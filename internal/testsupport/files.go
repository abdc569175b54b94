package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// mp4Header is an ISO BMFF ftyp box declaring an isom brand.
var mp4Header = []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 2, 0, 'i', 's', 'o', 'm', 'a', 'v', 'c', '1'}

// WriteOutput stands in for an engine result: an ftyp box padded to size
// bytes, creating parent directories as needed.
func WriteOutput(t testing.TB, path string, size int) {
	t.Helper()

	data := append([]byte(nil), mp4Header...)
	if pad := size - len(data); pad > 0 {
		data = append(data, bytes.Repeat([]byte{0}, pad)...)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

var generatedOutput = regexp.MustCompile(`\S*transcoded_[0-9a-fA-F-]{36}\.[A-Za-z0-9]+`)

// IsGeneratedOutput reports whether path is a supervisor-generated output
// name (transcoded_<uuid>.<ext>) inside dir. An empty dir matches any
// directory.
func IsGeneratedOutput(path, dir, ext string) bool {
	if dir != "" && filepath.Dir(path) != filepath.Clean(dir) {
		return false
	}
	name := filepath.Base(path)
	id, ok := strings.CutPrefix(name, "transcoded_")
	if !ok {
		return false
	}
	id, ok = strings.CutSuffix(id, "."+ext)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// FindGeneratedOutput returns the first generated output path mentioned in
// text.
func FindGeneratedOutput(t testing.TB, text string) string {
	t.Helper()
	match := generatedOutput.FindString(text)
	if match == "" {
		t.Fatalf("no generated output path in %q", text)
	}
	return match
}
