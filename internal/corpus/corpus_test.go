package corpus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/suin/go-taml/internal/validation"
)

func writePlain(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeXZ(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
}

func TestIsCorpusFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"basic.taml", true},
		{"large.taml.xz", true},
		{"notes.txt", false},
		{"archive.xz", false},
		{"session.ansi", false},
	}

	for _, tt := range tests {
		if got := IsCorpusFile(tt.name); got != tt.want {
			t.Errorf("IsCorpusFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	writePlain(t, filepath.Join(dir, "basic.taml"), []byte("<red>x</red>"))
	writeXZ(t, filepath.Join(dir, "zulu.taml.xz"), []byte("<bold>y</bold>"))
	writePlain(t, filepath.Join(dir, "notes.txt"), []byte("not markup"))
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	want := []string{"basic.taml", "zulu.taml.xz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("List() expected error for missing directory")
	}
}

func TestLoadPlain(t *testing.T) {
	dir := t.TempDir()
	content := []byte("<green>pass</green> 13 checks\n")
	path := filepath.Join(dir, "report.taml")
	writePlain(t, path, content)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Load() = %q, want %q", got, content)
	}
}

func TestLoadXZ(t *testing.T) {
	dir := t.TempDir()
	content := []byte(strings.Repeat("<blue>line of markup</blue>\n", 200))
	path := filepath.Join(dir, "large.taml.xz")
	writeXZ(t, path, content)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Load() returned %d bytes, want %d", len(got), len(content))
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.taml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestLoadRejectsMismatchedContent(t *testing.T) {
	dir := t.TempDir()

	// xz bytes behind a plain markup extension
	badPlain := filepath.Join(dir, "fake.taml")
	var xzBytes bytes.Buffer
	w, err := xz.NewWriter(&xzBytes)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := w.Write([]byte("hidden")); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
	writePlain(t, badPlain, xzBytes.Bytes())

	if _, err := Load(badPlain); err == nil {
		t.Error("Load() accepted xz content behind .taml extension")
	}

	// plain text behind an xz extension
	badXZ := filepath.Join(dir, "fake.taml.xz")
	writePlain(t, badXZ, []byte("just text, no xz stream"))

	if _, err := Load(badXZ); err == nil {
		t.Error("Load() accepted plain text behind .taml.xz extension")
	}
}

func TestLoadDecompressionBomb(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bomb.taml.xz")

	// Compresses to a few kilobytes, expands past the input cap
	writeXZ(t, path, bytes.Repeat([]byte{'a'}, validation.MaxInputSize+1))

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for oversized decompressed content")
	}
	if !errors.Is(err, validation.ErrInputTooLarge) {
		t.Errorf("Load() error = %v, want wrapped ErrInputTooLarge", err)
	}
}

func TestLoadEntry(t *testing.T) {
	dir := t.TempDir()
	content := []byte("<underline>entry</underline>")
	writePlain(t, filepath.Join(dir, "entry.taml"), content)

	got, err := LoadEntry(dir, "entry.taml")
	if err != nil {
		t.Fatalf("LoadEntry() error: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("LoadEntry() = %q, want %q", got, content)
	}
}

func TestLoadEntryTraversal(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadEntry(dir, "../outside.taml")
	if err == nil {
		t.Fatal("LoadEntry() expected error for traversal name")
	}
	if !errors.Is(err, validation.ErrPathTraversal) {
		t.Errorf("LoadEntry() error = %v, want wrapped ErrPathTraversal", err)
	}
}
