package golden

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/suin/go-taml/core/errors"
)

func TestHash(t *testing.T) {
	// Known BLAKE3 test vector for empty input.
	if got := Hash(nil); got != "af1349b9f5f9a1a6a0404dee36dcc9499bcb25c9adc112b7cc9a93cae41f3262" {
		t.Errorf("Hash(nil) = %q", got)
	}

	a := Hash([]byte("<red>x</red>"))
	b := Hash([]byte("<red>y</red>"))
	if a == b {
		t.Error("different inputs produced the same hash")
	}
	if !hashPattern.MatchString(a) {
		t.Errorf("Hash output %q is not a lowercase hex digest", a)
	}
	if again := Hash([]byte("<red>x</red>")); again != a {
		t.Errorf("Hash is not deterministic: %q != %q", again, a)
	}
}

func TestSaveAndCheck(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	hash := Hash([]byte("rendered output"))
	if err := store.Save("sample.taml", hash); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ok, stored, err := store.Check("sample.taml", hash)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !ok {
		t.Error("Check = false for matching hash")
	}
	if stored != hash {
		t.Errorf("stored = %q, want %q", stored, hash)
	}

	other := Hash([]byte("drifted output"))
	ok, stored, err = store.Check("sample.taml", other)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ok {
		t.Error("Check = true for differing hash")
	}
	if stored != hash {
		t.Errorf("stored = %q, want original %q", stored, hash)
	}
}

func TestSaveReplaces(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	first := Hash([]byte("v1"))
	second := Hash([]byte("v2"))
	if err := store.Save("doc", first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save("doc", second); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ok, stored, err := store.Check("doc", second)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !ok || stored != second {
		t.Errorf("Check after replace = (%v, %q), want (true, %q)", ok, stored, second)
	}
}

func TestCheckMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, _, err = store.Check("never-saved", Hash([]byte("x")))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Check error = %v, want to satisfy ErrNotFound", err)
	}
}

func TestSaveRejectsBadInput(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	good := Hash([]byte("x"))

	if err := store.Save("ok", "not-a-digest"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Save with bad hash: error = %v, want ErrInvalidInput", err)
	}
	if err := store.Save("../escape", good); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Save with traversal name: error = %v, want ErrInvalidInput", err)
	}
	if err := store.Save(".hidden", good); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Save with dotfile name: error = %v, want ErrInvalidInput", err)
	}
	if _, _, err := store.Check("../escape", good); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Check with traversal name: error = %v, want ErrInvalidInput", err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	hash := Hash([]byte("x"))
	for _, name := range []string{"zeta", "alpha", "mid.taml"} {
		if err := store.Save(name, hash); err != nil {
			t.Fatalf("Save(%q): %v", name, err)
		}
	}
	// Unrelated files in the directory are not golden entries.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "mid.taml", "zeta"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
}

func TestSaveRenameFailure(t *testing.T) {
	origRename := osRename
	defer func() { osRename = origRename }()
	osRename = func(oldpath, newpath string) error {
		return errors.New("rename failed")
	}

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	err = store.Save("doc", Hash([]byte("x")))
	if err == nil || !strings.Contains(err.Error(), "rename failed") {
		t.Fatalf("Save error = %v, want rename failure", err)
	}
}
