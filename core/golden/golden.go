// Package golden pins renderer output by content hash. A golden entry is
// one small file holding the BLAKE3 hash of the expected output for a
// named input; bench runs compare fresh output against it to catch drift.
package golden

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/suin/go-taml/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

const entrySuffix = ".b3"

var (
	// hashPattern matches a lowercase BLAKE3 hex digest (64 characters).
	hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

	// namePattern keeps entry names inside the store directory: no
	// separators, no leading dot.
	namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Hash returns the BLAKE3 hash of data as lowercase hex.
func Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Store keeps one golden hash per named input under a directory.
type Store struct {
	root string
}

// NewStore opens a golden directory, creating it if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.NewIO("create", root, err)
	}
	return &Store{root: root}, nil
}

// Save records hash as the golden value for name, atomically replacing
// any previous value.
func (s *Store) Save(name, hash string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if !hashPattern.MatchString(hash) {
		return errors.NewValidation("hash", fmt.Sprintf("not a BLAKE3 hex digest: %q", hash))
	}

	tempFile, err := os.CreateTemp(s.root, ".golden-*")
	if err != nil {
		return errors.NewIO("create temp file", s.root, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.WriteString(hash + "\n"); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return errors.NewIO("write", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("close", tempPath, err)
	}
	if err := osRename(tempPath, s.pathFor(name)); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("rename", s.pathFor(name), err)
	}
	return nil
}

// Check compares hash against the stored golden value for name. The
// stored value is returned alongside the verdict so callers can report
// drift.
func (s *Store) Check(name, hash string) (bool, string, error) {
	if err := checkName(name); err != nil {
		return false, "", err
	}
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, "", errors.NewNotFound("golden entry", name)
		}
		return false, "", errors.NewIO("read", s.pathFor(name), err)
	}
	stored := strings.TrimSpace(string(data))
	return stored == hash, stored, nil
}

// List returns the names that have golden values, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.NewIO("read", s.root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entrySuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), entrySuffix))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.root, name+entrySuffix)
}

func checkName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.NewValidation("name", fmt.Sprintf("invalid golden entry name %q", name))
	}
	return nil
}
