// Package corpus loads sample markup documents for the lint and bench
// commands. A corpus directory holds plain .taml files and xz-compressed
// .taml.xz files; Load decompresses transparently.
package corpus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/internal/validation"
)

// IsCorpusFile reports whether name has a recognized corpus extension.
func IsCorpusFile(name string) bool {
	return strings.HasSuffix(name, ".taml") || strings.HasSuffix(name, ".taml.xz")
}

// List enumerates the corpus files in dir, sorted by name.
// Entries with unrecognized extensions or unsafe names are skipped.
func List(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("read corpus directory", dir, err)
	}

	var names []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !IsCorpusFile(name) {
			continue
		}
		if err := validation.ValidateFilename(name); err != nil {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Load reads a corpus file, decompressing xz content transparently.
// The file's magic bytes must match its extension, the on-disk size must
// stay under validation.MaxFileSize, and the decompressed markup must stay
// under validation.MaxInputSize.
func Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewIO("stat", path, err)
	}
	if info.Size() > validation.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes on disk", validation.ErrInputTooLarge, path, info.Size())
	}

	// Magic-byte check against the extension, then rewind for the real read
	fileType, err := validation.ValidateFileType(file, filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(err, "validate %s", path)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewIO("seek", path, err)
	}

	var reader io.Reader = file
	switch fileType {
	case validation.FileTypeTAMLXZ, validation.FileTypeXZ:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return nil, errors.Wrapf(err, "create xz reader for %s", path)
		}
		reader = xzReader
	}

	// Cap the decompressed size to guard against decompression bombs
	data, err := io.ReadAll(io.LimitReader(reader, validation.MaxInputSize+1))
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	if len(data) > validation.MaxInputSize {
		return nil, fmt.Errorf("%w: %s decompresses beyond %d bytes", validation.ErrInputTooLarge, path, validation.MaxInputSize)
	}

	return data, nil
}

// LoadEntry loads a named entry from a corpus directory. The name is
// sanitized against path traversal before it touches the filesystem.
func LoadEntry(dir, name string) ([]byte, error) {
	clean, err := validation.SanitizePath(dir, name)
	if err != nil {
		return nil, errors.Wrapf(err, "corpus entry %q", name)
	}
	return Load(filepath.Join(dir, clean))
}
