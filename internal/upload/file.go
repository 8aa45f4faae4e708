package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is a candidate or staged audio file.
type File interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// LocalFile is a file on disk. Its name is the base name of the path.
type LocalFile struct {
	path string
	size int64
}

// Name returns the base filename sent to the service.
func (f *LocalFile) Name() string { return filepath.Base(f.path) }

// Size returns the size recorded when the file was opened for staging.
func (f *LocalFile) Size() int64 { return f.size }

// Path returns the file's location on disk.
func (f *LocalFile) Path() string { return f.path }

// Open opens the file for streaming.
func (f *LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// FromPaths stats each path and returns the files in order. Directories and
// unreadable paths fail the whole call.
func FromPaths(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		files = append(files, &LocalFile{path: abs, size: info.Size()})
	}
	return files, nil
}

// BytesFile is an in-memory file.
type BytesFile struct {
	name string
	data []byte
}

// NewBytesFile wraps data under name.
func NewBytesFile(name string, data []byte) *BytesFile {
	return &BytesFile{name: name, data: data}
}

func (f *BytesFile) Name() string { return f.name }

func (f *BytesFile) Size() int64 { return int64(len(f.data)) }

func (f *BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
