package fileutil

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"
)

// DigestSize is the blake3 output length in bytes.
const DigestSize = 32

// Digest returns the hex-encoded blake3 hash of everything read from r.
func Digest(r io.Reader) (string, error) {
	h := blake3.New(DigestSize, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating blake3 hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Opener is anything that can be opened for reading, such as a staged upload.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// DigestOpener opens src, hashes its contents, and closes it.
func DigestOpener(src Opener) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer rc.Close()
	return Digest(rc)
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
