package transcripts

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
)

const filesField = "files"

// mimeFromExt returns the MIME type for the audio extensions the service accepts.
func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// multipartBody streams files into a multipart form through a pipe so large
// batches are never buffered in memory. Closing the returned reader aborts
// the writer goroutine.
func multipartBody(files []UploadFile) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeParts(mw, files)
		if closeErr := mw.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeParts(mw *multipart.Writer, files []UploadFile) error {
	for _, file := range files {
		if err := writePart(mw, file); err != nil {
			return err
		}
	}
	return nil
}

func writePart(mw *multipart.Writer, file UploadFile) error {
	name := file.Name()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, filesField, name))
	h.Set("Content-Type", mimeFromExt(filepath.Ext(name)))
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part for %s: %w", name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("stream %s: %w", name, err)
	}
	return nil
}
