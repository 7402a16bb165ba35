package ingest

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Candidate is a file offered for admission. Its payload is only read once
// it has been admitted.
type Candidate struct {
	Name        string
	ContentType string
	Size        int64

	open func() (io.ReadCloser, error)
}

// NewCandidate wraps an in-memory payload.
func NewCandidate(name, contentType string, data []byte) Candidate {
	return Candidate{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromFileHeader wraps one part of a multipart upload. The content type is
// the one declared by the client.
func FromFileHeader(fh *multipart.FileHeader) Candidate {
	return Candidate{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromPath wraps a file on disk, sniffing its content type from the bytes.
func FromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to detect content type of %s: %w", path, err)
	}

	return Candidate{
		Name:        filepath.Base(path),
		ContentType: mtype.String(),
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// ReadAll loads the payload. Reads are bounded by the declared size so a
// payload that grew after validation is refused rather than truncated.
func (c Candidate) ReadAll() ([]byte, error) {
	if c.open == nil {
		return nil, fmt.Errorf("candidate %s has no payload", c.Name)
	}
	rc, err := c.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, c.Size+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.Name, err)
	}
	if int64(len(data)) > c.Size {
		return nil, fmt.Errorf("%s is larger than its declared size of %d bytes", c.Name, c.Size)
	}
	return data, nil
}
