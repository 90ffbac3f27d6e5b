package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// File is the structural stand-in for a platform file handle. Any value
// exposing a name, a MIME type, a byte length and raw bytes can ride in a
// multipart GraphQL request, regardless of where it came from.
type File interface {
	Name() string
	ContentType() string
	Size() int64
	io.Reader
}

// FileList is an ordered collection of files used as a single variable value.
type FileList []File

type file struct {
	name        string
	contentType string
	size        int64
	r           io.Reader
}

// NewFile wraps a reader as an upload File with explicit metadata.
func NewFile(name, contentType string, size int64, r io.Reader) File {
	return &file{name: name, contentType: contentType, size: size, r: r}
}

// Open opens a file on disk as an upload File. The content type is derived
// from the extension, falling back to application/octet-stream.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &file{
		name:        filepath.Base(path),
		contentType: contentType,
		size:        fi.Size(),
		r:           f,
	}, nil
}

func (f *file) Name() string        { return f.name }
func (f *file) ContentType() string { return f.contentType }
func (f *file) Size() int64         { return f.size }

func (f *file) Read(p []byte) (int, error) {
	if f.r == nil {
		return 0, io.EOF
	}
	return f.r.Read(p)
}

// Close releases the underlying reader if it is closeable.
func (f *file) Close() error {
	if c, ok := f.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// validateFile rejects malformed file leaves before any network I/O happens.
func validateFile(index int, f File) error {
	if f == nil {
		return fmt.Errorf("file %d: %w", index, errNilFile)
	}
	if f.Name() == "" {
		return fmt.Errorf("file %d: %w", index, errUnnamedFile)
	}
	if f.Size() < 0 {
		return fmt.Errorf("file %d (%s): %w", index, f.Name(), errNegativeSize)
	}
	return nil
}

var (
	errNilFile      = errors.New("nil file")
	errUnnamedFile  = errors.New("file has no name")
	errNegativeSize = errors.New("negative file size")
)
