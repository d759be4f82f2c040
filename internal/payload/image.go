package payload

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize is the largest accepted product image
const MaxImageSize int64 = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ImageFile is an image attachment waiting to be uploaded. The payload never
// reads it; the gateway or the storage layer opens it once.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader wraps a file received in a multipart request
func FromFileHeader(fh *multipart.FileHeader) ImageFile {
	return ImageFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromPath wraps a file on the local disk
func FromPath(path string) (ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImageFile{}, err
	}
	if info.IsDir() {
		return ImageFile{}, fmt.Errorf("%s is a directory", path)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType, err = sniffContentType(path)
		if err != nil {
			return ImageFile{}, err
		}
	}

	return ImageFile{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func sniffContentType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// MediaType returns the declared content type, falling back to the extension
func (f ImageFile) MediaType() string {
	if mt, _, err := mime.ParseMediaType(f.ContentType); err == nil && mt != "application/octet-stream" {
		return mt
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Filename)))
}

// Ext returns the lower-cased file extension including the dot
func (f ImageFile) Ext() string {
	if ext := strings.ToLower(filepath.Ext(f.Filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(f.MediaType()); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func validateImage(f ImageFile) error {
	if f.Open == nil {
		return invalid("images", "image %q has no content", f.Filename)
	}
	if f.Size > MaxImageSize {
		return invalid("images", "image %q exceeds %d MB", f.Filename, MaxImageSize>>20)
	}
	if !allowedImageTypes[f.MediaType()] {
		return invalid("images", "image %q must be jpeg, png, webp or gif", f.Filename)
	}
	return nil
}
