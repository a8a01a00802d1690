package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	imgproc "pgfinder_backend/pkg/utils/image"
)

var (
	ErrFileRequired = errors.New("No file uploaded")
	ErrFileType     = errors.New("Invalid file type. Only JPG, PNG, and WebP allowed")
	ErrFileExt      = errors.New("Invalid file extension")
	ErrFileCorrupt  = errors.New("File is not a valid image")
)

var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ImageCheck is the outcome of validating one uploaded file. Errors holds every
// failed rule so the client sees them together.
type ImageCheck struct {
	ContentType string
	Ext         string
	Errors      []error
}

func (c ImageCheck) OK() bool { return len(c.Errors) == 0 }

func (c ImageCheck) Error() string {
	msgs := make([]string, 0, len(c.Errors))
	for _, err := range c.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, ", ")
}

// ValidateImage checks size, sniffed content type, extension and that the header decodes.
func ValidateImage(file *multipart.FileHeader, maxSize int64) ImageCheck {
	var check ImageCheck
	if file == nil {
		check.Errors = append(check.Errors, ErrFileRequired)
		return check
	}

	if file.Size > maxSize {
		check.Errors = append(check.Errors, fmt.Errorf("File size exceeds %dMB limit", maxSize/(1024*1024)))
	}

	check.Ext = strings.ToLower(filepath.Ext(file.Filename))
	if !AllowedExtensions[check.Ext] {
		check.Errors = append(check.Errors, ErrFileExt)
	}

	src, err := file.Open()
	if err != nil {
		check.Errors = append(check.Errors, ErrFileRequired)
		return check
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		check.Errors = append(check.Errors, ErrFileCorrupt)
		return check
	}
	check.ContentType = http.DetectContentType(head[:n])
	if !imgproc.AllowedImageTypes[check.ContentType] {
		check.Errors = append(check.Errors, ErrFileType)
		return check
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		check.Errors = append(check.Errors, ErrFileCorrupt)
		return check
	}
	if _, err := imgproc.DecodeConfig(src, check.ContentType); err != nil {
		check.Errors = append(check.Errors, ErrFileCorrupt)
	}

	return check
}
