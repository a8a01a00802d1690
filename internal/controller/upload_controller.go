package controller

import (
	"fmt"

	imgproc "pgfinder_backend/pkg/utils/image"
	"pgfinder_backend/pkg/utils/response"
	"pgfinder_backend/pkg/utils/storage"
	"pgfinder_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
)

type UploadLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

var (
	fileStorage  storage.Storage
	uploadLimits = UploadLimits{MaxFileSize: 5 * 1024 * 1024, MaxFiles: 5}
)

func InitUploadController(s storage.Storage, limits UploadLimits) {
	fileStorage = s
	if limits.MaxFileSize > 0 {
		uploadLimits.MaxFileSize = limits.MaxFileSize
	}
	if limits.MaxFiles > 0 {
		uploadLimits.MaxFiles = limits.MaxFiles
	}
}

type UploadedFile struct {
	OriginalName string `json:"original_name"`
	Filename     string `json:"filename"`
	Path         string `json:"path"`
	URL          string `json:"url"`
}

// UploadImages stores each valid file of the images field independently; the
// request only fails when none of them could be stored.
func UploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "No files uploaded")
	}

	files := form.File["images"]
	if len(files) > uploadLimits.MaxFiles {
		return response.Fail(c, fiber.StatusBadRequest, fmt.Sprintf("Maximum %d images allowed", uploadLimits.MaxFiles))
	}

	uploaded := make([]UploadedFile, 0, len(files))
	errs := make([]string, 0)

	for _, file := range files {
		if file.Filename == "" {
			continue
		}

		check := validation.ValidateImage(file, uploadLimits.MaxFileSize)
		if !check.OK() {
			errs = append(errs, fmt.Sprintf("%s: %s", file.Filename, check.Error()))
			continue
		}

		src, err := file.Open()
		if err != nil {
			errs = append(errs, fmt.Sprintf("Error uploading %s", file.Filename))
			continue
		}

		name := storage.NewFilename(file.Filename, imgproc.Extension(check.ContentType))
		obj, err := fileStorage.Save(c.UserContext(), name, src, file.Size, check.ContentType)
		src.Close()
		if err != nil {
			log.Error("could not store upload", "op", "upload.Images", "file", file.Filename, "error", err)
			errs = append(errs, fmt.Sprintf("Failed to save %s", file.Filename))
			continue
		}

		uploaded = append(uploaded, UploadedFile{
			OriginalName: file.Filename,
			Filename:     obj.Filename,
			Path:         obj.Path,
			URL:          obj.URL,
		})
	}

	if len(uploaded) == 0 {
		return response.FailWithData(c, fiber.StatusBadRequest, "No files uploaded successfully", fiber.Map{"errors": errs})
	}
	return response.OK(c, "Files uploaded successfully", fiber.Map{
		"files":  uploaded,
		"errors": errs,
	})
}
