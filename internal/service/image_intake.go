package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/config"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

const dataURLBase64Marker = ";base64,"

// ImageUpload is one uploaded file as received by the handler.
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ImageIntake turns uploads into self-contained data URLs. The MIME type is
// always sniffed from content; declared types are not trusted.
type ImageIntake struct {
	maxSize  int64
	maxCount int
	allowed  map[string]struct{}
}

// NewImageIntake builds the intake from configuration.
func NewImageIntake(cfg config.ImagesConfig) *ImageIntake {
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(mime)] = struct{}{}
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = 6
	}
	return &ImageIntake{maxSize: cfg.MaxFileSizeBytes, maxCount: cfg.MaxCount, allowed: allowed}
}

// FromUploads reads and encodes every upload.
func (i *ImageIntake) FromUploads(uploads []ImageUpload) ([]models.Image, error) {
	if len(uploads) > i.maxCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images are allowed", i.maxCount))
	}
	images := make([]models.Image, 0, len(uploads))
	for _, upload := range uploads {
		if upload.Size > i.maxSize {
			return nil, i.tooLarge(upload.Filename)
		}
		if upload.Content == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "image reader missing")
		}
		data, err := io.ReadAll(io.LimitReader(upload.Content, i.maxSize+1))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read image")
		}
		image, err := i.encode(upload.Filename, data)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

// FromDataURLs validates images supplied inline and re-encodes them with the
// sniffed MIME type.
func (i *ImageIntake) FromDataURLs(inline []models.Image) ([]models.Image, error) {
	if len(inline) > i.maxCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images are allowed", i.maxCount))
	}
	images := make([]models.Image, 0, len(inline))
	for _, img := range inline {
		data, err := decodeDataURL(img.DataURL)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("image %q is not a base64 data URL", img.Name))
		}
		image, err := i.encode(img.Name, data)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

func (i *ImageIntake) encode(name string, data []byte) (models.Image, error) {
	if len(data) == 0 {
		return models.Image{}, appErrors.Clone(appErrors.ErrValidation, "empty image")
	}
	if int64(len(data)) > i.maxSize {
		return models.Image{}, i.tooLarge(name)
	}
	mime := http.DetectContentType(data)
	if !i.isAllowed(mime) {
		return models.Image{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported image type %s", mime))
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}
	var buf bytes.Buffer
	buf.Grow(len("data:") + len(mime) + len(dataURLBase64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	buf.WriteString("data:")
	buf.WriteString(mime)
	buf.WriteString(dataURLBase64Marker)
	buf.WriteString(base64.StdEncoding.EncodeToString(data))
	return models.Image{Name: name, DataURL: buf.String()}, nil
}

func (i *ImageIntake) isAllowed(mime string) bool {
	if !strings.HasPrefix(mime, "image/") {
		return false
	}
	if len(i.allowed) == 0 {
		return true
	}
	_, ok := i.allowed[mime]
	return ok
}

func (i *ImageIntake) tooLarge(name string) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image %q exceeds %d bytes", name, i.maxSize))
}

func decodeDataURL(raw string) ([]byte, error) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, fmt.Errorf("missing data: scheme")
	}
	idx := strings.Index(raw, dataURLBase64Marker)
	if idx < 0 {
		return nil, fmt.Errorf("missing base64 marker")
	}
	return base64.StdEncoding.DecodeString(raw[idx+len(dataURLBase64Marker):])
}
