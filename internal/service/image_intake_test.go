package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/config"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func testIntake() *ImageIntake {
	return NewImageIntake(config.ImagesConfig{
		MaxFileSizeBytes: 64,
		MaxCount:         2,
		AllowedMIMEs:     []string{"image/png", "image/jpeg"},
	})
}

func TestImageIntakeSniffsUploads(t *testing.T) {
	images, err := testIntake().FromUploads([]ImageUpload{{
		Filename: `C:\fotos\hueco.png`,
		Size:     int64(len(pngHeader)),
		Content:  bytes.NewReader(pngHeader),
	}})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "hueco.png", images[0].Name)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngHeader), images[0].DataURL)
}

func TestImageIntakeRejectsNonImages(t *testing.T) {
	_, err := testIntake().FromUploads([]ImageUpload{{
		Filename: "foto.png",
		Size:     5,
		Content:  strings.NewReader("hello"),
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestImageIntakeLimits(t *testing.T) {
	intake := testIntake()

	big := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	_, err := intake.FromUploads([]ImageUpload{{Filename: "big.png", Size: 10, Content: bytes.NewReader(big)}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "declared size is not trusted")

	three := make([]ImageUpload, 3)
	for i := range three {
		three[i] = ImageUpload{Filename: "a.png", Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
	}
	_, err = intake.FromUploads(three)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestImageIntakeDataURLs(t *testing.T) {
	intake := testIntake()
	declaredWrong := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	images, err := intake.FromDataURLs([]models.Image{{Name: "x.jpg", DataURL: declaredWrong}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(images[0].DataURL, "data:image/png;base64,"))

	_, err = intake.FromDataURLs([]models.Image{{Name: "x", DataURL: "https://example.com/x.png"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
