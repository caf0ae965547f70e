package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
)

var (
	ErrEmptyImage    = errors.New("image is empty")
	ErrImageTooLarge = errors.New("image exceeds maximum size")
)

// DecodeBase64Image accepts either raw base64 or a data URI
// ("data:image/jpeg;base64,...") and returns the decoded bytes.
func DecodeBase64Image(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrEmptyImage
	}

	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, ",")
		if idx < 0 {
			return nil, errors.New("malformed data URI")
		}
		data = data[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
		if err != nil {
			return nil, err
		}
	}

	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	if len(raw) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	return raw, nil
}

// NormalizeImage decodes a JPEG or PNG, shrinks it to fit within maxDim x
// maxDim preserving aspect ratio, and re-encodes it as JPEG.
func NormalizeImage(raw []byte, maxDim uint) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim {
		img = resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
