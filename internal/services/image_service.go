package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"tiyeni/internal/utils"
	"tiyeni/pkg/logger"
	"tiyeni/pkg/storage"

	"github.com/google/uuid"
)

type ImageService interface {
	// UploadBase64 decodes, downscales and stores an image under prefix and
	// returns its public URL.
	UploadBase64(ctx context.Context, prefix, data string) (string, error)
	// Delete removes an image previously returned by UploadBase64. URLs from
	// other hosts are ignored.
	Delete(ctx context.Context, url string) error
}

type imageService struct {
	storage  storage.StorageProvider
	maxDim   uint
	timeout  time.Duration
	logger   *logger.Logger
	newKeyID func() string
}

func NewImageService(provider storage.StorageProvider, maxDim uint, timeout time.Duration, log *logger.Logger) ImageService {
	if maxDim == 0 {
		maxDim = utils.MaxImageDimension
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &imageService{
		storage:  provider,
		maxDim:   maxDim,
		timeout:  timeout,
		logger:   log,
		newKeyID: uuid.NewString,
	}
}

func (s *imageService) UploadBase64(ctx context.Context, prefix, data string) (string, error) {
	raw, err := utils.DecodeBase64Image(data)
	if err != nil {
		if errors.Is(err, utils.ErrImageTooLarge) {
			return "", utils.NewValidationError("image exceeds 5MB")
		}
		return "", utils.NewValidationError("image is not valid base64")
	}

	normalized, err := utils.NormalizeImage(raw, s.maxDim)
	if err != nil {
		return "", utils.NewValidationError("image could not be decoded")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := fmt.Sprintf("%s/%s.jpg", prefix, s.newKeyID())
	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(normalized),
		ContentType:  "image/jpeg",
		Size:         int64(len(normalized)),
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("image upload failed")
		return "", utils.NewUploadError(err)
	}
	if resp == nil || resp.URL == "" {
		return "", utils.NewUploadError(errors.New("storage returned no url"))
	}
	return resp.URL, nil
}

func (s *imageService) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	key, ok := s.storage.KeyFromURL(url)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.storage.Delete(ctx, key)
}
