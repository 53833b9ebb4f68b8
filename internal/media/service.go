package media

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
)

var (
	errEmptyUpload     = errors.New("empty upload")
	errUnsupportedType = errors.New("unsupported media type")
	errTooLarge        = errors.New("upload exceeds size limit")
)

const objectPrefix = "products/"

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, r io.Reader) error
	PublicURL(object string) string
}

// Service uploads product imagery to the asset host.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
}

// UploadInput is one file to store. Size is the declared size, zero when unknown.
type UploadInput struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type UploadOutput struct {
	URL         string `json:"url"`
	Object      string `json:"object"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
	newID    func() uuid.UUID
}

func NewService(store objectStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, errors.New("object store required")
	}
	if maxBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg, newID: uuid.New}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.Reader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if input.Size > s.maxBytes {
		return nil, s.tooLarge()
	}

	limited := &countingReader{r: io.LimitReader(input.Reader, s.maxBytes+1), max: s.maxBytes}
	mimeType, ext, body, err := detectImage(limited)
	switch {
	case errors.Is(err, errEmptyUpload):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	case errors.Is(err, errUnsupportedType):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only jpeg, png, webp or gif images are accepted").
			WithDetails(map[string]any{"detected": mimeType})
	case errors.Is(err, errTooLarge):
		return nil, s.tooLarge()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload")
	}

	object := objectPrefix + s.newID().String() + ext
	ctx = s.logg.WithFields(ctx, map[string]any{"object": object, "filename": strings.TrimSpace(input.Filename)})
	if err := s.store.Upload(ctx, object, mimeType, body); err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, s.tooLarge()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload to asset host")
	}
	s.logg.Info(ctx, "media uploaded")

	return &UploadOutput{
		URL:         s.store.PublicURL(object),
		Object:      object,
		ContentType: mimeType,
		Size:        limited.n,
	}, nil
}

func (s *service) tooLarge() error {
	return pkgerrors.New(pkgerrors.CodePayloadLarge, "file too large").
		WithDetails(map[string]any{"maxBytes": s.maxBytes})
}

// countingReader fails with errTooLarge once more than max bytes were read.
type countingReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		return n, errTooLarge
	}
	return n, err
}
