package controllers

import (
	"errors"
	"net/http"

	"github.com/glowhaus/storefront-backend/api/responses"
	"github.com/glowhaus/storefront-backend/internal/media"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
)

const (
	mediaFormField = "file"
	// multipart framing allowance on top of the file itself
	multipartOverhead = 1 << 20
)

// AdminUploadMedia accepts a multipart image upload in the "file" field.
func AdminUploadMedia(svc media.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		file, header, err := r.FormFile(mediaFormField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodePayloadLarge, "file too large").
					WithDetails(map[string]any{"maxBytes": maxBytes}))
			case errors.Is(err, http.ErrMissingFile):
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
					WithDetails(map[string]string{mediaFormField: "is required"}))
			default:
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			}
			return
		}
		defer file.Close()

		out, err := svc.Upload(r.Context(), media.UploadInput{
			Filename: header.Filename,
			Size:     header.Size,
			Reader:   file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}
