// Package evidence uploads queued work photos to durable object storage.
package evidence

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/julianstephens/crewlog/internal/constants"
	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/logger"
	"github.com/julianstephens/crewlog/internal/models"
)

// Uploader stores one photo under folder and returns a durable reference to it.
type Uploader interface {
	Upload(ctx context.Context, folder string, photo models.Photo) (string, error)
	// Describe names the backend for logs and doctor output, without secrets.
	Describe() string
}

// Pipeline uploads a session's photo queue, all or nothing.
type Pipeline struct {
	uploader Uploader
}

func NewPipeline(u Uploader) *Pipeline {
	return &Pipeline{uploader: u}
}

// Folder returns the storage folder for a booking's evidence.
func Folder(bookingID string) string {
	return path.Join(constants.EvidenceFolderPrefix, bookingID)
}

// UploadAll uploads photos in queue order. The first failure aborts the
// batch with an *errors.UploadFailure; objects uploaded before it are left
// in place.
func (p *Pipeline) UploadAll(ctx context.Context, bookingID string, photos []models.Photo) ([]string, error) {
	folder := Folder(bookingID)
	refs := make([]string, 0, len(photos))
	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			return nil, &apperrors.UploadFailure{Index: i, PhotoID: photo.ID, Name: photo.Name, Err: err}
		}
		ref, err := p.uploader.Upload(ctx, folder, photo)
		if err != nil {
			logger.Warn("Photo upload failed", "booking", bookingID, "photo", photo.Name,
				"uploaded", len(refs), "backend", p.uploader.Describe(), "error", err)
			return nil, &apperrors.UploadFailure{Index: i, PhotoID: photo.ID, Name: photo.Name, Err: err}
		}
		refs = append(refs, ref)
	}
	if len(refs) > 0 {
		logger.Info("Evidence uploaded", "booking", bookingID, "photos", len(refs), "backend", p.uploader.Describe())
	}
	return refs, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectName derives a collision-free object name from the photo id and its
// original file name.
func objectName(photo models.Photo) string {
	name := unsafeChars.ReplaceAllString(path.Base(photo.Name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "photo"
	}
	return photo.ID + "-" + name
}

// contentType falls back to sniffing the first bytes when the queue did not
// record a MIME type.
func contentType(photo models.Photo) string {
	if photo.ContentType != "" {
		return photo.ContentType
	}
	return http.DetectContentType(photo.Data)
}

// NewFromURL picks a backend from the scheme of rawURL:
//
//	file://<dir>                         local directory
//	cloudinary://<key>:<secret>@<cloud>  Cloudinary
//	https://<host>/<bucket>              object storage REST endpoint, bearer token auth
func NewFromURL(rawURL, token string) (Uploader, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, apperrors.Invalid("evidence", "%q is not a URL", rawURL)
	}
	switch strings.ToLower(scheme) {
	case "file":
		return NewFilesystemUploader(rest)
	case "cloudinary":
		return NewCloudinaryUploader(rawURL)
	case "https", "http":
		return NewHTTPUploader(rawURL, token), nil
	default:
		return nil, fmt.Errorf("unsupported evidence backend %q (want file, cloudinary or https)", scheme)
	}
}
