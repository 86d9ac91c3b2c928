package evidence

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/julianstephens/crewlog/internal/models"
)

// assetAPI is the part of the Cloudinary upload API the uploader needs.
type assetAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryUploader stores photos as Cloudinary image assets.
type CloudinaryUploader struct {
	api   assetAPI
	cloud string
}

// NewCloudinaryUploader configures the client from a
// cloudinary://<api key>:<api secret>@<cloud name> URL.
func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryUploader{api: &cld.Upload, cloud: cld.Config.Cloud.CloudName}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, folder string, photo models.Photo) (string, error) {
	publicID := strings.TrimSuffix(objectName(photo), pathExt(photo.Name))
	result, err := u.api.Upload(ctx, bytes.NewReader(photo.Data), uploader.UploadParams{
		Folder:   folder,
		PublicID: publicID,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: no URL returned for %s", photo.Name)
	}
	return result.SecureURL, nil
}

func (u *CloudinaryUploader) Describe() string { return "cloudinary://" + u.cloud }

func pathExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}
