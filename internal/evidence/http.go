package evidence

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/julianstephens/crewlog/internal/constants"
	"github.com/julianstephens/crewlog/internal/models"
)

// HTTPUploader PUTs photos to an object storage REST endpoint laid out as
// <base>/<bucket>/<folder>/<object>, authenticating with a bearer token.
type HTTPUploader struct {
	client *resty.Client
	base   string
}

// putResponse is the optional JSON body some endpoints return.
type putResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewHTTPUploader(baseURL, token string) *HTTPUploader {
	base := strings.TrimSuffix(baseURL, "/")

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(constants.UploadTimeout)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPUploader{client: client, base: base}
}

func (u *HTTPUploader) Upload(ctx context.Context, folder string, photo models.Photo) (string, error) {
	key := folder + "/" + url.PathEscape(objectName(photo))

	result := new(putResponse)
	apiErr := new(apiError)
	resp, err := u.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType(photo)).
		SetBody(photo.Data).
		SetResult(result).
		SetError(apiErr).
		Put("/" + key)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("put %s: %s: %s", key, resp.Status(), msg)
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return u.base + "/" + key, nil
}

func (u *HTTPUploader) Describe() string {
	parsed, err := url.Parse(u.base)
	if err != nil {
		return "https"
	}
	parsed.User = nil
	return parsed.String()
}
