package evidence

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/crewlog/internal/models"
)

// FilesystemUploader writes photos into a local directory tree. It backs
// single-device setups and tests.
type FilesystemUploader struct {
	root string
}

func NewFilesystemUploader(dir string) (*FilesystemUploader, error) {
	if dir == "" {
		return nil, fmt.Errorf("evidence directory cannot be empty")
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve evidence directory: %w", err)
	}
	return &FilesystemUploader{root: abs}, nil
}

func (u *FilesystemUploader) Upload(ctx context.Context, folder string, photo models.Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(u.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create evidence folder: %w", err)
	}
	target := filepath.Join(dir, objectName(photo))
	if err := os.WriteFile(target, photo.Data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", photo.Name, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(), nil
}

func (u *FilesystemUploader) Describe() string { return "file://" + u.root }
