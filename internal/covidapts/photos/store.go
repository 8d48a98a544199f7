// Package photos stores uploaded company photos on the local filesystem and
// resolves the URL path a company record should point to.
package photos

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultURLPrefix = "/images/companies"
	DefaultPhotoName = "default_company_photo.jpg"
)

// Upload is a photo submitted with a company form.
type Upload struct {
	// Name is the file name declared by the client.
	Name string
	// Content is the file body.
	Content io.Reader
}

// Store writes photos under Dir and exposes them under URLPrefix.
type Store struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

// NewStore creates the image directory if needed.
func NewStore(dir, urlPrefix string, logger *zap.Logger) (*Store, error) {
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger.Named("photo_store"),
	}, nil
}

// DefaultPath is the resource path of companies without a photo.
func (s *Store) DefaultPath() string {
	return path.Join(s.urlPrefix, DefaultPhotoName)
}

// Save writes upload and returns its resource path. A nil upload yields the
// default path. An existing file is never overwritten, its path is returned.
func (s *Store) Save(upload *Upload) (string, error) {
	if upload == nil {
		return s.DefaultPath(), nil
	}

	name := filepath.Base(filepath.Clean("/" + upload.Name))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid photo name %q", upload.Name)
	}
	dest := filepath.Join(s.dir, name)
	resources := path.Join(s.urlPrefix, name)

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			s.logger.Debug("photo already stored, keeping existing file", zap.String("name", name))
			return resources, nil
		}
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}

	if _, err := io.Copy(f, upload.Content); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close photo file: %w", err)
	}

	s.logger.Info("photo stored", zap.String("name", name), zap.String("path", dest))
	return resources, nil
}
