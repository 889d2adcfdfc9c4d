// Package media stores uploaded images on local disk.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxWidth  = 1600
	MaxHeight = 1600

	// URLPrefix is where the server mounts the media directory.
	URLPrefix = "/media/"
)

// ErrInvalidImage is returned for payloads that are not a base64 data URL
// holding a decodable image.
var ErrInvalidImage = errors.New("upload a valid image")

// Store saves images under dir, grouped by kind ("recipes", "avatars").
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveDataURL decodes a data URL such as "data:image/png;base64,...",
// downsizes the image to fit MaxWidth x MaxHeight and writes it with a
// random name. It returns the path relative to the media dir.
func (s *Store) SaveDataURL(kind, dataURL string) (string, error) {
	mime, raw, err := parseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrInvalidImage
	}
	img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)

	ext := ".jpg"
	if mime == "image/png" {
		ext = ".png"
	}

	if err := os.MkdirAll(filepath.Join(s.dir, kind), 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}
	rel := path.Join(kind, uuid.New().String()+ext)
	if err := imaging.Save(img, filepath.Join(s.dir, filepath.FromSlash(rel)), imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return rel, nil
}

// Remove deletes a previously saved file. Missing files are not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// URL returns the public path for a stored file, or "" for none.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return URLPrefix + rel
}

func parseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(mime, "image/") || enc != "base64" {
		return "", nil, ErrInvalidImage
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidImage
	}
	return mime, raw, nil
}
