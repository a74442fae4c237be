// Package blob stores profile images keyed by user id.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is the blob storage contract: upload and delete of profile images
// keyed by user id.
type Store interface {
	// UploadAvatar writes the image and returns a URL-ish reference to it.
	UploadAvatar(ctx context.Context, userID string, contentType string, r io.Reader) (string, error)
	// DeleteAvatar removes the stored image. Deleting a missing avatar is
	// not an error.
	DeleteAvatar(ctx context.Context, userID string) error
}

// DiskStore keeps avatars on the local filesystem, one file per user.
type DiskStore struct {
	dir string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore creates the backing directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func extensionFor(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported avatar content type %q", contentType)
	}
}

func (s *DiskStore) UploadAvatar(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	ext, err := extensionFor(contentType)
	if err != nil {
		return "", err
	}

	// Replace any previous avatar regardless of extension.
	if err := s.DeleteAvatar(ctx, userID); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, userID+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return "/avatars/" + userID + ext, nil
}

func (s *DiskStore) DeleteAvatar(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, userID+".*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
