// Package media stores uploaded videos, renders their thumbnails and removes both when
// a video goes away.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/oyt/backend/internal/storage"
)

// ThumbnailSuffix is appended to a video's storage path to name its thumbnail.
const ThumbnailSuffix = ".jpg"

const keyPrefix = "media/"

var supportedTypes = map[string]struct{}{
	"video/mp4":  {},
	"video/webm": {},
}

// Ingestor writes uploads to the object store under collision-resistant names.
type Ingestor struct {
	storage storage.Storage
	now     func() time.Time
}

// NewIngestor constructs an Ingestor on top of store.
func NewIngestor(store storage.Storage) *Ingestor {
	return &Ingestor{storage: store, now: time.Now}
}

// Supported reports whether the declared content type may be ingested.
func Supported(declaredType string) bool {
	mediaType, _, err := mime.ParseMediaType(declaredType)
	if err != nil {
		return false
	}
	_, ok := supportedTypes[mediaType]
	return ok
}

// Ingest stores r and returns its storage path. The name is the first ten hex characters of
// sha256(unix millis + file name + owner), an underscore and the sanitised file name.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader, fileName, declaredType, owner string) (string, error) {
	if !Supported(declaredType) {
		return "", fmt.Errorf("%w %q", ErrUnsupportedType, declaredType)
	}

	key := i.storageKey(fileName, owner)
	saved, err := i.storage.Save(ctx, key, r)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return saved, nil
}

func (i *Ingestor) storageKey(fileName, owner string) string {
	millis := strconv.FormatInt(i.now().UnixMilli(), 10)
	sum := sha256.Sum256([]byte(millis + fileName + owner))
	return keyPrefix + hex.EncodeToString(sum[:])[:10] + "_" + sanitizeFileName(fileName)
}

// Open streams the stored video at p.
func (i *Ingestor) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return i.storage.Open(ctx, p)
}

// OpenThumbnail streams the thumbnail rendered for the video at p.
func (i *Ingestor) OpenThumbnail(ctx context.Context, p string) (io.ReadCloser, error) {
	return i.storage.Open(ctx, p+ThumbnailSuffix)
}

// Remove deletes a stored video and its thumbnail. Both deletions are attempted.
func (i *Ingestor) Remove(ctx context.Context, p string) error {
	if strings.TrimSpace(p) == "" {
		return nil
	}
	return errors.Join(
		i.storage.Delete(ctx, p),
		i.storage.Delete(ctx, p+ThumbnailSuffix),
	)
}

// MediaType returns the file extension of a stored video without the dot.
func MediaType(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return "video"
	}
	return cleaned
}
