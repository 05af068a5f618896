package services

import (
	"context"
	"io"
	"time"

	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/mediafolio/mediafolio/pkg/logger"
)

// pictureExtensions are the formats accepted for avatars and thumbnails.
var pictureExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true}

// replaceBlob saves r under a fresh key and hands the key to record. The new
// blob is removed again when record fails; the caller owns the old one.
func replaceBlob(ctx context.Context, store storage.Storage, prefix, ext string, r io.Reader, record func(key string) error) (string, error) {
	key := storage.NewKey(prefix, time.Now(), ext)
	if _, err := store.Save(ctx, key, r); err != nil {
		return "", err
	}
	if err := record(key); err != nil {
		deleteBlob(ctx, store, key)
		return "", err
	}
	return key, nil
}

func deleteBlob(ctx context.Context, store storage.Storage, key string) {
	if err := store.Delete(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to delete blob")
	}
}
