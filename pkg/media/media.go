package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
)

// Uploader stores an opaque binary and returns the URL the engines embed.
// The engines only ever consume the returned URL string.
type Uploader interface {
	Upload(kind string, data []byte) (string, error)
}

// LocalUploader writes media under a directory tree partitioned by kind,
// content-addressed so re-uploads of the same bytes dedupe naturally.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalUploader{Dir: dir, BaseURL: baseURL}, nil
}

func (u *LocalUploader) Upload(kind string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errs.Validation("empty upload")
	}
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])
	dir := filepath.Join(u.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Internal("create media dir", err)
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", errs.Internal("write media", err)
		}
	}
	logger.Debug("media_uploaded", "kind", kind, "bytes", len(data), "id", name)
	return fmt.Sprintf("%s/%s/%s", u.BaseURL, kind, name), nil
}
