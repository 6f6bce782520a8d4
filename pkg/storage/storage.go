package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ObjectStore stores uploaded proof files.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PublicURL(key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProofKey builds the object key `{studentId}/{type}_{timestamp}.{ext}` for an uploaded proof.
// The timestamp is expressed in Unix milliseconds.
func ProofKey(studentID, kind string, at time.Time, filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s_%d.%s", studentID, kind, at.UnixMilli(), ext)
}

// CleanKey normalises a key; rooting it before cleaning keeps ".." segments inside the store.
func CleanKey(key string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if cleaned == "" {
		return "", fmt.Errorf("empty object key")
	}
	return cleaned, nil
}
