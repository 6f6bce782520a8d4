package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists proof files on disk under a base directory and serves them through signed URLs.
type LocalStorage struct {
	baseDir   string
	publicURL string
	signer    *SignedURLSigner
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// publicURL is the externally reachable prefix of the signed download route.
func NewLocalStorage(baseDir, publicURL string, signer *SignedURLSigner) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorage{
		baseDir:   baseDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		signer:    signer,
	}, nil
}

// Upload copies from reader into the object key under the base dir.
func (s *LocalStorage) Upload(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	target := s.resolve(cleaned)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return cleaned, nil
}

const proofScope = "proof"

// PublicURL returns a time-limited signed download link for the key.
func (s *LocalStorage) PublicURL(key string) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("signed url signer not configured")
	}
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	token, _, err := s.signer.Generate(proofScope, cleaned)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s.publicURL, url.PathEscape(token)), nil
}

// ResolveToken validates a signed download token and returns the object key it grants.
func (s *LocalStorage) ResolveToken(token string) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("signed url signer not configured")
	}
	scope, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", err
	}
	if scope != proofScope {
		return "", ErrInvalidDownloadToken
	}
	return CleanKey(key)
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(s.resolve(cleaned))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.resolve(cleaned)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}
