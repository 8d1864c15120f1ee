package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

// LocalStore keeps artifacts on the local filesystem.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*LocalStore, error) {
	if cfg.LocalDir == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "local artifact store initialized")
	}
	return &LocalStore{
		dir:     cfg.LocalDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put writes atomically via a temp file plus rename.
func (s *LocalStore) Put(ctx context.Context, name string, contents io.Reader) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing artifact: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalizing artifact: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(name string) string {
	return s.baseURL + "/" + name
}

// Close is a no-op; the store holds no open handles between calls.
func (s *LocalStore) Close() error {
	return nil
}

func (s *LocalStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// validateName rejects anything that could escape the storage root.
func validateName(name string) error {
	if name == "" {
		return errors.New("object name is required")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}
