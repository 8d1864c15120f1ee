package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

const gcsPingTimeout = 5 * time.Second

// GCSStore keeps artifacts in a Cloud Storage bucket.
type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// NewGCSStore dials Cloud Storage with the configured credentials.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig, gcp config.GCPConfig, logg *logger.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if gcp.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing cloud storage: %w", err)
	}

	store := &GCSStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}

	if logg != nil {
		logg.Info(ctx, "gcs artifact store initialized")
	}
	return store, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, contents io.Reader) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := io.Copy(w, contents); err != nil {
		w.Close()
		return "", fmt.Errorf("writing gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing gcs object: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *GCSStore) URL(name string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + name
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
}

func (s *GCSStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, gcsPingTimeout)
	defer cancel()
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
