package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/NeelODE/drive/internal/config"
	"github.com/NeelODE/drive/internal/models"
)

// SentinelName marks an otherwise empty folder in a flat key space
const SentinelName = ".keep"

// Storage is the backend behind every file operation. All paths are
// root-relative and already sanitized; "" is the root.
type Storage interface {
	Name() string

	List(ctx context.Context, dir string) ([]models.DirectoryEntry, error)
	Stat(ctx context.Context, p string) (models.StorageEntry, error)
	Exists(ctx context.Context, p string) (bool, error)
	Open(ctx context.Context, p string) (io.ReadCloser, models.StorageEntry, error)
	Archive(ctx context.Context, dir string, w io.Writer) error

	Upload(ctx context.Context, dir, name string, r io.Reader, size int64) error
	CreateFolder(ctx context.Context, dir, name string) error
	Delete(ctx context.Context, p string) error
	Copy(ctx context.Context, src, dst string) error
	Move(ctx context.Context, src, dst string) error

	Usage(ctx context.Context) (models.Usage, error)
}

// NewStorage picks the backend once at startup. A blob backend that cannot
// be constructed or cannot see its bucket degrades to UnavailableStorage so
// the server still starts.
func NewStorage(ctx context.Context, cfg *config.Config, factory MinioClientFactory) (Storage, error) {
	if !cfg.BlobEnabled() {
		return NewLocalStorage(cfg.Storage.Root)
	}

	creds := BlobCredentials(cfg)
	client, err := factory.NewClient(creds)
	if err != nil {
		log.Printf("Blob storage unavailable: %v", err)
		return &UnavailableStorage{Reason: err}, nil
	}

	exists, err := client.BucketExists(ctx, cfg.Blob.Bucket)
	if err == nil && !exists {
		err = fmt.Errorf("bucket %q does not exist", cfg.Blob.Bucket)
	}
	if err != nil {
		log.Printf("Blob storage unavailable: %v", err)
		return &UnavailableStorage{Reason: err}, nil
	}

	// Bucket size is a nice-to-have; scoped keys usually cannot reach the admin API.
	admin, err := factory.NewAdminClient(creds)
	if err != nil {
		log.Printf("Admin client unavailable, bucket usage disabled: %v", err)
		admin = nil
	}

	return NewBlobStorage(client, admin, BlobOptions{
		Bucket:    cfg.Blob.Bucket,
		Prefix:    cfg.Blob.Prefix,
		URLExpiry: cfg.Blob.URLExpiry,
	}), nil
}

// UnavailableStorage answers every call with ErrBackendUnavailable
type UnavailableStorage struct {
	Reason error
}

func (s *UnavailableStorage) err() error {
	if s.Reason == nil {
		return ErrBackendUnavailable
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, s.Reason)
}

func (s *UnavailableStorage) Name() string { return "unavailable" }

func (s *UnavailableStorage) List(context.Context, string) ([]models.DirectoryEntry, error) {
	return nil, s.err()
}

func (s *UnavailableStorage) Stat(context.Context, string) (models.StorageEntry, error) {
	return models.StorageEntry{}, s.err()
}

func (s *UnavailableStorage) Exists(context.Context, string) (bool, error) {
	return false, s.err()
}

func (s *UnavailableStorage) Open(context.Context, string) (io.ReadCloser, models.StorageEntry, error) {
	return nil, models.StorageEntry{}, s.err()
}

func (s *UnavailableStorage) Archive(context.Context, string, io.Writer) error { return s.err() }

func (s *UnavailableStorage) Upload(context.Context, string, string, io.Reader, int64) error {
	return s.err()
}

func (s *UnavailableStorage) CreateFolder(context.Context, string, string) error { return s.err() }
func (s *UnavailableStorage) Delete(context.Context, string) error               { return s.err() }
func (s *UnavailableStorage) Copy(context.Context, string, string) error         { return s.err() }
func (s *UnavailableStorage) Move(context.Context, string, string) error         { return s.err() }

func (s *UnavailableStorage) Usage(context.Context) (models.Usage, error) {
	return models.Usage{}, s.err()
}
