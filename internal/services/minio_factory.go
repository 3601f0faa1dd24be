package services

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/NeelODE/drive/internal/config"
)

// Credentials holds the object store connection details
type Credentials struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string // For STS
	Insecure     bool   // Force plain HTTP
}

// MinioAdminClient is the subset of madmin used for usage reporting
type MinioAdminClient interface {
	DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error)
}

// MinioClient is the subset of S3 calls the blob backend needs
type MinioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)

	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error)
	ListObjectsChannel(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error)
	CopyObject(ctx context.Context, bucketName, srcObject, dstObject string) error
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	RemoveObjects(ctx context.Context, bucketName string, objectNames []string) error

	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinioClientFactory creates authenticated clients
type MinioClientFactory interface {
	NewAdminClient(creds Credentials) (MinioAdminClient, error)
	NewClient(creds Credentials) (MinioClient, error)
}

// WrappedMinioClient wraps minio.Client to implement our interface
type WrappedMinioClient struct {
	client *minio.Client
}

func (c *WrappedMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return c.client.BucketExists(ctx, bucketName)
}

func (c *WrappedMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	for obj := range c.client.ListObjects(ctx, bucketName, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (c *WrappedMinioClient) ListObjectsChannel(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return c.client.ListObjects(ctx, bucketName, opts)
}

func (c *WrappedMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return c.client.StatObject(ctx, bucketName, objectName, opts)
}

func (c *WrappedMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return c.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (c *WrappedMinioClient) GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error) {
	obj, err := c.client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, 0, err
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, err
	}
	return obj, info.Size, nil
}

func (c *WrappedMinioClient) CopyObject(ctx context.Context, bucketName, srcObject, dstObject string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: bucketName, Object: dstObject},
		minio.CopySrcOptions{Bucket: bucketName, Object: srcObject},
	)
	return err
}

func (c *WrappedMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return c.client.RemoveObject(ctx, bucketName, objectName, opts)
}

// RemoveObjects deletes keys in bulk and returns the first per-object failure
func (c *WrappedMinioClient) RemoveObjects(ctx context.Context, bucketName string, objectNames []string) error {
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, name := range objectNames {
			select {
			case objectsCh <- minio.ObjectInfo{Key: name}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var firstErr error
	for rErr := range c.client.RemoveObjects(ctx, bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if firstErr == nil && rErr.Err != nil {
			firstErr = rErr.Err
		}
	}
	return firstErr
}

func (c *WrappedMinioClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	return c.client.PresignedGetObject(ctx, bucketName, objectName, expires, reqParams)
}

// BlobCredentials extracts the connection settings of the blob backend
func BlobCredentials(cfg *config.Config) Credentials {
	return Credentials{
		Endpoint:     cfg.Blob.Endpoint,
		AccessKey:    cfg.Blob.AccessKey,
		SecretKey:    cfg.Blob.SecretKey,
		SessionToken: cfg.Blob.SessionToken,
		Insecure:     cfg.Blob.Insecure,
	}
}

// Origin is the scheme and host presigned URLs point at
func (c Credentials) Origin() string {
	host := strings.TrimSuffix(c.Endpoint, "/")
	if shouldUseSSL(c) {
		return "https://" + host
	}
	return "http://" + host
}

// RealMinioFactory is the production implementation
type RealMinioFactory struct{}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(creds Credentials) bool {
	if creds.Insecure {
		return false
	}
	endpoint := creds.Endpoint
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// minio:9000, minio1:9000 etc. but not minio.example.com
	host := strings.Split(endpoint, ":")[0]
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(host, ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

func (f *RealMinioFactory) NewAdminClient(creds Credentials) (MinioAdminClient, error) {
	admin, err := madmin.NewWithOptions(creds.Endpoint, &madmin.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		Secure: shouldUseSSL(creds),
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (f *RealMinioFactory) NewClient(creds Credentials) (MinioClient, error) {
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		Secure: shouldUseSSL(creds),
	})
	if err != nil {
		return nil, err
	}
	return &WrappedMinioClient{client: client}, nil
}
