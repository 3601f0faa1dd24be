package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/utils"
)

// BlobOptions configures where a BlobStorage keeps its objects
type BlobOptions struct {
	Bucket    string
	Prefix    string
	URLExpiry time.Duration
}

// BlobStorage keeps files as objects under a key prefix in a single bucket.
// Folders only exist implicitly, through the keys below them or a sentinel object.
type BlobStorage struct {
	client    MinioClient
	admin     MinioAdminClient
	bucket    string
	prefix    string
	urlExpiry time.Duration
}

// NewBlobStorage creates a blob backend. admin may be nil.
func NewBlobStorage(client MinioClient, admin MinioAdminClient, opts BlobOptions) *BlobStorage {
	prefix := opts.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &BlobStorage{
		client:    client,
		admin:     admin,
		bucket:    opts.Bucket,
		prefix:    prefix,
		urlExpiry: expiry,
	}
}

func (s *BlobStorage) Name() string { return "blob" }

func (s *BlobStorage) key(p string) string {
	return s.prefix + p
}

func (s *BlobStorage) dirPrefix(dir string) string {
	if dir == "" {
		return s.prefix
	}
	return s.prefix + dir + "/"
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *BlobStorage) listAll(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	objects, err := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
	}
	return objects, nil
}

// subtree returns the object at p itself plus everything below p
func (s *BlobStorage) subtree(ctx context.Context, p string) ([]minio.ObjectInfo, error) {
	full := s.key(p)
	objects, err := s.listAll(ctx, full)
	if err != nil {
		return nil, err
	}
	matched := objects[:0]
	for _, obj := range objects {
		if obj.Key == full || strings.HasPrefix(obj.Key, full+"/") {
			matched = append(matched, obj)
		}
	}
	return matched, nil
}

func (s *BlobStorage) presign(ctx context.Context, key string) string {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry, nil)
	if err != nil {
		log.Printf("Failed to presign %s: %v", key, err)
		return ""
	}
	return u.String()
}

func (s *BlobStorage) List(ctx context.Context, dir string) ([]models.DirectoryEntry, error) {
	objects, err := s.listAll(ctx, s.dirPrefix(dir))
	if err != nil {
		return nil, err
	}

	entries := make([]models.StorageEntry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, models.StorageEntry{
			Key:        obj.Key,
			Size:       obj.Size,
			ModifiedAt: obj.LastModified,
		})
	}

	result := ReconstructTree(entries, dir, s.prefix)
	for i := range result {
		if !result[i].IsDirectory {
			result[i].URL = s.presign(ctx, s.key(result[i].Path))
		}
	}
	return result, nil
}

// hasChildren stops after the first key so probing a large folder stays cheap
func (s *BlobStorage) hasChildren(ctx context.Context, prefix string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjectsChannel(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   1,
	}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

func (s *BlobStorage) Stat(ctx context.Context, p string) (models.StorageEntry, error) {
	if p == "" {
		return models.StorageEntry{IsDirectory: true}, nil
	}

	info, err := s.client.StatObject(ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err == nil {
		return models.StorageEntry{
			Key:        p,
			Size:       info.Size,
			ModifiedAt: info.LastModified,
			AccessURL:  s.presign(ctx, s.key(p)),
		}, nil
	}
	if !isNoSuchKey(err) {
		return models.StorageEntry{}, fmt.Errorf("stat %q: %w", p, err)
	}

	isDir, err := s.hasChildren(ctx, s.key(p)+"/")
	if err != nil {
		return models.StorageEntry{}, fmt.Errorf("stat %q: %w", p, err)
	}
	if !isDir {
		return models.StorageEntry{}, ErrNotFound
	}
	return models.StorageEntry{Key: p, IsDirectory: true}, nil
}

func (s *BlobStorage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.Stat(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *BlobStorage) Open(ctx context.Context, p string) (io.ReadCloser, models.StorageEntry, error) {
	if p == "" {
		return nil, models.StorageEntry{}, ErrInvalidPath
	}
	reader, size, err := s.client.GetObjectReader(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, models.StorageEntry{}, ErrNotFound
		}
		return nil, models.StorageEntry{}, fmt.Errorf("open %q: %w", p, err)
	}
	return reader, models.StorageEntry{Key: p, Size: size}, nil
}

// Archive streams every object below dir into a zip. Sentinels become
// directory entries so empty folders survive the round trip.
func (s *BlobStorage) Archive(ctx context.Context, dir string, w io.Writer) error {
	base := s.dirPrefix(dir)
	objects, err := s.listAll(ctx, base)
	if err != nil {
		return err
	}
	if dir != "" && len(objects) == 0 {
		return ErrNotFound
	}

	zw := zip.NewWriter(w)
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, base)
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}
		if path.Base(rel) == SentinelName {
			if parent := path.Dir(rel); parent != "." {
				if _, err := zw.Create(parent + "/"); err != nil {
					return err
				}
			}
			continue
		}

		if err := s.addToZip(ctx, zw, obj, rel); err != nil {
			_ = zw.Close()
			return fmt.Errorf("archive %q: %w", dir, err)
		}
	}
	return zw.Close()
}

func (s *BlobStorage) addToZip(ctx context.Context, zw *zip.Writer, obj minio.ObjectInfo, name string) error {
	reader, _, err := s.client.GetObjectReader(ctx, s.bucket, obj.Key, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: obj.LastModified,
	}
	fw, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, reader)
	return err
}

func (s *BlobStorage) requireDir(ctx context.Context, dir string) error {
	entry, err := s.Stat(ctx, dir)
	if err != nil {
		return err
	}
	if !entry.IsDirectory {
		return ErrNotFound
	}
	return nil
}

func (s *BlobStorage) Upload(ctx context.Context, dir, name string, r io.Reader, size int64) error {
	name, err := utils.SanitizeName(name)
	if err != nil {
		return err
	}
	if err := s.requireDir(ctx, dir); err != nil {
		return err
	}
	target := utils.JoinPath(dir, name)
	exists, err := s.Exists(ctx, target)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.key(target), r, size, minio.PutObjectOptions{
		ContentType: utils.ContentTypeFromExt(name),
	})
	if err != nil {
		return fmt.Errorf("upload %q: %w", target, err)
	}
	return nil
}

// CreateFolder writes the sentinel object that makes an empty folder listable
func (s *BlobStorage) CreateFolder(ctx context.Context, dir, name string) error {
	name, err := utils.SanitizeName(name)
	if err != nil {
		return err
	}
	if err := s.requireDir(ctx, dir); err != nil {
		return err
	}
	target := utils.JoinPath(dir, name)
	exists, err := s.Exists(ctx, target)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	return s.putSentinel(ctx, target)
}

func (s *BlobStorage) putSentinel(ctx context.Context, dir string) error {
	key := s.key(utils.JoinPath(dir, SentinelName))
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("create folder %q: %w", dir, err)
	}
	return nil
}

// keepParent re-creates the sentinel of dir once its last child is gone,
// so removing a folder's contents never makes the folder itself vanish.
func (s *BlobStorage) keepParent(ctx context.Context, dir string) {
	if dir == "" {
		return
	}
	hasChildren, err := s.hasChildren(ctx, s.dirPrefix(dir))
	if err != nil || hasChildren {
		return
	}
	if err := s.putSentinel(ctx, dir); err != nil {
		log.Printf("Failed to keep folder %s: %v", dir, err)
	}
}

// Delete removes p and, when p is a folder, every key below it
func (s *BlobStorage) Delete(ctx context.Context, p string) error {
	if p == "" {
		return ErrInvalidPath
	}
	objects, err := s.subtree(ctx, p)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return ErrNotFound
	}

	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.Key
	}
	if err := s.client.RemoveObjects(ctx, s.bucket, keys); err != nil {
		return fmt.Errorf("delete %q: %w", p, err)
	}
	s.keepParent(ctx, utils.ParentPath(p))
	return nil
}

// copyTree copies every key of src below dst and returns the source keys
func (s *BlobStorage) copyTree(ctx context.Context, src, dst string) ([]string, error) {
	if src == "" || dst == "" {
		return nil, ErrInvalidPath
	}
	objects, err := s.subtree(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, ErrNotFound
	}
	exists, err := s.Exists(ctx, dst)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	srcKey, dstKey := s.key(src), s.key(dst)
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		target := dstKey + strings.TrimPrefix(obj.Key, srcKey)
		if err := s.client.CopyObject(ctx, s.bucket, obj.Key, target); err != nil {
			return nil, fmt.Errorf("copy %q: %w", obj.Key, err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *BlobStorage) Copy(ctx context.Context, src, dst string) error {
	_, err := s.copyTree(ctx, src, dst)
	return err
}

// Move is a copy followed by removal of the source keys; object stores have no rename.
func (s *BlobStorage) Move(ctx context.Context, src, dst string) error {
	keys, err := s.copyTree(ctx, src, dst)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObjects(ctx, s.bucket, keys); err != nil {
		return fmt.Errorf("move %q: %w", src, err)
	}
	s.keepParent(ctx, utils.ParentPath(src))
	return nil
}

func (s *BlobStorage) Usage(ctx context.Context) (models.Usage, error) {
	objects, err := s.listAll(ctx, s.prefix)
	if err != nil {
		return models.Usage{}, err
	}

	usage := models.Usage{Backend: s.Name()}
	for _, obj := range objects {
		if path.Base(obj.Key) == SentinelName {
			continue
		}
		usage.SizeBytes += obj.Size
		usage.Files++
	}
	usage.Size = utils.FormatBytes(usage.SizeBytes)

	if s.admin == nil {
		return usage, nil
	}
	info, err := s.admin.DataUsageInfo(ctx)
	if err != nil {
		log.Printf("Bucket usage unavailable: %v", err)
		return usage, nil
	}
	if size, ok := info.BucketSizes[s.bucket]; ok {
		usage.BucketSize = utils.FormatBytes(int64(size))
	}
	if info.TotalCapacity > 0 {
		usage.Capacity = utils.FormatBytes(int64(info.TotalCapacity))
	}
	return usage, nil
}
