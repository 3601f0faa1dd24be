package services

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
)

type fakeObject struct {
	data     []byte
	modified time.Time
}

// fakeMinioClient is an in-memory bucket implementing MinioClient
type fakeMinioClient struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	now     time.Time
	listErr error
	puts    int

	bucketMissing bool
	bucketErr     error
}

func newFakeMinioClient() *fakeMinioClient {
	return &fakeMinioClient{
		objects: make(map[string]fakeObject),
		now:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fakeMinioClient) put(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: []byte(body), modified: f.now}
}

func (f *fakeMinioClient) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeMinioClient) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.objects[key].data)
}

func (f *fakeMinioClient) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func noSuchKey(key string) error {
	return minio.ErrorResponse{Code: "NoSuchKey", Key: key, Message: "The specified key does not exist."}
}

func (f *fakeMinioClient) BucketExists(_ context.Context, _ string) (bool, error) {
	if f.bucketErr != nil {
		return false, f.bucketErr
	}
	return !f.bucketMissing, nil
}

func (f *fakeMinioClient) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []minio.ObjectInfo
	for _, key := range f.keys() {
		if !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		f.mu.Lock()
		obj := f.objects[key]
		f.mu.Unlock()
		out = append(out, minio.ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
	}
	return out, nil
}

func (f *fakeMinioClient) ListObjectsChannel(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	objects, err := f.ListObjects(ctx, bucket, opts)
	ch := make(chan minio.ObjectInfo, len(objects)+1)
	if err != nil {
		ch <- minio.ObjectInfo{Err: err}
	}
	for _, obj := range objects {
		ch <- obj
	}
	close(ch)
	return ch
}

func (f *fakeMinioClient) StatObject(_ context.Context, _ string, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return minio.ObjectInfo{}, noSuchKey(key)
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

func (f *fakeMinioClient) PutObject(_ context.Context, _ string, key string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: data, modified: f.now}
	f.puts++
	return minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeMinioClient) GetObjectReader(_ context.Context, _ string, key string, _ minio.GetObjectOptions) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, 0, noSuchKey(key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), int64(len(obj.data)), nil
}

func (f *fakeMinioClient) CopyObject(_ context.Context, _ string, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[src]
	if !ok {
		return noSuchKey(src)
	}
	f.objects[dst] = fakeObject{data: append([]byte(nil), obj.data...), modified: f.now}
	return nil
}

func (f *fakeMinioClient) RemoveObject(_ context.Context, _ string, key string, _ minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeMinioClient) RemoveObjects(_ context.Context, _ string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.objects, key)
	}
	return nil
}

func (f *fakeMinioClient) PresignedGetObject(_ context.Context, bucket, key string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse("https://blob.example.com/" + bucket + "/" + key + "?X-Amz-Signature=fake")
}

type fakeAdminClient struct {
	info madmin.DataUsageInfo
	err  error
}

func (a *fakeAdminClient) DataUsageInfo(_ context.Context) (madmin.DataUsageInfo, error) {
	return a.info, a.err
}
