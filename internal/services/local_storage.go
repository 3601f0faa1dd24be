package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/utils"
)

// LocalStorage serves files from a directory on the local filesystem
type LocalStorage struct {
	root string
}

// NewLocalStorage creates root if needed and anchors every path to its real location
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &LocalStorage{root: resolved}, nil
}

func (s *LocalStorage) Name() string { return "local" }

// Root is the resolved directory the storage is anchored to
func (s *LocalStorage) Root() string { return s.root }

// resolve maps a root-relative path to an absolute one and rejects anything
// whose real location, symlinks followed, leaves the root.
func (s *LocalStorage) resolve(p string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(p))

	resolved, err := evalExisting(full)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || (rel != "." && !filepath.IsLocal(rel)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// evalExisting resolves symlinks on the longest existing ancestor of path
func evalExisting(path string) (string, error) {
	rest := ""
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *LocalStorage) List(ctx context.Context, dir string) ([]models.DirectoryEntry, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, notFound(err)
	}
	if !info.IsDir() {
		return nil, ErrNotFound
	}

	items, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	result := make([]models.DirectoryEntry, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := utils.JoinPath(dir, item.Name())
		childFull, err := s.resolve(p)
		if err != nil {
			// symlink pointing outside the root
			continue
		}
		childInfo, err := os.Stat(childFull)
		if err != nil {
			continue
		}

		size := childInfo.Size()
		if childInfo.IsDir() {
			size, _, err = dirSize(ctx, childFull)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				log.Printf("WARN: size of %s is partial: %v", p, err)
			}
		}
		result = append(result, models.DirectoryEntry{
			Name:        item.Name(),
			Path:        p,
			IsDirectory: childInfo.IsDir(),
			SizeDisplay: utils.FormatBytes(size),
			SizeBytes:   size,
			Modified:    formatModified(childInfo.ModTime()),
		})
	}

	SortEntries(result)
	return result, nil
}

// walkDir is swapped in tests to simulate unreadable entries
var walkDir = filepath.WalkDir

// dirSize sums every regular file below dir. Unreadable entries below dir
// are logged and left out; only a failure on dir itself is returned, along
// with whatever was counted.
func dirSize(ctx context.Context, dir string) (size int64, files int64, err error) {
	err = walkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == dir {
				return err
			}
			log.Printf("WARN: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				log.Printf("WARN: skipping %s: %v", path, err)
				return nil
			}
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files, err
}

func (s *LocalStorage) Stat(_ context.Context, p string) (models.StorageEntry, error) {
	full, err := s.resolve(p)
	if err != nil {
		return models.StorageEntry{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return models.StorageEntry{}, notFound(err)
	}
	return models.StorageEntry{
		Key:         p,
		IsDirectory: info.IsDir(),
		Size:        info.Size(),
		ModifiedAt:  info.ModTime(),
	}, nil
}

func (s *LocalStorage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.Stat(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalStorage) Open(_ context.Context, p string) (io.ReadCloser, models.StorageEntry, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, models.StorageEntry{}, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, models.StorageEntry{}, notFound(err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, models.StorageEntry{}, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, models.StorageEntry{}, fmt.Errorf("%w: %q is a directory", ErrInvalidPath, p)
	}
	return f, models.StorageEntry{Key: p, Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// Archive writes dir as a zip stream with entry names relative to dir
func (s *LocalStorage) Archive(ctx context.Context, dir string, w io.Writer) error {
	full, err := s.resolve(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		return notFound(err)
	}
	if !info.IsDir() {
		return ErrNotFound
	}

	zw := zip.NewWriter(w)
	err = filepath.WalkDir(full, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(full, path)
		if err != nil || rel == "." {
			return err
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(fw, f)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("archive %q: %w", dir, err)
	}
	return zw.Close()
}

func (s *LocalStorage) requireDir(p string) (string, error) {
	full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", notFound(err)
	}
	if !info.IsDir() {
		return "", ErrNotFound
	}
	return full, nil
}

// Upload writes r to a temporary file next to the target and renames it into place
func (s *LocalStorage) Upload(ctx context.Context, dir, name string, r io.Reader, _ int64) error {
	name, err := utils.SanitizeName(name)
	if err != nil {
		return err
	}
	dirFull, err := s.requireDir(dir)
	if err != nil {
		return err
	}
	target, err := s.resolve(utils.JoinPath(dir, name))
	if err != nil {
		return err
	}
	if _, err := os.Lstat(target); err == nil {
		return ErrAlreadyExists
	}

	tmp, err := os.CreateTemp(dirFull, ".upload-"+uuid.NewString()+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}

func (s *LocalStorage) CreateFolder(_ context.Context, dir, name string) error {
	name, err := utils.SanitizeName(name)
	if err != nil {
		return err
	}
	if _, err := s.requireDir(dir); err != nil {
		return err
	}
	target, err := s.resolve(utils.JoinPath(dir, name))
	if err != nil {
		return err
	}
	if err := os.Mkdir(target, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, p string) error {
	if p == "" {
		return ErrInvalidPath
	}
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(full); err != nil {
		return notFound(err)
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("delete %q: %w", p, err)
	}
	return nil
}

func (s *LocalStorage) pair(src, dst string) (string, string, os.FileInfo, error) {
	if src == "" || dst == "" {
		return "", "", nil, ErrInvalidPath
	}
	srcFull, err := s.resolve(src)
	if err != nil {
		return "", "", nil, err
	}
	dstFull, err := s.resolve(dst)
	if err != nil {
		return "", "", nil, err
	}
	info, err := os.Lstat(srcFull)
	if err != nil {
		return "", "", nil, notFound(err)
	}
	if _, err := os.Lstat(dstFull); err == nil {
		return "", "", nil, ErrAlreadyExists
	}
	return srcFull, dstFull, info, nil
}

// Copy duplicates src, a file or a whole subtree, at dst
func (s *LocalStorage) Copy(ctx context.Context, src, dst string) error {
	srcFull, dstFull, info, err := s.pair(src, dst)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(srcFull, dstFull, info.Mode().Perm())
	}

	return filepath.WalkDir(srcFull, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(srcFull, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstFull, rel)

		fi, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, fi.Mode().Perm()|0o700)
		case d.Type().IsRegular():
			return copyFile(path, target, fi.Mode().Perm())
		default:
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *LocalStorage) Move(_ context.Context, src, dst string) error {
	srcFull, dstFull, _, err := s.pair(src, dst)
	if err != nil {
		return err
	}
	if err := os.Rename(srcFull, dstFull); err != nil {
		return fmt.Errorf("move %q: %w", src, err)
	}
	return nil
}

func (s *LocalStorage) Usage(ctx context.Context) (models.Usage, error) {
	size, files, err := dirSize(ctx, s.root)
	if err != nil {
		return models.Usage{}, fmt.Errorf("usage: %w", err)
	}
	return models.Usage{
		Backend:   s.Name(),
		Size:      utils.FormatBytes(size),
		SizeBytes: size,
		Files:     files,
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// readerWithContext stops a copy once the request is cancelled
func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}
