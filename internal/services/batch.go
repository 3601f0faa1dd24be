package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"

	"github.com/NeelODE/drive/internal/utils"
)

// maxRenameAttempts bounds the _1, _2, ... search for a free name
const maxRenameAttempts = 10000

// PasteOperation selects between duplicating and relocating pasted items
type PasteOperation string

const (
	OperationCopy PasteOperation = "copy"
	OperationCut  PasteOperation = "cut"
)

// ParseOperation accepts "copy", "cut" and "move" (an alias of cut)
func ParseOperation(op string) (PasteOperation, error) {
	switch op {
	case "copy":
		return OperationCopy, nil
	case "cut", "move":
		return OperationCut, nil
	}
	return "", fmt.Errorf("%w: unknown paste operation %q", ErrNoInput, op)
}

// BatchResult counts the outcome of a best-effort batch
type BatchResult struct {
	Succeeded int
	Failed    int
}

// UniqueName returns name if it is free, otherwise the first free candidate
// of the form base_N.ext. Folders and dotfiles have no extension.
func UniqueName(name string, isDir bool, exists func(string) (bool, error)) (string, error) {
	taken, err := exists(name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}

	base, ext := name, ""
	if !isDir {
		if e := path.Ext(name); e != "" && e != name {
			base, ext = name[:len(name)-len(e)], e
		}
	}

	for i := 1; i <= maxRenameAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free name for %q", ErrAlreadyExists, name)
}

// DeletePaths deletes each path independently. Invalid or missing items
// are counted as failures and never stop the batch.
func DeletePaths(ctx context.Context, store Storage, paths []string) BatchResult {
	var result BatchResult
	for _, raw := range paths {
		p, err := utils.SanitizePath(raw)
		if err == nil && p == "" {
			err = fmt.Errorf("%w: refusing to delete the root", ErrInvalidPath)
		}
		if err == nil {
			err = store.Delete(ctx, p)
		}
		if err != nil {
			log.Printf("Delete %q skipped: %v", raw, err)
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	return result
}

// Paste copies or moves each source into destDir, renaming on collision.
// Only an invalid destination fails the whole call; item failures are counted.
func Paste(ctx context.Context, store Storage, sources []string, destDir string, op PasteOperation) (BatchResult, error) {
	dest, err := store.Stat(ctx, destDir)
	if err != nil {
		return BatchResult{}, err
	}
	if !dest.IsDirectory {
		return BatchResult{}, fmt.Errorf("%w: destination is not a folder", ErrNotFound)
	}

	var result BatchResult
	for _, raw := range sources {
		if err := pasteOne(ctx, store, raw, destDir, op); err != nil {
			log.Printf("Paste %q into %q skipped: %v", raw, destDir, err)
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

var errPasteIntoSelf = errors.New("cannot paste a folder into itself")

func pasteOne(ctx context.Context, store Storage, raw, destDir string, op PasteOperation) error {
	src, err := utils.SanitizePath(raw)
	if err != nil {
		return err
	}
	if src == "" {
		return fmt.Errorf("%w: the root cannot be pasted", ErrInvalidPath)
	}

	entry, err := store.Stat(ctx, src)
	if err != nil {
		return err
	}
	if entry.IsDirectory && utils.IsWithin(destDir, src) {
		return errPasteIntoSelf
	}
	if op == OperationCut && utils.ParentPath(src) == destDir {
		return nil
	}

	name, err := UniqueName(utils.BaseName(src), entry.IsDirectory, func(candidate string) (bool, error) {
		return store.Exists(ctx, utils.JoinPath(destDir, candidate))
	})
	if err != nil {
		return err
	}

	dst := utils.JoinPath(destDir, name)
	if op == OperationCut {
		return store.Move(ctx, src, dst)
	}
	return store.Copy(ctx, src, dst)
}
