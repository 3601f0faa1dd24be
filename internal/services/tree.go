package services

import (
	"sort"
	"strings"
	"time"

	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/utils"
)

// FolderSizeDisplay is shown instead of a size for folders derived from a flat key space
const FolderSizeDisplay = "Folder"

// ReconstructTree turns a flat listing of object keys into the entries of a
// single directory level. Keys are stripped of prefix first; keys outside
// currentDir are ignored. Each immediate subfolder appears once, even when it
// only holds a sentinel object.
func ReconstructTree(entries []models.StorageEntry, currentDir, prefix string) []models.DirectoryEntry {
	seenFolders := make(map[string]bool)
	result := make([]models.DirectoryEntry, 0)

	for _, entry := range entries {
		key, ok := strings.CutPrefix(entry.Key, prefix)
		if !ok {
			continue
		}

		var rel string
		switch {
		case currentDir == "":
			rel = key
		case strings.HasPrefix(key, currentDir+"/"):
			rel = key[len(currentDir)+1:]
		default:
			continue
		}
		if rel == "" {
			continue
		}

		segments := strings.Split(rel, "/")
		if len(segments) == 1 {
			if segments[0] == SentinelName {
				continue
			}
			result = append(result, fileEntry(utils.JoinPath(currentDir, segments[0]), entry))
			continue
		}

		folder := segments[0]
		if folder == "" || seenFolders[folder] {
			continue
		}
		seenFolders[folder] = true
		result = append(result, models.DirectoryEntry{
			Name:        folder,
			Path:        utils.JoinPath(currentDir, folder),
			IsDirectory: true,
			SizeDisplay: FolderSizeDisplay,
		})
	}

	SortEntries(result)
	return result
}

func fileEntry(p string, entry models.StorageEntry) models.DirectoryEntry {
	return models.DirectoryEntry{
		Name:        utils.BaseName(p),
		Path:        p,
		SizeDisplay: utils.FormatBytes(entry.Size),
		SizeBytes:   entry.Size,
		Modified:    formatModified(entry.ModifiedAt),
		URL:         entry.AccessURL,
	}
}

func formatModified(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// SortEntries orders directories before files, then by name ignoring case.
func SortEntries(entries []models.DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDirectory != entries[j].IsDirectory {
			return entries[i].IsDirectory
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}
