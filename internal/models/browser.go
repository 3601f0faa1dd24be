// Package models contains data structures used across handlers
package models

import "time"

// StorageEntry is one underlying object as reported by a storage backend
type StorageEntry struct {
	Key         string
	IsDirectory bool
	Size        int64
	ModifiedAt  time.Time
	AccessURL   string
}

// DirectoryEntry is the listing view of a file or folder
type DirectoryEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_dir"`
	SizeDisplay string `json:"size"`
	SizeBytes   int64  `json:"size_bytes"`
	Modified    string `json:"modified"`
	URL         string `json:"url"`
}

// Usage summarizes how much data a backend holds
type Usage struct {
	Backend    string `json:"backend"`
	Size       string `json:"size"`
	SizeBytes  int64  `json:"size_bytes"`
	Files      int64  `json:"files"`
	BucketSize string `json:"bucket_size,omitempty"`
	Capacity   string `json:"capacity,omitempty"`
}
