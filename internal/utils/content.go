package utils

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Preview kinds reported by /api/view
const (
	ViewText  = "text"
	ViewImage = "image"
	ViewVideo = "video"
	ViewAudio = "audio"
	ViewPDF   = "pdf"
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".log":  "text/plain",
	".ini":  "text/plain",
	".cfg":  "text/plain",
	".conf": "text/plain",
	".sh":   "text/x-shellscript",
	".py":   "text/x-python",
	".go":   "text/x-go",
	".java": "text/x-java",
	".c":    "text/x-c",
	".h":    "text/x-c",
	".cpp":  "text/x-c++",
	".hpp":  "text/x-c++",
	".rb":   "text/x-ruby",
	".sql":  "text/x-sql",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".json": "application/json",
	".xml":  "application/xml",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
}

// ContentTypeFromExt guesses a MIME type from the file extension
func ContentTypeFromExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := contentTypes[ext]; ok {
		return t
	}
	return "application/octet-stream"
}

func IsImageType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

func IsTextType(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" ||
		contentType == "application/xml" ||
		contentType == "application/javascript"
}

// ViewKind tells how a file of contentType can be previewed. Empty means it cannot.
func ViewKind(contentType string) string {
	switch {
	case IsTextType(contentType):
		return ViewText
	case IsImageType(contentType):
		return ViewImage
	case strings.HasPrefix(contentType, "video/"):
		return ViewVideo
	case strings.HasPrefix(contentType, "audio/"):
		return ViewAudio
	case contentType == "application/pdf":
		return ViewPDF
	}
	return ""
}

// IsInlineType reports whether a download may be rendered by the browser
// instead of saved. Text stays an attachment so HTML never runs on our origin.
func IsInlineType(contentType string) bool {
	kind := ViewKind(contentType)
	return kind != "" && kind != ViewText
}

// DecodeText returns data as UTF-8. Anything that is not valid UTF-8 is
// read as ISO-8859-1, which maps every byte to a rune.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(decoded)
}
