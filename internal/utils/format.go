// Package utils provides shared utility functions
package utils

import "fmt"

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes converts a byte count to a human-readable string with two
// decimals (e.g. "1.50 KB"). Negative sizes format as an empty string.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return ""
	}
	if bytes == 0 {
		return "0 Bytes"
	}
	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(byteUnits)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[i])
}
