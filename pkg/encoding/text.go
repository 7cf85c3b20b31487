// Package encoding normalizes text and paths written by asset exporters.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as a UTF-8 string. A leading byte order mark is
// dropped. Data that is not valid UTF-8 is decoded as Windows-1252, the
// code page older exporters write material and texture names in.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		// Return as-is if decoding fails
		return string(data)
	}
	return string(result)
}

// NormalizePath converts Windows separators to forward slashes and trims
// surrounding quotes some exporters add around paths with spaces.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		path = path[1 : len(path)-1]
	}
	return strings.ReplaceAll(path, "\\", "/")
}
