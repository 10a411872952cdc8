// Package filetype decides how an opened file is presented: as editable text,
// as an image, or as an opaque download.
package filetype

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
)

// Category of a file
type Category string

const (
	CategoryText  Category = "text"
	CategoryImage Category = "image"
	CategoryOther Category = "other"
)

// Info describes a classified file
type Info struct {
	Category Category `json:"category"`
	MIME     string   `json:"mime"`
	Charset  string   `json:"charset,omitempty"`
}

var textExtensions = map[string]bool{
	"txt": true, "ini": true, "lua": true, "py": true, "json": true, "xml": true,
	"md": true, "cfg": true, "log": true, "yaml": true, "yml": true, "toml": true,
	"sh": true, "bat": true, "js": true, "ts": true, "html": true, "css": true,
	"java": true, "c": true, "cpp": true, "h": true, "hpp": true, "cs": true,
	"go": true, "rb": true, "php": true, "sql": true,
	// Rusted Warfare unit and map formats
	"template": true, "tmx": true,
}

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"bmp": true, "webp": true, "svg": true, "ico": true,
}

// Extension returns the lower-cased extension of name without the dot
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// IsText reports whether the extension is on the editable text list
func IsText(name string) bool {
	return textExtensions[Extension(name)]
}

// IsImage reports whether the extension is on the image list
func IsImage(name string) bool {
	return imageExtensions[Extension(name)]
}

// Classify uses the extension lists first and falls back to content sniffing
func Classify(name string, content []byte) Info {
	mtype := mimetype.Detect(content)
	info := Info{Category: CategoryOther, MIME: mtype.String()}

	switch {
	case IsText(name):
		info.Category = CategoryText
	case IsImage(name):
		info.Category = CategoryImage
	case strings.HasPrefix(mtype.String(), "image/"):
		info.Category = CategoryImage
	case isTextMIME(mtype):
		info.Category = CategoryText
	}

	if info.Category == CategoryText {
		info.Charset = DetectCharset(content)
	}
	return info
}

func isTextMIME(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectCharset guesses the encoding of text content, defaulting to utf-8
func DetectCharset(data []byte) string {
	if len(data) == 0 || utf8.Valid(data) {
		return "utf-8"
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
