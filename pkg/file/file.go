package file

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// File represents stored file metadata.
type File struct {
	Filename     string
	Size         int64
	MIMEType     string
	Extension    string
	AbsolutePath string // Local storage only
	RelativePath string
	// Location identifies the stored object: an absolute path for local
	// storage, s3://bucket/key for S3.
	Location string
}

// Storage is a write-mostly backend for received attachments.
type Storage interface {
	// Save writes content under path, replacing an existing file.
	Save(ctx context.Context, path string, content []byte, contentType string) (*File, error)
	// Delete removes a single file.
	Delete(ctx context.Context, path string) error
	// Exists checks if a file exists.
	Exists(ctx context.Context, path string) bool
	// URL returns the public URL for a file.
	URL(path string) string
}

// DetectMIMEType returns contentType when set, otherwise guesses from the
// filename extension and finally from the content.
func DetectMIMEType(content []byte, filename, contentType string) string {
	if contentType != "" {
		return contentType
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return http.DetectContentType(content)
}

// Extension returns the lowercase extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFilename removes path components, folds accented letters to their
// base form and replaces anything other than letters, digits, '.', '-' and
// '_' with '_'. Returns "unnamed" for empty or special directory references.
//
// Example:
//
//	safe := file.SanitizeFilename("../../../etc/passwd") // Returns "passwd"
//	safe = file.SanitizeFilename("Résumé 2024.pdf")      // Returns "Resume_2024.pdf"
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	if filename == "/" {
		return "unnamed"
	}

	if folded, _, err := transform.String(stripMarks, filename); err == nil {
		filename = folded
	}

	filename = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		case r == 0:
			return -1
		default:
			return '_'
		}
	}, filename)

	if strings.Trim(filename, ".") == "" {
		filename = "unnamed"
	}

	return filename
}
