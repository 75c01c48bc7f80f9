package mail

import (
	"mime"
	"path/filepath"
	"strings"
)

// Attachment is a file carried by a message. Inline parts have a ContentID.
type Attachment struct {
	Filename    string `json:"filename" yaml:"filename"`
	ContentType string `json:"content_type" yaml:"content_type"`
	ContentID   string `json:"content_id,omitempty" yaml:"content_id,omitempty"`
	Content     []byte `json:"-" yaml:"-"`
	// Location is where a receiver stored the content, if it did.
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Subtype returns the lowercase MIME subtype, "pdf" for "application/pdf".
func (a Attachment) Subtype() string {
	mediaType, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil {
		mediaType = a.ContentType
	}
	if i := strings.Index(mediaType, "/"); i >= 0 {
		return strings.ToLower(strings.TrimSpace(mediaType[i+1:]))
	}
	return ""
}

// Extension returns the lowercase file extension without the dot.
func (a Attachment) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(a.Filename), "."))
}

func (a Attachment) Size() int {
	return len(a.Content)
}

func (a Attachment) IsInline() bool {
	return a.ContentID != ""
}
