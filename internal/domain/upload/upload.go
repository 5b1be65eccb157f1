// Package upload models stored photo uploads and the objects left behind
// when storage cleanup fails.
package upload

import (
	"fmt"
	"strings"
	"time"
)

// Upload is the metadata row backing one stored object. Its existence is
// what the owner's used counter counts.
type Upload struct {
	id           string
	ownerID      string
	storageKey   string
	size         int64
	contentType  string
	originalName string
	metadata     map[string]any
	createdAt    time.Time
	updatedAt    time.Time
}

// Column bounds of the upload record.
const (
	MaxOriginalNameLength = 255
	MaxContentTypeLength  = 100
)

// NewUpload builds a record for an object already written under storageKey.
// Client supplied names longer than MaxOriginalNameLength keep their tail,
// where the extension is.
func NewUpload(
	id, ownerID, storageKey string,
	size int64,
	contentType, originalName string,
	metadata map[string]any,
	now time.Time,
) (*Upload, error) {
	if id == "" {
		return nil, ErrInvalidUploadID
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if storageKey == "" {
		return nil, fmt.Errorf("storage key is required")
	}
	if size <= 0 {
		return nil, ErrEmptyBody
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Upload{
		id:           id,
		ownerID:      ownerID,
		storageKey:   storageKey,
		size:         size,
		contentType:  truncateHead(contentType, MaxContentTypeLength),
		originalName: truncateTail(originalName, MaxOriginalNameLength),
		metadata:     metadata,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructUpload rebuilds an upload from persistence.
func ReconstructUpload(
	id, ownerID, storageKey string,
	size int64,
	contentType, originalName string,
	metadata map[string]any,
	createdAt, updatedAt time.Time,
) *Upload {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Upload{
		id:           id,
		ownerID:      ownerID,
		storageKey:   storageKey,
		size:         size,
		contentType:  contentType,
		originalName: originalName,
		metadata:     metadata,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (u *Upload) ID() string               { return u.id }
func (u *Upload) OwnerID() string          { return u.ownerID }
func (u *Upload) StorageKey() string       { return u.storageKey }
func (u *Upload) Size() int64              { return u.size }
func (u *Upload) ContentType() string      { return u.contentType }
func (u *Upload) OriginalName() string     { return u.originalName }
func (u *Upload) Metadata() map[string]any { return u.metadata }
func (u *Upload) CreatedAt() time.Time     { return u.createdAt }
func (u *Upload) UpdatedAt() time.Time     { return u.updatedAt }

const maxNameLength = 120

// StorageKey lays objects out as u/<owner>/<upload>/<file name>.
func StorageKey(ownerID, uploadID, originalName string) string {
	return fmt.Sprintf("u/%s/%s/%s", sanitizeSegment(ownerID), uploadID, SanitizeFileName(originalName))
}

// SanitizeFileName reduces a client supplied name to a safe single path
// segment. Empty results fall back to "file".
func SanitizeFileName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = sanitizeSegment(name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return truncateTail(name, maxNameLength)
}

// truncateTail keeps the last n runes of s.
func truncateTail(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[len(r)-n:])
	}
	return s
}

// truncateHead keeps the first n runes of s.
func truncateHead(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}
