package upload

import "errors"

var (
	ErrUploadNotFound   = errors.New("upload not found")
	ErrEmptyBody        = errors.New("upload body is empty")
	ErrTooLarge         = errors.New("upload exceeds the maximum size")
	ErrInvalidUploadID  = errors.New("invalid upload id")
	ErrStorage          = errors.New("object storage failure")
	ErrInvalidMetadata  = errors.New("invalid upload metadata")
	ErrOrphanNotFound   = errors.New("orphaned object not found")
	ErrInvalidOrphanKey = errors.New("orphaned object requires a storage key")
)
