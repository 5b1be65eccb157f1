package handlers

import (
	"time"

	"photopick/internal/domain/quota"
	domain "photopick/internal/domain/upload"
)

type UploadResponse struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	StorageKey   string         `json:"storage_key"`
	Size         int64          `json:"size"`
	ContentType  string         `json:"content_type,omitempty"`
	OriginalName string         `json:"original_name,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toUploadResponse(u *domain.Upload) *UploadResponse {
	return &UploadResponse{
		ID:           u.ID(),
		OwnerID:      u.OwnerID(),
		StorageKey:   u.StorageKey(),
		Size:         u.Size(),
		ContentType:  u.ContentType(),
		OriginalName: u.OriginalName(),
		Metadata:     u.Metadata(),
		CreatedAt:    u.CreatedAt(),
	}
}

func toUploadResponses(uploads []*domain.Upload) []*UploadResponse {
	result := make([]*UploadResponse, 0, len(uploads))
	for _, u := range uploads {
		result = append(result, toUploadResponse(u))
	}
	return result
}

type DeleteUploadResponse struct {
	UploadID string `json:"upload_id"`
	Deleted  bool   `json:"deleted"`
}

type DriftResponse struct {
	OwnerID   string `json:"owner_id"`
	UsedCount int    `json:"used_count"`
	Records   int64  `json:"records"`
	Delta     int64  `json:"delta"`
	InSync    bool   `json:"in_sync"`
}

func toDriftResponse(d *quota.Drift) *DriftResponse {
	return &DriftResponse{
		OwnerID:   d.OwnerID,
		UsedCount: d.UsedCount,
		Records:   d.Actual,
		Delta:     d.Delta(),
		InSync:    d.InSync(),
	}
}
