package upload

import (
	"context"

	domain "photopick/internal/domain/upload"
	"photopick/internal/shared/utils"
)

type ListQuery struct {
	OwnerID  string
	Page     int
	PageSize int
}

type ListResult struct {
	Items    []*domain.Upload
	Total    int64
	Page     int
	PageSize int
}

// Get returns a single upload record.
func (s *Service) Get(ctx context.Context, uploadID string) (*domain.Upload, error) {
	if err := checkUploadID(uploadID); err != nil {
		return nil, err
	}
	return s.uploads.GetByID(ctx, uploadID)
}

// ListByOwner pages through an owner's uploads, newest first.
func (s *Service) ListByOwner(ctx context.Context, q ListQuery) (*ListResult, error) {
	p := utils.ValidatePagination(q.Page, q.PageSize)

	items, total, err := s.uploads.ListByOwner(ctx, q.OwnerID, p.Offset(), p.PageSize)
	if err != nil {
		s.logger.Errorw("failed to list uploads", "owner_id", q.OwnerID, "error", err)
		return nil, err
	}

	return &ListResult{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}, nil
}
