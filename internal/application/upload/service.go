// Package upload stores photos and keeps each owner's quota ledger in step
// with the surviving upload records.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photopick/internal/application/ledger"
	"photopick/internal/domain/quota"
	domain "photopick/internal/domain/upload"
	"photopick/internal/shared/id"
	"photopick/internal/shared/logger"
)

const defaultCleanupTimeout = 10 * time.Second

// Ledger is the part of the ledger service an upload needs.
type Ledger interface {
	Now() time.Time
	CheckCapacity(ctx context.Context, ownerID string, amount int) (*quota.Rejection, error)
	WithOwnerSection(ctx context.Context, ownerID string, fn ledger.SectionFunc) error
	ReserveLocked(txCtx context.Context, l *quota.Ledger, amount int) (*quota.Reservation, error)
	ReleaseLocked(txCtx context.Context, l *quota.Ledger, amount int) error
}

// Config bounds request bodies and post-commit object cleanup.
type Config struct {
	MaxUploadBytes int64
	// CleanupTimeout limits compensating and post-delete object removal,
	// which runs detached from the caller's cancellation.
	CleanupTimeout time.Duration
}

type CreateCommand struct {
	OwnerID      string
	Body         []byte
	ContentType  string
	OriginalName string
	Metadata     map[string]any
}

// CreateResult holds either the stored upload or the quota rejection.
type CreateResult struct {
	Upload    *domain.Upload
	Rejection *quota.Rejection
}

func (r *CreateResult) Rejected() bool {
	return r.Rejection != nil
}

// DeleteResult reports what a delete did. A second delete of the same upload
// reports NotFound and leaves the ledger alone.
type DeleteResult struct {
	UploadID string
	Deleted  bool
	NotFound bool
}

// Service creates and deletes uploads atomically with the owner's ledger.
type Service struct {
	ledger  Ledger
	uploads domain.Repository
	orphans domain.OrphanRepository
	store   ObjectStore
	cfg     Config
	logger  logger.Interface
}

func NewService(
	ledgerSvc Ledger,
	uploads domain.Repository,
	orphans domain.OrphanRepository,
	store ObjectStore,
	cfg Config,
	logger logger.Interface,
) *Service {
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = defaultCleanupTimeout
	}
	return &Service{
		ledger:  ledgerSvc,
		uploads: uploads,
		orphans: orphans,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// Create stores the body and records the upload against the owner's quota.
// The object is written before the owner section opens; if the section does
// not commit the object is removed again, or tracked as an orphan when that
// removal fails. A quota rejection is a result, not an error.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*CreateResult, error) {
	if err := s.validate(cmd); err != nil {
		return nil, err
	}

	rejection, err := s.ledger.CheckCapacity(ctx, cmd.OwnerID, 1)
	if err != nil {
		s.logger.Errorw("failed to check upload capacity", "owner_id", cmd.OwnerID, "error", err)
		return nil, err
	}
	if rejection != nil {
		return &CreateResult{Rejection: rejection}, nil
	}

	uploadID, err := id.NewUploadID()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate upload id: %w", err)
	}
	key := domain.StorageKey(cmd.OwnerID, uploadID, cmd.OriginalName)

	if _, err := s.store.Put(ctx, key, cmd.Body, cmd.ContentType); err != nil {
		s.logger.Errorw("failed to store upload object", "owner_id", cmd.OwnerID, "key", key, "error", err)
		s.discardObject(ctx, key)
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	var created *domain.Upload
	err = s.ledger.WithOwnerSection(ctx, cmd.OwnerID, func(txCtx context.Context, l *quota.Ledger) error {
		reservation, err := s.ledger.ReserveLocked(txCtx, l, 1)
		if err != nil {
			return err
		}
		if !reservation.Committed() {
			return reservation.Rejection
		}

		u, err := domain.NewUpload(
			uploadID, cmd.OwnerID, key,
			int64(len(cmd.Body)),
			cmd.ContentType, cmd.OriginalName,
			cmd.Metadata,
			s.ledger.Now(),
		)
		if err != nil {
			return err
		}
		if err := s.uploads.Create(txCtx, u); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		s.compensate(ctx, key, err)
		if rejection, ok := quota.AsRejection(err); ok {
			return &CreateResult{Rejection: rejection}, nil
		}
		s.logger.Errorw("failed to record upload", "owner_id", cmd.OwnerID, "upload_id", uploadID, "error", err)
		return nil, err
	}

	s.logger.Infow("upload created",
		"owner_id", cmd.OwnerID,
		"upload_id", uploadID,
		"size", created.Size(),
	)
	return &CreateResult{Upload: created}, nil
}

// Delete removes the upload record and gives its quota slot back in one
// owner section. The object is deleted after commit; a failed object delete
// is tracked as an orphan and does not fail the request.
func (s *Service) Delete(ctx context.Context, uploadID string) (*DeleteResult, error) {
	if err := checkUploadID(uploadID); err != nil {
		return nil, err
	}

	u, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, domain.ErrUploadNotFound) {
			return &DeleteResult{UploadID: uploadID, NotFound: true}, nil
		}
		return nil, err
	}

	var removed bool
	err = s.ledger.WithOwnerSection(ctx, u.OwnerID(), func(txCtx context.Context, l *quota.Ledger) error {
		ok, err := s.uploads.DeleteOwned(txCtx, u.ID(), u.OwnerID())
		removed = ok
		if err != nil || !ok {
			return err
		}
		return s.ledger.ReleaseLocked(txCtx, l, 1)
	})
	if err != nil {
		s.logger.Errorw("failed to delete upload", "upload_id", uploadID, "owner_id", u.OwnerID(), "error", err)
		return nil, err
	}
	if !removed {
		return &DeleteResult{UploadID: uploadID, NotFound: true}, nil
	}

	s.removeObject(ctx, u.StorageKey(), domain.OrphanDeleteFailed)

	s.logger.Infow("upload deleted", "upload_id", uploadID, "owner_id", u.OwnerID())
	return &DeleteResult{UploadID: uploadID, Deleted: true}, nil
}

// checkUploadID rejects ids this service could not have issued.
func checkUploadID(uploadID string) error {
	if uploadID == "" {
		return domain.ErrInvalidUploadID
	}
	if err := id.ValidatePrefix(uploadID, id.PrefixUpload); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidUploadID, err)
	}
	return nil
}

func (s *Service) validate(cmd CreateCommand) error {
	if cmd.OwnerID == "" {
		return quota.ErrInvalidOwner
	}
	if len(cmd.Body) == 0 {
		return domain.ErrEmptyBody
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(cmd.Body)) > s.cfg.MaxUploadBytes {
		return fmt.Errorf("%w: %d > %d bytes", domain.ErrTooLarge, len(cmd.Body), s.cfg.MaxUploadBytes)
	}
	return nil
}

// compensate undoes the object write of a create whose section did not commit.
func (s *Service) compensate(ctx context.Context, key string, cause error) {
	s.logger.Infow("compensating abandoned upload object", "key", key, "cause", cause)
	s.removeObject(ctx, key, domain.OrphanCompensationFailed)
}

// discardObject removes a possibly partial write; failures are only logged.
func (s *Service) discardObject(ctx context.Context, key string) {
	cleanupCtx, cancel := s.cleanupContext(ctx)
	defer cancel()
	if err := s.store.Delete(cleanupCtx, key); err != nil {
		s.logger.Warnw("failed to discard partial upload object", "key", key, "error", err)
	}
}

func (s *Service) removeObject(ctx context.Context, key string, reason domain.OrphanReason) {
	cleanupCtx, cancel := s.cleanupContext(ctx)
	defer cancel()

	err := s.store.Delete(cleanupCtx, key)
	if err == nil {
		return
	}
	s.logger.Warnw("failed to delete upload object", "key", key, "reason", reason, "error", err)

	orphan, oErr := domain.NewOrphanedObject(key, reason, err, s.ledger.Now())
	if oErr != nil {
		s.logger.Errorw("failed to build orphan record", "key", key, "error", oErr)
		return
	}
	if oErr := s.orphans.Record(cleanupCtx, orphan); oErr != nil {
		s.logger.Errorw("failed to record orphaned object", "key", key, "reason", reason, "error", oErr)
	}
}

func (s *Service) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CleanupTimeout)
}
