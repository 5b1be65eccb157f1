package handlers

import (
	"context"

	"photopick/internal/application/upload"
	"photopick/internal/domain/quota"
	domain "photopick/internal/domain/upload"
)

// Service interfaces for the quota handlers

type ledgerService interface {
	Provision(ctx context.Context, ownerID string, plan quota.Plan) (*quota.Ledger, error)
	Status(ctx context.Context, ownerID string) (*quota.LedgerStatus, error)
	ChangePlan(ctx context.Context, ownerID string, change quota.PlanChange) (*quota.Ledger, error)
	Reconcile(ctx context.Context, ownerID string) (*quota.Drift, error)
}

type uploadService interface {
	Create(ctx context.Context, cmd upload.CreateCommand) (*upload.CreateResult, error)
	Delete(ctx context.Context, uploadID string) (*upload.DeleteResult, error)
	Get(ctx context.Context, uploadID string) (*domain.Upload, error)
	ListByOwner(ctx context.Context, q upload.ListQuery) (*upload.ListResult, error)
}
