package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditLogs is the append-only store for audit records. There is deliberately
// no update or delete surface.
type AuditLogs interface {
	Append(ctx context.Context, record *AuditLog) (*AuditLog, error)
	AppendTx(ctx context.Context, tx bun.IDB, record *AuditLog) (*AuditLog, error)
	ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*AuditLog, error)
}

type auditLogs struct {
	repo repository.Repository[*AuditLog]
	db   *bun.DB
}

var _ AuditLogs = (*auditLogs)(nil)

func NewAuditLogsRepository(db *bun.DB) AuditLogs {
	repo := repository.NewRepository[*AuditLog](db, repository.ModelHandlers[*AuditLog]{
		NewRecord: func() *AuditLog { return &AuditLog{} },
		GetID: func(l *AuditLog) uuid.UUID {
			if l == nil {
				return uuid.Nil
			}
			return l.ID
		},
		SetID: func(l *AuditLog, id uuid.UUID) {
			if l != nil {
				l.ID = id
			}
		},
	})

	return &auditLogs{
		repo: repo,
		db:   db,
	}
}

func (a *auditLogs) Append(ctx context.Context, record *AuditLog) (*AuditLog, error) {
	return a.AppendTx(ctx, a.db, record)
}

func (a *auditLogs) AppendTx(ctx context.Context, tx bun.IDB, record *AuditLog) (*AuditLog, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.repo.CreateTx(ctx, tx, record)
}

func (a *auditLogs) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error) {
	records := []*AuditLog{}

	q := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.entity_type = ?", entityType).
		Where("?TableAlias.entity_id = ?", entityID).
		OrderExpr("?TableAlias.created_at DESC")

	if limit > 0 {
		q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *auditLogs) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*AuditLog, error) {
	records := []*AuditLog{}

	q := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC")

	if limit > 0 {
		q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// NewAuditTrail adapts the audit log store to the AuditRecorder interface.
func NewAuditTrail(logs AuditLogs) AuditRecorder {
	return AuditRecorderFunc(func(ctx context.Context, entry AuditEntry) error {
		record := &AuditLog{
			Action:         entry.Action,
			EntityType:     entry.EntityType,
			EntityID:       entry.EntityID,
			PreviousValues: entry.PreviousValues,
			NewValues:      entry.NewValues,
			IPAddress:      entry.IPAddress,
			UserAgent:      entry.UserAgent,
		}

		if entry.UserID != "" {
			if uid, err := uuid.Parse(entry.UserID); err == nil {
				record.UserID = &uid
			}
		}

		if !entry.OccurredAt.IsZero() {
			at := entry.OccurredAt
			record.CreatedAt = &at
		}

		_, err := logs.Append(ctx, record)
		return err
	})
}
