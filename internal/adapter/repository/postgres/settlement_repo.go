package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ilpnode/internal/domain"
)

// SettlementRepository implements usecase.SettlementArchive on PostgreSQL.
// The archive is an append-only audit trail; the ledger of record stays in
// Redis.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

// Record appends a confirmed settlement. Conflicts on the idempotency index
// are ignored: a replayed archive write is not an error.
func (r *SettlementRepository) Record(ctx context.Context, rec *domain.SettlementRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settlements (id, account_id, direction, amount, asset_code, asset_scale, idempotency_key, engine_url, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`,
		rec.ID, rec.AccountID, string(rec.Direction), rec.Amount, rec.AssetCode,
		int16(rec.AssetScale), rec.IdempotencyKey, rec.EngineURL, rec.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}
	return nil
}

// ListByAccount returns an account's settlement history, newest first.
func (r *SettlementRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.SettlementRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, direction, amount, asset_code, asset_scale, idempotency_key, engine_url, confirmed_at
		FROM settlements
		WHERE account_id = $1
		ORDER BY confirmed_at DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.SettlementRecord, error) {
		var rec domain.SettlementRecord
		var direction string
		var scale int16
		if err := row.Scan(&rec.ID, &rec.AccountID, &direction, &rec.Amount, &rec.AssetCode,
			&scale, &rec.IdempotencyKey, &rec.EngineURL, &rec.ConfirmedAt); err != nil {
			return nil, err
		}
		rec.Direction = domain.SettlementDirection(direction)
		rec.AssetScale = uint8(scale)
		return &rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan settlements: %w", err)
	}
	return records, nil
}
