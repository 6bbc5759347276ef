package reporter

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reporterRepoPG struct{ pool *pgxpool.Pool }

func NewReporterRepoPG(pool *pgxpool.Pool) ReporterRepository {
	return &reporterRepoPG{pool: pool}
}

const reporterCols = `id, connection, name, active, created_at, updated_at`

func scanReporter(row pgx.Row) (*Reporter, error) {
	var r Reporter
	err := row.Scan(&r.ID, &r.Connection, &r.Name, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (p *reporterRepoPG) Create(ctx context.Context, r *Reporter) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO reporters (id, connection, name, active)
		VALUES ($1,$2,$3,$4)`,
		r.ID, r.Connection, r.Name, r.Active)
	return err
}

func (p *reporterRepoPG) GetByConnection(ctx context.Context, connection string) (*Reporter, error) {
	return scanReporter(p.pool.QueryRow(ctx, `SELECT `+reporterCols+` FROM reporters WHERE connection = $1`, connection))
}

func (p *reporterRepoPG) List(ctx context.Context, limit, offset int) ([]*Reporter, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reporters`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, `SELECT `+reporterCols+` FROM reporters ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reporter
	for rows.Next() {
		r, err := scanReporter(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}
