package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

const reportCols = `id, patient_id, patient_source_id, reporter_id, raw_text, status,
	height, weight, muac, oedema, weight4age, height4age, weight4height,
	created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.PatientID, &r.PatientSourceID, &r.ReporterID,
		&r.RawText, &r.Status, &r.Height, &r.Weight, &r.MUAC, &r.Oedema,
		&r.Weight4Age, &r.Height4Age, &r.Weight4Height,
		&r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (p *reportRepoPG) Create(ctx context.Context, r *Report) error {
	r.ID = uuid.New()
	return p.pool.QueryRow(ctx, `
		INSERT INTO reports (id, patient_id, patient_source_id, reporter_id,
			raw_text, status, height, weight, muac, oedema,
			weight4age, height4age, weight4height)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		r.ID, r.PatientID, r.PatientSourceID, r.ReporterID,
		r.RawText, r.Status, r.Height, r.Weight, r.MUAC, r.Oedema,
		r.Weight4Age, r.Height4Age, r.Weight4Height,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (p *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(p.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
}

func (p *reportRepoPG) LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Report, error) {
	return scanReport(p.pool.QueryRow(ctx, `
		SELECT `+reportCols+` FROM reports
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, patientID))
}

func (p *reportRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE reports SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (p *reportRepoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Report, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM reports%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reportCols, where, len(args)-1, len(args))
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func buildFilter(f ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.PatientSourceID != "" {
		args = append(args, f.PatientSourceID)
		conds = append(conds, fmt.Sprintf("patient_source_id = $%d", len(args)))
	}
	if f.ReporterID != nil {
		args = append(args, *f.ReporterID)
		conds = append(conds, fmt.Sprintf("reporter_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
