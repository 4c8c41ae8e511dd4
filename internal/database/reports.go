package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dailyReportColumns = `report_date, starting_cash, starting_gcash, bilin,
	submitted, submitted_at, submitted_by, created_at, updated_at`

func scanDailyReport(row interface{ Scan(...interface{}) error }) (DailyReport, error) {
	var r DailyReport
	err := row.Scan(
		&r.ReportDate, &r.StartingCash, &r.StartingGcash, &r.Bilin,
		&r.Submitted, &r.SubmittedAt, &r.SubmittedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

const getDailyReport = `
SELECT ` + dailyReportColumns + `
FROM daily_reports
WHERE report_date = $1`

func (q *Queries) GetDailyReport(ctx context.Context, reportDate pgtype.Date) (DailyReport, error) {
	return scanDailyReport(q.db.QueryRow(ctx, getDailyReport, reportDate))
}

const upsertDailyReport = `
INSERT INTO daily_reports (report_date, starting_cash, starting_gcash, bilin)
VALUES ($1, $2, $3, $4)
ON CONFLICT (report_date) DO UPDATE SET
	starting_cash = EXCLUDED.starting_cash,
	starting_gcash = EXCLUDED.starting_gcash,
	bilin = EXCLUDED.bilin,
	updated_at = now()
RETURNING ` + dailyReportColumns

type UpsertDailyReportParams struct {
	ReportDate    pgtype.Date
	StartingCash  pgtype.Numeric
	StartingGcash pgtype.Numeric
	Bilin         pgtype.Numeric
}

func (q *Queries) UpsertDailyReport(ctx context.Context, arg UpsertDailyReportParams) (DailyReport, error) {
	row := q.db.QueryRow(ctx, upsertDailyReport,
		arg.ReportDate, arg.StartingCash, arg.StartingGcash, arg.Bilin,
	)
	return scanDailyReport(row)
}

const ensureDailyReport = `
INSERT INTO daily_reports (report_date)
VALUES ($1)
ON CONFLICT (report_date) DO NOTHING`

// EnsureDailyReport creates the day's report row with default balances
// if it does not exist yet. denomination_counts rows reference it, so
// writes that insert counts must run this first.
func (q *Queries) EnsureDailyReport(ctx context.Context, reportDate pgtype.Date) error {
	_, err := q.db.Exec(ctx, ensureDailyReport, reportDate)
	return err
}

const submitDailyReport = `
INSERT INTO daily_reports (report_date, submitted, submitted_at, submitted_by)
VALUES ($1, true, now(), $2)
ON CONFLICT (report_date) DO UPDATE SET
	submitted = true,
	submitted_at = now(),
	submitted_by = EXCLUDED.submitted_by,
	updated_at = now()
RETURNING ` + dailyReportColumns

type SubmitDailyReportParams struct {
	ReportDate  pgtype.Date
	SubmittedBy uuid.UUID
}

func (q *Queries) SubmitDailyReport(ctx context.Context, arg SubmitDailyReportParams) (DailyReport, error) {
	return scanDailyReport(q.db.QueryRow(ctx, submitDailyReport, arg.ReportDate, arg.SubmittedBy))
}

const deleteDenominationCounts = `
DELETE FROM denomination_counts WHERE report_date = $1`

func (q *Queries) DeleteDenominationCounts(ctx context.Context, reportDate pgtype.Date) error {
	_, err := q.db.Exec(ctx, deleteDenominationCounts, reportDate)
	return err
}

const createDenominationCount = `
INSERT INTO denomination_counts (report_date, denomination, count)
VALUES ($1, $2, $3)
RETURNING id, report_date, denomination, count`

type CreateDenominationCountParams struct {
	ReportDate   pgtype.Date
	Denomination pgtype.Numeric
	Count        int32
}

func (q *Queries) CreateDenominationCount(ctx context.Context, arg CreateDenominationCountParams) (DenominationCount, error) {
	var d DenominationCount
	err := q.db.QueryRow(ctx, createDenominationCount,
		arg.ReportDate, arg.Denomination, arg.Count,
	).Scan(&d.ID, &d.ReportDate, &d.Denomination, &d.Count)
	return d, err
}

const listDenominationCounts = `
SELECT id, report_date, denomination, count
FROM denomination_counts
WHERE report_date = $1
ORDER BY denomination DESC`

func (q *Queries) ListDenominationCounts(ctx context.Context, reportDate pgtype.Date) ([]DenominationCount, error) {
	rows, err := q.db.Query(ctx, listDenominationCounts, reportDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DenominationCount
	for rows.Next() {
		var d DenominationCount
		if err := rows.Scan(&d.ID, &d.ReportDate, &d.Denomination, &d.Count); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
