package result

import (
	"context"

	"statusdeck/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

const saveOutcomeQuery = `
INSERT INTO monitoring_results (id, monitor_id, status, response_time_ms, http_status_code, error, checked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// SaveOutcome appends one probe outcome to the monitor's history. A probe
// racing a monitor delete surfaces as a Conflict kind the caller may retry.
func (r *Repository) SaveOutcome(ctx context.Context, o Outcome) error {
	const op string = "repo.result.save_outcome"

	_, err := r.pool.Exec(ctx, saveOutcomeQuery,
		utils.ToPgUUID(uuid.New()),
		utils.ToPgUUID(o.MonitorID),
		string(o.Status),
		utils.ToPgInt8Ptr(o.ResponseTimeMs),
		utils.ToPgInt4Ptr(o.HTTPStatusCode),
		utils.ToPgTextPtr(o.Error),
		utils.ToPgTimestamptz(o.CheckedAt),
	)
	if err == nil {
		return nil
	}

	return utils.WrapRepoError(op, err, false, r.logger)
}

const listByMonitorQuery = `
SELECT monitor_id, status, response_time_ms, http_status_code, error, checked_at
FROM monitoring_results
WHERE monitor_id = $1
ORDER BY checked_at DESC
LIMIT $2 OFFSET $3`

func (r *Repository) ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]Outcome, error) {
	const op string = "repo.result.list_by_monitor"

	rows, err := r.pool.Query(ctx, listByMonitorQuery, utils.ToPgUUID(monitorID), limit, offset)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			o            Outcome
			id           pgtype.UUID
			status       string
			responseTime pgtype.Int8
			httpStatus   pgtype.Int4
			probeErr     pgtype.Text
			checkedAt    pgtype.Timestamptz
		)

		if err := rows.Scan(&id, &status, &responseTime, &httpStatus, &probeErr, &checkedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}

		o.MonitorID = utils.FromPgUUID(id)
		o.Status = Status(status)
		o.ResponseTimeMs = utils.FromPgInt8Ptr(responseTime)
		o.HTTPStatusCode = utils.FromPgInt4Ptr(httpStatus)
		o.Error = utils.FromPgTextPtr(probeErr)
		o.CheckedAt = utils.FromPgTimestamptz(checkedAt)

		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return outcomes, nil
}
