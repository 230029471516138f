package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"statusdeck/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const createMonitorQuery = `
INSERT INTO monitors (id, service_id, name, url, method, headers, type,
                      interval_seconds, timeout_ms, degraded_threshold_ms, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

func (r *Repository) Create(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	const op string = "repo.monitor.create"

	headers := cmd.Headers
	if headers == nil {
		headers = []Header{}
	}
	headersRaw, err := json.Marshal(headers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: marshal headers: %w", op, err)
	}

	var id pgtype.UUID
	err = r.pool.QueryRow(ctx, createMonitorQuery,
		utils.ToPgUUID(uuid.New()),
		utils.ToPgUUID(cmd.ServiceID),
		cmd.Name,
		cmd.URL,
		cmd.Method,
		headersRaw,
		cmd.Type,
		cmd.IntervalSec,
		cmd.TimeoutMs,
		cmd.DegradedThresholdMs,
		cmd.Active,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return utils.FromPgUUID(id), nil
}

const getSnapshotQuery = `
SELECT m.id, m.service_id, m.name, m.url, m.method, m.headers, m.type,
       m.interval_seconds, m.timeout_ms, m.degraded_threshold_ms, m.active,
       m.created_at, m.updated_at,
       s.name AS service_name, s.organization_id
FROM monitors m
JOIN services s ON s.id = m.service_id
WHERE m.id = $1`

func (r *Repository) GetSnapshot(ctx context.Context, monitorID uuid.UUID) (Snapshot, error) {
	const op string = "repo.monitor.get_snapshot"

	var (
		snap        Snapshot
		id, svcID   pgtype.UUID
		orgID       pgtype.UUID
		headersRaw  []byte
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		serviceName string
	)

	err := r.pool.QueryRow(ctx, getSnapshotQuery, utils.ToPgUUID(monitorID)).Scan(
		&id, &svcID, &snap.Name, &snap.URL, &snap.Method, &headersRaw, &snap.Type,
		&snap.IntervalSec, &snap.TimeoutMs, &snap.DegradedThresholdMs, &snap.Active,
		&createdAt, &updatedAt,
		&serviceName, &orgID,
	)
	if err != nil {
		return Snapshot{}, utils.WrapRepoError(op, err, true, r.logger)
	}

	if len(headersRaw) > 0 {
		if err := json.Unmarshal(headersRaw, &snap.Headers); err != nil {
			return Snapshot{}, fmt.Errorf("%s: unmarshal headers: %w", op, err)
		}
	}

	snap.ID = utils.FromPgUUID(id)
	snap.ServiceID = utils.FromPgUUID(svcID)
	snap.CreatedAt = utils.FromPgTimestamptz(createdAt)
	snap.UpdatedAt = utils.FromPgTimestamptz(updatedAt)
	snap.ServiceName = serviceName
	snap.OrganizationID = utils.FromPgUUID(orgID)

	return snap, nil
}

const existsQuery = `SELECT EXISTS (SELECT 1 FROM monitors WHERE id = $1)`

func (r *Repository) Exists(ctx context.Context, monitorID uuid.UUID) (bool, error) {
	const op string = "repo.monitor.exists"

	var exists bool
	err := r.pool.QueryRow(ctx, existsQuery, utils.ToPgUUID(monitorID)).Scan(&exists)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return exists, nil
}

const listActiveQuery = `
SELECT m.id, m.service_id, m.name, m.url, m.method, m.headers, m.type,
       m.interval_seconds, m.timeout_ms, m.degraded_threshold_ms, m.active,
       m.created_at, m.updated_at,
       s.name AS service_name, s.organization_id
FROM monitors m
JOIN services s ON s.id = m.service_id
WHERE m.active = true
ORDER BY m.created_at`

func (r *Repository) ListActive(ctx context.Context) ([]Snapshot, error) {
	const op string = "repo.monitor.list_active"

	rows, err := r.pool.Query(ctx, listActiveQuery)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap       Snapshot
			id, svcID  pgtype.UUID
			orgID      pgtype.UUID
			headersRaw []byte
			createdAt  pgtype.Timestamptz
			updatedAt  pgtype.Timestamptz
		)

		if err := rows.Scan(
			&id, &svcID, &snap.Name, &snap.URL, &snap.Method, &headersRaw, &snap.Type,
			&snap.IntervalSec, &snap.TimeoutMs, &snap.DegradedThresholdMs, &snap.Active,
			&createdAt, &updatedAt,
			&snap.ServiceName, &orgID,
		); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}

		if len(headersRaw) > 0 {
			if err := json.Unmarshal(headersRaw, &snap.Headers); err != nil {
				return nil, fmt.Errorf("%s: unmarshal headers: %w", op, err)
			}
		}

		snap.ID = utils.FromPgUUID(id)
		snap.ServiceID = utils.FromPgUUID(svcID)
		snap.CreatedAt = utils.FromPgTimestamptz(createdAt)
		snap.UpdatedAt = utils.FromPgTimestamptz(updatedAt)
		snap.OrganizationID = utils.FromPgUUID(orgID)

		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return snaps, nil
}

const listByOrganizationQuery = `
SELECT m.id, m.service_id, m.name, m.url, m.method, m.headers, m.type,
       m.interval_seconds, m.timeout_ms, m.degraded_threshold_ms, m.active,
       m.created_at, m.updated_at,
       s.name AS service_name, s.organization_id,
       r.status, r.response_time_ms, r.http_status_code, r.error, r.checked_at
FROM monitors m
JOIN services s ON s.id = m.service_id
LEFT JOIN LATERAL (
    SELECT status, response_time_ms, http_status_code, error, checked_at
    FROM monitoring_results
    WHERE monitor_id = m.id
    ORDER BY checked_at DESC
    LIMIT 1
) r ON true
WHERE s.organization_id = $1
ORDER BY s.name, m.name`

func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]OrgMonitor, error) {
	const op string = "repo.monitor.list_by_organization"

	rows, err := r.pool.Query(ctx, listByOrganizationQuery, utils.ToPgUUID(orgID))
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var monitors []OrgMonitor
	for rows.Next() {
		var (
			om           OrgMonitor
			id, svcID    pgtype.UUID
			organization pgtype.UUID
			headersRaw   []byte
			createdAt    pgtype.Timestamptz
			updatedAt    pgtype.Timestamptz

			status       pgtype.Text
			responseTime pgtype.Int8
			httpStatus   pgtype.Int4
			probeErr     pgtype.Text
			checkedAt    pgtype.Timestamptz
		)

		if err := rows.Scan(
			&id, &svcID, &om.Name, &om.URL, &om.Method, &headersRaw, &om.Type,
			&om.IntervalSec, &om.TimeoutMs, &om.DegradedThresholdMs, &om.Active,
			&createdAt, &updatedAt,
			&om.ServiceName, &organization,
			&status, &responseTime, &httpStatus, &probeErr, &checkedAt,
		); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}

		if len(headersRaw) > 0 {
			if err := json.Unmarshal(headersRaw, &om.Headers); err != nil {
				return nil, fmt.Errorf("%s: unmarshal headers: %w", op, err)
			}
		}

		om.ID = utils.FromPgUUID(id)
		om.ServiceID = utils.FromPgUUID(svcID)
		om.CreatedAt = utils.FromPgTimestamptz(createdAt)
		om.UpdatedAt = utils.FromPgTimestamptz(updatedAt)
		om.OrganizationID = utils.FromPgUUID(organization)

		if status.Valid {
			om.LatestResult = &LatestResult{
				Status:         status.String,
				ResponseTimeMs: utils.FromPgInt8Ptr(responseTime),
				HTTPStatusCode: utils.FromPgInt4Ptr(httpStatus),
				Error:          utils.FromPgTextPtr(probeErr),
				CheckedAt:      utils.FromPgTimestamptz(checkedAt),
			}
		}

		monitors = append(monitors, om)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return monitors, nil
}

const updateMonitorQuery = `
UPDATE monitors SET
    name = COALESCE($2, name),
    url = COALESCE($3, url),
    method = COALESCE($4, method),
    headers = COALESCE($5, headers),
    type = COALESCE($6, type),
    interval_seconds = COALESCE($7, interval_seconds),
    timeout_ms = COALESCE($8, timeout_ms),
    degraded_threshold_ms = COALESCE($9, degraded_threshold_ms),
    active = COALESCE($10, active),
    updated_at = now()
WHERE id = $1`

func (r *Repository) Update(ctx context.Context, monitorID uuid.UUID, cmd UpdateMonitorCmd) error {
	const op string = "repo.monitor.update"

	var headersParam any
	if cmd.Headers != nil {
		raw, err := json.Marshal(cmd.Headers)
		if err != nil {
			return fmt.Errorf("%s: marshal headers: %w", op, err)
		}
		headersParam = raw
	}

	tag, err := r.pool.Exec(ctx, updateMonitorQuery,
		utils.ToPgUUID(monitorID),
		utils.ToPgTextPtr(cmd.Name),
		utils.ToPgTextPtr(cmd.URL),
		utils.ToPgTextPtr(cmd.Method),
		headersParam,
		utils.ToPgTextPtr(cmd.Type),
		utils.ToPgInt4From32Ptr(cmd.IntervalSec),
		utils.ToPgInt4From32Ptr(cmd.TimeoutMs),
		utils.ToPgInt4From32Ptr(cmd.DegradedThresholdMs),
		utils.ToPgBoolPtr(cmd.Active),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return utils.WrapRepoError(op, pgx.ErrNoRows, true, r.logger)
	}

	return nil
}

const deleteMonitorQuery = `DELETE FROM monitors WHERE id = $1`

func (r *Repository) Delete(ctx context.Context, monitorID uuid.UUID) error {
	const op string = "repo.monitor.delete"

	tag, err := r.pool.Exec(ctx, deleteMonitorQuery, utils.ToPgUUID(monitorID))
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return utils.WrapRepoError(op, pgx.ErrNoRows, true, r.logger)
	}

	return nil
}
