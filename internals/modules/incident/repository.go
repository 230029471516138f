package incident

import (
	"context"
	"time"

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

const createIncidentQuery = `
INSERT INTO incidents (id, organization_id, service_id, monitor_id, title, description,
                       severity, status, auto_created)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`

func (r *Repository) Create(ctx context.Context, cmd CreateIncidentCmd) (Incident, error) {
	const op string = "repo.incident.create"

	inc := Incident{
		ID:             uuid.New(),
		OrganizationID: cmd.OrganizationID,
		ServiceID:      cmd.ServiceID,
		MonitorID:      cmd.MonitorID,
		Title:          cmd.Title,
		Description:    cmd.Description,
		Severity:       cmd.Severity,
		Status:         StatusOpen,
		AutoCreated:    cmd.AutoCreated,
	}

	var createdAt, updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, createIncidentQuery,
		utils.ToPgUUID(inc.ID),
		utils.ToPgUUID(inc.OrganizationID),
		utils.ToPgUUID(inc.ServiceID),
		utils.ToPgUUID(inc.MonitorID),
		inc.Title,
		inc.Description,
		string(inc.Severity),
		string(inc.Status),
		inc.AutoCreated,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return Incident{}, utils.WrapRepoError(op, err, false, r.logger)
	}

	inc.CreatedAt = utils.FromPgTimestamptz(createdAt)
	inc.UpdatedAt = utils.FromPgTimestamptz(updatedAt)

	return inc, nil
}

const findOpenAutoQuery = `
SELECT id, organization_id, service_id, monitor_id, title, description,
       severity, status, auto_created, auto_resolved, created_at, updated_at, resolved_at
FROM incidents
WHERE monitor_id = $1 AND status = 'OPEN' AND auto_created = true
ORDER BY created_at DESC
LIMIT 1`

// FindOpenAuto returns the single open auto-created incident of a monitor,
// or a NotFound error when the monitor currently has none.
func (r *Repository) FindOpenAuto(ctx context.Context, monitorID uuid.UUID) (Incident, error) {
	const op string = "repo.incident.find_open_auto"

	inc, err := r.scanIncident(r.pool.QueryRow(ctx, findOpenAutoQuery, utils.ToPgUUID(monitorID)))
	if err != nil {
		return Incident{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return inc, nil
}

const updateSeverityQuery = `
UPDATE incidents SET severity = $2, updated_at = now()
WHERE id = $1 AND status = 'OPEN'`

func (r *Repository) UpdateSeverity(ctx context.Context, incidentID uuid.UUID, severity Severity) error {
	const op string = "repo.incident.update_severity"

	tag, err := r.pool.Exec(ctx, updateSeverityQuery, utils.ToPgUUID(incidentID), string(severity))
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return utils.WrapRepoError(op, pgx.ErrNoRows, true, r.logger)
	}
	return nil
}

const resolveIncidentQuery = `
UPDATE incidents SET status = 'RESOLVED', auto_resolved = true, resolved_at = $2, updated_at = now()
WHERE id = $1 AND status = 'OPEN'`

func (r *Repository) Resolve(ctx context.Context, incidentID uuid.UUID, at time.Time) error {
	const op string = "repo.incident.resolve"

	tag, err := r.pool.Exec(ctx, resolveIncidentQuery, utils.ToPgUUID(incidentID), utils.ToPgTimestamptz(at))
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return utils.WrapRepoError(op, pgx.ErrNoRows, true, r.logger)
	}
	return nil
}

const listByOrganizationQuery = `
SELECT id, organization_id, service_id, monitor_id, title, description,
       severity, status, auto_created, auto_resolved, created_at, updated_at, resolved_at
FROM incidents
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int32) ([]Incident, error) {
	const op string = "repo.incident.list_by_organization"

	rows, err := r.pool.Query(ctx, listByOrganizationQuery, utils.ToPgUUID(orgID), limit, offset)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var incidents []Incident
	for rows.Next() {
		inc, err := r.scanIncident(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return incidents, nil
}

func (r *Repository) scanIncident(row pgx.Row) (Incident, error) {
	var (
		inc                  Incident
		id, orgID            pgtype.UUID
		svcID, monID         pgtype.UUID
		severity, status     string
		createdAt, updatedAt pgtype.Timestamptz
		resolvedAt           pgtype.Timestamptz
	)

	if err := row.Scan(
		&id, &orgID, &svcID, &monID, &inc.Title, &inc.Description,
		&severity, &status, &inc.AutoCreated, &inc.AutoResolved,
		&createdAt, &updatedAt, &resolvedAt,
	); err != nil {
		return Incident{}, err
	}

	inc.ID = utils.FromPgUUID(id)
	inc.OrganizationID = utils.FromPgUUID(orgID)
	inc.ServiceID = utils.FromPgUUID(svcID)
	inc.MonitorID = utils.FromPgUUID(monID)
	inc.Severity = Severity(severity)
	inc.Status = Status(status)
	inc.CreatedAt = utils.FromPgTimestamptz(createdAt)
	inc.UpdatedAt = utils.FromPgTimestamptz(updatedAt)
	inc.ResolvedAt = utils.FromPgTimestamptzPtr(resolvedAt)

	return inc, nil
}
