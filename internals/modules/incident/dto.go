package incident

import "time"

type IncidentResponse struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	ServiceID      string     `json:"serviceId"`
	MonitorID      string     `json:"monitorId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Severity       string     `json:"severity"`
	Status         string     `json:"status"`
	AutoCreated    bool       `json:"autoCreated"`
	AutoResolved   bool       `json:"autoResolved"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ResolvedAt     *time.Time `json:"resolvedAt"`
}

func toIncidentResponse(inc Incident) IncidentResponse {
	return IncidentResponse{
		ID:             inc.ID.String(),
		OrganizationID: inc.OrganizationID.String(),
		ServiceID:      inc.ServiceID.String(),
		MonitorID:      inc.MonitorID.String(),
		Title:          inc.Title,
		Description:    inc.Description,
		Severity:       string(inc.Severity),
		Status:         string(inc.Status),
		AutoCreated:    inc.AutoCreated,
		AutoResolved:   inc.AutoResolved,
		CreatedAt:      inc.CreatedAt,
		UpdatedAt:      inc.UpdatedAt,
		ResolvedAt:     inc.ResolvedAt,
	}
}
