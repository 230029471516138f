package monitor

import "time"

type CreateMonitorRequest struct {
	ServiceID         string   `json:"serviceId" validate:"required,uuid"`
	Name              string   `json:"name" validate:"required,max=255"`
	URL               string   `json:"url" validate:"required,url"`
	Method            string   `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Interval          int32    `json:"interval" validate:"required,gte=10"`
	Type              string   `json:"type" validate:"omitempty,oneof=HTTP"`
	Headers           []Header `json:"headers" validate:"omitempty,dive"`
	Active            *bool    `json:"active"`
	DegradedThreshold int32    `json:"degradedThreshold" validate:"omitempty,gte=0"`
	Timeout           int32    `json:"timeout" validate:"omitempty,gte=0"`
}

type UpdateMonitorRequest struct {
	Name              *string  `json:"name" validate:"omitempty,max=255"`
	URL               *string  `json:"url" validate:"omitempty,url"`
	Method            *string  `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Interval          *int32   `json:"interval" validate:"omitempty,gte=10"`
	Type              *string  `json:"type" validate:"omitempty,oneof=HTTP"`
	Headers           []Header `json:"headers" validate:"omitempty,dive"`
	Active            *bool    `json:"active"`
	DegradedThreshold *int32   `json:"degradedThreshold" validate:"omitempty,gte=0"`
	Timeout           *int32   `json:"timeout" validate:"omitempty,gte=0"`
}

type MonitorResponse struct {
	ID                string    `json:"id"`
	ServiceID         string    `json:"serviceId"`
	ServiceName       string    `json:"serviceName,omitempty"`
	Name              string    `json:"name"`
	URL               string    `json:"url"`
	Method            string    `json:"method"`
	Headers           []Header  `json:"headers"`
	Type              string    `json:"type"`
	Interval          int32     `json:"interval"`
	Timeout           int32     `json:"timeout"`
	DegradedThreshold int32     `json:"degradedThreshold"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type LatestResultResponse struct {
	Status         string    `json:"status"`
	ResponseTimeMs *int64    `json:"responseTimeMs"`
	HTTPStatusCode *int      `json:"httpStatusCode"`
	CheckedAt      time.Time `json:"checkedAt"`
	Error          *string   `json:"error"`
}

type OrgMonitorResponse struct {
	MonitorResponse
	LatestResult *LatestResultResponse `json:"latestResult"`
}

type ResultResponse struct {
	MonitorID      string    `json:"monitorId"`
	Status         string    `json:"status"`
	ResponseTimeMs *int64    `json:"responseTimeMs"`
	HTTPStatusCode *int      `json:"httpStatusCode"`
	CheckedAt      time.Time `json:"checkedAt"`
	Error          *string   `json:"error"`
}

func toMonitorResponse(snap Snapshot) MonitorResponse {
	headers := snap.Headers
	if headers == nil {
		headers = []Header{}
	}

	return MonitorResponse{
		ID:                snap.ID.String(),
		ServiceID:         snap.ServiceID.String(),
		ServiceName:       snap.ServiceName,
		Name:              snap.Name,
		URL:               snap.URL,
		Method:            snap.Method,
		Headers:           headers,
		Type:              snap.Type,
		Interval:          snap.IntervalSec,
		Timeout:           snap.TimeoutMs,
		DegradedThreshold: snap.DegradedThresholdMs,
		Active:            snap.Active,
		CreatedAt:         snap.CreatedAt,
		UpdatedAt:         snap.UpdatedAt,
	}
}
