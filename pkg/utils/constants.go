package utils

const (
	MonitorCreated  = "Monitor created successfully"
	MonitorFetched  = "Monitor fetched successfully"
	MonitorsFetched = "Monitors fetched successfully"
	MonitorUpdated  = "Monitor updated successfully"
	MonitorDeleted  = "Monitor deleted successfully"

	ResultsFetched   = "Monitoring results fetched successfully"
	IncidentsFetched = "Incidents fetched successfully"
)
