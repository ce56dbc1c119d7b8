package models

import "github.com/smazurov/luffyplayer/internal/provision"

// SystemdServiceStatus contains the status information for a systemd service.
type SystemdServiceStatus struct {
	Service string `json:"service" example:"luffy-player.service" doc:"Unit name"`
	Status  string `json:"status" example:"active" doc:"Service status (active, inactive, failed, etc.)"`
	Enabled string `json:"enabled,omitempty" example:"enabled" doc:"Unit file state"`
}

// SystemdServiceStatusResponse wraps SystemdServiceStatus for API responses.
type SystemdServiceStatusResponse struct {
	Body SystemdServiceStatus
}

// SystemdServiceAction contains the result of a systemd service action.
type SystemdServiceAction struct {
	Service string `json:"service" example:"luffy-player.service" doc:"Unit name"`
	Action  string `json:"action" example:"restart" doc:"Action performed"`
	Success bool   `json:"success" example:"true" doc:"Whether the action succeeded"`
}

// SystemdServiceActionResponse wraps SystemdServiceAction for API responses.
type SystemdServiceActionResponse struct {
	Body SystemdServiceAction
}

// ChecksData is the outcome of the installation checks.
type ChecksData struct {
	Passed bool                    `json:"passed" doc:"No check failed"`
	Checks []provision.CheckResult `json:"checks" doc:"Individual checks"`
}

// ChecksResponse wraps ChecksData for API responses.
type ChecksResponse struct {
	Body ChecksData
}
