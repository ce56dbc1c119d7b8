package models

import "github.com/smazurov/luffyplayer/internal/updater"

// UpdateCheckResponse wraps updater.UpdateInfo for API responses.
type UpdateCheckResponse struct {
	Body updater.UpdateInfo
}

// UpdateStatusResponse wraps updater.Status for API responses.
type UpdateStatusResponse struct {
	Body updater.Status
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Body struct {
		Message string `json:"message" example:"Update applied, restarting..." doc:"Status message"`
	}
}

func NewMessage(msg string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = msg
	return resp
}
