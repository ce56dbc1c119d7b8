package models

import "github.com/smazurov/luffyplayer/internal/player"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Player models
type PlayerStatusResponse struct {
	Body player.Status
}

type VolumeRequest struct {
	Body struct {
		Delta  *int `json:"delta,omitempty" example:"5" doc:"Relative change, clamped to 0-100"`
		Volume *int `json:"volume,omitempty" minimum:"0" maximum:"100" example:"60" doc:"Absolute volume, wins over delta"`
	}
}

type TrackListData struct {
	Tracks []string `json:"tracks" doc:"Track file names in play order"`
	Count  int      `json:"count" example:"12" doc:"Number of tracks"`
}

type TrackListResponse struct {
	Body TrackListData
}
