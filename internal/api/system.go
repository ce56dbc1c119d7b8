package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/luffyplayer/internal/api/models"
	"github.com/smazurov/luffyplayer/internal/provision"
)

// registerSystemRoutes exposes the installation checks of the check command.
func (s *Server) registerSystemRoutes() {
	plan := s.options.CheckPlan
	if plan == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "run-checks",
		Method:      http.MethodGet,
		Path:        "/api/system/checks",
		Summary:     "Installation Checks",
		Description: "Verify boot overlays, ALSA routing and the systemd unit",
		Tags:        []string{"system"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.ChecksResponse, error) {
		var units provision.UnitStateReader
		if s.options.SystemdManager != nil {
			units = s.options.SystemdManager
		}
		results := provision.RunChecks(ctx, *plan, units)
		return &models.ChecksResponse{
			Body: models.ChecksData{
				Passed: !provision.Failed(results),
				Checks: results,
			},
		}, nil
	})
}

func (s *Server) registerSystemdRoutes() {
	manager := s.options.SystemdManager
	if manager == nil {
		return
	}
	serviceName := s.options.ServiceName

	huma.Register(s.api, huma.Operation{
		OperationID: "get-service-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/status",
		Summary:     "Service Status",
		Description: "Get the player's systemd unit state",
		Tags:        []string{"systemd"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := manager.GetServiceStatus(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		enabled, err := manager.UnitFileState(ctx, serviceName)
		if err != nil {
			s.logger.Debug("Unit file state unavailable", "service", serviceName, "error", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{
				Service: serviceName,
				Status:  status,
				Enabled: enabled,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-service",
		Method:      http.MethodPost,
		Path:        "/api/systemd/restart",
		Summary:     "Restart Service",
		Description: "Restart the player's systemd unit. The response may be cut off when the API runs inside it.",
		Tags:        []string{"systemd"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		if err := manager.RestartService(ctx, serviceName); err != nil {
			return nil, huma.Error500InternalServerError("Failed to restart service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "restart",
				Success: true,
			},
		}, nil
	})
}
