package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerInstanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getInstance",
		Method:      http.MethodGet,
		Path:        "/api/v1/instance",
		Summary:     "Instance info",
		Description: "Returns instance metadata for client discovery. Public.",
		Tags:        []string{"Instance"},
	}, s.handleGetInstance)
}

// InstanceResponse contains instance metadata in API responses.
type InstanceResponse struct {
	Name        string `json:"name" doc:"Instance display name"`
	Version     string `json:"version" doc:"Server release version"`
	Environment string `json:"environment" doc:"Deployment environment"`
	UserCount   int    `json:"user_count" doc:"Registered account count"`
}

// InstanceOutput wraps the instance response for Huma.
type InstanceOutput struct {
	Body InstanceResponse
}

func (s *Server) handleGetInstance(ctx context.Context, _ *struct{}) (*InstanceOutput, error) {
	info, err := s.services.Instance.Info(ctx)
	if err != nil {
		return nil, err
	}

	return &InstanceOutput{
		Body: InstanceResponse{
			Name:        info.Name,
			Version:     info.Version,
			Environment: info.Environment,
			UserCount:   info.UserCount,
		},
	}, nil
}
