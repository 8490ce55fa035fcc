package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

func (s *Server) registerGroupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createGroup",
		Method:      http.MethodPost,
		Path:        "/api/v1/groups",
		Summary:     "Create group",
		Description: "Creates a group with the caller as creator and sole member.",
		Tags:        []string{"Groups"},
	}, s.handleCreateGroup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyGroups",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups",
		Summary:     "List my groups",
		Description: "Returns the groups the caller belongs to.",
		Tags:        []string{"Groups"},
	}, s.handleListMyGroups)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGroup",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups/{id}",
		Summary:     "Get group",
		Description: "Returns the group. Members only.",
		Tags:        []string{"Groups"},
	}, s.handleGetGroup)

	huma.Register(s.api, huma.Operation{
		OperationID: "addGroupMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/groups/{id}/members/{userId}",
		Summary:     "Add group member",
		Description: "Invites a user into the group. Any member may invite; the invitee is notified.",
		Tags:        []string{"Groups"},
	}, s.handleAddGroupMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeGroupMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/groups/{id}/members/{userId}",
		Summary:     "Remove group member",
		Description: "Removes a member. Members may remove themselves; the creator may remove anyone but is unremovable.",
		Tags:        []string{"Groups"},
	}, s.handleRemoveGroupMember)
}

// CreateGroupRequest is the request body for creating a group.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=256" doc:"Group name"`
	Description string `json:"description,omitempty" validate:"max=4096" doc:"Description text"`
}

// CreateGroupInput wraps the create request for Huma.
type CreateGroupInput struct {
	Body CreateGroupRequest
}

// GroupIDInput identifies a group by path.
type GroupIDInput struct {
	ID string `path:"id" doc:"Group ID"`
}

// GroupMemberInput identifies a membership on a group.
type GroupMemberInput struct {
	ID     string `path:"id" doc:"Group ID"`
	UserID string `path:"userId" doc:"Member user ID"`
}

// GroupOutput wraps a single group for Huma.
type GroupOutput struct {
	Body *domain.Group
}

// GroupListOutput wraps a list of groups for Huma.
type GroupListOutput struct {
	Body []*domain.Group
}

func (s *Server) handleCreateGroup(ctx context.Context, input *CreateGroupInput) (*GroupOutput, error) {
	group, err := s.services.Group.Create(ctx, getSession(ctx), service.CreateGroupRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: group}, nil
}

func (s *Server) handleListMyGroups(ctx context.Context, _ *struct{}) (*GroupListOutput, error) {
	groups, err := s.services.Group.ListMine(ctx, getSession(ctx))
	if err != nil {
		return nil, err
	}
	return &GroupListOutput{Body: groups}, nil
}

func (s *Server) handleGetGroup(ctx context.Context, input *GroupIDInput) (*GroupOutput, error) {
	group, err := s.services.Group.Get(ctx, getSession(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: group}, nil
}

func (s *Server) handleAddGroupMember(ctx context.Context, input *GroupMemberInput) (*GroupOutput, error) {
	group, err := s.services.Group.AddMember(ctx, getSession(ctx), input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: group}, nil
}

func (s *Server) handleRemoveGroupMember(ctx context.Context, input *GroupMemberInput) (*GroupOutput, error) {
	group, err := s.services.Group.RemoveMember(ctx, getSession(ctx), input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: group}, nil
}
