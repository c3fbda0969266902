// internal/handlers/invite_handlers.go
package handlers

import (
	"net/http"

	"chat-hive/internal/engine/actors"
	"chat-hive/internal/models"

	"github.com/google/uuid"
)

// CreateInviteRequest represents a request to create an invite
type CreateInviteRequest struct {
	UserID  string `json:"userId"`
	Kind    string `json:"kind"`
	GroupID string `json:"groupId,omitempty"`
	Note    string `json:"note,omitempty"`
}

// HandleCreateInvite creates a message or group invite
func (s *Server) HandleCreateInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req CreateInviteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		toID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid userId format", http.StatusBadRequest)
			return
		}

		var groupID *uuid.UUID
		if req.GroupID != "" {
			parsed, err := uuid.Parse(req.GroupID)
			if err != nil {
				http.Error(w, "Invalid groupId format", http.StatusBadRequest)
				return
			}
			groupID = &parsed
		}

		result, appErr := s.request(s.Engine.GetInviteActor(), &actors.CreateInviteMsg{
			FromID:  userID,
			ToID:    toID,
			Kind:    models.InviteKind(req.Kind),
			GroupID: groupID,
			Note:    req.Note,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusCreated, result)
	}
}

// inviteResolution is the shared handler shape for accept/decline/read.
func (s *Server) inviteResolution(build func(inviteID, userID uuid.UUID) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req struct {
			InviteID string `json:"inviteId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		inviteID, err := uuid.Parse(req.InviteID)
		if err != nil {
			http.Error(w, "Invalid inviteId format", http.StatusBadRequest)
			return
		}

		result, appErr := s.request(s.Engine.GetInviteActor(), build(inviteID, userID))
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandleAcceptInvite accepts a pending invite addressed to the caller
func (s *Server) HandleAcceptInvite() http.HandlerFunc {
	return s.inviteResolution(func(inviteID, userID uuid.UUID) interface{} {
		return &actors.AcceptInviteMsg{InviteID: inviteID, UserID: userID}
	})
}

// HandleDeclineInvite declines a pending invite addressed to the caller
func (s *Server) HandleDeclineInvite() http.HandlerFunc {
	return s.inviteResolution(func(inviteID, userID uuid.UUID) interface{} {
		return &actors.DeclineInviteMsg{InviteID: inviteID, UserID: userID}
	})
}

// HandleMarkInviteRead marks an invite as seen by its recipient
func (s *Server) HandleMarkInviteRead() http.HandlerFunc {
	return s.inviteResolution(func(inviteID, userID uuid.UUID) interface{} {
		return &actors.MarkInviteReadMsg{InviteID: inviteID, UserID: userID}
	})
}

// HandleListInvites returns the caller's pending invites, both directions
func (s *Server) HandleListInvites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		result, appErr := s.request(s.Engine.GetInviteActor(), &actors.ListInvitesMsg{UserID: userID})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}
