// internal/handlers/user_handlers.go
package handlers

import (
	"log/slog"
	"net/http"

	"chat-hive/internal/engine/actors"
	"chat-hive/internal/middleware"
	"chat-hive/internal/models"
	"chat-hive/internal/types"

	"github.com/google/uuid"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req RegisterUserRequest
		if !decodeBody(w, r, &req) {
			return
		}

		result, appErr := s.request(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusCreated, result)
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		result, appErr := s.request(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}

		loginResp, ok := result.(*types.LoginResponse)
		if !ok {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// Only mint a token when the credentials checked out.
		if loginResp.Success {
			userID, err := uuid.Parse(loginResp.UserID)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			token, err := middleware.GenerateToken(userID)
			if err != nil {
				slog.Error("Failed to generate auth token", "error", err)
				http.Error(w, "Failed to generate auth token", http.StatusInternalServerError)
				return
			}
			loginResp.Token = token
		}

		status := http.StatusOK
		if !loginResp.Success {
			status = http.StatusUnauthorized
		}
		s.respondJSON(w, status, loginResp)
	}
}

// HandleUserProfile handles requests to get a user's profile. Without a
// userId parameter it returns the authenticated user's own profile.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		targetID := userID
		if raw := r.URL.Query().Get("userId"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid userId format", http.StatusBadRequest)
				return
			}
			targetID = parsed
		}

		result, appErr := s.request(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: targetID})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		// Foreign profiles collapse to the public summary.
		if targetID != userID {
			s.respondJSON(w, http.StatusOK, user.Summary())
			return
		}
		s.respondJSON(w, http.StatusOK, user)
	}
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// HandleUpdateProfile handles profile edits for the authenticated user
func (s *Server) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPut) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if !decodeBody(w, r, &req) {
			return
		}

		result, appErr := s.request(s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
			UserID:    userID,
			Name:      req.Name,
			Bio:       req.Bio,
			AvatarURL: req.AvatarURL,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandleSetVisibility toggles the authenticated user's privacy setting
func (s *Server) HandleSetVisibility() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPut) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Visibility string `json:"visibility"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		_, appErr := s.request(s.Engine.GetUserActor(), &actors.SetVisibilityMsg{
			UserID:     userID,
			Visibility: models.Visibility(req.Visibility),
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"visibility": req.Visibility})
	}
}

// HandleUserSearch finds users by name or username substring
func (s *Server) HandleUserSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		result, appErr := s.request(s.Engine.GetUserActor(), &actors.SearchUsersMsg{
			UserID: userID,
			Query:  r.URL.Query().Get("q"),
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// relationshipHandler builds the shared POST handler shape for the
// block/unblock/friend endpoints.
func (s *Server) relationshipHandler(build func(userID, targetID uuid.UUID) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req struct {
			UserID string `json:"userId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		targetID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid userId format", http.StatusBadRequest)
			return
		}

		result, appErr := s.request(s.Engine.GetRelationshipActor(), build(userID, targetID))
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": result})
	}
}

// HandleBlockUser blocks another user for the authenticated user
func (s *Server) HandleBlockUser() http.HandlerFunc {
	return s.relationshipHandler(func(userID, targetID uuid.UUID) interface{} {
		return &actors.BlockUserMsg{UserID: userID, TargetID: targetID}
	})
}

// HandleUnblockUser lifts a block
func (s *Server) HandleUnblockUser() http.HandlerFunc {
	return s.relationshipHandler(func(userID, targetID uuid.UUID) interface{} {
		return &actors.UnblockUserMsg{UserID: userID, TargetID: targetID}
	})
}

// HandleAddFriend installs a mutual friendship with the target
func (s *Server) HandleAddFriend() http.HandlerFunc {
	return s.relationshipHandler(func(userID, targetID uuid.UUID) interface{} {
		return &actors.AddFriendMsg{UserID: userID, TargetID: targetID}
	})
}

// HandleRemoveFriend drops the target from the caller's friend list
func (s *Server) HandleRemoveFriend() http.HandlerFunc {
	return s.relationshipHandler(func(userID, targetID uuid.UUID) interface{} {
		return &actors.RemoveFriendMsg{UserID: userID, TargetID: targetID}
	})
}
