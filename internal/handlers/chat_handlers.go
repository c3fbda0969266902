// internal/handlers/chat_handlers.go
package handlers

import (
	"net/http"

	"chat-hive/internal/engine/actors"

	"github.com/google/uuid"
)

// HandleCreateDirectChat finds or creates the direct chat with another
// user. Both orders of the pair land on the same conversation.
func (s *Server) HandleCreateDirectChat() http.HandlerFunc {
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
		otherID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid userId format", http.StatusBadRequest)
			return
		}

		result, appErr := s.request(s.Engine.GetChatActor(), &actors.CreateDirectChatMsg{
			UserID:  userID,
			OtherID: otherID,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// CreateGroupRequest represents a request to create a group chat
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"memberIds"`
}

// HandleCreateGroupChat creates a group with the caller as first admin
func (s *Server) HandleCreateGroupChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req CreateGroupRequest
		if !decodeBody(w, r, &req) {
			return
		}

		memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
		for _, raw := range req.MemberIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid member ID format", http.StatusBadRequest)
				return
			}
			memberIDs = append(memberIDs, id)
		}

		result, appErr := s.request(s.Engine.GetChatActor(), &actors.CreateGroupChatMsg{
			CreatorID:   userID,
			Name:        req.Name,
			Description: req.Description,
			MemberIDs:   memberIDs,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusCreated, result)
	}
}

// HandleGetChat returns one chat the caller is a member of
func (s *Server) HandleGetChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		chatID, ok := queryUUID(w, r, "chatId")
		if !ok {
			return
		}

		result, appErr := s.request(s.Engine.GetChatActor(), &actors.GetChatMsg{
			ChatID: chatID,
			UserID: userID,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandleListChats returns the caller's visible conversations
func (s *Server) HandleListChats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		result, appErr := s.request(s.Engine.GetChatActor(), &actors.ListChatsMsg{UserID: userID})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// chatMutation is the shared shape of the settings and membership
// endpoints: POST with a chatId plus per-endpoint fields.
type chatMutation struct {
	ChatID      string `json:"chatId"`
	UserID      string `json:"userId,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"iconUrl,omitempty"`
	Muted       bool   `json:"muted,omitempty"`
}

func (s *Server) chatHandler(build func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req chatMutation
		if !decodeBody(w, r, &req) {
			return
		}
		chatID, err := uuid.Parse(req.ChatID)
		if err != nil {
			http.Error(w, "Invalid chatId format", http.StatusBadRequest)
			return
		}

		msg, ok := build(userID, chatID, &req)
		if !ok {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		result, appErr := s.request(s.Engine.GetChatActor(), msg)
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": result})
	}
}

// memberMsg parses the userId field every membership mutation carries.
func memberMsg(req *chatMutation) (uuid.UUID, bool) {
	id, err := uuid.Parse(req.UserID)
	return id, err == nil
}

// HandleRenameChat renames a group (admin only)
func (s *Server) HandleRenameChat() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.RenameChatMsg{ChatID: chatID, UserID: userID, Name: req.Name}, true
	})
}

// HandleSetChatDescription updates a group description (admin only)
func (s *Server) HandleSetChatDescription() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.SetChatDescriptionMsg{ChatID: chatID, UserID: userID, Description: req.Description}, true
	})
}

// HandleSetChatIcon updates a group icon (admin only)
func (s *Server) HandleSetChatIcon() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.SetChatIconMsg{ChatID: chatID, UserID: userID, IconURL: req.IconURL}, true
	})
}

// HandleAddChatMember adds a member to a group (admin only)
func (s *Server) HandleAddChatMember() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		memberID, ok := memberMsg(req)
		return &actors.AddChatMemberMsg{ChatID: chatID, UserID: userID, MemberID: memberID}, ok
	})
}

// HandleRemoveChatMember removes a member from a group (admin only)
func (s *Server) HandleRemoveChatMember() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		memberID, ok := memberMsg(req)
		return &actors.RemoveChatMemberMsg{ChatID: chatID, UserID: userID, MemberID: memberID}, ok
	})
}

// HandlePromoteAdmin grants admin to a member (admin only)
func (s *Server) HandlePromoteAdmin() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		memberID, ok := memberMsg(req)
		return &actors.PromoteAdminMsg{ChatID: chatID, UserID: userID, MemberID: memberID}, ok
	})
}

// HandleDemoteAdmin revokes admin from a member (admin only)
func (s *Server) HandleDemoteAdmin() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		memberID, ok := memberMsg(req)
		return &actors.DemoteAdminMsg{ChatID: chatID, UserID: userID, MemberID: memberID}, ok
	})
}

// HandleLeaveChat leaves a group, or hides a direct chat for the caller
func (s *Server) HandleLeaveChat() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.LeaveChatMsg{ChatID: chatID, UserID: userID}, true
	})
}

// HandleMuteChat toggles the caller's mute flag on a chat
func (s *Server) HandleMuteChat() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.MuteChatMsg{ChatID: chatID, UserID: userID, Muted: req.Muted}, true
	})
}

// HandleClearChat hides the chat's messages for the caller
func (s *Server) HandleClearChat() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.ClearChatMsg{ChatID: chatID, UserID: userID}, true
	})
}

// HandleDeleteChatForMe removes the chat from the caller's view
func (s *Server) HandleDeleteChatForMe() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.DeleteChatForMeMsg{ChatID: chatID, UserID: userID}, true
	})
}

// HandleDeleteGroupChat hard-deletes a group for everyone (admin only)
func (s *Server) HandleDeleteGroupChat() http.HandlerFunc {
	return s.chatHandler(func(userID, chatID uuid.UUID, req *chatMutation) (interface{}, bool) {
		return &actors.DeleteGroupChatMsg{ChatID: chatID, UserID: userID}, true
	})
}
