// internal/handlers/message_handlers.go
package handlers

import (
	"net/http"

	"chat-hive/internal/engine/actors"
	"chat-hive/internal/models"

	"github.com/google/uuid"
)

// SendMessageRequest represents a request to send a message into a chat
type SendMessageRequest struct {
	ChatID      string              `json:"chatId"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// HandleSendMessage runs the delivery pipeline for one message
func (s *Server) HandleSendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req SendMessageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		chatID, err := uuid.Parse(req.ChatID)
		if err != nil {
			http.Error(w, "Invalid chatId format", http.StatusBadRequest)
			return
		}

		result, appErr := s.request(s.Engine.GetMessageActor(), &actors.SendMessageMsg{
			SenderID:    userID,
			ChatID:      chatID,
			Content:     req.Content,
			Attachments: req.Attachments,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusCreated, result)
	}
}

// HandleListMessages returns the chat's messages visible to the caller
func (s *Server) HandleListMessages() http.HandlerFunc {
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

		result, appErr := s.request(s.Engine.GetMessageActor(), &actors.ListMessagesMsg{
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

// HandleMarkChatRead marks every unread message in the chat as read by
// the caller
func (s *Server) HandleMarkChatRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		var req struct {
			ChatID string `json:"chatId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		chatID, err := uuid.Parse(req.ChatID)
		if err != nil {
			http.Error(w, "Invalid chatId format", http.StatusBadRequest)
			return
		}

		result, appErr := s.request(s.Engine.GetMessageActor(), &actors.MarkChatReadMsg{
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

// HandleDeleteMessage deletes one of the caller's own messages
func (s *Server) HandleDeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodDelete) {
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}
		messageID, ok := queryUUID(w, r, "messageId")
		if !ok {
			return
		}

		result, appErr := s.request(s.Engine.GetMessageActor(), &actors.DeleteOwnMessageMsg{
			MessageID: messageID,
			UserID:    userID,
		})
		if appErr != nil {
			s.respondAppError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": result})
	}
}
