package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-hive/internal/database"
	"chat-hive/internal/engine"
	"chat-hive/internal/middleware"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := database.NewMemoryStore()
	metrics := utils.NewMetricsCollector()
	hub := websocket.NewHub(store)
	go hub.Run()

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, hub, metrics)
	return NewServer(system, eng, hub, store, metrics)
}

// call runs one request through the JWT middleware the way the router
// wires it in production.
func call(t *testing.T, handler http.HandlerFunc, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	middleware.ApplyJWTMiddleware(handler, path)(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func registerAndLogin(t *testing.T, s *Server, username, email, password string) (string, string) {
	t.Helper()
	var user userResponse
	w := call(t, s.HandleUserRegistration(), "POST", "/user/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &user)
	if w.Code != http.StatusCreated {
		t.Fatalf("registration failed for %s: %d %s", username, w.Code, w.Body.String())
	}

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	w = call(t, s.HandleUserLogin(), "POST", "/user/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &login)
	if w.Code != http.StatusOK || !login.Success {
		t.Fatalf("login failed for %s: %d %s", username, w.Code, w.Body.String())
	}
	return user.ID, login.Token
}

func TestIntegrationFlow(t *testing.T) {
	s := newTestServer(t)

	// Step 1: Register and log in two users
	aliceID, aliceToken := registerAndLogin(t, s, "alice", "alice@example.com", "password123")
	bobID, bobToken := registerAndLogin(t, s, "bob", "bob@example.com", "password456")
	t.Logf("Users created: alice=%s bob=%s", aliceID, bobID)

	// Step 2: Bad credentials are rejected
	var badLogin struct {
		Success bool `json:"success"`
	}
	w := call(t, s.HandleUserLogin(), "POST", "/user/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	json.Unmarshal(w.Body.Bytes(), &badLogin)
	assert.False(t, badLogin.Success)

	// Step 3: Protected routes need a token
	w = call(t, s.HandleListChats(), "GET", "/chat/list", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Step 4: Bob goes private
	w = call(t, s.HandleSetVisibility(), "PUT", "/user/visibility", bobToken, map[string]string{
		"visibility": "private",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Step 5: Alice cannot open a chat with him; the response names the
	// invite target
	w = call(t, s.HandleCreateDirectChat(), "POST", "/chat/direct", aliceToken, map[string]string{
		"userId": bobID,
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var gate struct {
		Code   string `json:"code"`
		Target string `json:"target"`
	}
	json.Unmarshal(w.Body.Bytes(), &gate)
	assert.Equal(t, utils.ErrRequiresInvite, gate.Code)
	assert.Equal(t, bobID, gate.Target)

	// Step 6: Alice sends a message invite and Bob accepts it
	var invite struct {
		ID string `json:"id"`
	}
	w = call(t, s.HandleCreateInvite(), "POST", "/invite", aliceToken, map[string]string{
		"userId": bobID,
		"kind":   "message",
		"note":   "hi, it's alice",
	}, &invite)
	assert.Equal(t, http.StatusCreated, w.Code)
	t.Logf("Invite created with ID: %s", invite.ID)

	var listing struct {
		Received []struct {
			ID string `json:"id"`
		} `json:"received"`
	}
	w = call(t, s.HandleListInvites(), "GET", "/invite/list", bobToken, nil, &listing)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listing.Received, 1)

	w = call(t, s.HandleAcceptInvite(), "POST", "/invite/accept", bobToken, map[string]string{
		"inviteId": invite.ID,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Step 7: The chat opens now
	var chat struct {
		ID string `json:"id"`
	}
	w = call(t, s.HandleCreateDirectChat(), "POST", "/chat/direct", aliceToken, map[string]string{
		"userId": bobID,
	}, &chat)
	assert.Equal(t, http.StatusOK, w.Code)
	t.Logf("Direct chat created with ID: %s", chat.ID)

	// Step 8: Alice sends, Bob reads
	var sent struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	w = call(t, s.HandleSendMessage(), "POST", "/message/send", aliceToken, map[string]string{
		"chatId":  chat.ID,
		"content": "hello bob",
	}, &sent)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hello bob", sent.Content)

	var messages []struct {
		Content string `json:"content"`
		Sender  struct {
			Username string `json:"username"`
		} `json:"sender"`
	}
	w = call(t, s.HandleListMessages(), "GET", "/message/list?chatId="+chat.ID, bobToken, nil, &messages)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, messages, 1)
	assert.Equal(t, "alice", messages[0].Sender.Username)

	var marked struct {
		Updated int64 `json:"updated"`
	}
	w = call(t, s.HandleMarkChatRead(), "POST", "/message/read", bobToken, map[string]string{
		"chatId": chat.ID,
	}, &marked)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), marked.Updated)

	// Step 9: The chat shows up on both conversation lists
	var views []struct {
		ID            string `json:"id"`
		LatestMessage *struct {
			Content string `json:"content"`
		} `json:"latestMessage"`
	}
	w = call(t, s.HandleListChats(), "GET", "/chat/list", bobToken, nil, &views)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, views, 1)
	assert.Equal(t, chat.ID, views[0].ID)
	if assert.NotNil(t, views[0].LatestMessage) {
		assert.Equal(t, "hello bob", views[0].LatestMessage.Content)
	}

	// Step 10: Health reflects the traffic
	var health struct {
		Status   string `json:"status"`
		Users    int64  `json:"users"`
		Messages int64  `json:"messages"`
	}
	w = call(t, s.HandleHealth(), "GET", "/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, int64(2), health.Users)
	assert.Equal(t, int64(1), health.Messages)
}

func TestFriendAddFlow(t *testing.T) {
	s := newTestServer(t)

	aliceID, aliceToken := registerAndLogin(t, s, "alice", "alice@example.com", "password123")
	bobID, bobToken := registerAndLogin(t, s, "bob", "bob@example.com", "password456")
	t.Logf("Users created: alice=%s bob=%s", aliceID, bobID)

	// Step 1: A private non-friend is gated
	w := call(t, s.HandleSetVisibility(), "PUT", "/user/visibility", bobToken, map[string]string{
		"visibility": "private",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, s.HandleCreateDirectChat(), "POST", "/chat/direct", aliceToken, map[string]string{
		"userId": bobID,
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Step 2: Adding the friend lifts the gate
	var added struct {
		Success bool `json:"success"`
	}
	w = call(t, s.HandleAddFriend(), "POST", "/user/friend/add", aliceToken, map[string]string{
		"userId": bobID,
	}, &added)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, added.Success)

	w = call(t, s.HandleCreateDirectChat(), "POST", "/chat/direct", aliceToken, map[string]string{
		"userId": bobID,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Step 3: Removing it from Alice's side re-raises the gate for her
	w = call(t, s.HandleRemoveFriend(), "POST", "/user/friend/remove", bobToken, map[string]string{
		"userId": aliceID,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, s.HandleCreateDirectChat(), "POST", "/chat/direct", aliceToken, map[string]string{
		"userId": bobID,
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGroupFlow(t *testing.T) {
	s := newTestServer(t)

	adminID, adminToken := registerAndLogin(t, s, "admin", "admin@example.com", "password123")
	memberID, memberToken := registerAndLogin(t, s, "member", "member@example.com", "password456")
	t.Logf("Users created: admin=%s member=%s", adminID, memberID)

	// Step 1: Admin creates the group with the member in it
	var group struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		IsGroup bool     `json:"isGroup"`
		Admins  []string `json:"admins"`
	}
	w := call(t, s.HandleCreateGroupChat(), "POST", "/chat/group", adminToken, map[string]interface{}{
		"name":      "book club",
		"memberIds": []string{memberID},
	}, &group)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, group.IsGroup)
	assert.Equal(t, []string{adminID}, group.Admins)

	// Step 2: Settings are admin-gated
	w = call(t, s.HandleRenameChat(), "POST", "/chat/rename", memberToken, map[string]string{
		"chatId": group.ID,
		"name":   "my club",
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, s.HandleRenameChat(), "POST", "/chat/rename", adminToken, map[string]string{
		"chatId": group.ID,
		"name":   "film club",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Step 3: The member can post
	w = call(t, s.HandleSendMessage(), "POST", "/message/send", memberToken, map[string]string{
		"chatId":  group.ID,
		"content": "first!",
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Step 4: When the last admin leaves, the group archives and rejects
	// new messages from the remaining members
	w = call(t, s.HandleLeaveChat(), "POST", "/chat/leave", adminToken, map[string]string{
		"chatId": group.ID,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, s.HandleSendMessage(), "POST", "/message/send", memberToken, map[string]string{
		"chatId":  group.ID,
		"content": "anyone?",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
