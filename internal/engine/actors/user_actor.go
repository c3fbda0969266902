// internal/engine/actors/user_actor.go
package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"chat-hive/internal/database"
	"chat-hive/internal/models"
	"chat-hive/internal/types"
	"chat-hive/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for UserActor
type (
	RegisterUserMsg struct {
		Username string
		Name     string
		Email    string
		Password string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}

	UpdateProfileMsg struct {
		UserID    uuid.UUID
		Name      string
		Bio       string
		AvatarURL string
	}

	SetVisibilityMsg struct {
		UserID     uuid.UUID
		Visibility models.Visibility
	}

	SearchUsersMsg struct {
		UserID uuid.UUID
		Query  string
	}
)

// UserActor owns identity: registration, credentials, profile and the
// privacy setting that gates direct messages.
type UserActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewUserActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{store: store, metrics: metrics}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)
	case *SetVisibilityMsg:
		a.handleSetVisibility(context, msg)
	case *SearchUsersMsg:
		a.handleSearch(context, msg)
	}
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	username := strings.TrimSpace(msg.Username)
	email := strings.TrimSpace(msg.Email)
	if username == "" || email == "" || msg.Password == "" {
		context.Respond(utils.NewInvalidInputError("username, email and password are required"))
		return
	}

	if existing, _ := a.store.GetUserByEmail(ctx, email); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil))
		return
	}
	if existing, _ := a.store.GetUserByUsername(ctx, username); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "Username already taken", nil))
		return
	}

	hashedPassword, err := hashPassword(msg.Password)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = username
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		Visibility:     models.VisibilityPublic,
		LastSeen:       time.Now(),
		CreatedAt:      time.Now(),
	}

	if err := a.store.SaveUser(ctx, user); err != nil {
		slog.Error("Failed to save user", "error", err)
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to save user", err))
		return
	}

	slog.Info("User registered", "userId", user.ID, "username", user.Username)
	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	user, err := a.store.GetUserByEmail(ctx, msg.Email)
	if err != nil {
		context.Respond(&types.LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&types.LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	slog.Info("Login successful", "userId", user.ID, "username", user.Username)
	a.metrics.AddOperationLatency("login", time.Since(startTime))
	// Token issuance happens at the HTTP boundary where the signing
	// secret lives.
	context.Respond(&types.LoginResponse{Success: true, UserID: user.ID.String()})
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	user, err := a.store.GetUser(stdctx.Background(), msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch user"))
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	ctx := stdctx.Background()
	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch user"))
		return
	}

	if name := strings.TrimSpace(msg.Name); name != "" {
		user.Name = name
	}
	user.Bio = msg.Bio
	if msg.AvatarURL != "" {
		user.AvatarURL = msg.AvatarURL
	}

	if err := a.store.SaveUser(ctx, user); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update profile", err))
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleSetVisibility(context actor.Context, msg *SetVisibilityMsg) {
	if !msg.Visibility.Valid() {
		context.Respond(utils.NewInvalidInputError("visibility must be public or private"))
		return
	}
	if err := a.store.SetVisibility(stdctx.Background(), msg.UserID, msg.Visibility); err != nil {
		context.Respond(wrapStoreError(err, "Failed to update visibility"))
		return
	}
	slog.Info("Visibility updated", "userId", msg.UserID, "visibility", msg.Visibility)
	context.Respond(true)
}

func (a *UserActor) handleSearch(context actor.Context, msg *SearchUsersMsg) {
	users, err := a.store.SearchUsers(stdctx.Background(), msg.Query, msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Search failed", err))
		return
	}
	summaries := make([]models.Summary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, user.Summary())
	}
	context.Respond(summaries)
}

// wrapStoreError passes AppErrors through untouched and wraps anything
// else as a database failure.
func wrapStoreError(err error, message string) *utils.AppError {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr
	}
	return utils.NewAppError(utils.ErrDatabase, message, err)
}
