package actors

import (
	"testing"

	"chat-hive/internal/models"
	"chat-hive/internal/types"
	"chat-hive/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserRegistration(t *testing.T) {
	env := newTestEnv(t)

	// Step 1: Register a new user
	result := env.ask(env.users, &RegisterUserMsg{
		Username: "alice",
		Email:    "alice@test.com",
		Password: "password123",
	})

	user, ok := result.(*models.User)
	if !ok {
		t.Fatalf("expected *models.User, got %T", result)
	}
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice", user.Name) // defaults to username
	assert.Equal(t, models.VisibilityPublic, user.Visibility)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEmpty(t, user.HashedPassword)
	assert.NotEqual(t, "password123", user.HashedPassword)

	// Step 2: Duplicate email is rejected
	appErr := env.askErr(env.users, &RegisterUserMsg{
		Username: "alice2",
		Email:    "alice@test.com",
		Password: "password123",
	})
	assert.Equal(t, utils.ErrDuplicate, appErr.Code)

	// Step 3: Duplicate username is rejected
	appErr = env.askErr(env.users, &RegisterUserMsg{
		Username: "alice",
		Email:    "alice2@test.com",
		Password: "password123",
	})
	assert.Equal(t, utils.ErrDuplicate, appErr.Code)
}

func TestUserRegistrationValidation(t *testing.T) {
	env := newTestEnv(t)

	appErr := env.askErr(env.users, &RegisterUserMsg{
		Username: "  ",
		Email:    "blank@test.com",
		Password: "password123",
	})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	appErr = env.askErr(env.users, &RegisterUserMsg{
		Username: "bob",
		Email:    "bob@test.com",
		Password: "",
	})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestUserLogin(t *testing.T) {
	env := newTestEnv(t)

	registered := env.ask(env.users, &RegisterUserMsg{
		Username: "carol",
		Email:    "carol@test.com",
		Password: "secret456",
	})
	user, ok := registered.(*models.User)
	if !ok {
		t.Fatalf("expected *models.User, got %T", registered)
	}

	// Step 1: Correct credentials succeed; the actor names the user, the
	// HTTP layer mints the token.
	result := env.ask(env.users, &LoginMsg{Email: "carol@test.com", Password: "secret456"})
	login, ok := result.(*types.LoginResponse)
	if !ok {
		t.Fatalf("expected *types.LoginResponse, got %T", result)
	}
	assert.True(t, login.Success)
	assert.Equal(t, user.ID.String(), login.UserID)
	assert.Empty(t, login.Token)

	// Step 2: Wrong password fails without leaking which part was wrong
	result = env.ask(env.users, &LoginMsg{Email: "carol@test.com", Password: "wrong"})
	login = result.(*types.LoginResponse)
	assert.False(t, login.Success)
	assert.Equal(t, "Invalid credentials", login.Error)

	// Step 3: Unknown email fails the same way
	result = env.ask(env.users, &LoginMsg{Email: "nobody@test.com", Password: "secret456"})
	login = result.(*types.LoginResponse)
	assert.False(t, login.Success)
	assert.Equal(t, "Invalid credentials", login.Error)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("dave")

	result := env.ask(env.users, &UpdateProfileMsg{
		UserID:    user.ID,
		Name:      "Dave D",
		Bio:       "hello",
		AvatarURL: "https://cdn.test/dave.png",
	})
	updated, ok := result.(*models.User)
	if !ok {
		t.Fatalf("expected *models.User, got %T", result)
	}
	assert.Equal(t, "Dave D", updated.Name)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "https://cdn.test/dave.png", updated.AvatarURL)

	// Blank name keeps the old one; blank bio clears it.
	result = env.ask(env.users, &UpdateProfileMsg{UserID: user.ID, Name: "  ", Bio: ""})
	updated = result.(*models.User)
	assert.Equal(t, "Dave D", updated.Name)
	assert.Empty(t, updated.Bio)
}

func TestSetVisibility(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("erin")

	result := env.ask(env.users, &SetVisibilityMsg{UserID: user.ID, Visibility: models.VisibilityPrivate})
	assert.Equal(t, true, result)
	assert.Equal(t, models.VisibilityPrivate, env.freshUser(user.ID).Visibility)

	appErr := env.askErr(env.users, &SetVisibilityMsg{UserID: user.ID, Visibility: "invisible"})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	env := newTestEnv(t)
	caller := env.seedUser("frank")
	env.seedUser("franny")
	env.seedUser("george")

	result := env.ask(env.users, &SearchUsersMsg{UserID: caller.ID, Query: "fran"})
	summaries, ok := result.([]models.Summary)
	if !ok {
		t.Fatalf("expected []models.Summary, got %T", result)
	}
	assert.Len(t, summaries, 1)
	assert.Equal(t, "franny", summaries[0].Username)
}
