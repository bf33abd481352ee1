package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/framesense/agent/internal/auth"
)

// Account calls go to the backend; bound them so a dead network cannot pin a
// worker forever.
const authTimeout = 30 * time.Second

func init() {
	registerHandler(CmdLogin, handleLogin)
	registerHandler(CmdLogout, handleLogout)
	registerHandler(CmdVerifyToken, handleVerifyToken)
	registerHandler(CmdGetCurrentUser, handleGetCurrentUser)
	registerHandler(CmdGetAvailableModels, handleGetAvailableModels)
	registerHandler(CmdCanUseModel, handleCanUseModel)
}

func handleLogin(b *Bridge, cmd Command) Result {
	email := GetPayloadString(cmd.Payload, "email", "")
	password := GetPayloadString(cmd.Payload, "password", "")
	if email == "" || password == "" {
		return NewErrorResult(errors.New("email and password are required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	user, err := b.deps.Auth.Login(ctx, email, password)
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(user)
}

func handleLogout(b *Bridge, _ Command) Result {
	if err := b.deps.Auth.Logout(); err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(map[string]any{"loggedOut": true})
}

// handleVerifyToken refreshes the stored session from the backend, picking
// up tier changes after a plan upgrade.
func handleVerifyToken(b *Bridge, _ Command) Result {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	user, err := b.deps.Auth.RefreshUser(ctx)
	if err != nil {
		return NewErrorResult(err)
	}
	if user == nil {
		return NewErrorResult(auth.ErrNotLoggedIn)
	}
	return NewSuccessResult(user)
}

func handleGetCurrentUser(b *Bridge, _ Command) Result {
	user, err := b.deps.Auth.CurrentUser()
	if err != nil {
		return NewErrorResult(err)
	}
	// A logged-out state is data, not an error: the UI shows the login view.
	return NewSuccessResult(map[string]any{"user": user, "loggedIn": user != nil})
}

func handleGetAvailableModels(b *Bridge, cmd Command) Result {
	tier, err := b.resolveTier(cmd)
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(map[string]any{
		"tier":   tier,
		"models": auth.AvailableModels(tier),
	})
}

func handleCanUseModel(b *Bridge, cmd Command) Result {
	model := GetPayloadString(cmd.Payload, "model", "")
	if model == "" {
		return NewErrorResult(errors.New("model is required"))
	}
	tier, err := b.resolveTier(cmd)
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(map[string]any{
		"tier":    tier,
		"model":   model,
		"allowed": auth.CanUseModel(tier, model),
	})
}

// resolveTier takes the tier from the payload when given, otherwise from the
// stored session.
func (b *Bridge) resolveTier(cmd Command) (string, error) {
	if tier := GetPayloadString(cmd.Payload, "tier", ""); tier != "" {
		return tier, nil
	}
	user, err := b.deps.Auth.CurrentUser()
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", auth.ErrNotLoggedIn
	}
	return user.Tier, nil
}
