package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authsvc "stayhub/internal/app/services/auth"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "h:" + password, nil
}

func (plainHasher) Compare(hash, password string) error {
	if hash != "h:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type seqTokens struct {
	n int
}

func (g *seqTokens) NewToken() (string, error) {
	g.n++
	return fmt.Sprintf("tok-%d", g.n), nil
}

func newService() *authsvc.Service {
	return &authsvc.Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  plainHasher{},
		Tokens:     &seqTokens{},
		SessionTTL: time.Hour,
	}
}

func TestRegisterLoginResolveRoundTrip(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, authsvc.RegisterParams{
		Email:    "Guest@Example.com",
		Name:     "Guest",
		Password: "password1",
	})
	require.NoError(t, err)
	require.Equal(t, "guest@example.com", reg.User.Email)

	login, err := svc.Login(ctx, authsvc.LoginParams{Email: "guest@example.com", Password: "password1"})
	require.NoError(t, err)

	caller, err := svc.ResolveCaller(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, caller.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, authsvc.RegisterParams{
		Email:    "dup@example.com",
		Name:     "First",
		Password: "password1",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, authsvc.RegisterParams{
		Email:    "DUP@Example.com",
		Name:     "Second",
		Password: "password2",
	})
	require.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)

	// The surviving account still logs in with its own password.
	login, err := svc.Login(ctx, authsvc.LoginParams{Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)
	require.Equal(t, "First", login.User.Name)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, authsvc.RegisterParams{
		Email:    "guest@example.com",
		Name:     "Guest",
		Password: "password1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, authsvc.LoginParams{Email: "guest@example.com", Password: "nope-nope"})
	require.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
}
