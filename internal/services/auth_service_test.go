package services

import (
	"context"
	"testing"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/utils"
	"tiyeni/pkg/authn"
	"tiyeni/pkg/cache"
)

func newLocalAuth() (AuthService, *fakeStore) {
	store := newFakeStore()
	deps := Deps{Clock: fixedClock, Timeout: time.Second}
	return NewAuthService(deps, fakeUserRepo{store}, cache.NewMemoryCache(), nil, AuthConfig{JWTSecret: "test-secret"}), store
}

func TestLocalSignUpSignInAuthenticate(t *testing.T) {
	auth, store := newLocalAuth()
	ctx := context.Background()

	signup, err := auth.SignUp(ctx, &SignUpRequest{FullName: "Thoko Phiri", Email: "Thoko@Example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if signup.Token == nil || signup.User.Email != "thoko@example.com" {
		t.Fatalf("signup = %+v", signup)
	}
	if stored := store.users[signup.User.UID]; stored.PasswordHash == "" || stored.PasswordHash == "secret123" {
		t.Fatalf("password not hashed")
	}

	if _, err := auth.SignIn(ctx, &SignInRequest{Email: "thoko@example.com", Password: "wrong"}); !utils.HasCode(err, utils.CodeAuthRequired) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, err := auth.SignIn(ctx, &SignInRequest{Email: "nobody@example.com", Password: "secret123"}); !utils.HasCode(err, utils.CodeAuthRequired) {
		t.Fatalf("unknown email: err = %v", err)
	}

	signin, err := auth.SignIn(ctx, &SignInRequest{Email: "THOKO@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	session, err := auth.Authenticate(ctx, signin.Token.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if session.UID != signup.User.UID || session.Role != models.UserRolePassenger || session.TokenID == "" {
		t.Fatalf("session = %+v", session)
	}
}

func TestLocalSignUpDuplicateEmail(t *testing.T) {
	auth, _ := newLocalAuth()
	ctx := context.Background()
	request := &SignUpRequest{FullName: "A", Email: "a@example.com", Password: "secret123"}

	if _, err := auth.SignUp(ctx, request); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := auth.SignUp(ctx, request); !utils.HasCode(err, utils.CodeConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	auth, _ := newLocalAuth()

	for _, request := range []*SignUpRequest{
		{FullName: "", Email: "a@example.com", Password: "secret123"},
		{FullName: "A", Email: "not-an-email", Password: "secret123"},
		{FullName: "A", Email: "a@example.com", Password: "123"},
	} {
		if _, err := auth.SignUp(context.Background(), request); !utils.HasCode(err, utils.CodeValidation) {
			t.Fatalf("SignUp(%+v) err = %v", request, err)
		}
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	auth, _ := newLocalAuth()
	ctx := context.Background()

	resp, _ := auth.SignUp(ctx, &SignUpRequest{FullName: "A", Email: "a@example.com", Password: "secret123"})
	session, err := auth.Authenticate(ctx, resp.Token.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := auth.SignOut(ctx, session); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := auth.Authenticate(ctx, resp.Token.AccessToken); !utils.HasCode(err, utils.CodeAuthRequired) {
		t.Fatalf("revoked token accepted: err = %v", err)
	}
	if err := auth.SignOut(ctx, nil); !utils.HasCode(err, utils.CodeAuthRequired) {
		t.Fatalf("SignOut(nil) err = %v", err)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	auth, _ := newLocalAuth()

	other, _ := utils.GenerateToken("u1", "passenger", "u1@example.com", "another-secret", time.Hour)
	for _, token := range []string{"", "garbage", other.AccessToken} {
		if _, err := auth.Authenticate(context.Background(), token); !utils.HasCode(err, utils.CodeAuthRequired) {
			t.Fatalf("Authenticate(%q) err = %v", token, err)
		}
	}
}

func TestOnAuthStateChanged(t *testing.T) {
	auth, _ := newLocalAuth()
	ctx := context.Background()

	resp, _ := auth.SignUp(ctx, &SignUpRequest{FullName: "A", Email: "a@example.com", Password: "secret123"})
	uid := resp.User.UID

	var states []*models.Session
	unsubscribe := auth.OnAuthStateChanged(uid, func(s *models.Session) {
		states = append(states, s)
	})

	if len(states) != 1 || states[0] == nil || states[0].UID != uid {
		t.Fatalf("initial state not delivered: %v", states)
	}

	session, _ := auth.Authenticate(ctx, resp.Token.AccessToken)
	_ = auth.SignOut(ctx, session)
	if len(states) != 2 || states[1] != nil {
		t.Fatalf("sign-out not delivered: %v", states)
	}

	unsubscribe()
	unsubscribe()
	_, _ = auth.SignIn(ctx, &SignInRequest{Email: "a@example.com", Password: "secret123"})
	if len(states) != 2 {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestOnAuthStateChangedSignedOut(t *testing.T) {
	auth, _ := newLocalAuth()

	var got []*models.Session
	unsubscribe := auth.OnAuthStateChanged("nobody", func(s *models.Session) { got = append(got, s) })
	defer unsubscribe()

	if len(got) != 1 || got[0] != nil {
		t.Fatalf("initial state = %v, want a single nil", got)
	}
}

type fakeIdentityProvider struct {
	users   map[string]string
	revoked []string
}

func (p *fakeIdentityProvider) CreateUser(_ context.Context, email, _, _ string) (string, error) {
	for _, existing := range p.users {
		if existing == email {
			return "", authn.ErrEmailExists
		}
	}
	uid := "fb-" + email
	p.users[uid] = email
	return uid, nil
}

func (p *fakeIdentityProvider) VerifyIDToken(_ context.Context, idToken string) (*authn.Identity, error) {
	email, ok := p.users[idToken]
	if !ok {
		return nil, authn.ErrInvalidToken
	}
	return &authn.Identity{UID: idToken, Email: email}, nil
}

func (p *fakeIdentityProvider) RevokeTokens(_ context.Context, uid string) error {
	p.revoked = append(p.revoked, uid)
	return nil
}

func TestProviderAuth(t *testing.T) {
	store := newFakeStore()
	provider := &fakeIdentityProvider{users: map[string]string{}}
	auth := NewAuthService(Deps{Clock: fixedClock}, fakeUserRepo{store}, nil, provider, AuthConfig{})
	ctx := context.Background()

	signup, err := auth.SignUp(ctx, &SignUpRequest{FullName: "A", Email: "a@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if signup.Token != nil || signup.User.UID != "fb-a@example.com" {
		t.Fatalf("signup = %+v", signup)
	}
	if _, err := auth.SignUp(ctx, &SignUpRequest{FullName: "B", Email: "a@example.com", Password: "secret123"}); !utils.HasCode(err, utils.CodeConflict) {
		t.Fatalf("duplicate provider email: err = %v", err)
	}

	// The provider's ID token doubles as the bearer token.
	session, err := auth.Authenticate(ctx, signup.User.UID)
	if err != nil || session.UID != signup.User.UID {
		t.Fatalf("Authenticate: %v", err)
	}
	if _, err := auth.Authenticate(ctx, "forged"); !utils.HasCode(err, utils.CodeAuthRequired) {
		t.Fatalf("forged token: err = %v", err)
	}

	// Accounts created directly with the provider get a profile on first use.
	provider.users["fb-new"] = "new@example.com"
	if _, err := auth.SignIn(ctx, &SignInRequest{IDToken: "fb-new"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, ok := store.users["fb-new"]; !ok {
		t.Fatalf("profile not created for provider account")
	}

	if err := auth.SignOut(ctx, session); err != nil || len(provider.revoked) != 1 {
		t.Fatalf("SignOut: %v, revoked = %v", err, provider.revoked)
	}
}
