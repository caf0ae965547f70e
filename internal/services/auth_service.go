package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/internal/utils"
	"tiyeni/pkg/authn"
	"tiyeni/pkg/cache"
)

type AuthService interface {
	SignUp(ctx context.Context, request *SignUpRequest) (*AuthResponse, error)
	SignIn(ctx context.Context, request *SignInRequest) (*AuthResponse, error)
	SignOut(ctx context.Context, session *models.Session) error
	// Authenticate resolves a bearer token to the signed-in session.
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	// OnAuthStateChanged calls fn with the uid's current session (nil when
	// signed out), then again on every sign-in or sign-out of that uid.
	OnAuthStateChanged(uid string, fn func(*models.Session)) (unsubscribe func())
}

// IdentityProvider is an external account system such as Firebase Auth.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*authn.Identity, error)
	RevokeTokens(ctx context.Context, uid string) error
}

type SignUpRequest struct {
	FullName string `json:"full_name" validate:"not_blank,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// SignInRequest carries a password for local accounts or an ID token issued
// by the identity provider.
type SignInRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	IDToken  string `json:"id_token"`
}

type AuthResponse struct {
	User  *models.User     `json:"user"`
	Token *utils.TokenPair `json:"token,omitempty"`
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type authService struct {
	Deps
	users    interfaces.UserRepository
	cache    cache.Cache
	provider IdentityProvider
	config   AuthConfig

	mu        sync.Mutex
	current   map[string]*models.Session
	listeners map[string]map[int]func(*models.Session)
	nextID    int
}

// NewAuthService issues its own JWTs when provider is nil and otherwise
// delegates credentials to provider.
func NewAuthService(deps Deps, users interfaces.UserRepository, c cache.Cache, provider IdentityProvider, config AuthConfig) AuthService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = utils.JWTAccessTokenTTL
	}
	return &authService{
		Deps:      deps.withDefaults(),
		users:     users,
		cache:     c,
		provider:  provider,
		config:    config,
		current:   make(map[string]*models.Session),
		listeners: make(map[string]map[int]func(*models.Session)),
	}
}

func (s *authService) SignUp(ctx context.Context, request *SignUpRequest) (*AuthResponse, error) {
	if err := validate(request); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(request.Email))

	ctx, cancel := s.backend(ctx)
	defer cancel()

	user := &models.User{
		FullName:  strings.TrimSpace(request.FullName),
		Email:     email,
		Role:      models.UserRolePassenger,
		CreatedAt: s.Clock(),
	}

	if s.provider != nil {
		uid, err := s.provider.CreateUser(ctx, email, request.Password, user.FullName)
		if errors.Is(err, authn.ErrEmailExists) {
			return nil, utils.NewConflictError(utils.ErrUserExists)
		}
		if err != nil {
			return nil, utils.NewBackendWriteError("failed to create account", err)
		}
		user.UID = uid
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.UID = uuid.NewString()
		user.PasswordHash = string(hash)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.NewConflictError(utils.ErrUserExists)
		}
		s.Logger.WithError(err).Error("failed to save user")
		return nil, utils.NewBackendWriteError("failed to create account", err)
	}
	s.Logger.WithUserID(user.UID).Info("user signed up")

	// Provider accounts sign in on the client with the provider SDK.
	if s.provider != nil {
		return &AuthResponse{User: user}, nil
	}
	return s.issue(user)
}

func (s *authService) SignIn(ctx context.Context, request *SignInRequest) (*AuthResponse, error) {
	if err := validate(request); err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	if s.provider != nil {
		return s.signInWithProvider(ctx, request.IDToken)
	}

	if request.Email == "" || request.Password == "" {
		return nil, utils.NewValidationError("email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(request.Email)))
	if errors.Is(err, interfaces.ErrNotFound) {
		s.Logger.LogSecurityEvent("sign_in_failed", "low", map[string]interface{}{"reason": "unknown_email"})
		return nil, utils.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, readError(err, utils.ErrInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)) != nil {
		s.Logger.LogSecurityEvent("sign_in_failed", "low", map[string]interface{}{"user_id": user.UID})
		return nil, utils.NewInvalidCredentialsError()
	}

	response, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.Logger.WithUserID(user.UID).Info("user signed in")
	return response, nil
}

func (s *authService) signInWithProvider(ctx context.Context, idToken string) (*AuthResponse, error) {
	if idToken == "" {
		return nil, utils.NewValidationError("id_token is required")
	}
	session, user, err := s.verifyProviderToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	s.setCurrent(session.UID, session)
	s.Logger.WithUserID(user.UID).Info("user signed in")
	return &AuthResponse{User: user}, nil
}

func (s *authService) verifyProviderToken(ctx context.Context, idToken string) (*models.Session, *models.User, error) {
	identity, err := s.provider.VerifyIDToken(ctx, idToken)
	if errors.Is(err, authn.ErrInvalidToken) {
		return nil, nil, utils.NewAuthRequiredError()
	}
	if err != nil {
		return nil, nil, utils.NewBackendReadError("failed to verify token", err)
	}

	user, err := s.users.GetByUID(ctx, identity.UID)
	if errors.Is(err, interfaces.ErrNotFound) {
		// Accounts created outside this API get a passenger profile on
		// first use.
		user = &models.User{
			UID:       identity.UID,
			Email:     strings.ToLower(identity.Email),
			Role:      models.UserRolePassenger,
			CreatedAt: s.Clock(),
		}
		if err := s.users.Create(ctx, user); err != nil && !errors.Is(err, interfaces.ErrDuplicate) {
			return nil, nil, utils.NewBackendWriteError("failed to create account", err)
		}
	} else if err != nil {
		return nil, nil, readError(err, utils.ErrInvalidCredentials)
	}

	return &models.Session{UID: user.UID, Email: user.Email, Role: user.Role}, user, nil
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateToken(user.UID, string(user.Role), user.Email, s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return nil, err
	}
	s.setCurrent(user.UID, &models.Session{UID: user.UID, Email: user.Email, Role: user.Role, ExpiresAt: token.ExpiresAt})
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *authService) SignOut(ctx context.Context, session *models.Session) error {
	if err := requireSession(session); err != nil {
		return err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	if s.provider != nil {
		if err := s.provider.RevokeTokens(ctx, session.UID); err != nil {
			return utils.NewBackendWriteError("failed to sign out", err)
		}
	} else if session.TokenID != "" {
		ttl := time.Until(session.ExpiresAt)
		if ttl <= 0 {
			ttl = s.config.TokenTTL
		}
		if err := s.cache.Set(ctx, revokedKey(session.TokenID), true, ttl); err != nil {
			return utils.NewBackendWriteError("failed to sign out", err)
		}
	}

	s.setCurrent(session.UID, nil)
	s.Logger.WithUserID(session.UID).Info("user signed out")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, utils.NewAuthRequiredError()
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	if s.provider != nil {
		session, _, err := s.verifyProviderToken(ctx, token)
		if err != nil {
			return nil, err
		}
		s.remember(session)
		return session, nil
	}

	claims, err := utils.ValidateToken(token, s.config.JWTSecret)
	if err != nil {
		return nil, utils.NewAuthRequiredError()
	}
	revoked, err := s.cache.Exists(ctx, revokedKey(claims.ID))
	if err != nil {
		return nil, utils.NewBackendReadError("failed to check token", err)
	}
	if revoked {
		return nil, utils.NewAuthRequiredError()
	}

	session := &models.Session{
		UID:     claims.UserID,
		Email:   claims.Email,
		Role:    models.UserRole(claims.UserType),
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	s.remember(session)
	return session, nil
}

func (s *authService) OnAuthStateChanged(uid string, fn func(*models.Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.listeners[uid] == nil {
		s.listeners[uid] = make(map[int]func(*models.Session))
	}
	s.listeners[uid][id] = fn
	current := s.current[uid]
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners[uid], id)
			if len(s.listeners[uid]) == 0 {
				delete(s.listeners, uid)
			}
		})
	}
}

func (s *authService) setCurrent(uid string, session *models.Session) {
	s.mu.Lock()
	if session == nil {
		delete(s.current, uid)
	} else {
		s.current[uid] = session
	}
	fns := make([]func(*models.Session), 0, len(s.listeners[uid]))
	for _, fn := range s.listeners[uid] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
}

// remember records a session seen on another path (a restart, another
// instance) without notifying listeners.
func (s *authService) remember(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current[session.UID] == nil {
		s.current[session.UID] = session
	}
}

func revokedKey(tokenID string) string {
	return "blacklist:" + tokenID
}
