package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/logging"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Principal is the authenticated caller attached to a request after token
// validation.
type Principal struct {
	UserID     int64
	Email      string
	Name       string
	Role       catalog.Role
	LocationID *int64
}

// Service authenticates operators and manages their sessions. Tokens are
// signed JWTs whose JTI is mirrored into the sessions table, so revocation
// takes effect immediately regardless of the token's expiry.
type Service struct {
	store  *catalog.Store
	logger *slog.Logger
	secret string
	ttl    time.Duration
	cost   int
}

// NewService constructs the identity service from configuration.
func NewService(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Service, error) {
	if cfg == nil || strings.TrimSpace(cfg.Identity.TokenSecret) == "" {
		return nil, errors.New("identity token secret is not configured")
	}
	ttl := 12 * time.Hour
	if cfg.Identity.SessionTTLHours > 0 {
		ttl = time.Duration(cfg.Identity.SessionTTLHours) * time.Hour
	}
	cost := cfg.Identity.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		store:  store,
		logger: logging.NewComponentLogger(logger, "identity"),
		secret: cfg.Identity.TokenSecret,
		ttl:    ttl,
		cost:   cost,
	}, nil
}

// Register creates an operator account with a hashed password.
func (s *Service) Register(ctx context.Context, user *catalog.User, password string) (*catalog.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if strings.TrimSpace(password) == "" {
		return nil, errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	created, err := s.store.NewUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered",
		logging.Int64(logging.FieldUserID, created.ID),
		logging.String("role", string(created.Role)))
	return created, nil
}

// Login verifies a password and issues a session token. Bad email and bad
// password return the same error so the endpoint does not leak which accounts
// exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Principal, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, jti, err := signToken(s.secret, user.ID, string(user.Role), s.ttl)
	if err != nil {
		return "", nil, err
	}
	session := &catalog.Session{
		TokenID:   jti,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.store.InsertSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("record session: %w", err)
	}
	if err := s.store.TouchUserActivity(ctx, user.ID, true); err != nil {
		return "", nil, fmt.Errorf("mark user online: %w", err)
	}

	s.logger.Info("user logged in", logging.Int64(logging.FieldUserID, user.ID))
	return token, principalFor(user), nil
}

// Validate checks a bearer token against its signature and its session row
// and returns the caller it identifies.
func (s *Service) Validate(ctx context.Context, token string) (*Principal, error) {
	claims, err := parseToken(s.secret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	session, err := s.store.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return principalFor(user), nil
}

// Logout revokes the session behind a token. An already-invalid token is not
// an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := parseToken(s.secret, token)
	if err != nil {
		return nil
	}
	if err := s.store.RevokeSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if err := s.store.TouchUserActivity(ctx, claims.UserID, false); err != nil {
		return fmt.Errorf("mark user offline: %w", err)
	}
	s.logger.Info("user logged out", logging.Int64(logging.FieldUserID, claims.UserID))
	return nil
}

// Heartbeat refreshes a user's activity timestamp. The claim-expiry sweep
// treats users without a recent heartbeat as idle.
func (s *Service) Heartbeat(ctx context.Context, userID int64) error {
	return s.store.TouchUserActivity(ctx, userID, true)
}

// PurgeExpired removes session rows past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredSessions(ctx)
}

func principalFor(user *catalog.User) *Principal {
	return &Principal{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		LocationID: user.LocationID,
	}
}
