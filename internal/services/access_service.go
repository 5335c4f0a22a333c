package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ticket-marketplace/config"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
)

// dummyHash is compared against when an account does not exist so unknown
// emails take as long as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type Credentials struct {
	Kind     models.IdentityKind `json:"kind"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
}

func (c Credentials) Validate() error {
	return validationFailure(validation.ValidateStruct(&c,
		validation.Field(&c.Kind, validation.Required, validation.In(models.KindUser, models.KindVenue)),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Password, validation.Required),
	))
}

type AdminCredentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type sessionClaims struct {
	Kind  models.IdentityKind `json:"kind"`
	Email string              `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccessService issues and verifies stateless session tokens.
type AccessService struct {
	identities IdentityStore
	guard      *StoreGuard
	monitor    *monitoring.Monitor

	secret          []byte
	issuer          string
	sessionTTL      time.Duration
	adminSessionTTL time.Duration
	adminID         string
	adminHash       string

	now func() time.Time
}

func NewAccessService(identities IdentityStore, guard *StoreGuard, monitor *monitoring.Monitor, cfg *config.Config) *AccessService {
	return &AccessService{
		identities:      identities,
		guard:           guard,
		monitor:         monitor,
		secret:          []byte(cfg.JWTSecret),
		issuer:          cfg.JWTIssuer,
		sessionTTL:      cfg.SessionTTL,
		adminSessionTTL: cfg.AdminSessionTTL,
		adminID:         cfg.AdminID,
		adminHash:       cfg.AdminPasswordHash,
		now:             time.Now,
	}
}

// Login authenticates a user or venue by email and password.
func (s *AccessService) Login(ctx context.Context, creds Credentials) (models.Session, error) {
	creds.Email = normalizeEmail(creds.Email)
	if err := creds.Validate(); err != nil {
		s.monitor.TrackAuth(string(creds.Kind), "invalid")
		return models.Session{}, err
	}

	account, err := guarded(ctx, s.guard, "find account", func(ctx context.Context) (models.Account, error) {
		return s.identities.FindByEmail(ctx, creds.Kind, creds.Email)
	})
	if errors.Is(err, status.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(creds.Password))
		s.monitor.TrackAuth(string(creds.Kind), "rejected")
		return models.Session{}, fmt.Errorf("invalid credentials: %w", status.ErrUnauthorized)
	}
	if err != nil {
		return models.Session{}, err
	}

	if !CheckPassword(account.PasswordHash, creds.Password) {
		s.monitor.TrackAuth(string(creds.Kind), "rejected")
		return models.Session{}, fmt.Errorf("invalid credentials: %w", status.ErrUnauthorized)
	}

	s.monitor.TrackAuth(string(creds.Kind), "success")
	return s.Issue(account.Identity())
}

// AdminLogin checks the configured superadmin credential. It is disabled
// while no credential is configured.
func (s *AccessService) AdminLogin(creds AdminCredentials) (models.Session, error) {
	kind := string(models.KindSuperadmin)

	if s.adminID == "" || s.adminHash == "" {
		s.monitor.TrackAuth(kind, "disabled")
		return models.Session{}, fmt.Errorf("admin login disabled: %w", status.ErrUnauthorized)
	}

	idMatch := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(creds.ID)), []byte(s.adminID)) == 1
	pwMatch := CheckPassword(s.adminHash, creds.Password)
	if !idMatch || !pwMatch {
		s.monitor.TrackAuth(kind, "rejected")
		return models.Session{}, fmt.Errorf("invalid credentials: %w", status.ErrUnauthorized)
	}

	s.monitor.TrackAuth(kind, "success")
	return s.Issue(models.Identity{ID: s.adminID, Kind: models.KindSuperadmin})
}

// Issue signs a session for identity. Superadmin sessions are shorter lived.
func (s *AccessService) Issue(identity models.Identity) (models.Session, error) {
	ttl := s.sessionTTL
	if identity.Kind == models.KindSuperadmin {
		ttl = s.adminSessionTTL
	}

	now := s.now()
	expires := now.Add(ttl)
	claims := &sessionClaims{
		Kind:  identity.Kind,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.Session{}, fmt.Errorf("sign session: %w", err)
	}

	return models.Session{Token: token, ExpiresAt: expires, Identity: identity}, nil
}

// Verify checks a session token and returns the identity it carries.
func (s *AccessService) Verify(token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, fmt.Errorf("missing session token: %w", status.ErrUnauthorized)
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return models.Identity{}, fmt.Errorf("invalid session token: %w", status.ErrUnauthorized)
	}

	if claims.Subject == "" || !claims.Kind.Valid() {
		return models.Identity{}, fmt.Errorf("malformed session token: %w", status.ErrUnauthorized)
	}
	if claims.Kind == models.KindSuperadmin && (s.adminID == "" || claims.Subject != s.adminID) {
		return models.Identity{}, fmt.Errorf("stale admin session: %w", status.ErrUnauthorized)
	}

	return models.Identity{ID: claims.Subject, Kind: claims.Kind, Email: claims.Email}, nil
}

// Authenticate is Verify plus a check that a user or venue account still
// exists. Tokens outlive their accounts, so state-changing requests go
// through here.
func (s *AccessService) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	identity, err := s.Verify(token)
	if err != nil {
		return models.Identity{}, err
	}
	if identity.Is(models.KindSuperadmin) {
		return identity, nil
	}

	_, err = guarded(ctx, s.guard, "find account", func(ctx context.Context) (models.Account, error) {
		return s.identities.FindByID(ctx, identity.Kind, identity.ID)
	})
	if errors.Is(err, status.ErrNotFound) {
		return models.Identity{}, fmt.Errorf("account no longer exists: %w", status.ErrUnauthorized)
	}
	if err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// AuthorizeOwnership reports whether identity may manage a resource owned by
// ownerID. The superadmin manages everything.
func AuthorizeOwnership(identity models.Identity, ownerID string) bool {
	switch identity.Kind {
	case models.KindSuperadmin:
		return identity.ID != ""
	case models.KindVenue:
		return ownerID != "" && identity.ID == ownerID
	}
	return false
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
