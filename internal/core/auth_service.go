package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies signed session tokens. The admin password
// hash lives in the admin settings blob of the record store.
type AuthService struct {
	settings  repository.SettingsStore
	users     repository.UserStore
	secret    []byte
	ttl       time.Duration
	bootstrap string
	now       func() time.Time
}

func NewAuthService(settings repository.SettingsStore, users repository.UserStore, secret string, ttl time.Duration, bootstrapPassword string) *AuthService {
	return &AuthService{
		settings:  settings,
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		bootstrap: bootstrapPassword,
		now:       time.Now,
	}
}

// EnsureAdmin stores the bootstrap password hash when no admin settings exist yet.
func (a *AuthService) EnsureAdmin(ctx context.Context) error {
	_, err := a.settings.GetAdminSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	if a.bootstrap == "" {
		log.Ctx(ctx).Warn().Msg("No admin password configured; admin login disabled")
		return nil
	}
	if err := a.storePassword(ctx, a.bootstrap); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Msg("Admin password bootstrapped")
	return nil
}

// LoginAdmin checks the admin password and returns an admin session token.
func (a *AuthService) LoginAdmin(ctx context.Context, password string) (string, model.Session, error) {
	settings, err := a.settings.GetAdminSettings(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.Session{}, model.ErrUnauthorized
	}
	if err != nil {
		return "", model.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(settings.PasswordHash), []byte(password)) != nil {
		log.Ctx(ctx).Warn().Msg("Admin login rejected")
		return "", model.Session{}, model.ErrUnauthorized
	}
	return a.issue(adminSubject, model.RoleAdmin)
}

// LoginUser returns a session that may record taps for personID only.
func (a *AuthService) LoginUser(ctx context.Context, personID string) (string, model.Session, error) {
	if _, err := a.users.GetUser(ctx, personID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.Session{}, model.ErrUnauthorized
		}
		return "", model.Session{}, err
	}
	return a.issue(personID, model.RoleUser)
}

func (a *AuthService) ChangePassword(ctx context.Context, session model.Session, newPassword string) error {
	if !session.IsAdmin() {
		return model.ErrForbidden
	}
	if newPassword == "" {
		return &model.MalformedInputError{Index: -1, Field: "password", Reason: "password is required"}
	}
	if err := a.storePassword(ctx, newPassword); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Msg("Admin password changed")
	return nil
}

// Verify parses a session token. Any invalid or expired token is model.ErrUnauthorized.
func (a *AuthService) Verify(token string) (model.Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return model.Session{}, model.ErrUnauthorized
	}

	role := model.Role(claims.Role)
	if role != model.RoleAdmin && role != model.RoleUser {
		return model.Session{}, model.ErrUnauthorized
	}
	session := model.Session{Subject: claims.Subject, Role: role}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (a *AuthService) issue(subject string, role model.Role) (string, model.Session, error) {
	now := a.now()
	session := model.Session{Subject: subject, Role: role, ExpiresAt: now.Add(a.ttl).Truncate(time.Second)}
	claims := sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, session, nil
}

func (a *AuthService) storePassword(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return a.settings.PutAdminSettings(ctx, model.AdminSettings{PasswordHash: string(hash), UpdatedAt: a.now().UTC()})
}
