package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

const sessionIssuer = "vozdelcaserio"

type sessionStore interface {
	Save(ctx context.Context, actor models.Actor) error
}

// SessionConfig defines session token settings.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	// PrivilegedPasscodeHash is a bcrypt hash required to start a moderator or
	// admin session. Empty means no passcode is asked.
	PrivilegedPasscodeHash string
}

// SessionService issues and validates actor session tokens.
type SessionService struct {
	store     sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store sessionStore, validate *validator.Validate, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TTL <= 0 {
		config.TTL = 30 * 24 * time.Hour
	}
	return &SessionService{
		store:     store,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start creates a new actor identity, persists it as the current session and
// returns a signed token for it.
func (s *SessionService) Start(ctx context.Context, req dto.StartSessionRequest) (*dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleResident
	}
	if role.CanManageStatus() && s.config.PrivilegedPasscodeHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.config.PrivilegedPasscodeHash), []byte(req.Passcode)); err != nil {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid passcode for privileged role")
		}
	}

	name := cleanText(req.Name)
	if name == "" {
		name = models.DefaultResidentName
	}
	actor := models.Actor{ID: uuid.NewString(), Name: name, Role: role}

	token, issuedAt, err := s.issue(actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	if err := s.store.Save(ctx, actor); err != nil {
		s.logger.Warn("failed to persist session", zap.String("actor_id", actor.ID), zap.Error(err))
	}
	s.logger.Info("session started", zap.String("actor_id", actor.ID), zap.String("role", string(role)))

	return &dto.SessionResponse{
		Actor:       actor,
		AccessToken: token,
		ExpiresIn:   int64(s.config.TTL.Seconds()),
		IssuedAt:    &issuedAt,
	}, nil
}

// Current resolves the actor a request acts as: the token's claims when
// present, otherwise the guest. Writes made without a token are attributed
// the same way.
func (s *SessionService) Current(ctx context.Context, claims *models.ActorClaims) *dto.SessionResponse {
	if claims != nil {
		return &dto.SessionResponse{Actor: claims.Actor()}
	}
	return &dto.SessionResponse{Actor: models.GuestActor()}
}

// ValidateToken parses and validates a session token returning its claims.
func (s *SessionService) ValidateToken(tokenString string) (*models.ActorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.ActorClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *SessionService) issue(actor models.Actor) (string, time.Time, error) {
	issuedAt := s.now()
	claims := models.ActorClaims{
		ActorID: actor.ID,
		Name:    actor.Name,
		Role:    actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    sessionIssuer,
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
