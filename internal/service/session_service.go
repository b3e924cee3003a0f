package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

const (
	nonceSize             = 24
	defaultSessionTTL     = 24 * time.Hour
	signInFailed          = "Unable to sign in with the provided credentials."
	profileFailed         = "Failed to load your profile."
	noActiveSessionReason = "not signed in"
)

type authRemote interface {
	ObtainTokens(ctx context.Context, creds models.Credentials) (*models.TokenPair, error)
	RefreshAccess(ctx context.Context, refresh string) (string, error)
	Me(ctx context.Context) (*models.User, error)
}

type sessionStore interface {
	Save(ctx context.Context, record models.SessionRecord) error
	Latest(ctx context.Context) (*models.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// SessionService owns the single signed-in session of the desk. It supplies
// bearer tokens to the remote transport and keeps the session sealed at rest.
type SessionService struct {
	remote    authRemote
	store     sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	key       [32]byte
	now       func() time.Time

	mu      sync.RWMutex
	current *models.Session

	refreshMu sync.Mutex

	hooksMu     sync.Mutex
	afterSignIn []func(ctx context.Context, user models.User)
}

// NewSessionService derives the sealing key from secret.
func NewSessionService(remote authRemote, store sessionStore, secret string, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		remote:    remote,
		store:     store,
		validator: validate,
		logger:    logger,
		key:       sha256.Sum256([]byte(secret)),
		now:       time.Now,
	}
}

// SignIn obtains tokens, then loads the profile they belong to.
func (s *SessionService) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if err := s.validator.Struct(creds); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	pair, err := s.remote.ObtainTokens(ctx, creds)
	if err != nil {
		return nil, remoteError(err, signInFailed)
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		Tokens:    *pair,
		ExpiresAt: s.sessionExpiry(*pair),
		UpdatedAt: s.now().UTC(),
	}
	s.setCurrent(session)

	user, err := s.remote.Me(ctx)
	if err != nil {
		s.setCurrent(nil)
		return nil, remoteError(err, profileFailed)
	}
	session.User = *user
	s.setCurrent(session)

	if err := s.persist(ctx, session); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
	s.logger.Info("signed in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	s.runSignInHooks(ctx, *user)
	return s.Current()
}

// OnSignIn registers fn to run after every successful sign-in or restore.
func (s *SessionService) OnSignIn(fn func(ctx context.Context, user models.User)) {
	s.hooksMu.Lock()
	s.afterSignIn = append(s.afterSignIn, fn)
	s.hooksMu.Unlock()
}

func (s *SessionService) runSignInHooks(ctx context.Context, user models.User) {
	s.hooksMu.Lock()
	hooks := append([]func(context.Context, models.User){}, s.afterSignIn...)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(ctx, user)
	}
}

// Current returns a copy of the signed-in session.
func (s *SessionService) Current() (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, noActiveSessionReason)
	}
	copied := *s.current
	return &copied, nil
}

// User returns the signed-in user, or nil.
func (s *SessionService) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	user := s.current.User
	return &user
}

// AccessToken implements httpclient.TokenSource.
func (s *SessionService) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Tokens.Access
}

// Refresh implements httpclient.TokenSource. Concurrent callers share one
// refresh: a caller that waited finds the new token already in place.
func (s *SessionService) Refresh(ctx context.Context) (string, error) {
	stale := s.AccessToken()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current == nil {
		return "", appErrors.ErrSessionExpired
	}
	if current.Tokens.Access != stale {
		return current.Tokens.Access, nil
	}

	access, err := s.remote.RefreshAccess(ctx, current.Tokens.Refresh)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.current == nil || s.current.ID != current.ID {
		s.mu.Unlock()
		return "", appErrors.ErrSessionExpired
	}
	s.current.Tokens.Access = access
	s.current.UpdatedAt = s.now().UTC()
	updated := *s.current
	s.mu.Unlock()

	if err := s.persist(ctx, &updated); err != nil {
		s.logger.Warn("failed to persist refreshed session", zap.Error(err))
	}
	s.logger.Debug("access token refreshed", zap.Int64("user_id", updated.User.ID))
	return access, nil
}

// Invalidate implements httpclient.TokenSource and discards the session.
func (s *SessionService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()
	if current == nil {
		return
	}
	if err := s.store.Delete(ctx, current.ID); err != nil {
		s.logger.Warn("failed to delete session", zap.String("session_id", current.ID), zap.Error(err))
	}
	s.logger.Info("session cleared", zap.Int64("user_id", current.User.ID))
}

// SignOut discards the session.
func (s *SessionService) SignOut(ctx context.Context) {
	s.Invalidate(ctx)
}

// Restore reloads the last persisted session. A missing, unreadable or
// expired session leaves the desk signed out and is not an error.
func (s *SessionService) Restore(ctx context.Context) error {
	record, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stored session")
	}

	session, err := s.open(*record)
	if err != nil {
		s.logger.Warn("discarding unreadable session", zap.String("session_id", record.ID), zap.Error(err))
		_ = s.store.Delete(ctx, record.ID)
		return nil
	}
	if !session.ExpiresAt.After(s.now()) {
		s.logger.Info("discarding expired session", zap.String("session_id", record.ID))
		_ = s.store.Delete(ctx, record.ID)
		return nil
	}
	s.setCurrent(session)
	s.logger.Info("session restored", zap.Int64("user_id", session.User.ID))
	s.runSignInHooks(ctx, session.User)
	return nil
}

func (s *SessionService) setCurrent(session *models.Session) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}

func (s *SessionService) persist(ctx context.Context, session *models.Session) error {
	record, err := s.seal(*session)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, record)
}

// sessionExpiry is the refresh token's expiry, else the access token's, else
// a day from now. Tokens are inspected without verification; the service
// that issued them is the one checking signatures.
func (s *SessionService) sessionExpiry(pair models.TokenPair) time.Time {
	for _, token := range []string{pair.Refresh, pair.Access} {
		if exp, ok := tokenExpiry(token); ok {
			return exp
		}
	}
	return s.now().Add(defaultSessionTTL).UTC()
}

func tokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}

func (s *SessionService) seal(session models.Session) (models.SessionRecord, error) {
	userPayload, err := json.Marshal(session.User)
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("encode session user: %w", err)
	}
	tokens, err := json.Marshal(session.Tokens)
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("encode session tokens: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return models.SessionRecord{}, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], tokens, &nonce, &s.key)
	return models.SessionRecord{
		ID:           session.ID,
		UserPayload:  string(userPayload),
		SealedTokens: base64.StdEncoding.EncodeToString(sealed),
		ExpiresAt:    session.ExpiresAt,
		UpdatedAt:    session.UpdatedAt,
	}, nil
}

func (s *SessionService) open(record models.SessionRecord) (*models.Session, error) {
	sealed, err := base64.StdEncoding.DecodeString(record.SealedTokens)
	if err != nil {
		return nil, fmt.Errorf("decode sealed tokens: %w", err)
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("sealed tokens too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("sealed tokens failed authentication")
	}

	session := &models.Session{ID: record.ID, ExpiresAt: record.ExpiresAt, UpdatedAt: record.UpdatedAt}
	if err := json.Unmarshal(plain, &session.Tokens); err != nil {
		return nil, fmt.Errorf("decode session tokens: %w", err)
	}
	if err := json.Unmarshal([]byte(record.UserPayload), &session.User); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return session, nil
}
