package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/config"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

const discordMeURL = "https://discord.com/api/users/@me"

type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, *model.Session, error)
	Login(ctx context.Context, username, password string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token to its user, dropping expired
	// sessions on touch. Ban checks belong to the middleware.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	DiscordAuthURL(state string) (string, error)
	DiscordCallback(ctx context.Context, code string) (*model.User, *model.Session, error)
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      *config.Config
	oauth    *oauth2.Config
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, cfg *config.Config) AuthService {
	var oc *oauth2.Config
	if cfg.DiscordClientID != "" && cfg.DiscordClientSecret != "" {
		oc = &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		}
	}
	return &authService{users: users, sessions: sessions, cfg: cfg, oauth: oc}
}

func (s *authService) Register(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	username = strings.TrimSpace(username)
	if !usernameRe.MatchString(username) {
		return nil, nil, apperr.Validation("username must be 3 to 24 letters, digits or underscores")
	}
	if len(password) < 8 || len(password) > 72 {
		return nil, nil, apperr.Validation("password must be 8 to 72 characters")
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, nil, apperr.WithMessage(apperr.ErrConflict, "username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	hashStr := string(hash)

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: &hashStr,
		Role:         s.roleFor(username),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal)
	}

	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.WithMessage(apperr.ErrUnauthorized, "invalid username or password")
		}
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if user.PasswordHash == nil {
		return nil, nil, apperr.WithMessage(apperr.ErrUnauthorized, "invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.WithMessage(apperr.ErrUnauthorized, "invalid username or password")
	}
	if user.IsBanned {
		return nil, nil, banError(user)
	}

	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return apperr.Wrap(err, apperr.ErrInternal)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if sess.Expired(time.Now()) {
		_ = s.sessions.DeleteByToken(ctx, token)
		return nil, apperr.ErrUnauthorized
	}
	return &sess.User, nil
}

func (s *authService) DiscordAuthURL(state string) (string, error) {
	if s.oauth == nil {
		return "", apperr.WithMessage(apperr.ErrInternal, "discord login is not configured")
	}
	return s.oauth.AuthCodeURL(state), nil
}

type discordUser struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	GlobalName *string `json:"global_name"`
}

func (s *authService) DiscordCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	if s.oauth == nil {
		return nil, nil, apperr.WithMessage(apperr.ErrInternal, "discord login is not configured")
	}
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, apperr.WithMessage(apperr.ErrUnauthorized, "discord token exchange failed")
	}

	du, err := fetchDiscordUser(ctx, s.oauth.Client(ctx, tok))
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByDiscordID(ctx, du.ID)
	switch {
	case err == nil:
		// existing account
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.provisionDiscordUser(ctx, du)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal)
	}

	if user.IsBanned {
		return nil, nil, banError(user)
	}

	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

func fetchDiscordUser(ctx context.Context, client *http.Client) (*discordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordMeURL, nil)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, "discord profile fetch failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, "discord profile fetch failed")
	}
	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil || du.ID == "" || du.Username == "" {
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, "discord profile is invalid")
	}
	return &du, nil
}

func (s *authService) provisionDiscordUser(ctx context.Context, du *discordUser) (*model.User, error) {
	username, err := s.resolveUniqueUsername(ctx, sanitizeUsername(du.Username))
	if err != nil {
		return nil, err
	}
	discordID := du.ID
	user := &model.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: du.GlobalName,
		DiscordID:   &discordID,
		Role:        s.roleFor(username),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return user, nil
}

// sanitizeUsername squeezes a Discord handle into the local username charset.
func sanitizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 3 {
		name = "player"
	}
	return name
}

func (s *authService) resolveUniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for counter := 1; counter <= 50; counter++ {
		_, err := s.users.FindByUsername(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", apperr.Wrap(err, apperr.ErrInternal)
		}
		candidate = fmt.Sprintf("%s_%d", base, counter)
		if len(candidate) > 24 {
			candidate = candidate[len(candidate)-24:]
		}
	}
	return "", apperr.WithMessage(apperr.ErrConflict, "could not allocate a unique username")
}

func (s *authService) roleFor(username string) model.UserRole {
	if strings.EqualFold(username, s.cfg.AdminUsername) {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func (s *authService) startSession(ctx context.Context, userID string) (*model.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	sess := &model.Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().AddDate(0, 0, s.cfg.SessionTTLDays),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return sess, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func banError(user *model.User) error {
	msg := "your account is banned"
	if user.BanReason != nil && *user.BanReason != "" {
		msg = fmt.Sprintf("your account is banned: %s", *user.BanReason)
	}
	return apperr.WithMessage(apperr.ErrUnauthorized, msg)
}
