package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// LoginFailedMessage is shown for every failed credential check, whether the
// email or the password was wrong.
const LoginFailedMessage = "Login inválido!"

// AuthService handles registration, login and sessions.
//
//	AuthHandler (HTTP) → AuthService → repository.Store (users, achievements)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Every successful login, password or GitHub, counts toward the daily login
// streak: the streak update and any streak achievement are written in the
// same transaction.
type AuthService struct {
	store     repository.Store
	catalog   *game.Catalog
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	deps      Deps
}

// NewAuthService creates an AuthService. Call this in server.go when wiring
// the dependency graph.
func NewAuthService(
	store repository.Store,
	catalog *game.Catalog,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	deps Deps,
) *AuthService {
	return &AuthService{
		store:     store,
		catalog:   catalog,
		tokens:    tokens,
		passwords: passwords,
		deps:      deps.withDefaults(),
	}
}

// RegisterInput is the /register form.
type RegisterInput struct {
	Name     string `form:"nome" validate:"required,max=50"`
	Email    string `form:"email" validate:"required,email,max=100"`
	Password string `form:"senha" validate:"required,min=6,max=72"`
}

// AuthResult is returned by the login operations. It bundles the user, the
// signed session token and what the login did to the streak, so the handler
// can set the cookie and redirect in one step.
type AuthResult struct {
	User     *model.User
	Token    string
	Streak   game.StreakResult
	Unlocked []model.Achievement
}

// Register creates a password account. The player starts at level 1 with no
// XP and music autoplay on. Registering does not log in.
//
// Duplicate emails are caught by the unique index, not a prior lookup, so two
// concurrent sign-ups with the same address cannot both succeed; the loser
// gets an apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Level:        1,
		Autoplay:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", in.Email, err)
	}

	s.deps.Logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login checks an email and password and starts a session.
//
// Unknown email, wrong password and password-less (GitHub) accounts all fail
// with the same apperror.ErrUnauthorized, so the response does not reveal
// which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Unauthorized(LoginFailedMessage)
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(LoginFailedMessage)
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.deps.Logger.Warn("stored password hash is unreadable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(LoginFailedMessage)
	}

	return s.startSession(ctx, user.ID)
}

// GitHubEmailTakenMessage is shown when a first GitHub sign-in carries an
// email that already belongs to another account.
const GitHubEmailTakenMessage = "Email já registrado! Entre com seu email e senha."

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// Accounts are resolved by GitHub ID only. A first-time GitHub login creates
// a new account with no password; if GitHub did not share an email, the
// noreply address <login>@users.noreply.github.com is used so the email
// column stays unique and non-empty.
//
// Emails are never verified at registration, so an existing account with the
// same email is not linked: the login fails with apperror.ErrConflict and the
// player signs in with the password instead.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, errors.New("service/auth: GitHub user must not be empty")
	}

	var userID string
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByGitHubID(ctx, ghUser.ID)
		if err == nil {
			userID = user.ID
			return nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		email := normalizeEmail(ghUser.Email)
		if email == "" {
			email = strings.ToLower(ghUser.Login) + "@users.noreply.github.com"
		}

		ghID := ghUser.ID
		user = &model.User{
			Name:     truncate(ghUser.DisplayName(), 50),
			Email:    email,
			GitHubID: &ghID,
			Level:    1,
			Autoplay: true,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		s.deps.Logger.Info("user registered via GitHub",
			slog.String("userID", user.ID),
			slog.String("login", ghUser.Login),
		)

		userID = user.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.deps.Logger.Warn("GitHub sign-in refused: email already registered",
				slog.Int64("githubID", ghUser.ID),
				slog.String("login", ghUser.Login),
			)
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: GitHubEmailTakenMessage, Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: resolving GitHub user %d: %w", ghUser.ID, err)
	}

	return s.startSession(ctx, userID)
}

// startSession records today's login against the streak, grants any streak
// achievement and issues the session token.
func (s *AuthService) startSession(ctx context.Context, userID string) (*AuthResult, error) {
	now := s.deps.Clock()
	today := game.Date(now, s.deps.Location)

	res := &AuthResult{}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		res.Streak = game.RecordLogin(user, today, s.catalog)
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}

		res.Unlocked, err = grantAchievements(ctx, tx.Achievements(), s.catalog, user.ID, res.Streak.Unlocked, now)
		if err != nil {
			return err
		}
		res.User = user
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: recording login for %s: %w", userID, err)
	}

	res.Token, err = s.tokens.Generate(userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", userID, err)
	}

	s.deps.Logger.Info("user logged in",
		slog.String("userID", userID),
		slog.Int("streakDays", res.Streak.Days),
		slog.Int("unlocked", len(res.Unlocked)),
	)
	return res, nil
}

// GetUserByID returns the user for the given internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", strconv.Quote(id))
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user ID a session token was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// SessionTTL is how long an issued token, and so the cookie, stays valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
