package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tech-arch1tect/recipemanager/services/jwt"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/mail"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrEmailAlreadyVerified = errors.New("email is already verified")
	ErrDuplicateEmail       = user.ErrDuplicateEmail
	ErrTokenExpired         = jwt.ErrExpiredToken
	ErrTokenInvalid         = jwt.ErrInvalidToken
)

type UserStore interface {
	GetByID(ctx context.Context, id uint) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Insert(ctx context.Context, u *user.User) error
	UpdateProfile(ctx context.Context, id uint, name string) error
	UpdateEmail(ctx context.Context, id uint, email string) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	SetEmailVerified(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

type TokenService interface {
	Issue(userID uint, tokenType jwt.TokenType) (string, error)
	Parse(token string, expected jwt.TokenType) (*jwt.Claims, error)
	Validity() time.Duration
}

type Mailer interface {
	Send(ctx context.Context, kind mail.Kind, to mail.Address, data mail.Data) error
}

type Config struct {
	ClientURL   string
	SendTimeout time.Duration
}

// Result is returned by Register and Login.
type Result struct {
	User      *user.User
	AuthToken string
}

// ClientInfo describes where a login came from, for the login alert email.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type Service struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenService
	mailer  Mailer
	cfg     Config
	logger  *logging.Service
	metrics *metrics.Collector
	now     func() time.Time
	pending sync.WaitGroup
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenService, mailer Mailer, cfg Config, logger *logging.Service, collector *metrics.Collector) *Service {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		now:     time.Now,
	}
}

// Register creates the account, returns an auth token for it and sends the
// welcome email in the background.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Result, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.RecordRegistration("error")
		return nil, err
	}

	u := &user.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			s.metrics.RecordRegistration("duplicate_email")
			s.logger.Info("registration rejected: email already registered")
			return nil, ErrDuplicateEmail
		}
		s.metrics.RecordRegistration("error")
		return nil, err
	}

	token, err := s.issue(u.ID, jwt.TypeAuth)
	if err != nil {
		s.metrics.RecordRegistration("error")
		return nil, err
	}

	s.metrics.RecordRegistration("success")
	s.logger.Info("user registered", zap.Uint("user_id", u.ID))

	s.sendInBackground(ctx, func(ctx context.Context) error {
		return s.sendVerification(ctx, u, mail.KindWelcomeVerifyEmail)
	})

	return &Result{User: u, AuthToken: token}, nil
}

// Login checks the credentials and returns a fresh auth token. A login alert
// is sent in the background.
func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (*Result, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.metrics.RecordLogin("user_not_found")
			s.logger.Info("login rejected: unknown email")
			return nil, ErrUserNotFound
		}
		s.metrics.RecordLogin("error")
		return nil, err
	}

	if err := s.checkPassword(u, password); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			s.metrics.RecordLogin("invalid_password")
			s.logger.Info("login rejected: wrong password", zap.Uint("user_id", u.ID))
		} else {
			s.metrics.RecordLogin("error")
		}
		return nil, err
	}

	token, err := s.issue(u.ID, jwt.TypeAuth)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, err
	}

	s.metrics.RecordLogin("success")
	s.logger.Info("user logged in", zap.Uint("user_id", u.ID), zap.String("ip", client.IP))

	data := mail.Data{
		Time:   s.now().UTC().Format("2006-01-02 15:04 MST"),
		IP:     client.IP,
		Device: DescribeDevice(client.UserAgent),
	}
	s.sendInBackground(ctx, func(ctx context.Context) error {
		return s.mailer.Send(ctx, mail.KindLoginAlert, addressOf(u), data)
	})

	return &Result{User: u, AuthToken: token}, nil
}

func (s *Service) SendVerificationEmail(ctx context.Context, u *user.User) error {
	if u.EmailVerified {
		s.logger.Warn("verification email requested for verified address", zap.Uint("user_id", u.ID))
		return ErrEmailAlreadyVerified
	}
	return s.sendVerification(ctx, u, mail.KindVerifyEmail)
}

// VerifyEmail marks the address of the token's user as verified. A user
// deleted after the token was issued is not an error.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token, jwt.TypeVerifyEmail)
	if err != nil {
		return err
	}

	if err := s.users.SetEmailVerified(ctx, claims.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("verified email of a deleted user", zap.Uint("user_id", claims.UserID))
			return nil
		}
		return err
	}

	s.logger.Info("email verified", zap.Uint("user_id", claims.UserID))
	return nil
}

// SendPasswordResetEmail emails a reset link when email belongs to an
// account. Unknown addresses succeed silently and the email goes out in the
// background, so callers cannot tell the two apart.
func (s *Service) SendPasswordResetEmail(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.issue(u.ID, jwt.TypePasswordReset)
	if err != nil {
		return err
	}

	data := mail.Data{Link: s.link("/password-reset", token), Validity: formatValidity(s.tokens.Validity())}
	s.sendInBackground(ctx, func(ctx context.Context) error {
		return s.mailer.Send(ctx, mail.KindPasswordReset, addressOf(u), data)
	})

	s.logger.Info("password reset email queued", zap.Uint("user_id", u.ID))
	return nil
}

// ResetPassword sets a new password for the user named by a password-reset
// token. A user deleted after the token was issued is not an error.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Parse(token, jwt.TypePasswordReset)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("password reset for a deleted user", zap.Uint("user_id", claims.UserID))
			return nil
		}
		return err
	}

	s.logger.Info("password reset", zap.Uint("user_id", claims.UserID))
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, u *user.User, name string) error {
	if err := s.users.UpdateProfile(ctx, u.ID, name); err != nil {
		return s.mapUserError(err)
	}
	u.Name = name
	return nil
}

// UpdateEmail changes the account address after checking the password. The
// new address starts unverified and gets a verification email; the old one
// is told about the change.
func (s *Service) UpdateEmail(ctx context.Context, u *user.User, password, newEmail string) error {
	if err := s.checkPassword(u, password); err != nil {
		return err
	}

	newEmail = user.NormalizeEmail(newEmail)
	if newEmail == u.Email {
		return nil
	}

	if err := s.users.UpdateEmail(ctx, u.ID, newEmail); err != nil {
		return s.mapUserError(err)
	}

	previous := addressOf(u)
	u.Email = newEmail
	u.EmailVerified = false
	updated := *u

	s.logger.Info("email changed", zap.Uint("user_id", u.ID))

	s.sendInBackground(ctx, func(ctx context.Context) error {
		return s.mailer.Send(ctx, mail.KindEmailChanged, previous, mail.Data{NewEmail: newEmail})
	})
	s.sendInBackground(ctx, func(ctx context.Context) error {
		return s.sendVerification(ctx, &updated, mail.KindVerifyEmail)
	})

	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, u *user.User, currentPassword, newPassword string) error {
	if err := s.checkPassword(u, currentPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return s.mapUserError(err)
	}
	u.PasswordHash = hash

	s.logger.Info("password changed", zap.Uint("user_id", u.ID))
	return nil
}

// DeleteAccount removes the user together with everything it owns.
func (s *Service) DeleteAccount(ctx context.Context, u *user.User, password string) error {
	if err := s.checkPassword(u, password); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, u.ID); err != nil && !errors.Is(err, user.ErrNotFound) {
		return err
	}

	s.logger.Info("account deleted", zap.Uint("user_id", u.ID))
	return nil
}

// Wait blocks until every background email has been handed to the mailer.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Shutdown waits for background emails until ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background emails still pending: %w", ctx.Err())
	}
}

func (s *Service) checkPassword(u *user.User, password string) error {
	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password of user %d: %w", u.ID, err)
	}
	if !ok {
		return ErrInvalidPassword
	}
	return nil
}

func (s *Service) sendVerification(ctx context.Context, u *user.User, kind mail.Kind) error {
	token, err := s.issue(u.ID, jwt.TypeVerifyEmail)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, kind, addressOf(u), mail.Data{
		Link:     s.link("/verify-email", token),
		Validity: formatValidity(s.tokens.Validity()),
	})
}

func (s *Service) issue(userID uint, tokenType jwt.TokenType) (string, error) {
	token, err := s.tokens.Issue(userID, tokenType)
	if err != nil {
		return "", err
	}
	s.metrics.RecordTokenIssued(string(tokenType))
	return token, nil
}

// sendInBackground runs send detached from the request so a slow relay never
// delays the response. Failures are only logged.
func (s *Service) sendInBackground(ctx context.Context, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SendTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		if err := send(ctx); err != nil {
			s.logger.Error("background email failed", zap.Error(err))
		}
	}()
}

func (s *Service) link(path, token string) string {
	return s.cfg.ClientURL + path + "?" + url.Values{"token": {token}}.Encode()
}

func (s *Service) mapUserError(err error) error {
	if errors.Is(err, user.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func addressOf(u *user.User) mail.Address {
	return mail.Address{Name: u.Name, Email: u.Email}
}

func formatValidity(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
