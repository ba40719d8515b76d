package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/session"
)

// API is the subset of the backend client used for account flows.
type API interface {
	SignIn(ctx context.Context, in apiclient.SignInRequest) (*apiclient.SignInResult, error)
	SignUp(ctx context.Context, in apiclient.SignUpRequest) error
	Logout(ctx context.Context) error
	Withdraw(ctx context.Context) error
	Me(ctx context.Context) (*apiclient.User, error)
}

type Logger interface {
	Printf(format string, v ...any)
}

// Service owns the account lifecycle: it is the only caller of Session.Begin and Session.Clear.
type Service struct {
	api     API
	session *session.Session
	logger  Logger
}

func NewService(api API, sess *session.Session, logger Logger) *Service {
	return &Service{api: api, session: sess, logger: logger}
}

// SignIn authenticates and starts the session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*apiclient.SignInResult, error) {
	result, err := s.api.SignIn(ctx, apiclient.SignInRequest{Email: email, Password: password})
	if err != nil {
		s.logf("WARN auth: sign_in_failed err=%v", err)
		return nil, err
	}

	if err := s.session.Begin(ctx, result.AccessToken, result.RefreshToken, result.Role); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	s.logf("INFO auth: signed_in role=%s", result.Role)
	return result, nil
}

// SignUp registers an account. The user signs in separately afterwards.
func (s *Service) SignUp(ctx context.Context, req apiclient.SignUpRequest) error {
	if err := s.api.SignUp(ctx, req); err != nil {
		s.logf("WARN auth: sign_up_failed err=%v", err)
		return err
	}
	s.logf("INFO auth: signed_up")
	return nil
}

// Logout notifies the backend and clears the local session whether or not the call succeeded.
func (s *Service) Logout(ctx context.Context) error {
	return s.endSession(ctx, "logout", s.api.Logout)
}

// Withdraw deletes the account and clears the local session. A failed withdrawal still
// signs the user out locally; the error is returned so the caller can tell the user.
func (s *Service) Withdraw(ctx context.Context) error {
	return s.endSession(ctx, "withdraw", s.api.Withdraw)
}

// Me fetches the profile. A 401 means the token is no longer accepted and ends the session.
func (s *Service) Me(ctx context.Context) (*apiclient.User, error) {
	user, err := s.api.Me(ctx)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.logf("WARN auth: token_rejected, clearing session")
			if clearErr := s.session.Clear(ctx); clearErr != nil {
				s.logf("WARN auth: clear_failed err=%v", clearErr)
			}
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Authenticated() bool {
	return s.session.Authenticated()
}

func (s *Service) endSession(ctx context.Context, action string, call func(context.Context) error) error {
	callErr := call(ctx)
	if errors.Is(callErr, apiclient.ErrNoToken) {
		callErr = nil
	}
	if callErr != nil {
		s.logf("WARN auth: %s_failed err=%v", action, callErr)
	}

	if err := s.session.Clear(ctx); err != nil {
		return errors.Join(callErr, fmt.Errorf("clear session: %w", err))
	}

	s.logf("INFO auth: %s done", action)
	return callErr
}

func (s *Service) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}
