package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"dmt-presale-backend/internal/common/config"
	"dmt-presale-backend/internal/features/auth/models"
)

// CodeExchanger forwards the authorization code to the Django backend.
// Implemented by the Django platform client.
type CodeExchanger interface {
	OIDCCallback(ctx context.Context, req *models.OIDCCallbackRequest) (*models.OIDCCallbackResponse, error)
}

// ExchangeError maps a failed code exchange onto a login page error code.
type ExchangeError struct {
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("code exchange failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("code exchange failed: %s", e.Code)
}

type AuthService interface {
	// LoginURL builds the identity provider authorization URL with a fresh
	// PKCE verifier and state nonce.
	LoginURL() (authURL, verifier, state string)
	// ExchangeCode trades the authorization code for a platform JWT via the
	// Django backend. Failures come back as *ExchangeError.
	ExchangeCode(ctx context.Context, code, state, verifier string) (string, error)
}

type authService struct {
	oauth     *oauth2.Config
	exchanger CodeExchanger
	logger    zerolog.Logger
}

func NewAuthService(cfg *config.Config, exchanger CodeExchanger, logger zerolog.Logger) AuthService {
	return &authService{
		oauth: &oauth2.Config{
			ClientID:    cfg.OIDC.ClientID,
			RedirectURL: cfg.OIDC.RedirectURI,
			Scopes:      cfg.OIDC.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL: cfg.OIDC.AuthorizeURL,
			},
		},
		exchanger: exchanger,
		logger:    logger,
	}
}

func (s *authService) LoginURL() (string, string, string) {
	verifier := oauth2.GenerateVerifier()
	state := uuid.New().String()
	authURL := s.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, verifier, state
}

func (s *authService) ExchangeCode(ctx context.Context, code, state, verifier string) (string, error) {
	resp, err := s.exchanger.OIDCCallback(ctx, &models.OIDCCallbackRequest{
		Code:         code,
		State:        state,
		RedirectURI:  s.oauth.RedirectURL,
		CodeVerifier: verifier,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("OIDC code exchange request failed")
		return "", &ExchangeError{Code: models.ErrBackendError}
	}

	if resp.Error != "" {
		return "", &ExchangeError{Code: resp.Error, Description: resp.ErrorDescription}
	}

	if resp.Token == "" {
		return "", &ExchangeError{Code: models.ErrNoToken}
	}

	return resp.Token, nil
}
