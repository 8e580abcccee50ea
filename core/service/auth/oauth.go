// Package auth implements the Google OAuth login flow and session-backed
// credential resolution.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

// googleUserInfoURL is the OpenID userinfo endpoint used after the exchange.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// gmailScopes covers reading, sending and modifying mail plus the profile
// claims needed to identify the user.
var gmailScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://mail.google.com/",
}

// decodeJSON decodes JSON from reader into target struct
func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// Service runs the OAuth authorization-code flow and resolves session tokens
// into live Google credentials, refreshing them transparently.
type Service struct {
	config     *oauth2.Config
	sessions   out.SessionStore
	states     out.OAuthStateStore
	httpClient *http.Client
}

// Config carries the Google OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewService creates the auth service.
func NewService(cfg Config, sessions out.SessionStore, states out.OAuthStateStore, httpClient *http.Client) *Service {
	return &Service{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       gmailScopes,
			Endpoint:     google.Endpoint,
		},
		sessions:   sessions,
		states:     states,
		httpClient: httpClient,
	}
}

// AuthURL generates the Google consent URL and a CSRF state value. The state
// is stored and must round-trip through the callback.
func (s *Service) AuthURL(ctx context.Context) (url, state string, err error) {
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return "", "", apperr.ConfigError("Google OAuth is not configured")
	}

	state, err = newState()
	if err != nil {
		return "", "", apperr.Internal("failed to generate OAuth state").WithError(err)
	}

	if err := s.states.StoreState(ctx, state, 10*time.Minute); err != nil {
		return "", "", apperr.Internal("failed to store OAuth state").WithError(err)
	}

	// prompt=consent forces Google to reissue a refresh token on re-login.
	url = s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return url, state, nil
}

// HandleCallback validates the state, exchanges the authorization code, loads
// the Google profile and creates a session. Returns the session token.
func (s *Service) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		return "", apperr.BadRequest("Missing authorization code")
	}
	if err := s.states.ValidateState(ctx, state); err != nil {
		logger.Warn("OAuth state validation failed: %v", err)
		return "", apperr.BadRequest("Invalid OAuth state")
	}

	ctx = s.withHTTPClient(ctx)

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		logger.Error("OAuth code exchange failed: %v", err)
		return "", apperr.OAuthFailed("google", err)
	}

	user, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		logger.Error("Failed to fetch Google user info: %v", err)
		return "", apperr.OAuthFailed("google", err)
	}

	user.Credentials = domain.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}

	sessionToken, err := s.sessions.Create(ctx, user)
	if err != nil {
		return "", apperr.Internal("failed to create session").WithError(err)
	}

	logger.Info("OAuth login completed for user: %s", user.Email)
	return sessionToken, nil
}

// CurrentUser returns the credential-free profile for a session token.
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.UserProfile, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, apperr.Internal("failed to load session").WithError(err)
	}
	if sess == nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}
	profile := sess.User.Profile()
	return &profile, nil
}

// Logout deletes the session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperr.Internal("failed to delete session").WithError(err)
	}
	return nil
}

// Resolve turns a session token into a live Google token, refreshing and
// persisting it when expired.
func (s *Service) Resolve(ctx context.Context, token string) (*oauth2.Token, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, apperr.Internal("failed to load session").WithError(err)
	}
	if sess == nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}

	creds := sess.User.Credentials
	current := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
		TokenType:    "Bearer",
	}

	// Refresh when expired or within a minute of expiring.
	if current.Valid() && time.Until(current.Expiry) > time.Minute {
		return current, nil
	}

	if creds.RefreshToken == "" {
		return nil, apperr.Unauthorized("Credentials expired")
	}

	refreshed, err := s.config.TokenSource(s.withHTTPClient(ctx), current).Token()
	if err != nil {
		logger.Warn("Token refresh failed for user %s: %v", sess.User.Email, err)
		return nil, apperr.Unauthorized("Failed to refresh credentials")
	}

	newCreds := domain.Credentials{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		Expiry:       refreshed.Expiry,
	}
	if newCreds.RefreshToken == "" {
		newCreds.RefreshToken = creds.RefreshToken
	}

	if err := s.sessions.UpdateCredentials(ctx, token, newCreds); err != nil {
		logger.Warn("Failed to persist refreshed credentials: %v", err)
	}

	refreshed.RefreshToken = newCreds.RefreshToken
	return refreshed, nil
}

func (s *Service) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*domain.UserData, error) {
	client := s.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := decodeJSON(resp.Body, &info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}

	return &domain.UserData{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// withHTTPClient makes the oauth2 package use the tuned client instead of
// http.DefaultClient.
func (s *Service) withHTTPClient(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
