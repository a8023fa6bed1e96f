package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/agrilink/agrilink/internal/session"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/internal/users"
)

// OAuthProviderConfig holds OAuth client credentials for a single provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// identitySink is the interface expected by AuthHandler, satisfied by
// *users.Service.
type identitySink interface {
	Upsert(ctx context.Context, in users.UpsertInput) error
	GetByOpenID(ctx context.Context, openID string) (*users.User, error)
}

// AuthHandler handles sign-in routes: OAuth login plus the owner bootstrap
// exchange. Every successful login runs the identity upsert, so the account
// record always reflects the latest provider data and sign-in time.
type AuthHandler struct {
	users           identitySink
	tokens          *session.Issuer
	oauthCfgs       map[string]*oauth2.Config
	frontendURL     string
	ownerOpenID     string
	ownerSecretHash string // bcrypt hash of the owner bootstrap secret
	setCookie       func(c *gin.Context, token string)
	logger          *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
// oauthProviders may be nil or empty to disable OAuth routes.
func NewAuthHandler(
	userSvc identitySink,
	tokens *session.Issuer,
	oauthProviders map[string]OAuthProviderConfig,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:       userSvc,
		tokens:      tokens,
		oauthCfgs:   buildOAuthConfigs(oauthProviders),
		frontendURL: "http://localhost:3000",
		setCookie:   func(*gin.Context, string) {},
		logger:      logger,
	}
}

// SetFrontendURL sets the base URL of the frontend for OAuth callback redirects.
func (h *AuthHandler) SetFrontendURL(url string) { h.frontendURL = url }

// SetOwner configures the owner bootstrap exchange: the open id promoted to
// admin and the bcrypt hash of the secret that must be presented.
func (h *AuthHandler) SetOwner(openID, secretHash string) {
	h.ownerOpenID = openID
	h.ownerSecretHash = secretHash
}

// SetCookieWriter wires the session-cookie setter, normally Server.setSessionCookie.
func (h *AuthHandler) SetCookieWriter(fn func(c *gin.Context, token string)) {
	if fn != nil {
		h.setCookie = fn
	}
}

// buildOAuthConfigs converts the raw provider config map into oauth2.Config instances.
func buildOAuthConfigs(providers map[string]OAuthProviderConfig) map[string]*oauth2.Config {
	cfgs := make(map[string]*oauth2.Config)
	for name, p := range providers {
		if p.ClientID == "" || p.ClientSecret == "" {
			continue
		}
		var endpoint oauth2.Endpoint
		var scopes []string
		switch name {
		case "github":
			endpoint = github.Endpoint
			scopes = []string{"user:email"}
		case "google":
			endpoint = google.Endpoint
			scopes = []string{"openid", "email", "profile"}
		default:
			continue
		}
		cfgs[name] = &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		}
	}
	return cfgs
}

// Register mounts the auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.GET("/oauth/:provider", h.OAuthRedirect)
		auth.GET("/oauth/:provider/callback", h.OAuthCallback)
		auth.POST("/owner-token", h.OwnerToken)
	}
}

// OAuthRedirect handles GET /auth/oauth/:provider — redirects to the OAuth provider.
func (h *AuthHandler) OAuthRedirect(c *gin.Context) {
	provider := c.Param("provider")
	cfg, ok := h.oauthCfgs[provider]
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("OAuth provider %q not configured", provider)})
		return
	}

	state, err := h.tokens.IssueState(provider)
	if err != nil {
		h.logger.Error("generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate OAuth state"})
		return
	}

	c.Redirect(http.StatusFound, cfg.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// OAuthCallback handles GET /auth/oauth/:provider/callback.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	cfg, ok := h.oauthCfgs[provider]
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("OAuth provider %q not configured", provider)})
		return
	}

	// Validate state to prevent CSRF
	gotProvider, err := h.tokens.VerifyState(c.Query("state"))
	if err != nil || gotProvider != provider {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		errMsg := c.Query("error_description")
		if errMsg == "" {
			errMsg = c.Query("error")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth authorization failed: " + errMsg})
		return
	}

	oauthToken, err := cfg.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth code exchange failed"})
		return
	}

	providerID, email, displayName, err := fetchOAuthUserInfo(c.Request.Context(), provider, oauthToken.AccessToken)
	if err != nil {
		h.logger.Error("fetch oauth user info", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user info from provider"})
		return
	}

	openID := provider + ":" + providerID
	in := users.UpsertInput{
		OpenID:       openID,
		LoginMethod:  store.Set(provider),
		LastSignedIn: store.Set(time.Now().UTC()),
	}
	if displayName != "" {
		in.Name = store.Set(displayName)
	}
	if email != "" {
		in.Email = store.Set(email)
	}
	if err := h.users.Upsert(c.Request.Context(), in); err != nil {
		h.logger.Error("oauth identity upsert", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to record sign-in"})
		return
	}

	tok, err := h.tokens.Issue(openID)
	if err != nil {
		h.logger.Error("issue session token after oauth", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	RecordLogin(provider)

	// Cookie for browser clients, plus the token in the URL fragment for SPA
	// flows. Fragments never reach the server, so the token stays client-side.
	h.setCookie(c, tok)
	c.Redirect(http.StatusFound, h.frontendURL+"/oauth/callback#token="+tok)
}

type ownerTokenRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// OwnerToken handles POST /auth/owner-token — exchanges the owner bootstrap
// secret for a session. The owner identity flows through the same upsert as
// any other login, which is what promotes it to admin.
func (h *AuthHandler) OwnerToken(c *gin.Context) {
	if h.ownerOpenID == "" || h.ownerSecretHash == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "owner login is not configured"})
		return
	}

	var req ownerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "secret is required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.ownerSecretHash), []byte(req.Secret)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid owner secret"})
		return
	}

	if err := h.users.Upsert(c.Request.Context(), users.UpsertInput{
		OpenID:       h.ownerOpenID,
		LoginMethod:  store.Set("owner-secret"),
		LastSignedIn: store.Set(time.Now().UTC()),
	}); err != nil {
		h.logger.Error("owner identity upsert", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to record sign-in"})
		return
	}

	tok, err := h.tokens.Issue(h.ownerOpenID)
	if err != nil {
		h.logger.Error("issue owner session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	RecordLogin("owner-secret")

	h.setCookie(c, tok)
	u, _ := h.users.GetByOpenID(c.Request.Context(), h.ownerOpenID)
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": u})
}

// ─── OAuth user-info helpers ──────────────────────────────────────────────────

// fetchOAuthUserInfo calls the provider's user-info API and returns
// (providerID, email, displayName).
func fetchOAuthUserInfo(ctx context.Context, provider, accessToken string) (string, string, string, error) {
	switch provider {
	case "github":
		return fetchGitHubUserInfo(ctx, accessToken)
	case "google":
		return fetchGoogleUserInfo(ctx, accessToken)
	default:
		return "", "", "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchGitHubUserInfo(ctx context.Context, accessToken string) (id, email, name string, err error) {
	body, err := oauthAPIGet(ctx, "https://api.github.com/user", accessToken)
	if err != nil {
		return "", "", "", err
	}

	var info struct {
		ID    int    `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", "", "", fmt.Errorf("parse github user info: %w", err)
	}

	// GitHub may not return a public email; fall back to /user/emails
	if info.Email == "" {
		info.Email, _ = fetchGitHubPrimaryEmail(ctx, accessToken)
	}

	displayName := info.Name
	if displayName == "" {
		displayName = info.Login
	}

	return fmt.Sprintf("%d", info.ID), info.Email, displayName, nil
}

func fetchGitHubPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	body, err := oauthAPIGet(ctx, "https://api.github.com/user/emails", accessToken)
	if err != nil {
		return "", err
	}
	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

func fetchGoogleUserInfo(ctx context.Context, accessToken string) (id, email, name string, err error) {
	body, err := oauthAPIGet(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", accessToken)
	if err != nil {
		return "", "", "", err
	}
	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", "", "", fmt.Errorf("parse google user info: %w", err)
	}
	return info.ID, info.Email, info.Name, nil
}

func oauthAPIGet(ctx context.Context, url, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	// GitHub requires a User-Agent header
	if strings.Contains(url, "github.com") {
		req.Header.Set("User-Agent", "agrilink-api/1.0")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
