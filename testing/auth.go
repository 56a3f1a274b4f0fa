package e2etesting

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/services/mail"
)

type TestUser struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Password      string `json:"-"`
	Token         string `json:"-"`
}

type authBody struct {
	User      TestUser `json:"user"`
	AuthToken string   `json:"auth_token"`
}

type AuthHelper struct {
	App        *E2EApp
	HTTPClient *HTTPClient
}

func NewAuthHelper(e2eApp *E2EApp) *AuthHelper {
	return &AuthHelper{
		App:        e2eApp,
		HTTPClient: e2eApp.Client(),
	}
}

// Register creates the account through the API and fills in the id and
// auth token.
func (h *AuthHelper) Register(t *testing.T, u *TestUser) {
	t.Helper()

	resp, err := h.HTTPClient.Post("/auth/register", map[string]string{
		"name":     u.Name,
		"email":    u.Email,
		"password": u.Password,
	})
	require.NoError(t, err)
	resp.AssertStatus(t, http.StatusCreated)

	var body authBody
	require.NoError(t, resp.GetJSON(&body))
	u.ID = body.User.ID
	u.Token = body.AuthToken
}

// Login returns a fresh auth token for the credentials.
func (h *AuthHelper) Login(t *testing.T, email, password string) string {
	t.Helper()

	resp, err := h.HTTPClient.Post("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)
	resp.AssertStatus(t, http.StatusOK)

	var body authBody
	require.NoError(t, resp.GetJSON(&body))
	require.NotEmpty(t, body.AuthToken, "login did not return a token: %s", resp.GetString())
	return body.AuthToken
}

// As returns a client authenticated as u.
func (h *AuthHelper) As(u *TestUser) *HTTPClient {
	return h.HTTPClient.WithToken(u.Token)
}

// TokenFromLastMail waits for background mail and returns the token query
// parameter of the link in the newest email sent to email whose subject
// contains subject.
func (h *AuthHelper) TokenFromLastMail(t *testing.T, email, subject string) string {
	t.Helper()
	require.NotNil(t, h.App.Mail, "mail driver is not memory")

	h.App.WaitForMail()

	var last *mail.Message
	for _, m := range h.App.Mail.SentTo(email) {
		if strings.Contains(strings.ToLower(m.Subject), strings.ToLower(subject)) {
			last = &m
		}
	}
	require.NotNil(t, last, "no email about %q sent to %s", subject, email)

	for _, field := range strings.Fields(last.Text) {
		link, err := url.Parse(field)
		if err != nil || link.Scheme == "" {
			continue
		}
		if token := link.Query().Get("token"); token != "" {
			return token
		}
	}

	require.FailNow(t, "no token link in email", last.Text)
	return ""
}
