package microsoft

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Email prefers mail and falls back to the principal name, which is what
// Graph returns for accounts without a mailbox.
func (p Profile) Email() string {
	if p.Mail != "" {
		return strings.ToLower(p.Mail)
	}
	return strings.ToLower(p.UserPrincipalName)
}

type ItfMicrosoft interface {
	AuthCodeURL(state string) string
	GetUserProfile(ctx context.Context, code string) (Profile, error)
	GetConfig() *oauth2.Config
}

type microsoftProvider struct {
	config *oauth2.Config
}

func New() ItfMicrosoft {
	tenant := os.Getenv("MICROSOFT_TENANT_ID")
	if tenant == "" {
		tenant = "common"
	}

	redirectURL := os.Getenv("MICROSOFT_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:3000/api/v1/auth/callback-ms"
	}

	return &microsoftProvider{config: &oauth2.Config{
		ClientID:     os.Getenv("MICROSOFT_CLIENT_ID"),
		ClientSecret: os.Getenv("MICROSOFT_CLIENT_SECRET"),
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile", "User.Read"},
		Endpoint:     microsoft.AzureADEndpoint(tenant),
	}}
}

func (m *microsoftProvider) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (m *microsoftProvider) GetUserProfile(ctx context.Context, code string) (Profile, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphMeURL, nil)
	if err != nil {
		return Profile{}, err
	}

	resp, err := m.config.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("get graph profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("graph profile returned %d", resp.StatusCode)
	}

	var profile Profile
	if err := jsoniter.Unmarshal(body, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode graph profile: %w", err)
	}

	return profile, nil
}

func (m *microsoftProvider) GetConfig() *oauth2.Config {
	return m.config
}
