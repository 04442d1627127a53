// Package auth signs users in through OAuth providers or anonymously.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var (
	ErrUnknownProvider = errors.New("unknown auth provider")
	ErrStateMismatch   = errors.New("oauth state mismatch")
	ErrDenied          = errors.New("sign-in was denied")
)

// Identity is who a provider says the user is.
type Identity struct {
	Provider    string
	Subject     string
	DisplayName string
}

// Provider is one way of signing in.
type Provider interface {
	Name() string
	// LoginURL is where the browser is sent to start signing in. An empty
	// URL means the provider completes without a redirect.
	LoginURL(state string) string
	Complete(ctx context.Context, r *http.Request) (Identity, error)
}

// Anonymous issues a fresh random identity on every sign-in.
type Anonymous struct{}

func (Anonymous) Name() string { return "anonymous" }
func (Anonymous) LoginURL(string) string { return "" }

func (Anonymous) Complete(context.Context, *http.Request) (Identity, error) {
	return Identity{Provider: "anonymous", Subject: uuid.NewString(), DisplayName: "Guest"}, nil
}

// OAuth is an authorization-code provider that reads the user from a JSON
// userinfo endpoint.
type OAuth struct {
	name        string
	conf        *oauth2.Config
	userInfoURL string
	idPath      string
	namePath    string
}

// NewOAuth builds a provider. idPath and namePath are gjson paths into the
// userinfo document.
func NewOAuth(name string, conf *oauth2.Config, userInfoURL, idPath, namePath string) *OAuth {
	return &OAuth{name: name, conf: conf, userInfoURL: userInfoURL, idPath: idPath, namePath: namePath}
}

// Google signs in with a Google account.
func Google(clientID, clientSecret, redirectURL string) *OAuth {
	return NewOAuth("google", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "profile"},
	}, "https://openidconnect.googleapis.com/v1/userinfo", "sub", "name")
}

// Facebook signs in with a Facebook account.
func Facebook(clientID, clientSecret, redirectURL string) *OAuth {
	return NewOAuth("facebook", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Facebook,
		Scopes:       []string{"public_profile"},
	}, "https://graph.facebook.com/me?fields=id,name", "id", "name")
}

func (p *OAuth) Name() string { return p.name }

func (p *OAuth) LoginURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Complete exchanges the callback code for a token and fetches the user.
func (p *OAuth) Complete(ctx context.Context, r *http.Request) (Identity, error) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return Identity{}, fmt.Errorf("%w: %s", ErrDenied, e)
	}
	code := q.Get("code")
	if code == "" {
		return Identity{}, fmt.Errorf("%s callback without code", p.name)
	}

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchanging %s code: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("fetching %s userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%s userinfo returned %d", p.name, resp.StatusCode)
	}

	subject := gjson.GetBytes(body, p.idPath).String()
	if subject == "" {
		return Identity{}, fmt.Errorf("%s userinfo has no %q", p.name, p.idPath)
	}
	return Identity{
		Provider:    p.name,
		Subject:     subject,
		DisplayName: gjson.GetBytes(body, p.namePath).String(),
	}, nil
}

// NewState returns an unguessable OAuth state value.
func NewState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// VerifyState compares the state echoed by the provider with the one stored
// in the browser before the redirect.
func VerifyState(r *http.Request, expected string) error {
	got := r.URL.Query().Get("state")
	if expected == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
