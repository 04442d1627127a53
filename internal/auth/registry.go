package auth

import (
	"fmt"
	"net/url"
)

// Credentials are an OAuth client id and secret.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

func (c Credentials) configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config selects the enabled providers.
type Config struct {
	PublicURL string
	Google    Credentials
	Facebook  Credentials
	Anonymous bool
}

// Registry holds the enabled providers in display order.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry enables every provider with credentials, plus anonymous
// sign-in when allowed.
func NewRegistry(cfg Config) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider)}
	if cfg.Google.configured() {
		u, err := callbackURL(cfg.PublicURL, "google")
		if err != nil {
			return nil, err
		}
		r.Add(Google(cfg.Google.ClientID, cfg.Google.ClientSecret, u))
	}
	if cfg.Facebook.configured() {
		u, err := callbackURL(cfg.PublicURL, "facebook")
		if err != nil {
			return nil, err
		}
		r.Add(Facebook(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, u))
	}
	if cfg.Anonymous {
		r.Add(Anonymous{})
	}
	return r, nil
}

// Add registers p, replacing any provider of the same name.
func (r *Registry) Add(p Provider) {
	if _, ok := r.providers[p.Name()]; !ok {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get returns the provider called name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Enabled lists providers in the order they were added.
func (r *Registry) Enabled() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

func callbackURL(publicURL, provider string) (string, error) {
	if publicURL == "" {
		return "", fmt.Errorf("server.public_url is required for %s sign-in", provider)
	}
	u, err := url.JoinPath(publicURL, "auth", provider, "redirect")
	if err != nil {
		return "", fmt.Errorf("invalid public url %q: %w", publicURL, err)
	}
	return u, nil
}
