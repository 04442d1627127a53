package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/versemark/versemark/internal/auth"
	"github.com/versemark/versemark/internal/utils"
	"github.com/versemark/versemark/internal/views"
	"github.com/versemark/versemark/pkg/storage"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// cookieSettings derives the session cookie Domain and Secure flag from the
// public URL. The domain is the registrable domain of the host so the
// session is shared across its subdomains; IPs and single-label hosts get
// a host-only cookie.
func cookieSettings(publicURL string) (domain string, secure bool, err error) {
	if publicURL == "" {
		return "", false, nil
	}
	u, err := url.Parse(publicURL)
	if err != nil || u.Host == "" {
		return "", false, fmt.Errorf("invalid public url %q", publicURL)
	}
	secure = u.Scheme == "https"
	host := u.Hostname()
	if utils.IsIP(host) || !strings.Contains(host, ".") {
		return "", secure, nil
	}
	d, err := publicsuffix.Domain(strings.ToLower(host))
	if err != nil {
		return "", secure, nil
	}
	return d, secure, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess storage.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Domain:   s.cookieDomain,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   s.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionUser resolves the session cookie to a user id.
func (s *Server) sessionUser(r *http.Request) (string, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", storage.ErrSessionNotFound
	}
	sess, err := s.db.LookupSession(r.Context(), c.Value)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

// requirePage sends visitors without a session to the login page.
func (s *Server) requirePage(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.sessionUser(r)
		if err != nil {
			if !errors.Is(err, storage.ErrSessionNotFound) {
				s.log.Errorf("session lookup failed: %v", err)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, userID)
	}
}

// requireAPI rejects requests without a session with 401.
func (s *Server) requireAPI(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.sessionUser(r)
		if err != nil {
			if !errors.Is(err, storage.ErrSessionNotFound) {
				s.serverError(w, "session lookup", err)
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var links []views.ProviderLink
	for _, p := range s.auth.Enabled() {
		name := p.Name()
		links = append(links, views.ProviderLink{
			Name:  name,
			Title: strings.ToUpper(name[:1]) + name[1:],
			Post:  p.LoginURL("") == "",
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	views.LoginPage(links, r.URL.Query().Get("error")).Render(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.db.DeleteSession(r.Context(), c.Value); err != nil {
			s.log.Warnf("failed to delete session: %v", err)
		}
	}
	s.clearCookie(w, sessionCookie, "/")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleAuthStart stores a fresh state and sends the browser to the provider.
func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	p, err := s.auth.Get(r.PathValue("provider"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	state := auth.NewState()
	target := p.LoginURL(state)
	if target == "" {
		// Providers without a redirect sign in from the login form.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	p, err := s.auth.Get(r.PathValue("provider"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	var expected string
	if c, err := r.Cookie(stateCookie); err == nil {
		expected = c.Value
	}
	s.clearCookie(w, stateCookie, "/auth/")
	if err := auth.VerifyState(r, expected); err != nil {
		s.log.Warnf("rejected %s callback: %v", p.Name(), err)
		s.renderError(w, http.StatusBadRequest, "The sign-in request expired or was tampered with. Please try again.")
		return
	}

	id, err := p.Complete(r.Context(), r)
	if err != nil {
		s.log.Warnf("%s sign-in failed: %v", p.Name(), err)
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Sign-in with "+p.Name()+" failed."), http.StatusSeeOther)
		return
	}
	s.signIn(w, r, id)
}

func (s *Server) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	p, err := s.auth.Get("anonymous")
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	id, err := p.Complete(r.Context(), r)
	if err != nil {
		s.serverError(w, "anonymous sign-in", err)
		return
	}
	s.signIn(w, r, id)
}

// signIn records the user, opens a session and lands on the checklist.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	user, err := s.db.UpsertUser(r.Context(), id.Provider, id.Subject, id.DisplayName)
	if err != nil {
		s.serverError(w, "storing user", err)
		return
	}
	sess, err := s.db.CreateSession(r.Context(), user.ID, s.cfg.SessionTTL)
	if err != nil {
		s.serverError(w, "creating session", err)
		return
	}
	s.metrics.logins.WithLabelValues(id.Provider).Inc()
	s.log.Infof("User %s signed in with %s", user.ID, id.Provider)
	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
