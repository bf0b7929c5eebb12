package authgate

import (
	"log"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

// AuthCodeURLer is implemented by oauth exchangers that can also produce
// the provider's authorization URL, so the handler can start the code flow
// without knowing the provider's endpoints.
type AuthCodeURLer interface {
	AuthCodeURL(state string) string
}

// Handler is the HTTP boundary over a Completer. It owns route setup,
// cookie application and redirects; all decisions live in the Completer.
type Handler struct {
	completer *Completer
	router    *mux.Router

	// Session, when set, mirrors the logged-in user id into a server-side
	// session so non-auth handlers can read it without parsing tokens.
	Session *scs.SessionManager
}

// NewHandler builds a Handler with routes mounted under /auth.
func NewHandler(cfg *Config) *Handler {
	h := &Handler{completer: NewCompleter(cfg)}
	r := mux.NewRouter()
	r.HandleFunc("/auth/{provider}/signin", h.onSignIn).Methods("GET", "POST")
	r.HandleFunc("/auth/{provider}/callback", h.onCallback).Methods("GET", "POST")
	r.HandleFunc("/auth/signout", h.onSignOut).Methods("GET", "POST")
	h.router = r
	return h
}

// Completer exposes the underlying orchestrator, mostly for tests and for
// apps that start flows (email links, remote sign-on) outside HTTP.
func (h *Handler) Completer() *Completer { return h.completer }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) onSignIn(w http.ResponseWriter, r *http.Request) {
	cfg := h.completer.cfg
	providerID := mux.Vars(r)["provider"]
	p := cfg.Provider(providerID)
	if p == nil {
		http.NotFound(w, r)
		return
	}
	returnTo := r.URL.Query().Get("callbackURL")

	switch p.Kind {
	case KindSSO:
		init, err := h.completer.InitiateSSO(providerID, returnTo)
		if err != nil {
			log.Printf("sso initiation failed for %s: %v", providerID, err)
			http.Redirect(w, r, cfg.ErrorURL+"?error="+string(codeOf(err)), http.StatusFound)
			return
		}
		http.SetCookie(w, init.Cookie)
		http.Redirect(w, r, init.RedirectURL, http.StatusFound)

	case KindOAuth:
		au, ok := p.Exchanger.(AuthCodeURLer)
		if !ok {
			http.Redirect(w, r, cfg.ErrorURL+"?error="+string(ErrCodeConfigurationError), http.StatusFound)
			return
		}
		setCallbackCookie(w, returnTo)
		http.Redirect(w, r, au.AuthCodeURL(providerID), http.StatusFound)

	case KindEmail:
		if r.Method != "POST" {
			http.Redirect(w, r, cfg.SignInURL, http.StatusFound)
			return
		}
		r.ParseForm()
		err := h.completer.StartEmailSignIn(r.Context(), providerID, r.PostFormValue("email"), returnTo)
		if err != nil {
			log.Printf("email sign-in start failed for %s: %v", providerID, err)
			http.Redirect(w, r, cfg.ErrorURL+"?error="+string(codeOf(err)), http.StatusFound)
			return
		}
		http.Redirect(w, r, cfg.SignInURL+"?sent=1", http.StatusFound)

	default:
		// Credentials sign in posts straight to the callback.
		http.Redirect(w, r, cfg.SignInURL, http.StatusFound)
	}
}

func (h *Handler) onCallback(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	req := &CallbackRequest{
		ProviderID:  mux.Vars(r)["provider"],
		Method:      r.Method,
		Query:       r.URL.Query(),
		Body:        r.PostForm,
		CallbackURL: r.URL.Query().Get("callbackURL"),
	}
	if c, err := r.Cookie(h.completer.cfg.NonceCookieName); err == nil {
		req.NonceBinding = c.Value
	}
	if req.CallbackURL == "" {
		if c, err := r.Cookie("authCallbackURL"); err == nil {
			req.CallbackURL = c.Value
		}
	}

	outcome := h.completer.Complete(r.Context(), req)
	for _, cookie := range outcome.Cookies {
		http.SetCookie(w, cookie)
	}
	setCallbackCookie(w, "") // clear; single use
	if !outcome.Failed() && h.Session != nil {
		h.Session.Put(r.Context(), "loggedInUserId", outcome.User.ID)
	}
	http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
}

func (h *Handler) onSignOut(w http.ResponseWriter, r *http.Request) {
	cfg := h.completer.cfg
	if cfg.SessionMode == SessionDatabase && cfg.Adapter != nil {
		if c, err := r.Cookie(cfg.SessionCookieName); err == nil && c.Value != "" {
			if err := cfg.Adapter.DeleteSession(r.Context(), c.Value); err != nil {
				log.Printf("session delete failed: %v", err)
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:    cfg.SessionCookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
	if h.Session != nil {
		if err := h.Session.Clear(r.Context()); err != nil {
			log.Printf("session clear failed: %v", err)
		}
	}
	to := r.URL.Query().Get("to")
	if to == "" {
		to = cfg.BaseURL
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func setCallbackCookie(w http.ResponseWriter, value string) {
	c := &http.Cookie{Name: "authCallbackURL", Value: value, Path: "/"}
	if value == "" {
		c.MaxAge = -1
		c.Expires = time.Now()
	}
	http.SetCookie(w, c)
}
