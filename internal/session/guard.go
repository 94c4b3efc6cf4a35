// Package session owns the client's credential and reacts to authentication
// failures reported by any other component.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/justsurfingit/hiring-pipeline/internal/auth"
)

var (
	ErrSessionExpired = errors.New("session: expired, re-authentication required")
	ErrStaleResult    = errors.New("session: result belongs to an expired session")
)

type State string

const (
	Active  State = "active"
	Expired State = "expired"
)

// Navigator is told to send the user to re-authentication.
type Navigator interface {
	RedirectToLogin(reason string)
}

type NavigatorFunc func(reason string)

func (f NavigatorFunc) RedirectToLogin(reason string) { f(reason) }

// CredentialStore is where the credential is persisted between runs.
type CredentialStore interface {
	Clear() error
}

// Guard tracks whether the current credential is usable. The generation
// increases on every expiry so in-flight work can tell it is stale.
type Guard struct {
	mu         sync.RWMutex
	state      State
	generation uint64
	cred       *auth.Credential

	store     CredentialStore
	navigator Navigator
	logger    *slog.Logger
}

// NewGuard starts active when cred carries a token, expired otherwise.
func NewGuard(cred *auth.Credential, store CredentialStore, nav Navigator, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{
		state:     Expired,
		store:     store,
		navigator: nav,
		logger:    logger,
	}
	if cred != nil && cred.Token != nil && cred.Token.AccessToken != "" {
		g.state = Active
		g.cred = cred
	}
	return g
}

func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Guard) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

// Check fails fast while the session is expired.
func (g *Guard) Check() error {
	if g.State() == Expired {
		return ErrSessionExpired
	}
	return nil
}

// Begin checks the session and returns the generation the caller's work
// belongs to.
func (g *Guard) Begin() (uint64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state == Expired {
		return g.generation, ErrSessionExpired
	}
	return g.generation, nil
}

// Stale reports whether work started at gen must be discarded.
func (g *Guard) Stale(gen uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state == Expired || g.generation != gen
}

// Identity returns the identity of the active credential.
func (g *Guard) Identity() (auth.Identity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state == Expired || g.cred == nil {
		return auth.Identity{}, ErrSessionExpired
	}
	return g.cred.Identity, nil
}

// Token implements oauth2.TokenSource for the HTTP transport.
func (g *Guard) Token() (*oauth2.Token, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state == Expired || g.cred == nil || g.cred.Token == nil {
		return nil, ErrSessionExpired
	}
	return g.cred.Token, nil
}

// ReportAuthFailure expires the session for work that started at gen. Only
// the first report for a generation has an effect; later ones, and reports
// from older generations, are ignored. It returns true when this call
// expired the session.
func (g *Guard) ReportAuthFailure(gen uint64, cause error) bool {
	g.mu.Lock()
	if g.state == Expired || g.generation != gen {
		g.mu.Unlock()
		return false
	}
	g.state = Expired
	g.generation++
	g.cred = nil
	g.mu.Unlock()

	reason := "authentication failed"
	if cause != nil {
		reason = cause.Error()
	}
	g.logger.Warn("session expired",
		slog.Uint64("generation", gen),
		slog.String("reason", reason),
	)

	if g.store != nil {
		if err := g.store.Clear(); err != nil {
			g.logger.Error("failed to clear stored credential", slog.String("error", err.Error()))
		}
	}
	if g.navigator != nil {
		g.navigator.RedirectToLogin(reason)
	}
	return true
}

// Establish installs a new credential and returns the guard to active.
func (g *Guard) Establish(cred *auth.Credential) error {
	if cred == nil || cred.Token == nil || cred.Token.AccessToken == "" {
		return errors.New("session: credential has no access token")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Active {
		// a replaced credential invalidates work started under the old one
		g.generation++
	}
	g.state = Active
	g.cred = cred
	g.logger.Info("session established", slog.String("user_id", cred.Identity.UserID))
	return nil
}

// Logout ends the session without redirecting.
func (g *Guard) Logout() {
	g.mu.Lock()
	if g.state == Expired {
		g.mu.Unlock()
		return
	}
	g.state = Expired
	g.generation++
	g.cred = nil
	g.mu.Unlock()

	if g.store != nil {
		if err := g.store.Clear(); err != nil {
			g.logger.Error("failed to clear stored credential", slog.String("error", err.Error()))
		}
	}
}
