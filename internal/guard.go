package internal

import (
	"net/url"
	"time"
)

// ActionKind classifies a navigation decision
type ActionKind int

const (
	ActionAllow ActionKind = iota
	ActionRedirectToLogin
	ActionRedirectToHome
)

func (k ActionKind) String() string {
	switch k {
	case ActionAllow:
		return "allow"
	case ActionRedirectToLogin:
		return "redirect-to-login"
	case ActionRedirectToHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// Action is the guard's answer for one navigation
type Action struct {
	Kind   ActionKind
	Origin string // requested full path, set for ActionRedirectToLogin
}

// Location renders the route that replaces the navigation target.
// Allow yields an empty string.
func (a Action) Location(loginPath, homePath string) string {
	switch a.Kind {
	case ActionRedirectToLogin:
		return loginPath + "?" + url.Values{"redirect": {a.Origin}}.Encode()
	case ActionRedirectToHome:
		return homePath
	default:
		return ""
	}
}

// DecideNavigation classifies target given the stored credential. The second
// result asks the caller to clear the stored credential.
func DecideNavigation(target Target, storedToken, loginPath string, now time.Time) (Action, bool) {
	if target.RequiresAuth && storedToken == "" {
		return Action{Kind: ActionRedirectToLogin, Origin: target.FullPath}, false
	}
	if target.RequiresAuth && !IsCredentialUsable(storedToken, now) {
		return Action{Kind: ActionRedirectToLogin, Origin: target.FullPath}, true
	}
	// Any stored token leaves the login page; validity is not re-checked.
	if target.Path == loginPath && storedToken != "" {
		return Action{Kind: ActionRedirectToHome}, false
	}
	return Action{Kind: ActionAllow}, false
}

// Guard evaluates navigations against the credential held in a Slot
type Guard struct {
	slot      Slot
	loginPath string
	homePath  string
	now       func() time.Time
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithGuardClock overrides the clock used for expiry checks
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// WithGuardPaths overrides the login and home paths
func WithGuardPaths(loginPath, homePath string) GuardOption {
	return func(g *Guard) {
		g.loginPath = loginPath
		g.homePath = homePath
	}
}

// NewGuard creates a Guard reading the credential from slot
func NewGuard(slot Slot, opts ...GuardOption) *Guard {
	g := &Guard{
		slot:      slot,
		loginPath: DefaultLoginPath,
		homePath:  DefaultHomePath,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate decides target and clears an expired credential from the slot.
// A slot read failure is treated as "no credential".
func (g *Guard) Evaluate(target Target) Action {
	token, ok, err := g.slot.Get(CredentialKey)
	if err != nil {
		LogWarn("Failed to read credential: %v", err)
		token, ok = "", false
	}
	if !ok {
		token = ""
	}

	action, clearCred := DecideNavigation(target, token, g.loginPath, g.now())
	if clearCred {
		if err := g.slot.Remove(CredentialKey); err != nil {
			LogWarn("Failed to clear expired credential: %v", err)
		} else {
			LogInfo("Cleared expired credential")
		}
	}

	LogDebug("Guard %s -> %s", target.FullPath, action.Kind)
	return action
}

// Location renders action against the guard's paths
func (g *Guard) Location(action Action) string {
	return action.Location(g.loginPath, g.homePath)
}
