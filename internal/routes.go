package internal

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Well-known client paths
const (
	DefaultLoginPath = "/auth"
	DefaultHomePath  = "/"
)

// Route describes one client page
type Route struct {
	Name         string
	Pattern      string // chi pattern, e.g. /images/{id}
	RequiresAuth bool
}

// DefaultRoutes is the gallery client's page table
var DefaultRoutes = []Route{
	{Name: "gallery", Pattern: "/", RequiresAuth: true},
	{Name: "image-detail", Pattern: "/images/{id}", RequiresAuth: true},
	{Name: "auth", Pattern: "/auth"},
}

// Target is a resolved navigation request
type Target struct {
	Name         string
	Path         string // path only
	FullPath     string // path plus query and fragment
	RequiresAuth bool
	Params       map[string]string
}

// Router resolves client paths against a route table. Unknown paths are
// redirected to the fallback path before they reach the guard.
type Router struct {
	mux      *chi.Mux
	routes   map[string]Route
	fallback string
}

// NewRouter builds a Router over routes
func NewRouter(routes []Route, fallback string) *Router {
	mux := chi.NewRouter()
	byPattern := make(map[string]Route, len(routes))
	for _, r := range routes {
		// Only the route tree is consulted; handlers never run.
		mux.Get(r.Pattern, func(http.ResponseWriter, *http.Request) {})
		byPattern[r.Pattern] = r
	}

	return &Router{
		mux:      mux,
		routes:   byPattern,
		fallback: fallback,
	}
}

// NewDefaultRouter builds a Router over DefaultRoutes falling back to homePath
func NewDefaultRouter(homePath string) *Router {
	return NewRouter(DefaultRoutes, homePath)
}

// Resolve matches fullPath against the route table
func (r *Router) Resolve(fullPath string) (Target, error) {
	if !strings.HasPrefix(fullPath, "/") {
		fullPath = "/" + fullPath
	}

	u, err := url.Parse(fullPath)
	if err != nil {
		return Target{}, fmt.Errorf("invalid path %q: %w", fullPath, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		if path == r.fallback {
			return Target{}, fmt.Errorf("fallback path %q has no route", r.fallback)
		}
		LogDebug("No route for %s, redirecting to %s", path, r.fallback)
		return r.Resolve(r.fallback)
	}

	route, ok := r.routes[rctx.RoutePattern()]
	if !ok {
		return Target{}, fmt.Errorf("no route registered for pattern %q", rctx.RoutePattern())
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}

	full := u.EscapedPath()
	if full == "" {
		full = "/"
	}
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		full += "#" + u.EscapedFragment()
	}

	return Target{
		Name:         route.Name,
		Path:         path,
		FullPath:     full,
		RequiresAuth: route.RequiresAuth,
		Params:       params,
	}, nil
}
