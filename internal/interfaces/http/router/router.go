// Package router mounts the HTTP handlers on a gin engine.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Route describes one mounted endpoint. Permission is empty for endpoints
// any authenticated caller (or, behind the JWT skip list, anyone) may use.
type Route struct {
	Method     string
	Path       string
	Permission string
}

// PermissionGuard builds the middleware enforcing a permission code
type PermissionGuard func(permission string) gin.HandlerFunc

// Router mounts domain groups under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	guard      PermissionGuard
	groups     []*DomainGroup
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware adds middleware run before every versioned route
func WithMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, middleware...)
	}
}

// WithPermissionGuard sets how guarded routes check their permission.
// Without a guard, guarded routes are mounted unchecked.
func WithPermissionGuard(guard PermissionGuard) RouterOption {
	return func(r *Router) {
		r.guard = guard
	}
}

// NewRouter creates a Router for engine, versioned v1 unless configured
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues groups for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts every registered group
func (r *Router) Setup() {
	api := r.engine.Group(r.prefix(), r.middleware...)
	for _, g := range r.groups {
		g.mount(api, r.guard)
	}
}

// Routes lists every registered endpoint with its full path
func (r *Router) Routes() []Route {
	var routes []Route
	for _, g := range r.groups {
		routes = g.collect(r.prefix(), routes)
	}
	return routes
}

func (r *Router) prefix() string {
	return "/api/" + r.apiVersion
}

// DomainGroup collects the routes of one resource, e.g. /products
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []groupRoute
	subgroups  []*DomainGroup
}

type groupRoute struct {
	Route
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a group mounted at prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Use adds middleware to this group only
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route guarded by permission; an empty permission means
// no permission check.
func (dg *DomainGroup) Handle(method, relativePath, permission string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, groupRoute{
		Route:    Route{Method: method, Path: relativePath, Permission: permission},
		handlers: handlers,
	})
	return dg
}

// GET registers an unguarded GET route
func (dg *DomainGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, relativePath, "", handlers...)
}

// POST registers an unguarded POST route
func (dg *DomainGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, relativePath, "", handlers...)
}

// Group creates a nested group under this one
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

func (dg *DomainGroup) mount(parent *gin.RouterGroup, guard PermissionGuard) {
	group := parent.Group(dg.prefix, dg.middleware...)
	for _, route := range dg.routes {
		handlers := route.handlers
		if route.Permission != "" && guard != nil {
			handlers = append([]gin.HandlerFunc{guard(route.Permission)}, handlers...)
		}
		group.Handle(route.Method, route.Path, handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.mount(group, guard)
	}
}

func (dg *DomainGroup) collect(parent string, routes []Route) []Route {
	base := path.Join(parent, dg.prefix)
	for _, route := range dg.routes {
		full := route.Route
		full.Path = path.Join(base, route.Path)
		routes = append(routes, full)
	}
	for _, sub := range dg.subgroups {
		routes = sub.collect(base, routes)
	}
	return routes
}
