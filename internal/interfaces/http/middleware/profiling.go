package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelController = "controller"
)

// Profiling tags the rest of the request with pyroscope labels so CPU and
// allocation profiles can be split by route. Requests for skipPaths and
// unmatched routes run unlabelled.
func Profiling(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		labels := []string{
			ProfilingLabelMethod, c.Request.Method,
			ProfilingLabelRoute, route,
		}
		if controller := controllerFromRoute(route); controller != "" {
			labels = append(labels, ProfilingLabelController, controller)
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(labels...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute returns the first resource segment after the API
// prefix: "/api/v1/products/:id" gives "products".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
