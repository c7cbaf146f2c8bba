package guard

import (
	"sort"
	"strings"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// Route describes one navigable path
type Route struct {
	Pattern      string      // exact path, or a prefix ending in "/*"
	Public       bool        // rendered without consulting the session
	RequiredRole models.Role // empty means any signed-in user
	Index        string      // when set, a rendered match forwards here
}

// Routes is a route table. Exact patterns win over prefixes, and longer
// prefixes win over shorter ones.
type Routes struct {
	exact    map[string]Route
	prefixes []Route
}

// NewRoutes builds a table from rs
func NewRoutes(rs ...Route) *Routes {
	t := &Routes{exact: make(map[string]Route)}
	for _, r := range rs {
		if strings.HasSuffix(r.Pattern, "/*") {
			t.prefixes = append(t.prefixes, r)
			continue
		}
		t.exact[Clean(r.Pattern)] = r
	}
	sort.Slice(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].Pattern) > len(t.prefixes[j].Pattern)
	})
	return t
}

// DefaultRoutes is the application's page map
func DefaultRoutes() *Routes {
	admin := models.RoleAdmin
	return NewRoutes(
		// Public pages
		Route{Pattern: LoginPath, Public: true},
		Route{Pattern: "/signup", Public: true},
		Route{Pattern: "/unauthorized", Public: true},
		Route{Pattern: NotFoundPath, Public: true},

		// Root forwards to the caller's landing page via the guard
		Route{Pattern: RootPath},

		// Admin area
		Route{Pattern: AdminPrefix, RequiredRole: admin, Index: "/admin/dashboard"},
		Route{Pattern: "/admin/dashboard", RequiredRole: admin},
		Route{Pattern: "/admin/users", RequiredRole: admin},
		Route{Pattern: "/admin/users/new", RequiredRole: admin},
		Route{Pattern: "/admin/assets", RequiredRole: admin},
		Route{Pattern: "/admin/posts", RequiredRole: admin},
		Route{Pattern: "/admin/gallery", RequiredRole: admin},
		Route{Pattern: "/admin/profile", RequiredRole: admin},
		Route{Pattern: "/admin-only-page", RequiredRole: admin},

		// Member area
		Route{Pattern: "/dashboard"},
		Route{Pattern: "/profile"},
		Route{Pattern: "/whats-new"},
		Route{Pattern: "/gallery"},
	)
}

// Match finds the route for p
func (t *Routes) Match(p string) (Route, bool) {
	p = Clean(p)
	if r, ok := t.exact[p]; ok {
		return r, true
	}
	for _, r := range t.prefixes {
		base := strings.TrimSuffix(r.Pattern, "/*")
		if p == base || strings.HasPrefix(p, base+"/") {
			return r, true
		}
	}
	return Route{}, false
}
