package permissions

import (
	_ "embed"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

// Permission lists the roles allowed on one route pattern. Skip marks a public route.
type Permission struct {
	Roles  []string `json:"permissions"`
	Path   string   `json:"path"`
	Method string   `json:"method"`
	Skip   bool     `json:"skip"`
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`

	byRoute map[string]Permission
}

func routeKey(path, method string) string {
	return strings.ToUpper(method) + " " + path
}

func (r *PermissionData) index() {
	r.byRoute = make(map[string]Permission, len(r.Endpoints))

	for _, endpoint := range r.Endpoints {
		key := routeKey(endpoint.Path, endpoint.Method)
		if _, dup := r.byRoute[key]; dup {
			log.Warn().Str("route", key).Msg("Duplicate permission entry, keeping the first")

			continue
		}

		r.byRoute[key] = endpoint
	}
}

// FindPermissions returns the entry for a chi route pattern, or the zero Permission when none is configured.
func (r *PermissionData) FindPermissions(path, method string) Permission {
	key := routeKey(path, method)

	if r.byRoute == nil {
		idx := slices.IndexFunc(r.Endpoints, func(p Permission) bool { return routeKey(p.Path, p.Method) == key })
		if idx == -1 {
			return Permission{}
		}

		return r.Endpoints[idx]
	}

	return r.byRoute[key]
}

// Allows reports whether role may call the route. Routes without configured roles are open to any
// authenticated caller.
func (r *PermissionData) Allows(path, method, role string) bool {
	if r.Skip {
		return true
	}

	permission := r.FindPermissions(path, method)
	if permission.Skip || len(permission.Roles) == 0 {
		return true
	}

	return slices.Contains(permission.Roles, role)
}

func Get() *PermissionData {
	var permissions PermissionData

	err := json.Unmarshal(permissionsData, &permissions)
	if err != nil {
		log.Err(err).Msg("Failed to decode embedded permissions")

		return nil
	}

	permissions.index()

	log.Info().Int("endpoints", len(permissions.byRoute)).Msg("Successfully loaded embedded permissions")

	return &permissions
}
