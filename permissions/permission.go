// Package permissions holds the role table of every routed endpoint, embedded from
// permissions.json. Routes missing from the table admit nobody.
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

type Permission struct {
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Permissions []string `json:"permissions"`
	Skip        bool     `json:"skip"`
}

// Allows reports whether role may call the endpoint.
func (p Permission) Allows(role string) bool {
	return p.Skip || slices.Contains(p.Permissions, role)
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`

	byRoute map[string]Permission
}

// Lookup finds the entry of a route pattern such as /v1/bookings/{id}. A trailing
// slash is ignored.
func (d *PermissionData) Lookup(pattern, method string) (Permission, bool) {
	permission, ok := d.byRoute[routeKey(method, pattern)]

	return permission, ok
}

func routeKey(method, pattern string) string {
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}

	return strings.ToUpper(method) + " " + pattern
}

// Get decodes the embedded table. It returns nil when the table is malformed, which
// makes every protected route answer 403.
func Get() *PermissionData {
	var data PermissionData

	if err := json.Unmarshal(permissionsData, &data); err != nil {
		log.Error().Err(err).Msg("failed to decode embedded permissions")

		return nil
	}

	data.byRoute = make(map[string]Permission, len(data.Endpoints))
	for _, endpoint := range data.Endpoints {
		data.byRoute[routeKey(endpoint.Method, endpoint.Path)] = endpoint
	}

	log.Info().Int("endpoints", len(data.Endpoints)).Msg("permissions loaded")

	return &data
}
