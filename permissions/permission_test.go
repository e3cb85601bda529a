package permissions_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/permissions"
	"teleconsult/shared/constant"
)

func TestEmbeddedPermissions(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	tests := []struct {
		name    string
		path    string
		method  string
		skip    bool
		allowed string
		denied  string
	}{
		{name: "join is public", path: "/v1/sessions/join", method: http.MethodPost, skip: true},
		{name: "doctor books", path: "/v1/appointments/", method: http.MethodPost, allowed: constant.RoleProvider, denied: constant.RoleClient},
		{name: "patient joins own session", path: "/v1/sessions/{appointmentID}/admission", method: http.MethodPost, allowed: constant.RoleClient},
		{name: "reminder sweep is internal", path: "/v1/internal/reminders/scan", method: http.MethodPost, allowed: constant.RoleSuperAdmin, denied: constant.RoleOrgAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			permission := data.FindPermissions(tt.path, tt.method)

			assert.Equal(t, tt.skip, permission.Skip)

			if tt.allowed != "" {
				assert.Contains(t, permission.Roles, tt.allowed)
				assert.True(t, data.Allows(tt.path, tt.method, tt.allowed))
			}

			if tt.denied != "" {
				assert.NotContains(t, permission.Roles, tt.denied)
				assert.False(t, data.Allows(tt.path, tt.method, tt.denied))
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	assert.Equal(t, permissions.Permission{}, permissions.Get().FindPermissions("/v1/unknown", http.MethodGet))
}

func TestAllows(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	assert.True(t, data.Allows("/v1/sessions/join", http.MethodPost, ""), "public route")
	assert.True(t, data.Allows("/v1/unknown", http.MethodGet, constant.RoleClient), "unconfigured route")
	assert.True(t, data.Allows("/v1/appointments/", "post", constant.RoleProvider), "method is case insensitive")

	data.Skip = true
	assert.True(t, data.Allows("/v1/internal/reminders/scan", http.MethodPost, constant.RoleClient))
}
