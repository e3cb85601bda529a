package actor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
)

func TestRoundTrip(t *testing.T) {
	in := actor.Actor{ID: "u1", Identity: "dr@clinic.test", Role: constant.RoleProvider, OrgID: "o1", DepartmentID: "d1"}

	out := actor.FromContext(actor.WithActor(context.Background(), in))

	assert.Equal(t, in, out)
	assert.True(t, out.Is(constant.RoleOrgAdmin, constant.RoleProvider))
	assert.False(t, out.Is(constant.RoleSuperAdmin))
}

func TestGuest(t *testing.T) {
	a := actor.FromContext(context.Background())

	assert.Equal(t, constant.ContextGuest, a.Identity)
	assert.Empty(t, a.Role)
}
