package model_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"teleconsult/internal/domains/appointment/model"
)

const buffer = 15 * time.Minute

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 3, hour, minute, 0, 0, time.UTC)
}

func window(startH, startM, endH, endM int) model.Window {
	return model.Window{Start: at(startH, startM), End: at(endH, endM)}
}

func TestWindowValid(t *testing.T) {
	assert.True(t, window(10, 0, 10, 30).Valid())
	assert.False(t, window(10, 30, 10, 30).Valid())
	assert.False(t, window(10, 30, 10, 0).Valid())
}

func TestWindowCollides(t *testing.T) {
	stored := window(10, 0, 10, 30)

	tests := []struct {
		name      string
		candidate model.Window
		want      bool
	}{
		{name: "overlapping start", candidate: window(10, 20, 10, 50), want: true},
		{name: "gap of sixteen minutes", candidate: window(10, 46, 11, 0), want: false},
		{name: "gap of exactly the buffer", candidate: window(10, 45, 11, 0), want: false},
		{name: "gap inside the buffer", candidate: window(10, 44, 11, 0), want: true},
		{name: "candidate before, ends inside buffer", candidate: window(9, 0, 9, 50), want: true},
		{name: "candidate before, clear of buffer", candidate: window(9, 0, 9, 45), want: false},
		{name: "stored contains candidate", candidate: window(10, 5, 10, 10), want: true},
		{name: "candidate contains stored", candidate: window(9, 0, 12, 0), want: true},
		{name: "identical", candidate: window(10, 0, 10, 30), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.candidate.Buffered(buffer).Collides(stored))
		})
	}
}

func TestWindowBuffered(t *testing.T) {
	got := window(10, 46, 11, 0).Buffered(buffer)

	assert.Equal(t, at(10, 31), got.Start)
	assert.Equal(t, at(11, 15), got.End)
}

// Two windows that both pass the check are separated by at least the buffer.
func TestAcceptedWindowsKeepBufferApart(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) //nolint:gosec
	base := at(8, 0)

	randomWindow := func() model.Window {
		start := base.Add(time.Duration(rng.Intn(12*60)) * time.Minute)

		return model.Window{Start: start, End: start.Add(time.Duration(1+rng.Intn(90)) * time.Minute)}
	}

	for range 5000 {
		a, b := randomWindow(), randomWindow()

		forward := a.Buffered(buffer).Collides(b)
		backward := b.Buffered(buffer).Collides(a)

		assert.Equal(t, forward, backward, "a=%v b=%v", a, b)

		if forward {
			continue
		}

		apart := !b.End.After(a.Start.Add(-buffer)) || !b.Start.Before(a.End.Add(buffer))
		assert.True(t, apart, "a=%v b=%v", a, b)
	}
}

func TestOverlapFilter(t *testing.T) {
	filter := window(10, 5, 11, 5).OverlapFilter()

	where, args := filter.GetWhereClause()

	assert.Equal(t, "("+
		"(appointments.start_time >= :overlap_start_from AND appointments.start_time < :overlap_start_to) OR "+
		"(appointments.end_time > :overlap_end_from AND appointments.end_time <= :overlap_end_to) OR "+
		"(appointments.start_time <= :overlap_cover_start AND appointments.end_time >= :overlap_cover_end))", where)
	assert.Len(t, args, 6)
	assert.Equal(t, at(10, 5), args["overlap_start_from"])
	assert.Equal(t, at(11, 5), args["overlap_cover_end"])
}

func TestScopeFilter(t *testing.T) {
	tests := []struct {
		name      string
		scope     model.Scope
		excludeID string
		where     string
	}{
		{
			name:  "open set",
			scope: model.Scope{},
			where: "",
		},
		{
			name:  "provider only",
			scope: model.Scope{ProviderEmail: "doc@clinic.test"},
			where: "(appointments.provider_email = :provider_email)",
		},
		{
			name:      "department with exclusion",
			scope:     model.Scope{DepartmentID: "dep-1"},
			excludeID: "appt-1",
			where:     "(appointments.department_id = :department_id AND appointments.id != :exclude_id)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.scope.ScopeFilter(tt.excludeID)
			where, _ := filter.GetWhereClause()

			assert.Equal(t, tt.where, where)
		})
	}
}

func TestScopeLockKey(t *testing.T) {
	assert.Equal(t, "appointment:provider:doc@clinic.test", model.Scope{ProviderEmail: "doc@clinic.test", DepartmentID: "d"}.LockKey())
	assert.Equal(t, "appointment:department:d", model.Scope{DepartmentID: "d", OrgID: "o"}.LockKey())
	assert.Equal(t, "appointment:org:o", model.Scope{OrgID: "o"}.LockKey())
}

func TestScopeNarrowest(t *testing.T) {
	full := model.Scope{OrgID: "o", DepartmentID: "d", ProviderEmail: "doc@clinic.test"}

	assert.Equal(t, model.Scope{ProviderEmail: "doc@clinic.test"}, full.Narrowest())
	assert.Equal(t, model.Scope{OrgID: "o", DepartmentID: "d"}, model.Scope{OrgID: "o", DepartmentID: "d"}.Narrowest())
}
