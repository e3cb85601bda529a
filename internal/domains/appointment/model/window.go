package model

import (
	"time"

	"teleconsult/shared/dto"
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

func (w Window) Equal(other Window) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// Buffered widens both ends by d to reserve setup and teardown time.
func (w Window) Buffered(d time.Duration) Window {
	return Window{Start: w.Start.Add(-d), End: w.End.Add(d)}
}

// Collides reports whether a stored window clashes with w. Only w is expected to be buffered;
// the stored window is compared as-is.
func (w Window) Collides(stored Window) bool {
	startsInside := !stored.Start.Before(w.Start) && stored.Start.Before(w.End)
	endsInside := stored.End.After(w.Start) && !stored.End.After(w.End)
	contains := !stored.Start.After(w.Start) && !stored.End.Before(w.End)

	return startsInside || endsInside || contains
}

// OverlapFilter is the SQL form of Collides over the appointments table.
func (w Window) OverlapFilter() dto.FilterGroup {
	return dto.Or(
		dto.And(
			dto.Filter{ArgName: "overlap_start_from", Table: TableName, Field: FieldStartTime, Value: w.Start, Operator: dto.FilterOperatorGreaterEq},
			dto.Filter{ArgName: "overlap_start_to", Table: TableName, Field: FieldStartTime, Value: w.End, Operator: dto.FilterOperatorLess},
		),
		dto.And(
			dto.Filter{ArgName: "overlap_end_from", Table: TableName, Field: FieldEndTime, Value: w.Start, Operator: dto.FilterOperatorGreater},
			dto.Filter{ArgName: "overlap_end_to", Table: TableName, Field: FieldEndTime, Value: w.End, Operator: dto.FilterOperatorLessEq},
		),
		dto.And(
			dto.Filter{ArgName: "overlap_cover_start", Table: TableName, Field: FieldStartTime, Value: w.Start, Operator: dto.FilterOperatorLessEq},
			dto.Filter{ArgName: "overlap_cover_end", Table: TableName, Field: FieldEndTime, Value: w.End, Operator: dto.FilterOperatorGreaterEq},
		),
	)
}

// ScopeFilter restricts a query to the supplied scope, optionally excluding one appointment.
func (s Scope) ScopeFilter(excludeID string) dto.FilterGroup {
	filters := []any{}

	if s.OrgID != "" {
		filters = append(filters, dto.Filter{Table: TableName, Field: FieldOrgID, Value: s.OrgID, Operator: dto.FilterOperatorEq})
	}

	if s.DepartmentID != "" {
		filters = append(filters, dto.Filter{Table: TableName, Field: FieldDepartmentID, Value: s.DepartmentID, Operator: dto.FilterOperatorEq})
	}

	if s.ProviderEmail != "" {
		filters = append(filters, dto.Filter{Table: TableName, Field: FieldProviderEmail, Value: s.ProviderEmail, Operator: dto.FilterOperatorEq})
	}

	if excludeID != "" {
		filters = append(filters, dto.Filter{ArgName: "exclude_id", Table: TableName, Field: FieldID, Value: excludeID, Operator: dto.FilterOperatorNotEq})
	}

	return dto.And(filters...)
}
