package service

import (
	"fmt"
	"strings"

	"teleconsult/internal/domains/appointment/model"
	"teleconsult/internal/domains/appointment/model/dto"
	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/failure"
)

// authorize checks that caller may manage appointments in scope.
func authorize(caller actor.Actor, scope model.Scope) error {
	if scope.Permits(caller) {
		return nil
	}

	return model.ErrOutOfScope
}

// authorizeRead additionally lets clients see their own appointments.
func authorizeRead(caller actor.Actor, res dto.AppointmentResponse) error {
	if caller.Is(constant.RoleClient) && strings.EqualFold(caller.Identity, res.ClientEmail) {
		return nil
	}

	return authorize(caller, model.Scope{OrgID: res.OrgID, DepartmentID: res.DepartmentID, ProviderEmail: res.ProviderEmail})
}

// applyActorDefaults fills the scope of a booking from the caller when omitted.
func applyActorDefaults(req *dto.CreateAppointmentRequest, caller actor.Actor) {
	if req.OrgID == constant.Empty {
		req.OrgID = caller.OrgID
	}

	if req.DepartmentID == constant.Empty {
		req.DepartmentID = caller.DepartmentID
	}

	if req.ProviderEmail == constant.Empty && caller.Is(constant.RoleProvider) {
		req.ProviderEmail = caller.Identity
	}
}

// listScope narrows a listing to what the caller may see.
func listScope(caller actor.Actor, listFilter dto.ListFilter) (gDto.FilterGroup, error) {
	filters := []any{}

	eq := func(field, value string) {
		filters = append(filters, gDto.Filter{Table: model.TableName, Field: field, Value: value, Operator: gDto.FilterOperatorEq})
	}

	switch caller.Role {
	case constant.RoleSuperAdmin:
	case constant.RoleOrgAdmin:
		eq(model.FieldOrgID, caller.OrgID)
	case constant.RoleDepartmentAdmin:
		eq(model.FieldDepartmentID, caller.DepartmentID)
	case constant.RoleProvider:
		eq(model.FieldProviderEmail, caller.Identity)
	case constant.RoleClient:
		eq(model.FieldClientEmail, caller.Identity)
	default:
		return gDto.FilterGroup{}, model.ErrOutOfScope
	}

	if listFilter.ProviderEmail != constant.Empty && !caller.Is(constant.RoleProvider) {
		filters = append(filters, gDto.Filter{
			ArgName:  "filter_provider",
			Table:    model.TableName,
			Field:    model.FieldProviderEmail,
			Value:    listFilter.ProviderEmail,
			Operator: gDto.FilterOperatorEq,
		})
	}

	if listFilter.DepartmentID != constant.Empty && !caller.Is(constant.RoleDepartmentAdmin) {
		filters = append(filters, gDto.Filter{
			ArgName:  "filter_department",
			Table:    model.TableName,
			Field:    model.FieldDepartmentID,
			Value:    listFilter.DepartmentID,
			Operator: gDto.FilterOperatorEq,
		})
	}

	if listFilter.Status != constant.Empty {
		eq(model.FieldStatus, listFilter.Status)
	}

	if listFilter.CallingEnabled != nil {
		filters = append(filters, gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldCallingEnabled,
			Value:    *listFilter.CallingEnabled,
			Operator: gDto.FilterOperatorEq,
		})
	}

	window, ok, err := listFilter.Range()
	if err != nil {
		return gDto.FilterGroup{}, failure.BadRequestFromString(fmt.Sprintf("invalid date range: %v", err)) //nolint:wrapcheck
	}

	if ok {
		// raw overlap with [from, to)
		filters = append(filters,
			gDto.Filter{ArgName: "range_to", Table: model.TableName, Field: model.FieldStartTime, Value: window.End, Operator: gDto.FilterOperatorLess},
			gDto.Filter{ArgName: "range_from", Table: model.TableName, Field: model.FieldEndTime, Value: window.Start, Operator: gDto.FilterOperatorGreater},
		)
	}

	return gDto.And(filters...), nil
}
