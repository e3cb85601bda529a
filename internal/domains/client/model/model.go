package model

import (
	"strings"

	"github.com/google/uuid"

	"teleconsult/shared/model"
)

const (
	TableName  = "clients"
	EntityName = "client"

	FieldID    = "id"
	FieldOrgID = "org_id"
	FieldEmail = "email"
	FieldMRN   = "mrn"
)

type Client struct {
	ID    string `db:"id"`
	OrgID string `db:"org_id"`
	MRN   string `db:"mrn"`
	Name  string `db:"name"`
	Email string `db:"email"`
	Phone string `db:"phone"`
	model.Metadata
}

// NewMRN returns a short medical record number taken from the last group of a random UUID.
func NewMRN() string {
	id := uuid.NewString()

	return strings.ToUpper(id[strings.LastIndex(id, "-")+1:])
}
