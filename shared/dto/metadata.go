package dto

import (
	"time"

	"teleconsult/shared/constant"
	"teleconsult/shared/model"
	"teleconsult/shared/timezone"
)

// Metadata is the audit block every response carries. Unset timestamps render as "".
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at,omitempty"`
	CreatedBy  string `json:"created_by"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

func formatAudit(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return timezone.Format(t, constant.DateFormat)
}

func (m *Metadata) FromModel(source model.Metadata) {
	m.CreatedAt = formatAudit(source.CreatedAt)
	m.ModifiedAt = formatAudit(source.ModifiedAt)
	m.CreatedBy = source.CreatedBy
	m.ModifiedBy = source.ModifiedBy
}
