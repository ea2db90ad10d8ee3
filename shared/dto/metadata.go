package dto

import (
	"marina/shared/constant"
	"marina/shared/model"
	"marina/shared/timezone"
	"time"
)

// Metadata is the audit block of a response. Times are rendered in the app timezone.
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	CreatedBy  string `json:"created_by"`
	ModifiedBy string `json:"modified_by"`
}

func NewMetadata(src model.Metadata) Metadata {
	return Metadata{
		CreatedAt:  formatTime(src.CreatedAt),
		ModifiedAt: formatTime(src.ModifiedAt),
		CreatedBy:  src.CreatedBy,
		ModifiedBy: src.ModifiedBy,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return timezone.Format(t, constant.DateFormat)
}
