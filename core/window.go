package core

import (
	"time"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

const day = 24 * time.Hour

// NewWindow returns the window of the given length ending at end.
func NewWindow(subjectID int64, end time.Time, days int) (schema.MetricWindow, error) {
	if days <= 0 {
		return schema.MetricWindow{}, contract.NewValidationError("window_days", "must be positive, got %d", days)
	}
	if days > contract.MaxWindowDays {
		return schema.MetricWindow{}, contract.NewValidationError("window_days", "must be at most %d, got %d", contract.MaxWindowDays, days)
	}
	if end.IsZero() {
		return schema.MetricWindow{}, contract.NewValidationError("window_end", "must be set")
	}
	return schema.MetricWindow{
		SubjectID:  subjectID,
		Start:      end.Add(-time.Duration(days) * day),
		End:        end,
		LengthDays: days,
	}, nil
}
