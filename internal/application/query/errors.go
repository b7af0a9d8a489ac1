package query

import "github.com/studioroll/attendance-hub/internal/domain/shared"

var (
	// ErrInvalidWeekID reports a week identifier that is not "YYYY-Www".
	ErrInvalidWeekID = shared.NewDomainError("query", "ParseWeek", shared.ErrInvalidFormat, "week id must be YYYY-Www")

	// ErrInvalidDate reports a date that is not "YYYY-MM-DD".
	ErrInvalidDate = shared.NewDomainError("query", "ParseDate", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
)
