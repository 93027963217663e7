package usecase

import (
	"strings"

	"crm-intake-backend/internal/domain"
)

// ToBoardPayload maps a submission onto the intake board's column ids.
// Optional text columns are only present when they carry data.
func ToBoardPayload(sub *domain.ContactSubmission) *domain.BoardWritePayload {
	email := strings.TrimSpace(sub.Email)

	columns := map[string]interface{}{
		// Email columns take both the address and its display text
		domain.ColumnEmail: map[string]string{
			"email": email,
			"text":  email,
		},
	}

	setIDs(columns, domain.ColumnAreaOfExpertise, sub.AreaOfExpertise)
	setIDs(columns, domain.ColumnLabels, sub.Labels)

	setText(columns, domain.ColumnEmployer, sub.Employer)
	setText(columns, domain.ColumnRole, sub.Role)
	setText(columns, domain.ColumnLinkedIn, sub.LinkedIn)
	setText(columns, domain.ColumnNotes, sub.Notes)
	// Location is free text but the board column is a lat/lng location
	// column, so it is left out.

	return &domain.BoardWritePayload{
		ItemName:     strings.TrimSpace(sub.FullName),
		ColumnValues: columns,
	}
}

// ToContactPayload maps a submission onto a messaging contact
func ToContactPayload(sub *domain.ContactSubmission) *domain.ContactPayload {
	first, last := SplitName(sub.FullName)
	return &domain.ContactPayload{
		Email:     strings.TrimSpace(sub.Email),
		FirstName: first,
		LastName:  last,
	}
}

// SplitName returns the first whitespace-delimited token and the rest
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func setText(columns map[string]interface{}, id, value string) {
	if v := strings.TrimSpace(value); v != "" {
		columns[id] = v
	}
}

func setIDs(columns map[string]interface{}, id string, ids []int) {
	if len(ids) > 0 {
		columns[id] = map[string][]int{"ids": ids}
	}
}
