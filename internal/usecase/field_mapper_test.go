package usecase_test

import (
	"testing"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestToBoardPayload(t *testing.T) {
	t.Run("Should omit empty optional columns", func(t *testing.T) {
		sub := validSubmission()
		sub.Employer = ""
		sub.Notes = "   "

		payload := usecase.ToBoardPayload(sub)

		assert.NotContains(t, payload.ColumnValues, domain.ColumnEmployer)
		assert.NotContains(t, payload.ColumnValues, domain.ColumnNotes)
		assert.NotContains(t, payload.ColumnValues, domain.ColumnLinkedIn)
	})

	t.Run("Should write email in both shapes and dropdowns as id lists", func(t *testing.T) {
		sub := validSubmission()
		sub.LinkedIn = "https://linkedin.com/in/jane"

		payload := usecase.ToBoardPayload(sub)

		assert.Equal(t, "Jane Q Public", payload.ItemName)
		assert.Equal(t, map[string]string{"email": "jane@example.com", "text": "jane@example.com"}, payload.ColumnValues[domain.ColumnEmail])
		assert.Equal(t, map[string][]int{"ids": {1}}, payload.ColumnValues[domain.ColumnAreaOfExpertise])
		assert.Equal(t, map[string][]int{"ids": {2}}, payload.ColumnValues[domain.ColumnLabels])
		assert.Equal(t, "Acme", payload.ColumnValues[domain.ColumnEmployer])
		assert.Equal(t, "Director", payload.ColumnValues[domain.ColumnRole])
		assert.Equal(t, "https://linkedin.com/in/jane", payload.ColumnValues[domain.ColumnLinkedIn])
	})

	t.Run("Should never populate the location column", func(t *testing.T) {
		sub := validSubmission()
		sub.Location = "Berlin"

		payload := usecase.ToBoardPayload(sub)

		assert.NotContains(t, payload.ColumnValues, domain.ColumnLocation)
	})
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, first, last string
	}{
		{"Jane", "Jane", ""},
		{"Jane Q Public", "Jane", "Q Public"},
		{"  Jane   Doe  ", "Jane", "Doe"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := usecase.SplitName(tc.in)
		assert.Equal(t, tc.first, first, tc.in)
		assert.Equal(t, tc.last, last, tc.in)
	}
}

func TestToContactPayload(t *testing.T) {
	payload := usecase.ToContactPayload(&domain.ContactSubmission{FullName: "Jane", Email: " jane@example.com "})

	assert.Equal(t, &domain.ContactPayload{Email: "jane@example.com", FirstName: "Jane", LastName: ""}, payload)
}
