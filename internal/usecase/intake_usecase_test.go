package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/internal/usecase"
	"crm-intake-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validSubmission() *domain.ContactSubmission {
	return &domain.ContactSubmission{
		FullName:        "Jane Q Public",
		Email:           "jane@example.com",
		Employer:        "Acme",
		Role:            "Director",
		AreaOfExpertise: []int{1},
		Labels:          []int{2},
		SegmentIDs:      []string{"seg-1", "seg-2", "seg-3"},
	}
}

func configuredClients() (*MockBoardClient, *MockMessagingClient) {
	board := new(MockBoardClient)
	board.On("IsConfigured").Return(true)
	messaging := new(MockMessagingClient)
	messaging.On("IsConfigured").Return(true)
	return board, messaging
}

func TestSubmitBoardSuccessRule(t *testing.T) {
	t.Run("Should treat a created item id as success even with an error list", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(&domain.BoardWriteResponse{
			Item:   &domain.BoardItem{ID: "123", Name: "Jane Q Public"},
			Errors: []string{"Column value ignored"},
		}, nil)
		messaging.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)
		messaging.On("AddContactToSegment", mock.Anything, "contact-1", mock.Anything).Return(nil)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "123", result.Item.ID)
		assert.Equal(t, "contact-1", result.ContactID)
		assert.Empty(t, result.ErrorMessage)
		assert.NotEmpty(t, result.SubmissionID)
	})

	t.Run("Should fail with the first message when only errors come back", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(&domain.BoardWriteResponse{
			Errors: []string{"Column not found", "Second problem"},
		}, nil)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "Column not found", result.ErrorMessage)
		assert.Equal(t, domain.KindUpstreamRejected, result.ErrorKind)
		assert.ErrorIs(t, result.Err, domain.ErrUpstreamRejected)
	})

	t.Run("Should report an unexpected response when neither id nor errors come back", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(&domain.BoardWriteResponse{}, nil)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, domain.KindUnexpectedResponse, result.ErrorKind)
	})
}

func TestSubmitFailFast(t *testing.T) {
	t.Run("Should never call the messaging platform when the board write fails", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).
			Return(nil, domain.NewUnreachableError(domain.SystemBoard, errors.New("dial tcp: timeout")))
		sink := new(MockDiagnosticSink)
		sink.On("Record", mock.Anything, mock.Anything).Return()

		uc := usecase.NewIntakeUsecase(board, messaging, nil, sink, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, domain.KindUpstreamUnreachable, result.ErrorKind)
		messaging.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
		messaging.AssertNotCalled(t, "AddContactToSegment", mock.Anything, mock.Anything, mock.Anything)

		sink.AssertNumberOfCalls(t, "Record", 1)
		report := sink.Calls[0].Arguments.Get(1).(*domain.DiagnosticReport)
		assert.Equal(t, domain.StageBoardWriteFailed, report.Stage)
		assert.Equal(t, "Jane Q Public", report.BoardPayload.ItemName)
		assert.Nil(t, report.Contact)
	})

	t.Run("Should archive the raw board body when the response is unreadable", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(
			&domain.BoardWriteResponse{Raw: []byte(`<html>502 Bad Gateway</html>`)},
			domain.NewUnexpectedResponseError(domain.SystemBoard, "Unreadable Monday.com response"),
		)
		sink := new(MockDiagnosticSink)
		sink.On("Record", mock.Anything, mock.Anything).Return()

		uc := usecase.NewIntakeUsecase(board, messaging, nil, sink, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, domain.KindUnexpectedResponse, result.ErrorKind)
		messaging.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)

		sink.AssertNumberOfCalls(t, "Record", 1)
		report := sink.Calls[0].Arguments.Get(1).(*domain.DiagnosticReport)
		assert.Equal(t, `<html>502 Bad Gateway</html>`, report.BoardRaw)
	})

	t.Run("Should fail the submission when contact creation fails after the board write", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(&domain.BoardWriteResponse{
			Item: &domain.BoardItem{ID: "123"},
		}, nil)
		messaging.On("CreateContact", mock.Anything, mock.Anything).
			Return("", domain.NewRejectedError(domain.SystemMessaging, "Invalid email", nil))

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "Invalid email", result.ErrorMessage)
		// The board record stays
		assert.Equal(t, "123", result.Item.ID)
		messaging.AssertNotCalled(t, "AddContactToSegment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSubmitSegmentEnrollment(t *testing.T) {
	t.Run("Should succeed with one partial failure when the second of three segments fails", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(&domain.BoardWriteResponse{
			Item: &domain.BoardItem{ID: "123"},
		}, nil)
		messaging.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)
		messaging.On("AddContactToSegment", mock.Anything, "contact-1", "seg-1").Return(nil)
		messaging.On("AddContactToSegment", mock.Anything, "contact-1", "seg-2").
			Return(domain.NewRejectedError(domain.SystemMessaging, "Segment not found", nil))
		messaging.On("AddContactToSegment", mock.Anything, "contact-1", "seg-3").Return(nil)
		sink := new(MockDiagnosticSink)
		sink.On("Record", mock.Anything, mock.Anything).Return()

		uc := usecase.NewIntakeUsecase(board, messaging, nil, sink, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, result.SegmentFailures, 1)
		assert.Equal(t, "seg-2", result.SegmentFailures[0].SegmentID)
		assert.Equal(t, "Segment not found", result.SegmentFailures[0].Error)
		assert.Equal(t, domain.KindPartialEnrollment, result.ErrorKind)

		require.Len(t, result.SegmentResults, 3)
		assert.Equal(t, []string{"seg-1", "seg-2", "seg-3"}, []string{
			result.SegmentResults[0].SegmentID, result.SegmentResults[1].SegmentID, result.SegmentResults[2].SegmentID,
		})
		messaging.AssertNumberOfCalls(t, "AddContactToSegment", 3)

		// Partial failures are still archived for operators
		sink.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("Should not record diagnostics for a clean submission", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.Anything).Return(&domain.BoardWriteResponse{
			Item: &domain.BoardItem{ID: "123"},
		}, nil)
		messaging.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)
		messaging.On("AddContactToSegment", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		sink := new(MockDiagnosticSink)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, sink, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Empty(t, result.SegmentFailures)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestSubmitPayloads(t *testing.T) {
	t.Run("Should send mapped payloads to both systems", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.Anything, mock.MatchedBy(func(p *domain.BoardWritePayload) bool {
			_, hasLinkedIn := p.ColumnValues[domain.ColumnLinkedIn]
			return p.ItemName == "Jane Q Public" && !hasLinkedIn
		})).Return(&domain.BoardWriteResponse{Item: &domain.BoardItem{ID: "1"}}, nil)
		messaging.On("CreateContact", mock.Anything, &domain.ContactPayload{
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Q Public",
		}).Return("contact-1", nil)
		messaging.On("AddContactToSegment", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		result, err := uc.Submit(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.True(t, result.Success)
		board.AssertExpectations(t)
		messaging.AssertExpectations(t)
	})
}

func TestSubmitPreconditions(t *testing.T) {
	t.Run("Should reject an invalid submission before any call", func(t *testing.T) {
		board, messaging := configuredClients()
		sub := validSubmission()
		sub.Email = "not-an-email"
		sub.SegmentIDs = nil

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		_, err := uc.Submit(context.Background(), sub)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
		assert.Contains(t, appErr.Message, "Email")
		assert.Contains(t, appErr.Message, "Segments")
		board.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
	})

	t.Run("Should reject a full name made only of spaces", func(t *testing.T) {
		board, messaging := configuredClients()
		sub := validSubmission()
		sub.FullName = "   "

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		_, err := uc.Submit(context.Background(), sub)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
		assert.Contains(t, appErr.Message, "Full name: Must not be blank")
		board.AssertNumberOfCalls(t, "CreateItem", 0)
		messaging.AssertNumberOfCalls(t, "CreateContact", 0)
	})

	t.Run("Should return a configuration error when the board is not configured", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("IsConfigured").Return(false)
		messaging := new(MockMessagingClient)
		messaging.On("IsConfigured").Return(true)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		_, err := uc.Submit(context.Background(), validSubmission())

		assert.ErrorIs(t, err, domain.ErrConfiguration)
		board.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
	})

	t.Run("Should return a configuration error when the messaging key is missing", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("IsConfigured").Return(true)
		messaging := new(MockMessagingClient)
		messaging.On("IsConfigured").Return(false)

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		_, err := uc.Submit(context.Background(), validSubmission())

		assert.ErrorIs(t, err, domain.ErrConfiguration)
		board.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
	})

	t.Run("Should stop when a selection is not in the catalog", func(t *testing.T) {
		board, messaging := configuredClients()
		catalog := new(MockCatalog)
		catalog.On("ValidateSelections", mock.Anything, mock.Anything).
			Return(apperror.BadRequest("Unknown segment: seg-9"))

		uc := usecase.NewIntakeUsecase(board, messaging, catalog, nil, nil)
		_, err := uc.Submit(context.Background(), validSubmission())

		assert.EqualError(t, err, "Unknown segment: seg-9")
		board.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
	})

	t.Run("Should keep writing when the caller context is cancelled", func(t *testing.T) {
		board, messaging := configuredClients()
		board.On("CreateItem", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).
			Return(&domain.BoardWriteResponse{Item: &domain.BoardItem{ID: "1"}}, nil)
		messaging.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)
		messaging.On("AddContactToSegment", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		uc := usecase.NewIntakeUsecase(board, messaging, nil, nil, nil)
		result, err := uc.Submit(ctx, validSubmission())

		require.NoError(t, err)
		assert.True(t, result.Success)
	})
}
