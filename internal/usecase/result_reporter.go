package usecase

import (
	"crm-intake-backend/internal/domain"
)

const (
	msgBoardWriteFailed   = "Failed to create the board item"
	msgContactWriteFailed = "The board item was created but the contact could not be added"
)

// Report turns a coordinator outcome into the result shown to the user.
// The first message reported by an external system wins; otherwise a
// generic message for the failing stage is used.
func Report(outcome *domain.IntakeOutcome) *domain.SubmissionResult {
	result := &domain.SubmissionResult{
		Success:      outcome.Success(),
		SubmissionID: outcome.SubmissionID,
		Item:         outcome.Board.Item,
	}

	if !outcome.Board.Succeeded() {
		err := outcome.Board.Err
		if err == nil {
			err = domain.NewUnexpectedResponseError(domain.SystemBoard, msgBoardWriteFailed)
		}
		result.Err = err
		result.ErrorKind = kindOrUnexpected(err)
		result.ErrorMessage = messageOr(err, msgBoardWriteFailed)
		return result
	}

	contact := outcome.Contact
	if contact == nil {
		// Board succeeded but the contact write never ran
		result.Err = domain.NewUnexpectedResponseError(domain.SystemMessaging, msgContactWriteFailed)
		result.ErrorKind = domain.KindUnexpectedResponse
		result.ErrorMessage = msgContactWriteFailed
		return result
	}

	if !contact.Created() {
		err := contact.Err
		if err == nil {
			err = domain.NewUnexpectedResponseError(domain.SystemMessaging, msgContactWriteFailed)
		}
		result.Err = err
		result.ErrorKind = kindOrUnexpected(err)
		result.ErrorMessage = messageOr(err, msgContactWriteFailed)
		return result
	}

	result.ContactID = contact.ContactID
	result.SegmentResults = contact.Segments
	if failed := contact.FailedSegments(); len(failed) > 0 {
		// Warning only, the submission still counts as a success
		result.SegmentFailures = failed
		result.ErrorKind = domain.KindPartialEnrollment
	}
	return result
}

func kindOrUnexpected(err error) domain.ErrorKind {
	if kind := domain.KindOf(err); kind != "" {
		return kind
	}
	return domain.KindUnexpectedResponse
}

func messageOr(err error, fallback string) string {
	if msg := domain.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}
