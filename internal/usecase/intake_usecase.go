package usecase

import (
	"context"
	"strings"
	"sync"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"
	"crm-intake-backend/pkg/logger"
	"crm-intake-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type intakeUsecase struct {
	board     domain.BoardClient
	messaging domain.MessagingClient
	catalog   domain.CatalogUsecase
	sink      domain.DiagnosticSink
	validate  *validator.Validate
}

// NewIntakeUsecase creates the write coordinator. catalog and sink may be nil.
func NewIntakeUsecase(
	board domain.BoardClient,
	messaging domain.MessagingClient,
	catalog domain.CatalogUsecase,
	sink domain.DiagnosticSink,
	validate *validator.Validate,
) domain.IntakeUsecase {
	if validate == nil {
		validate = validation.New()
	}
	return &intakeUsecase{
		board:     board,
		messaging: messaging,
		catalog:   catalog,
		sink:      sink,
		validate:  validate,
	}
}

// Submit writes one submission to the board, then to the messaging platform.
// A returned error means nothing was written. Once writes start, failures
// are reported through the result.
func (u *intakeUsecase) Submit(ctx context.Context, sub *domain.ContactSubmission) (*domain.SubmissionResult, error) {
	if err := u.validate.Struct(sub); err != nil {
		return nil, apperror.BadRequest(strings.Join(validation.FormatValidationErrors(err), "; "))
	}

	// Both systems must be usable before anything is written
	if !u.board.IsConfigured() {
		return nil, domain.NewConfigurationError(domain.SystemBoard, "Monday.com configuration missing")
	}
	if !u.messaging.IsConfigured() {
		return nil, domain.NewConfigurationError(domain.SystemMessaging, "Resend API key not configured")
	}

	if u.catalog != nil {
		if err := u.catalog.ValidateSelections(ctx, sub); err != nil {
			return nil, err
		}
	}

	// A client disconnect must not cut the write sequence in half
	ctx = context.WithoutCancel(ctx)

	outcome := u.run(ctx, uuid.NewString(), sub)
	result := Report(outcome)

	u.recordDiagnostics(ctx, outcome, result)

	return result, nil
}

func (u *intakeUsecase) run(ctx context.Context, submissionID string, sub *domain.ContactSubmission) *domain.IntakeOutcome {
	log := logger.Log.With("submission_id", submissionID)

	outcome := &domain.IntakeOutcome{
		SubmissionID: submissionID,
		Stage:        domain.StageMapped,
	}
	boardPayload := ToBoardPayload(sub)

	outcome.Stage = domain.StageBoardWriteAttempted
	resp, err := u.board.CreateItem(ctx, boardPayload)
	outcome.Board = interpretBoardResponse(resp, err)
	outcome.Board.Payload = boardPayload

	if !outcome.Board.Succeeded() {
		outcome.Stage = domain.StageBoardWriteFailed
		log.Error("Board write failed",
			"stage", outcome.Stage,
			"system", domain.SystemBoard,
			"kind", domain.KindOf(outcome.Board.Err),
			"error", outcome.Board.Err,
			"response", string(outcome.Board.Raw),
		)
		return outcome
	}

	outcome.Stage = domain.StageBoardWriteSucceeded
	for _, w := range outcome.Board.Warnings {
		log.Warn("Board item created with warnings", "stage", outcome.Stage, "system", domain.SystemBoard, "warning", w)
	}
	log.Info("Board item created", "stage", outcome.Stage, "system", domain.SystemBoard, "item_id", outcome.Board.Item.ID)

	contactPayload := ToContactPayload(sub)
	outcome.Stage = domain.StageContactWriteAttempted
	outcome.Contact = &domain.ContactWriteResult{Payload: contactPayload}

	contactID, err := u.messaging.CreateContact(ctx, contactPayload)
	if err != nil {
		outcome.Contact.Err = err
		log.Error("Contact write failed",
			"stage", outcome.Stage,
			"system", domain.SystemMessaging,
			"kind", domain.KindOf(err),
			"item_id", outcome.Board.Item.ID,
			"error", err,
		)
		return outcome
	}
	outcome.Contact.ContactID = contactID
	log.Info("Contact created", "stage", outcome.Stage, "system", domain.SystemMessaging, "contact_id", contactID)

	outcome.Stage = domain.StageSegmentEnrollmentAttempted
	outcome.Contact.Segments = u.enroll(ctx, contactID, sub.SegmentIDs)
	for _, s := range outcome.Contact.FailedSegments() {
		log.Warn("Segment enrollment failed",
			"stage", outcome.Stage,
			"system", domain.SystemMessaging,
			"kind", domain.KindPartialEnrollment,
			"segment_id", s.SegmentID,
			"error", s.Error,
		)
	}

	outcome.Stage = domain.StageReconciled
	log.Info("Submission reconciled",
		"stage", outcome.Stage,
		"item_id", outcome.Board.Item.ID,
		"contact_id", contactID,
		"segments", len(outcome.Contact.Segments),
		"segment_failures", len(outcome.Contact.FailedSegments()),
	)
	return outcome
}

// enroll adds the contact to every segment concurrently and waits for all of
// them. Results keep the request order.
func (u *intakeUsecase) enroll(ctx context.Context, contactID string, segmentIDs []string) []domain.SegmentEnrollment {
	results := make([]domain.SegmentEnrollment, len(segmentIDs))

	var wg sync.WaitGroup
	for i, segmentID := range segmentIDs {
		wg.Add(1)
		go func(i int, segmentID string) {
			defer wg.Done()
			results[i] = domain.SegmentEnrollment{SegmentID: segmentID, Success: true}
			if err := u.messaging.AddContactToSegment(ctx, contactID, segmentID); err != nil {
				results[i].Success = false
				results[i].Error = messageOr(err, err.Error())
			}
		}(i, segmentID)
	}
	wg.Wait()

	return results
}

// interpretBoardResponse applies the board success rule: a created item id
// wins over any error list. An error list alone is a rejection, and an empty
// response is unexpected.
func interpretBoardResponse(resp *domain.BoardWriteResponse, err error) domain.BoardItemWriteResult {
	if err != nil {
		result := domain.BoardItemWriteResult{Err: err}
		if resp != nil {
			result.Raw = resp.Raw
		}
		return result
	}
	if resp == nil {
		return domain.BoardItemWriteResult{
			Err: domain.NewUnexpectedResponseError(domain.SystemBoard, "Empty response from Monday.com"),
		}
	}
	if resp.Item != nil && resp.Item.ID != "" {
		return domain.BoardItemWriteResult{Item: resp.Item, Warnings: resp.Errors, Raw: resp.Raw}
	}
	if len(resp.Errors) > 0 {
		return domain.BoardItemWriteResult{
			Err: domain.NewRejectedError(domain.SystemBoard, resp.Errors[0], nil),
			Raw: resp.Raw,
		}
	}
	return domain.BoardItemWriteResult{
		Err: domain.NewUnexpectedResponseError(domain.SystemBoard, "No item id in Monday.com response"),
		Raw: resp.Raw,
	}
}

func (u *intakeUsecase) recordDiagnostics(ctx context.Context, outcome *domain.IntakeOutcome, result *domain.SubmissionResult) {
	if u.sink == nil || (result.Success && len(result.SegmentFailures) == 0) {
		return
	}

	report := &domain.DiagnosticReport{
		SubmissionID: outcome.SubmissionID,
		Stage:        outcome.Stage,
		ErrorKind:    result.ErrorKind,
		BoardPayload: outcome.Board.Payload,
		BoardRaw:     string(outcome.Board.Raw),
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
	}
	if outcome.Contact != nil {
		report.Contact = outcome.Contact.Payload
		report.Segments = outcome.Contact.Segments
	}
	u.sink.Record(ctx, report)
}
