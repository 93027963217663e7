package domain

import "context"

// ContactSubmission represents one intake form submission
type ContactSubmission struct {
	FullName        string   `json:"fullName" validate:"required,nonblank,max=200,valid_name,no_emoji"`
	Email           string   `json:"email" validate:"required,email,max=254"`
	Employer        string   `json:"employer" validate:"max=200,no_emoji"`
	Role            string   `json:"role" validate:"max=200,no_emoji"`
	LinkedIn        string   `json:"linkedin" validate:"max=500"`
	Location        string   `json:"location" validate:"max=200"`
	AreaOfExpertise []int    `json:"areaOfExpertise" validate:"required,min=1,unique,dive,min=0"`
	Labels          []int    `json:"labels" validate:"required,min=1,unique,dive,min=0"`
	SegmentIDs      []string `json:"segmentIds" validate:"required,min=1,unique,dive,nonblank,max=100"`
	Notes           string   `json:"notes" validate:"max=5000"`
}

// BoardWritePayload is the create_item input. ColumnValues is keyed by
// column id and only holds columns that have data.
type BoardWritePayload struct {
	ItemName     string                 `json:"itemName"`
	ColumnValues map[string]interface{} `json:"columnValues"`
}

// ContactPayload is the messaging platform contact input.
type ContactPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type BoardItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardWriteResponse is the board mutation response as returned by the API,
// before any success/failure interpretation.
type BoardWriteResponse struct {
	Item   *BoardItem
	Errors []string
	Raw    []byte
}

// BoardItemWriteResult is the interpreted outcome of the board write.
type BoardItemWriteResult struct {
	Item     *BoardItem
	Warnings []string
	Err      error
	// Payload and Raw are kept for diagnostics only.
	Payload *BoardWritePayload
	Raw     []byte
}

func (r *BoardItemWriteResult) Succeeded() bool {
	return r.Err == nil && r.Item != nil
}

type SegmentEnrollment struct {
	SegmentID string `json:"segmentId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ContactWriteResult is the outcome of the messaging platform write.
type ContactWriteResult struct {
	ContactID string
	Err       error
	Segments  []SegmentEnrollment
	Payload   *ContactPayload
}

func (r *ContactWriteResult) Created() bool {
	return r.Err == nil && r.ContactID != ""
}

// FailedSegments returns the enrollments that did not succeed, in request order.
func (r *ContactWriteResult) FailedSegments() []SegmentEnrollment {
	var failed []SegmentEnrollment
	for _, s := range r.Segments {
		if !s.Success {
			failed = append(failed, s)
		}
	}
	return failed
}

// Stage is a state of the intake write sequence.
type Stage string

const (
	StageMapped                     Stage = "mapped"
	StageBoardWriteAttempted        Stage = "board_write_attempted"
	StageBoardWriteSucceeded        Stage = "board_write_succeeded"
	StageBoardWriteFailed           Stage = "board_write_failed"
	StageContactWriteAttempted      Stage = "contact_write_attempted"
	StageSegmentEnrollmentAttempted Stage = "segment_enrollment_attempted"
	StageReconciled                 Stage = "reconciled"
)

// IntakeOutcome is the coordinator's terminal state for one submission.
// Contact is nil when the contact write was never attempted.
type IntakeOutcome struct {
	SubmissionID string
	Stage        Stage
	Board        BoardItemWriteResult
	Contact      *ContactWriteResult
}

func (o *IntakeOutcome) Success() bool {
	return o.Board.Succeeded() && o.Contact != nil && o.Contact.Created()
}

// SubmissionResult is what the UI receives for a submission.
type SubmissionResult struct {
	Success         bool                `json:"success"`
	SubmissionID    string              `json:"submissionId"`
	ErrorMessage    string              `json:"errorMessage,omitempty"`
	ErrorKind       ErrorKind           `json:"errorKind,omitempty"`
	Item            *BoardItem          `json:"item,omitempty"`
	ContactID       string              `json:"contactId,omitempty"`
	SegmentResults  []SegmentEnrollment `json:"segmentResults,omitempty"`
	SegmentFailures []SegmentEnrollment `json:"segmentFailures,omitempty"`
	// Err is the failure that ended the submission, for status mapping.
	Err error `json:"-"`
}

// BoardClient talks to the work-management board.
type BoardClient interface {
	IsConfigured() bool
	FetchColumns(ctx context.Context) ([]BoardColumn, error)
	CreateItem(ctx context.Context, payload *BoardWritePayload) (*BoardWriteResponse, error)
}

// MessagingClient talks to the email/segmentation platform.
type MessagingClient interface {
	IsConfigured() bool
	ListSegments(ctx context.Context) ([]SegmentOption, error)
	CreateContact(ctx context.Context, payload *ContactPayload) (string, error)
	AddContactToSegment(ctx context.Context, contactID, segmentID string) error
}

// DiagnosticReport is a failed or partially failed submission as recorded for
// operators.
type DiagnosticReport struct {
	SubmissionID string              `json:"submissionId"`
	Stage        Stage               `json:"stage"`
	ErrorKind    ErrorKind           `json:"errorKind,omitempty"`
	Error        string              `json:"error,omitempty"`
	BoardPayload *BoardWritePayload  `json:"boardPayload,omitempty"`
	BoardRaw     string              `json:"boardRaw,omitempty"`
	Contact      *ContactPayload     `json:"contact,omitempty"`
	Segments     []SegmentEnrollment `json:"segments,omitempty"`
}

// DiagnosticSink records diagnostic reports on a best-effort basis.
type DiagnosticSink interface {
	Record(ctx context.Context, report *DiagnosticReport)
}

type IntakeUsecase interface {
	// Submit validates the submission and writes it to both systems.
	Submit(ctx context.Context, sub *ContactSubmission) (*SubmissionResult, error)
}
