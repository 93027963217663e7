package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// LogSink writes diagnostic reports to the application log
type LogSink struct{}

func (LogSink) Record(_ context.Context, report *domain.DiagnosticReport) {
	logger.Log.Warn("Intake submission needs attention",
		"submission_id", report.SubmissionID,
		"stage", report.Stage,
		"kind", report.ErrorKind,
		"error", report.Error,
		"board_payload", report.BoardPayload,
		"board_response", report.BoardRaw,
		"segments", report.Segments,
	)
}

// S3Sink stores each report as a JSON object, one per submission
type S3Sink struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

func NewS3Sink(client ObjectPutter, bucket string) *S3Sink {
	return &S3Sink{
		client:  client,
		bucket:  bucket,
		prefix:  "intake-failures",
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// ObjectKey returns the key a report is stored under
func (s *S3Sink) ObjectKey(report *domain.DiagnosticReport) string {
	return fmt.Sprintf("%s/%s/%s.json", s.prefix, s.now().UTC().Format("2006/01/02"), report.SubmissionID)
}

// Record uploads the report. Failures are logged and otherwise ignored.
func (s *S3Sink) Record(ctx context.Context, report *domain.DiagnosticReport) {
	body, err := json.Marshal(report)
	if err != nil {
		logger.Log.Error("Failed to encode diagnostic report", "submission_id", report.SubmissionID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.ObjectKey(report)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logger.Log.Error("Failed to archive diagnostic report", "submission_id", report.SubmissionID, "key", key, "error", err)
		return
	}
	logger.Log.Info("Diagnostic report archived", "submission_id", report.SubmissionID, "key", key)
}

// MultiSink fans a report out to several sinks in order
type MultiSink []domain.DiagnosticSink

func (m MultiSink) Record(ctx context.Context, report *domain.DiagnosticReport) {
	for _, sink := range m {
		sink.Record(ctx, report)
	}
}
