package usecase_test

import (
	"context"

	"crm-intake-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockBoardClient struct {
	mock.Mock
}

func (m *MockBoardClient) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockBoardClient) FetchColumns(ctx context.Context) ([]domain.BoardColumn, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BoardColumn), args.Error(1)
}

func (m *MockBoardClient) CreateItem(ctx context.Context, payload *domain.BoardWritePayload) (*domain.BoardWriteResponse, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoardWriteResponse), args.Error(1)
}

type MockMessagingClient struct {
	mock.Mock
}

func (m *MockMessagingClient) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockMessagingClient) ListSegments(ctx context.Context) ([]domain.SegmentOption, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SegmentOption), args.Error(1)
}

func (m *MockMessagingClient) CreateContact(ctx context.Context, payload *domain.ContactPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockMessagingClient) AddContactToSegment(ctx context.Context, contactID, segmentID string) error {
	return m.Called(ctx, contactID, segmentID).Error(0)
}

type MockDiagnosticSink struct {
	mock.Mock
}

func (m *MockDiagnosticSink) Record(ctx context.Context, report *domain.DiagnosticReport) {
	m.Called(ctx, report)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) FetchBoardOptions(ctx context.Context) (*domain.BoardOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoardOptions), args.Error(1)
}

func (m *MockCatalog) FetchSegmentOptions(ctx context.Context) ([]domain.SegmentOption, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SegmentOption), args.Error(1)
}

func (m *MockCatalog) FetchCatalog(ctx context.Context) *domain.Catalog {
	return m.Called(ctx).Get(0).(*domain.Catalog)
}

func (m *MockCatalog) ValidateSelections(ctx context.Context, sub *domain.ContactSubmission) error {
	return m.Called(ctx, sub).Error(0)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockIdentityProvider) ResetPassword(ctx context.Context, email, redirectTo string) error {
	return m.Called(ctx, email, redirectTo).Error(0)
}

func (m *MockIdentityProvider) CreateUser(ctx context.Context, email, password string) (*domain.IdentityUser, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdentityUser), args.Error(1)
}

type MockLoginGuard struct {
	mock.Mock
}

func (m *MockLoginGuard) IsBlocked(ctx context.Context, email, ip string) (bool, error) {
	args := m.Called(ctx, email, ip)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoginGuard) RecordFailedAttempt(ctx context.Context, email, ip, userAgent, requestID string) (bool, int, error) {
	args := m.Called(ctx, email, ip, userAgent, requestID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockLoginGuard) ClearAttempts(ctx context.Context, email, ip string) error {
	return m.Called(ctx, email, ip).Error(0)
}
