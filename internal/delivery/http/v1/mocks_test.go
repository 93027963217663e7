package v1_test

import (
	"context"

	"crm-intake-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockIntakeUsecase struct {
	mock.Mock
}

func (m *MockIntakeUsecase) Submit(ctx context.Context, sub *domain.ContactSubmission) (*domain.SubmissionResult, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubmissionResult), args.Error(1)
}

type MockCatalogUsecase struct {
	mock.Mock
}

func (m *MockCatalogUsecase) FetchBoardOptions(ctx context.Context) (*domain.BoardOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoardOptions), args.Error(1)
}

func (m *MockCatalogUsecase) FetchSegmentOptions(ctx context.Context) ([]domain.SegmentOption, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SegmentOption), args.Error(1)
}

func (m *MockCatalogUsecase) FetchCatalog(ctx context.Context) *domain.Catalog {
	return m.Called(ctx).Get(0).(*domain.Catalog)
}

func (m *MockCatalogUsecase) ValidateSelections(ctx context.Context, sub *domain.ContactSubmission) error {
	return m.Called(ctx, sub).Error(0)
}

type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) Login(ctx context.Context, req domain.LoginRequest, meta domain.ClientMeta) (*domain.LoginResult, error) {
	args := m.Called(ctx, req, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

func (m *MockAuthUsecase) Logout(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockAuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockAdminUsecase struct {
	mock.Mock
}

func (m *MockAdminUsecase) ProvisionUser(ctx context.Context, req domain.CreateUserRequest) (*domain.ProvisionedUser, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionedUser), args.Error(1)
}

func (m *MockAdminUsecase) GeneratePassword(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
