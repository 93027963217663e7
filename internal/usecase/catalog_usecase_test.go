package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/internal/repository/cache"
	"crm-intake-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boardColumns() []domain.BoardColumn {
	return []domain.BoardColumn{
		{ID: "name", Title: "Name", Type: "name"},
		{ID: domain.ColumnAreaOfExpertise, Type: "dropdown", SettingsStr: `{"labels":[{"id":1,"name":"Policy"},{"id":3,"name":"Tech"}]}`},
		{ID: domain.ColumnLabels, Type: "dropdown", SettingsStr: `{"labels":[{"id":2,"name":"Press"}]}`},
	}
}

func TestParseDropdownOptions(t *testing.T) {
	t.Run("Should parse a valid settings blob", func(t *testing.T) {
		opts := usecase.ParseDropdownOptions(`{"labels":[{"id":1,"name":"A"}]}`)
		assert.Equal(t, []domain.DropdownOption{{ID: 1, Name: "A"}}, opts)
	})

	t.Run("Should return an empty list for invalid JSON", func(t *testing.T) {
		opts := usecase.ParseDropdownOptions("not json")
		assert.NotNil(t, opts)
		assert.Empty(t, opts)
	})

	t.Run("Should return an empty list when labels are missing", func(t *testing.T) {
		assert.Empty(t, usecase.ParseDropdownOptions(`{"hide_footer":false}`))
	})
}

func TestFetchBoardOptions(t *testing.T) {
	t.Run("Should pick the two dropdown columns by id", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(boardColumns(), nil)

		uc := usecase.NewCatalogUsecase(board, new(MockMessagingClient), nil)
		opts, err := uc.FetchBoardOptions(context.Background())

		require.NoError(t, err)
		assert.Len(t, opts.AreaOfExpertise, 2)
		assert.Equal(t, []domain.DropdownOption{{ID: 2, Name: "Press"}}, opts.Labels)
	})

	t.Run("Should return empty lists when the columns are absent", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return([]domain.BoardColumn{{ID: "name"}}, nil)

		uc := usecase.NewCatalogUsecase(board, new(MockMessagingClient), nil)
		opts, err := uc.FetchBoardOptions(context.Background())

		require.NoError(t, err)
		assert.Empty(t, opts.AreaOfExpertise)
		assert.Empty(t, opts.Labels)
	})

	t.Run("Should serve the second call from cache", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(boardColumns(), nil).Once()

		uc := usecase.NewCatalogUsecase(board, new(MockMessagingClient), cache.NewCatalogCache(nil, time.Minute))
		_, err := uc.FetchBoardOptions(context.Background())
		require.NoError(t, err)
		_, err = uc.FetchBoardOptions(context.Background())
		require.NoError(t, err)

		board.AssertNumberOfCalls(t, "FetchColumns", 1)
	})
}

func TestFetchCatalog(t *testing.T) {
	t.Run("Should keep segments when the board fails", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(nil, domain.NewConfigurationError(domain.SystemBoard, "Monday.com configuration missing"))
		messaging := new(MockMessagingClient)
		messaging.On("ListSegments", mock.Anything).Return([]domain.SegmentOption{{ID: "seg-1", Name: "Newsletter"}}, nil)

		uc := usecase.NewCatalogUsecase(board, messaging, nil)
		catalog := uc.FetchCatalog(context.Background())

		assert.ErrorIs(t, catalog.BoardErr, domain.ErrConfiguration)
		assert.Nil(t, catalog.Board)
		assert.NoError(t, catalog.SegmentsErr)
		assert.Len(t, catalog.Segments, 1)
	})

	t.Run("Should keep board options when segments fail", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(boardColumns(), nil)
		messaging := new(MockMessagingClient)
		messaging.On("ListSegments", mock.Anything).Return(nil, domain.NewUnreachableError(domain.SystemMessaging, errors.New("timeout")))

		uc := usecase.NewCatalogUsecase(board, messaging, nil)
		catalog := uc.FetchCatalog(context.Background())

		assert.NoError(t, catalog.BoardErr)
		assert.NotNil(t, catalog.Board)
		assert.ErrorIs(t, catalog.SegmentsErr, domain.ErrUpstreamUnreachable)
	})
}

func TestValidateSelections(t *testing.T) {
	segments := []domain.SegmentOption{{ID: "seg-1"}, {ID: "seg-2"}, {ID: "seg-3"}}

	t.Run("Should accept known ids", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(boardColumns(), nil)
		messaging := new(MockMessagingClient)
		messaging.On("ListSegments", mock.Anything).Return(segments, nil)

		uc := usecase.NewCatalogUsecase(board, messaging, nil)
		assert.NoError(t, uc.ValidateSelections(context.Background(), validSubmission()))
	})

	t.Run("Should reject an unknown label after one refresh", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(boardColumns(), nil)
		messaging := new(MockMessagingClient)

		uc := usecase.NewCatalogUsecase(board, messaging, cache.NewCatalogCache(nil, time.Minute))
		sub := validSubmission()
		sub.Labels = []int{99}

		err := uc.ValidateSelections(context.Background(), sub)

		assert.EqualError(t, err, "Unknown label option: 99")
		// First load plus one refresh
		board.AssertNumberOfCalls(t, "FetchColumns", 2)
		messaging.AssertNotCalled(t, "ListSegments", mock.Anything)
	})

	t.Run("Should accept an id that only appears after refreshing a stale cache", func(t *testing.T) {
		c := cache.NewCatalogCache(nil, time.Minute)
		c.SetSegments(context.Background(), []domain.SegmentOption{{ID: "seg-1"}})

		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(boardColumns(), nil)
		messaging := new(MockMessagingClient)
		messaging.On("ListSegments", mock.Anything).Return(segments, nil).Once()

		uc := usecase.NewCatalogUsecase(board, messaging, c)
		assert.NoError(t, uc.ValidateSelections(context.Background(), validSubmission()))
		messaging.AssertNumberOfCalls(t, "ListSegments", 1)
	})

	t.Run("Should skip a source that cannot be loaded", func(t *testing.T) {
		board := new(MockBoardClient)
		board.On("FetchColumns", mock.Anything).Return(nil, errors.New("boom"))
		messaging := new(MockMessagingClient)
		messaging.On("ListSegments", mock.Anything).Return(segments, nil)

		uc := usecase.NewCatalogUsecase(board, messaging, nil)
		assert.NoError(t, uc.ValidateSelections(context.Background(), validSubmission()))
	})
}
