package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/apperror"
	"crm-intake-backend/pkg/logger"
)

type catalogUsecase struct {
	board     domain.BoardClient
	messaging domain.MessagingClient
	cache     domain.CatalogCache
}

// NewCatalogUsecase creates the option catalog resolver. cache may be nil.
func NewCatalogUsecase(board domain.BoardClient, messaging domain.MessagingClient, cache domain.CatalogCache) domain.CatalogUsecase {
	return &catalogUsecase{
		board:     board,
		messaging: messaging,
		cache:     cache,
	}
}

// ParseDropdownOptions reads the labels list of a dropdown column's
// settings blob. Anything unparseable yields an empty list.
func ParseDropdownOptions(settingsStr string) []domain.DropdownOption {
	var settings struct {
		Labels []domain.DropdownOption `json:"labels"`
	}
	if err := json.Unmarshal([]byte(settingsStr), &settings); err != nil || settings.Labels == nil {
		return []domain.DropdownOption{}
	}
	return settings.Labels
}

func (u *catalogUsecase) FetchBoardOptions(ctx context.Context) (*domain.BoardOptions, error) {
	if u.cache != nil {
		if opts, ok := u.cache.GetBoardOptions(ctx); ok {
			return opts, nil
		}
	}
	return u.loadBoardOptions(ctx)
}

func (u *catalogUsecase) FetchSegmentOptions(ctx context.Context) ([]domain.SegmentOption, error) {
	if u.cache != nil {
		if segments, ok := u.cache.GetSegments(ctx); ok {
			return segments, nil
		}
	}
	return u.loadSegments(ctx)
}

// FetchCatalog loads both option sources concurrently. Each half keeps its
// own error and never cancels the other.
func (u *catalogUsecase) FetchCatalog(ctx context.Context) *domain.Catalog {
	catalog := &domain.Catalog{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		catalog.Board, catalog.BoardErr = u.FetchBoardOptions(ctx)
	}()
	go func() {
		defer wg.Done()
		catalog.Segments, catalog.SegmentsErr = u.FetchSegmentOptions(ctx)
	}()
	wg.Wait()

	return catalog
}

// ValidateSelections rejects option ids that are not in the current catalog.
// A miss against cached data triggers one fresh reload before rejecting. If
// a source cannot be loaded its fields are left for the upstream system to
// judge.
func (u *catalogUsecase) ValidateSelections(ctx context.Context, sub *domain.ContactSubmission) error {
	if err := u.validateBoardSelections(ctx, sub); err != nil {
		return err
	}
	return u.validateSegmentSelections(ctx, sub)
}

func (u *catalogUsecase) validateBoardSelections(ctx context.Context, sub *domain.ContactSubmission) error {
	opts, err := u.FetchBoardOptions(ctx)
	if err != nil {
		logger.Log.Warn("Skipping board option validation", "system", domain.SystemBoard, "error", err)
		return nil
	}

	missingArea, missingLabels := unknownDropdownIDs(opts.AreaOfExpertise, sub.AreaOfExpertise), unknownDropdownIDs(opts.Labels, sub.Labels)
	if len(missingArea) > 0 || len(missingLabels) > 0 {
		if opts, err = u.loadBoardOptions(ctx); err != nil {
			logger.Log.Warn("Skipping board option validation", "system", domain.SystemBoard, "error", err)
			return nil
		}
		missingArea, missingLabels = unknownDropdownIDs(opts.AreaOfExpertise, sub.AreaOfExpertise), unknownDropdownIDs(opts.Labels, sub.Labels)
	}

	if len(missingArea) > 0 {
		return apperror.BadRequest(fmt.Sprintf("Unknown area of expertise option: %s", joinInts(missingArea)))
	}
	if len(missingLabels) > 0 {
		return apperror.BadRequest(fmt.Sprintf("Unknown label option: %s", joinInts(missingLabels)))
	}
	return nil
}

func (u *catalogUsecase) validateSegmentSelections(ctx context.Context, sub *domain.ContactSubmission) error {
	segments, err := u.FetchSegmentOptions(ctx)
	if err != nil {
		logger.Log.Warn("Skipping segment validation", "system", domain.SystemMessaging, "error", err)
		return nil
	}

	missing := unknownSegmentIDs(segments, sub.SegmentIDs)
	if len(missing) > 0 {
		if segments, err = u.loadSegments(ctx); err != nil {
			logger.Log.Warn("Skipping segment validation", "system", domain.SystemMessaging, "error", err)
			return nil
		}
		missing = unknownSegmentIDs(segments, sub.SegmentIDs)
	}

	if len(missing) > 0 {
		return apperror.BadRequest(fmt.Sprintf("Unknown segment: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func (u *catalogUsecase) loadBoardOptions(ctx context.Context) (*domain.BoardOptions, error) {
	columns, err := u.board.FetchColumns(ctx)
	if err != nil {
		return nil, err
	}

	opts := &domain.BoardOptions{
		AreaOfExpertise: []domain.DropdownOption{},
		Labels:          []domain.DropdownOption{},
	}
	for _, col := range columns {
		switch col.ID {
		case domain.ColumnAreaOfExpertise:
			opts.AreaOfExpertise = ParseDropdownOptions(col.SettingsStr)
		case domain.ColumnLabels:
			opts.Labels = ParseDropdownOptions(col.SettingsStr)
		}
	}

	if u.cache != nil {
		u.cache.SetBoardOptions(ctx, opts)
	}
	return opts, nil
}

func (u *catalogUsecase) loadSegments(ctx context.Context) ([]domain.SegmentOption, error) {
	segments, err := u.messaging.ListSegments(ctx)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		u.cache.SetSegments(ctx, segments)
	}
	return segments, nil
}

func unknownDropdownIDs(options []domain.DropdownOption, ids []int) []int {
	known := make(map[int]struct{}, len(options))
	for _, o := range options {
		known[o.ID] = struct{}{}
	}
	var missing []int
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func unknownSegmentIDs(options []domain.SegmentOption, ids []string) []string {
	known := make(map[string]struct{}, len(options))
	for _, o := range options {
		known[o.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
