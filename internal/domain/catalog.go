package domain

import "context"

// Fixed column identifiers on the intake board.
const (
	ColumnEmail           = "email__1"
	ColumnEmployer        = "text__1"
	ColumnRole            = "text_mkygh34f"
	ColumnLinkedIn        = "text_2__1"
	ColumnNotes           = "text_mkygas91"
	ColumnAreaOfExpertise = "dropdown5__1"
	ColumnLabels          = "dropdown_mkrv1p9m"
	// ColumnLocation is a structured location column (lat/lng). Only free text
	// is collected, so it is never written.
	ColumnLocation = "location__1"
)

// DropdownOption is one selectable value of a board dropdown column.
type DropdownOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SegmentOption is one subscriber segment of the messaging platform.
type SegmentOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardColumn is the schema metadata of a single board column.
type BoardColumn struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str"`
}

type BoardOptions struct {
	AreaOfExpertise []DropdownOption `json:"areaOfExpertise"`
	Labels          []DropdownOption `json:"labels"`
}

// Catalog holds both option sources. The two halves fail independently, so
// each carries its own error.
type Catalog struct {
	Board       *BoardOptions
	BoardErr    error
	Segments    []SegmentOption
	SegmentsErr error
}

// CatalogCache stores previously fetched option sets.
type CatalogCache interface {
	GetBoardOptions(ctx context.Context) (*BoardOptions, bool)
	SetBoardOptions(ctx context.Context, opts *BoardOptions)
	GetSegments(ctx context.Context) ([]SegmentOption, bool)
	SetSegments(ctx context.Context, segments []SegmentOption)
	Invalidate(ctx context.Context)
}

type CatalogUsecase interface {
	// FetchBoardOptions returns the dropdown universes of the intake board.
	FetchBoardOptions(ctx context.Context) (*BoardOptions, error)
	// FetchSegmentOptions returns the messaging platform's segments.
	FetchSegmentOptions(ctx context.Context) ([]SegmentOption, error)
	// FetchCatalog loads both sources independently.
	FetchCatalog(ctx context.Context) *Catalog
	// ValidateSelections checks the submission's selected ids against the
	// catalog.
	ValidateSelections(ctx context.Context, sub *ContactSubmission) error
}
