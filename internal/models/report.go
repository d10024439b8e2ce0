package models

import "time"

// ReportStatus is the lifecycle stage of a community report.
type ReportStatus string

const (
	ReportStatusReported   ReportStatus = "reported"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusResolved   ReportStatus = "resolved"
)

// ReportCategory classifies the kind of issue a report describes.
type ReportCategory string

const (
	CategoryRoad        ReportCategory = "road"
	CategoryLighting    ReportCategory = "lighting"
	CategorySanitation  ReportCategory = "sanitation"
	CategoryWater       ReportCategory = "water"
	CategoryEnergy      ReportCategory = "energy"
	CategorySecurity    ReportCategory = "security"
	CategoryEnvironment ReportCategory = "environment"
	CategoryOther       ReportCategory = "other"
)

// HistoryEventType enumerates audit trail entries.
type HistoryEventType string

const (
	HistoryCreate  HistoryEventType = "create"
	HistoryComment HistoryEventType = "comment"
	HistoryStatus  HistoryEventType = "status"
)

// FilterAll disables the status or category predicate of a ReportFilter.
const FilterAll = "all"

// PlacePlaceholder is stored when a report is created without a place.
const PlacePlaceholder = "—"

// ReportStatuses lists every status in display order.
var ReportStatuses = []ReportStatus{ReportStatusReported, ReportStatusInProgress, ReportStatusResolved}

// ReportCategories lists every category in display order.
var ReportCategories = []ReportCategory{
	CategoryRoad,
	CategoryLighting,
	CategorySanitation,
	CategoryWater,
	CategoryEnergy,
	CategorySecurity,
	CategoryEnvironment,
	CategoryOther,
}

var statusLabels = map[ReportStatus]string{
	ReportStatusReported:   "Reported",
	ReportStatusInProgress: "In progress",
	ReportStatusResolved:   "Resolved",
}

var categoryLabels = map[ReportCategory]string{
	CategoryRoad:        "Roads and potholes",
	CategoryLighting:    "Street lighting",
	CategorySanitation:  "Sanitation and waste",
	CategoryWater:       "Water supply",
	CategoryEnergy:      "Power",
	CategorySecurity:    "Security",
	CategoryEnvironment: "Environment",
	CategoryOther:       "Other",
}

// Valid reports whether the status is one of the known lifecycle stages.
func (s ReportStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human label, falling back to the raw value.
func (s ReportStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the category is enumerated.
func (c ReportCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human label, falling back to the raw value.
func (c ReportCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Image is an attachment materialised as a self-contained data URL.
type Image struct {
	Name    string `json:"name"`
	DataURL string `json:"dataUrl"`
}

// Comment is a free-text remark left on a report.
type Comment struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	By   Actor     `json:"by"`
	Text string    `json:"text"`
}

// HistoryEvent is one append-only audit entry. To is only set on status events.
type HistoryEvent struct {
	ID   string           `json:"id"`
	At   time.Time        `json:"at"`
	By   Actor            `json:"by"`
	Type HistoryEventType `json:"type"`
	To   ReportStatus     `json:"to,omitempty"`
	Note string           `json:"note"`
}

// Report is a community issue with its audit trail.
type Report struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    ReportCategory `json:"category"`
	Description string         `json:"description"`
	Place       string         `json:"place"`
	Status      ReportStatus   `json:"status"`
	CreatedBy   Actor          `json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	Votes       int            `json:"votes"`
	Images      []Image        `json:"images"`
	Comments    []Comment      `json:"comments"`
	History     []HistoryEvent `json:"history"`
}

// ReportFields carries the user supplied part of a new report.
type ReportFields struct {
	Title       string
	Description string
	Place       string
	Category    ReportCategory
	Images      []Image
}

// ReportFilter selects a projection of the collection. Empty Status or
// Category behave like FilterAll.
type ReportFilter struct {
	Query    string
	Status   string
	Category string
}

// ReportCounts aggregates the whole collection.
type ReportCounts struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
