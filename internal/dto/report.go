package dto

import "github.com/TomaX04/Voz-del-Caser-o/internal/models"

// CreateReportRequest captures POST /reports. Images may be supplied inline as
// data URLs or, for multipart requests, as uploaded files.
type CreateReportRequest struct {
	Title       string         `json:"title" form:"title" validate:"required,max=200"`
	Category    string         `json:"category" form:"category" validate:"required,oneof=road lighting sanitation water energy security environment other"`
	Description string         `json:"description" form:"description" validate:"required,max=4000"`
	Place       string         `json:"place" form:"place" validate:"max=200"`
	Images      []models.Image `json:"images" form:"-"`
}

// AddCommentRequest captures POST /reports/{id}/comments.
type AddCommentRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

// ChangeStatusRequest captures POST /reports/{id}/status.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// ReportQuery binds list and export query strings.
type ReportQuery struct {
	Query    string `form:"q"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Format   string `form:"format"`
}

// Filter converts the query into the projection filter.
func (q ReportQuery) Filter() models.ReportFilter {
	return models.ReportFilter{Query: q.Query, Status: q.Status, Category: q.Category}
}

// ReportList is a page of the projection.
type ReportList struct {
	Items      []models.Report
	Pagination *models.Pagination
}
