package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/internal/service"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/response"
)

const imagesFormField = "images"

type reportService interface {
	List(ctx context.Context, query dto.ReportQuery) (*dto.ReportList, error)
	Counts(ctx context.Context) models.ReportCounts
	Get(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, req dto.CreateReportRequest, uploads []service.ImageUpload, actor models.Actor) (*models.Report, error)
	AddComment(ctx context.Context, id string, req dto.AddCommentRequest, actor models.Actor) (*models.Report, error)
	ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest, actor models.Actor) (*models.Report, error)
	Vote(ctx context.Context, id string) (*models.Report, error)
}

type reportExporter interface {
	Export(ctx context.Context, filter models.ReportFilter, format service.ExportFormat) (*service.ExportFile, error)
}

// ReportHandler exposes the community report endpoints.
type ReportHandler struct {
	service  reportService
	exporter reportExporter
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(service reportService, exporter reportExporter) *ReportHandler {
	return &ReportHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary List reports
// @Description Newest first, filtered by status, category and free text.
// @Tags Reports
// @Produce json
// @Param q query string false "Free text over title, description, place and author"
// @Param status query string false "reported, in_progress, resolved or all"
// @Param category query string false "Category key or all"
// @Param page query int false "Page number"
// @Param limit query int false "Page size, all rows when omitted"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, list.Pagination)
}

// Counts godoc
// @Summary Report counts
// @Description Totals by status and category over the whole collection.
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/counts [get]
func (h *ReportHandler) Counts(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Counts(c.Request.Context()), nil)
}

// Get godoc
// @Summary Get report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Create report
// @Description Accepts JSON with inline data URL images or multipart with image files.
// @Tags Reports
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param payload body dto.CreateReportRequest false "Report payload"
// @Param images formData file false "Photos"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}

	var uploads []service.ImageUpload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid multipart form"))
			return
		}
		files, closeAll, err := openUploads(form.File[imagesFormField])
		defer closeAll()
		if err != nil {
			response.Error(c, err)
			return
		}
		uploads = files
	}

	report, err := h.service.Create(c.Request.Context(), req, uploads, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// AddComment godoc
// @Summary Comment on report
// @Description Blank text leaves the report unchanged.
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.AddCommentRequest true "Comment"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/comments [post]
func (h *ReportHandler) AddComment(c *gin.Context) {
	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	report, err := h.service.AddComment(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Vote godoc
// @Summary Support report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/votes [post]
func (h *ReportHandler) Vote(c *gin.Context) {
	report, err := h.service.Vote(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ChangeStatus godoc
// @Summary Change report status
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.ChangeStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/status [post]
func (h *ReportHandler) ChangeStatus(c *gin.Context) {
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), req, claims.Actor())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export reports
// @Description Downloads the filtered list as CSV or PDF.
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param q query string false "Free text"
// @Param status query string false "Status filter"
// @Param category query string false "Category filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query.Filter(), service.ExportFormat(strings.ToLower(query.Format)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func openUploads(headers []*multipart.FileHeader) ([]service.ImageUpload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			return nil, closeAll, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image")
		}
		files = append(files, src)
		uploads = append(uploads, service.ImageUpload{Filename: header.Filename, Size: header.Size, Content: src})
	}
	return uploads, closeAll, nil
}
