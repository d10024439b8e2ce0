package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/middleware"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/internal/service"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

type reportServiceMock struct {
	listResp   *dto.ReportList
	listErr    error
	report     *models.Report
	err        error
	gotQuery   dto.ReportQuery
	gotCreate  dto.CreateReportRequest
	gotUploads []string
	gotActor   models.Actor
}

func (m *reportServiceMock) List(ctx context.Context, query dto.ReportQuery) (*dto.ReportList, error) {
	m.gotQuery = query
	return m.listResp, m.listErr
}

func (m *reportServiceMock) Counts(ctx context.Context) models.ReportCounts {
	return models.ReportCounts{Total: 1, ByStatus: map[string]int{"reported": 1}, ByCategory: map[string]int{"road": 1}}
}

func (m *reportServiceMock) Get(ctx context.Context, id string) (*models.Report, error) {
	return m.report, m.err
}

func (m *reportServiceMock) Create(ctx context.Context, req dto.CreateReportRequest, uploads []service.ImageUpload, actor models.Actor) (*models.Report, error) {
	m.gotCreate = req
	m.gotActor = actor
	for _, u := range uploads {
		data, _ := io.ReadAll(u.Content)
		m.gotUploads = append(m.gotUploads, u.Filename+":"+string(data))
	}
	return m.report, m.err
}

func (m *reportServiceMock) AddComment(ctx context.Context, id string, req dto.AddCommentRequest, actor models.Actor) (*models.Report, error) {
	m.gotActor = actor
	return m.report, m.err
}

func (m *reportServiceMock) ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest, actor models.Actor) (*models.Report, error) {
	m.gotActor = actor
	return m.report, m.err
}

func (m *reportServiceMock) Vote(ctx context.Context, id string) (*models.Report, error) {
	return m.report, m.err
}

type exporterMock struct {
	filter models.ReportFilter
	format service.ExportFormat
}

func (m *exporterMock) Export(ctx context.Context, filter models.ReportFilter, format service.ExportFormat) (*service.ExportFile, error) {
	m.filter, m.format = filter, format
	return &service.ExportFile{Filename: "reports.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("a,b\n")}, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func TestReportHandlerList(t *testing.T) {
	mockSvc := &reportServiceMock{listResp: &dto.ReportList{
		Items:      []models.Report{{ID: "r1"}},
		Pagination: &models.Pagination{Page: 1, PageSize: 1, TotalCount: 1},
	}}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/reports?q=poste&status=in_progress&category=all&page=1&limit=10", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ReportQuery{Query: "poste", Status: "in_progress", Category: "all", Page: 1, Limit: 10}, mockSvc.gotQuery)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestReportHandlerListBadPage(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{}, nil)
	c, w := newGinContext(http.MethodGet, "/reports?page=abc", nil)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w))
}

func TestReportHandlerCreateJSONAsGuest(t *testing.T) {
	mockSvc := &reportServiceMock{report: &models.Report{ID: "r1"}}
	handler := NewReportHandler(mockSvc, nil)

	payload, _ := json.Marshal(map[string]interface{}{
		"title": "Hueco", "description": "Grande", "category": "road",
		"images": []map[string]string{{"name": "a.png", "dataUrl": "data:image/png;base64,AAAA"}},
	})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Hueco", mockSvc.gotCreate.Title)
	assert.Len(t, mockSvc.gotCreate.Images, 1)
	assert.Equal(t, models.GuestActor(), mockSvc.gotActor)
}

func TestReportHandlerCreateMultipart(t *testing.T) {
	mockSvc := &reportServiceMock{report: &models.Report{ID: "r1"}}
	handler := NewReportHandler(mockSvc, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Poste"))
	require.NoError(t, mw.WriteField("description", "Sin luz"))
	require.NoError(t, mw.WriteField("category", "lighting"))
	part, err := mw.CreateFormFile("images", "poste.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	c, w := newGinContext(http.MethodPost, "/reports", body.Bytes())
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	c.Set(middleware.ContextUserKey, &models.ActorClaims{ActorID: "a1", Name: "Rosa", Role: models.RoleResident})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "lighting", mockSvc.gotCreate.Category)
	assert.Equal(t, []string{"poste.png:png-bytes"}, mockSvc.gotUploads)
	assert.Equal(t, "Rosa", mockSvc.gotActor.Name)
}

func TestReportHandlerErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.Clone(appErrors.ErrNotFound, "report not found"), http.StatusNotFound, "NOT_FOUND"},
		{appErrors.Clone(appErrors.ErrStorageUnavailable, "down"), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{appErrors.ErrUnauthorizedRole, http.StatusForbidden, "UNAUTHORIZED_ROLE"},
	}
	for _, tc := range cases {
		handler := NewReportHandler(&reportServiceMock{err: tc.err}, nil)
		c, w := newGinContext(http.MethodPost, "/reports/r1/status", []byte(`{"status":"resolved"}`))
		c.Params = gin.Params{{Key: "id", Value: "r1"}}
		c.Set(middleware.ContextUserKey, &models.ActorClaims{ActorID: "m", Role: models.RoleModerator})
		handler.ChangeStatus(c)
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.code, decodeError(t, w))
	}
}

func TestReportHandlerChangeStatusNeedsClaims(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{}, nil)
	c, w := newGinContext(http.MethodPost, "/reports/r1/status", []byte(`{"status":"resolved"}`))
	handler.ChangeStatus(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerCommentAndVote(t *testing.T) {
	mockSvc := &reportServiceMock{report: &models.Report{ID: "r1", Votes: 4}}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodPost, "/reports/r1/comments", []byte(`{"text":"  "}`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.AddComment(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodPost, "/reports/r1/votes", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Vote(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"votes":4`)
}

func TestReportHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	handler := NewReportHandler(&reportServiceMock{}, exporter)

	c, w := newGinContext(http.MethodGet, "/reports/export?format=CSV&status=resolved", nil)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, exporter.format)
	assert.Equal(t, "resolved", exporter.filter.Status)
	assert.Equal(t, `attachment; filename="reports.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
