package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

const createdNote = "Created the report"

// Lifecycle applies report transitions. Every method returns a new report and
// leaves its input untouched, so status and history are always observed together.
type Lifecycle struct {
	now   func() time.Time
	newID func() string
}

// NewLifecycle builds a lifecycle engine. Nil clock or id generator fall back
// to UTC wall time and random UUIDs.
func NewLifecycle(now func() time.Time, newID func() string) *Lifecycle {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Lifecycle{now: now, newID: newID}
}

// CreateReport builds a new report in the reported state with a single create event.
func (l *Lifecycle) CreateReport(fields models.ReportFields, actor models.Actor) (models.Report, error) {
	title := strings.TrimSpace(fields.Title)
	description := strings.TrimSpace(fields.Description)
	if title == "" || description == "" {
		return models.Report{}, appErrors.Clone(appErrors.ErrValidation, "title and description are required")
	}
	if !fields.Category.Valid() {
		return models.Report{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", fields.Category))
	}
	place := strings.TrimSpace(fields.Place)
	if place == "" {
		place = models.PlacePlaceholder
	}

	images := make([]models.Image, len(fields.Images))
	copy(images, fields.Images)

	at := l.now()
	return models.Report{
		ID:          l.newID(),
		Title:       title,
		Category:    fields.Category,
		Description: description,
		Place:       place,
		Status:      models.ReportStatusReported,
		CreatedBy:   actor,
		CreatedAt:   at,
		Votes:       0,
		Images:      images,
		Comments:    []models.Comment{},
		History: []models.HistoryEvent{
			{ID: l.newID(), At: at, By: actor, Type: models.HistoryCreate, Note: createdNote},
		},
	}, nil
}

// AddComment appends a comment and its matching history event. Blank text is
// ignored: the report is returned as is and the second result is false.
func (l *Lifecycle) AddComment(report models.Report, actor models.Actor, text string) (models.Report, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return report, false
	}
	at := l.now()
	next := cloneReport(report)
	next.Comments = append(next.Comments, models.Comment{ID: l.newID(), At: at, By: actor, Text: text})
	next.History = append(next.History, models.HistoryEvent{
		ID:   l.newID(),
		At:   at,
		By:   actor,
		Type: models.HistoryComment,
		Note: text,
	})
	return next, true
}

// ChangeStatus moves the report to target. Only moderators and admins may do
// so; any status may follow any other, including itself.
func (l *Lifecycle) ChangeStatus(report models.Report, actor models.Actor, target models.ReportStatus, note string) (models.Report, error) {
	if !target.Valid() {
		return report, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", target))
	}
	if !actor.Role.CanManageStatus() {
		return report, appErrors.ErrUnauthorizedRole
	}
	next := cloneReport(report)
	next.Status = target
	next.History = append(next.History, models.HistoryEvent{
		ID:   l.newID(),
		At:   l.now(),
		By:   actor,
		Type: models.HistoryStatus,
		To:   target,
		Note: strings.TrimSpace(note),
	})
	return next, nil
}

// Vote adds one supporting vote. Votes are not recorded in history.
func (l *Lifecycle) Vote(report models.Report) models.Report {
	next := cloneReport(report)
	next.Votes++
	return next
}

func cloneReport(r models.Report) models.Report {
	out := r
	out.Images = append([]models.Image(nil), r.Images...)
	out.Comments = append(make([]models.Comment, 0, len(r.Comments)+1), r.Comments...)
	out.History = append(make([]models.HistoryEvent, 0, len(r.History)+1), r.History...)
	return out
}
