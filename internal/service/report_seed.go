package service

import (
	"time"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
)

// communityBoard signs status changes made by the neighbourhood board in the
// example data.
var communityBoard = models.Actor{ID: "sys", Name: "JAC"}

// SeedReports builds the three example reports installed on first run, one per
// status. They are spaced a minute apart so the newest-first order is stable.
func SeedReports(now func() time.Time, newID func() string) []models.Report {
	lc := NewLifecycle(now, newID)
	base := lc.now()
	resident := models.Actor{ID: lc.newID(), Name: "María Pérez", Role: models.RoleResident}

	event := func(at time.Time, by models.Actor, typ models.HistoryEventType, to models.ReportStatus, note string) models.HistoryEvent {
		return models.HistoryEvent{ID: lc.newID(), At: at, By: by, Type: typ, To: to, Note: note}
	}
	comment := func(at time.Time, by models.Actor, text string) (models.Comment, models.HistoryEvent) {
		return models.Comment{ID: lc.newID(), At: at, By: by, Text: text},
			event(at, by, models.HistoryComment, "", text)
	}

	roadAt := base.Add(-2 * time.Minute)
	roadComment, roadCommentEvent := comment(roadAt, resident, "Por favor tener cuidado en las noches.")
	road := models.Report{
		ID:          lc.newID(),
		Title:       "Hueco grande en la vía principal",
		Category:    models.CategoryRoad,
		Description: "A la altura de la escuela hay un hueco que pone en riesgo a motos y bicicletas.",
		Place:       "Frente a la Escuela Rural El Progreso",
		Status:      models.ReportStatusReported,
		CreatedBy:   resident,
		CreatedAt:   roadAt,
		Votes:       3,
		Images:      []models.Image{},
		Comments:    []models.Comment{roadComment},
		History: []models.HistoryEvent{
			event(roadAt, resident, models.HistoryCreate, "", createdNote),
			roadCommentEvent,
		},
	}

	lightingAt := base.Add(-time.Minute)
	lighting := models.Report{
		ID:          lc.newID(),
		Title:       "Poste sin luz en la entrada del caserío",
		Category:    models.CategoryLighting,
		Description: "El poste frente a la tienda de Don Luis no enciende desde hace 2 semanas.",
		Place:       "Tienda Don Luis, entrada al caserío",
		Status:      models.ReportStatusInProgress,
		CreatedBy:   resident,
		CreatedAt:   lightingAt,
		Votes:       5,
		Images:      []models.Image{},
		Comments:    []models.Comment{},
		History: []models.HistoryEvent{
			event(lightingAt, resident, models.HistoryCreate, "", createdNote),
			event(lightingAt, communityBoard, models.HistoryStatus, models.ReportStatusInProgress, "Radicada solicitud a la empresa de energía"),
		},
	}

	sanitationAt := base
	thanks, thanksEvent := comment(sanitationAt, communityBoard, "¡Gracias a quienes asistieron!")
	sanitation := models.Report{
		ID:          lc.newID(),
		Title:       "Acumulación de basuras en la cancha",
		Category:    models.CategorySanitation,
		Description: "Hay vertimiento de residuos los domingos. Se solicita jornada de limpieza.",
		Place:       "Cancha múltiple",
		Status:      models.ReportStatusResolved,
		CreatedBy:   resident,
		CreatedAt:   sanitationAt,
		Votes:       2,
		Images:      []models.Image{},
		Comments:    []models.Comment{thanks},
		History: []models.HistoryEvent{
			event(sanitationAt, resident, models.HistoryCreate, "", createdNote),
			event(sanitationAt, communityBoard, models.HistoryStatus, models.ReportStatusInProgress, "Convocada minga"),
			event(sanitationAt, communityBoard, models.HistoryStatus, models.ReportStatusResolved, "Se realizó limpieza comunitaria"),
			thanksEvent,
		},
	}

	return []models.Report{road, lighting, sanitation}
}
