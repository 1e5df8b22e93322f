package handlers

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/deptevents/event-registration/internal/auth"
	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/i18n"
	"github.com/deptevents/event-registration/internal/schedule"
	"github.com/deptevents/event-registration/internal/service"
	apperrors "github.com/deptevents/event-registration/pkg/util/errorutil"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// labelKeys maps template label names to message ids.
var labelKeys = map[string]string{
	"day":             "table.day",
	"time":            "table.time",
	"school":          "table.school",
	"name":            "table.name",
	"students":        "table.students",
	"instructors":     "table.instructors",
	"tas":             "table.tas",
	"slots":           "table.slots",
	"actions":         "table.actions",
	"no_events":       "page.no_events",
	"join_instructor": "action.join_instructor",
	"join_ta":         "action.join_ta",
	"leave":           "action.leave",
	"complete":        "action.complete",
	"full":            "state.full",
	"locked":          "state.locked",
	"ended":           "state.ended",
	"attended":        "state.attended",
	"finished":        "state.finished",
}

// PagesHandler renders the server-side HTML pages.
type PagesHandler struct {
	events     *service.EventService
	translator *i18n.Translator
}

// NewPagesHandler constructs handler.
func NewPagesHandler(events *service.EventService, translator *i18n.Translator) *PagesHandler {
	return &PagesHandler{events: events, translator: translator}
}

type tableRow struct {
	schedule.EventView
	Action string
}

type pageData struct {
	Title   string
	Message string
	Labels  map[string]string
	Rows    []tableRow
}

// Index handles GET /.
func (h *PagesHandler) Index(c *fiber.Ctx) error {
	return h.render(c, "index")
}

// EventsTable handles GET /partials/events-table.
func (h *PagesHandler) EventsTable(c *fiber.Ctx) error {
	return h.render(c, "events_table")
}

func (h *PagesHandler) render(c *fiber.Ctx, name string) error {
	data, err := h.tableData(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (h *PagesHandler) tableData(c *fiber.Ctx) (pageData, error) {
	localizer := h.translator.Localizer(c.Get(fiber.HeaderAcceptLanguage))
	data := pageData{
		Title:  localizer.T("page.title", nil),
		Labels: make(map[string]string, len(labelKeys)),
	}
	for name, key := range labelKeys {
		data.Labels[name] = localizer.T(key, nil)
	}

	viewerID := auth.ViewerID(c)
	if viewerID == nil {
		data.Message = localizer.T("page.login_required", nil)
		return data, nil
	}

	views, err := h.events.ListViews(c.UserContext(), viewerID, localizer.PeriodDetail)
	if err != nil {
		return data, err
	}
	data.Rows = make([]tableRow, 0, len(views))
	for _, view := range views {
		data.Rows = append(data.Rows, tableRow{EventView: view, Action: rowAction(view)})
	}
	return data, nil
}

// rowAction picks the control shown for one event: a button name or a
// state label.
func rowAction(view schedule.EventView) string {
	if view.IsJoined {
		switch {
		case view.AttendanceStatus != nil && *view.AttendanceStatus == domain.AttendanceAttended:
			return "attended"
		case view.Status == domain.EventStatusFinished:
			return "finished"
		case view.IsEnded:
			return "complete"
		default:
			return "leave"
		}
	}
	switch {
	case view.Status == domain.EventStatusFinished:
		return "finished"
	case view.IsEnded:
		return "ended"
	case view.IsLocked:
		return "locked"
	case view.IsFull:
		return "full"
	}
	return "join"
}
