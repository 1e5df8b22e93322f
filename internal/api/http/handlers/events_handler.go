package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deptevents/event-registration/internal/api/dto"
	"github.com/deptevents/event-registration/internal/auth"
	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/i18n"
	"github.com/deptevents/event-registration/internal/schedule"
	"github.com/deptevents/event-registration/internal/service"
	apperrors "github.com/deptevents/event-registration/pkg/util/errorutil"
)

// EventsHandler exposes event listing, administration and participation.
type EventsHandler struct {
	events         *service.EventService
	participations *service.ParticipationService
	translator     *i18n.Translator
}

// NewEventsHandler constructs handler. translator may be nil, in which case
// period labels are rendered in English.
func NewEventsHandler(events *service.EventService, participations *service.ParticipationService, translator *i18n.Translator) *EventsHandler {
	return &EventsHandler{events: events, participations: participations, translator: translator}
}

// List handles GET /api/events.
func (h *EventsHandler) List(c *fiber.Ctx) error {
	views, err := h.events.ListViews(c.UserContext(), auth.ViewerID(c), h.periodDetail(c))
	if err != nil {
		return err
	}
	if views == nil {
		views = []schedule.EventView{}
	}
	return c.JSON(fiber.Map{"data": views})
}

// Get handles GET /api/events/:id.
func (h *EventsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.events.GetView(c.UserContext(), id, auth.ViewerID(c), h.periodDetail(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Create handles POST /api/admin/events.
func (h *EventsHandler) Create(c *fiber.Ctx) error {
	var req dto.EventCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	day, err := h.parseDay(req.Day)
	if err != nil {
		return err
	}
	event, err := h.events.Create(c.UserContext(), service.EventInput{
		Name:            req.Name,
		SchoolName:      req.SchoolName,
		Day:             day,
		StartPeriod:     req.StartPeriod,
		EndPeriod:       req.EndPeriod,
		MaxUserJoined:   req.MaxUserJoined,
		NumberOfStudent: req.NumberOfStudent,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// Update handles PATCH /api/admin/events/:id.
func (h *EventsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EventUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := service.EventPatch{
		Name:            req.Name,
		SchoolName:      req.SchoolName,
		StartPeriod:     req.StartPeriod,
		EndPeriod:       req.EndPeriod,
		MaxUserJoined:   req.MaxUserJoined,
		NumberOfStudent: req.NumberOfStudent,
	}
	if req.Day != nil {
		day, err := h.parseDay(*req.Day)
		if err != nil {
			return err
		}
		patch.Day = &day
	}
	event, err := h.events.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// Delete handles DELETE /api/admin/events/:id.
func (h *EventsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.events.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Lock handles POST /api/admin/events/:id/lock.
func (h *EventsHandler) Lock(c *fiber.Ctx) error {
	return h.setLocked(c, true)
}

// Unlock handles POST /api/admin/events/:id/unlock.
func (h *EventsHandler) Unlock(c *fiber.Ctx) error {
	return h.setLocked(c, false)
}

func (h *EventsHandler) setLocked(c *fiber.Ctx, locked bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.events.SetLocked(c.UserContext(), id, locked); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "is_locked": locked}})
}

// Finish handles POST /api/admin/events/:id/finish.
func (h *EventsHandler) Finish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.events.Finish(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "status": domain.EventStatusFinished}})
}

// Join handles POST /api/events/:id/join.
func (h *EventsHandler) Join(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.JoinRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	participation, err := h.participations.Join(c.UserContext(), id, p.UserID(), domain.ParticipationRole(req.Role))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewParticipationResponse(participation)})
}

// Leave handles DELETE /api/events/:id/join.
func (h *EventsHandler) Leave(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.participations.Leave(c.UserContext(), id, p.UserID()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Complete handles POST /api/events/:id/complete.
func (h *EventsHandler) Complete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	participation, err := h.participations.Complete(c.UserContext(), id, p.UserID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParticipationResponse(participation)})
}

// SetAttendance handles POST /api/admin/events/:id/participants/:userID/attendance.
func (h *EventsHandler) SetAttendance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userID")
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	participation, err := h.participations.AdminSetAttendance(c.UserContext(), id, userID, domain.AttendanceStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParticipationResponse(participation)})
}

func (h *EventsHandler) parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(dto.DayLayout, value, h.events.Location())
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("day_start must be formatted as YYYY-MM-DD", map[string]any{"field": "day_start"})
	}
	return day, nil
}

func (h *EventsHandler) periodDetail(c *fiber.Ctx) schedule.PeriodDetailFunc {
	return localizedPeriodDetail(h.translator, c)
}

func localizedPeriodDetail(translator *i18n.Translator, c *fiber.Ctx) schedule.PeriodDetailFunc {
	if translator == nil {
		return nil
	}
	return translator.Localizer(c.Get(fiber.HeaderAcceptLanguage)).PeriodDetail
}
