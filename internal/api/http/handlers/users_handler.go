package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/deptevents/event-registration/internal/api/dto"
	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/service"
)

// UsersHandler exposes profile and account administration endpoints.
type UsersHandler struct {
	users          *service.UserService
	participations *service.ParticipationService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, participations *service.ParticipationService) *UsersHandler {
	return &UsersHandler{users: users, participations: participations}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetMe(c.UserContext(), p.UserID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateMe handles PATCH /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), p.UserID(), profileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// MyParticipations handles GET /api/users/me/participations.
func (h *UsersHandler) MyParticipations(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.participations.ListForUser(c.UserContext(), p.UserID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParticipationResponses(list)})
}

// List handles GET /api/admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := service.UserListFilters{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if role := c.Query("role"); role != "" {
		r := domain.UserRole(role)
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		if active, err := strconv.ParseBool(status); err == nil {
			filter.Active = &active
		}
	}
	if search := c.Query("q"); search != "" {
		filter.Search = &search
	}

	users, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// AdminUpdate handles PATCH /api/admin/users/:id.
func (h *UsersHandler) AdminUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AdminUpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.AdminUserInput{
		ProfileInput: profileInput(req.UpdateProfileRequest),
		Active:       req.Status,
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		input.Role = &role
	}
	user, err := h.users.AdminUpdate(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func profileInput(req dto.UpdateProfileRequest) service.ProfileInput {
	return service.ProfileInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		BankName:   req.BankName,
		BankNumber: req.BankNumber,
	}
}
