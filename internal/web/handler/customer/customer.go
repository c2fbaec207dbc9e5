// Package customer exposes the tenant-scoped customer CRUD API.
package customer

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/controller/customer"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the customers route prefix.
const Path = "/customers"

// Service is the customer handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the customer handler.
var Handler = Service{}

type customerRequest struct {
	Name  string `json:"name"  validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=64"`
	Notes string `json:"notes" validate:"max=2000"`
}

// Init initializes the customer handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, mw.RequirePermission(auth.PermCustomersView), s.List)
		router.Post(handler.RouterRootPath, mw.RequirePermission(auth.PermCustomersCreate), s.Create)
		router.Get("/:id", mw.RequirePermission(auth.PermCustomersView), s.Get)
		router.Put("/:id", mw.RequirePermission(auth.PermCustomersEdit), s.Update)
		router.Delete("/:id", mw.RequirePermission(auth.PermCustomersDelete), s.Delete)
	})

	return nil
}

// List returns the tenant's customers.
func (s *Service) List(c *fiber.Ctx) error {
	customers, err := customer.List(s.db, auth.TenantIDFromContext(c))
	if err != nil {
		log.Error().Err(err).Msg("customer list failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"customers": customers})
}

// Get returns a single customer.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid customer id")
	}

	record, err := customer.Get(s.db, auth.TenantIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "customer not found")
		}

		log.Error().Err(err).Msg("customer get failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(record)
}

// Create creates a customer in the tenant.
func (s *Service) Create(c *fiber.Ctx) error {
	var req customerRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid customer fields")
	}

	record, err := customer.Create(s.db, auth.TenantIDFromContext(c), req.Name, req.Email, req.Phone, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrCustomerNameEmpty):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		case errors.Is(err, customer.ErrCustomerEmailExists):
			return handler.Error(c, fiber.StatusConflict, "EMAIL_EXISTS", err.Error())
		default:
			log.Error().Err(err).Msg("customer create failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// Update updates a customer in the tenant.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid customer id")
	}

	var req customerRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid customer fields")
	}

	record, err := customer.Update(s.db, auth.TenantIDFromContext(c), id, req.Name, req.Email, req.Phone, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrCustomerNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "customer not found")
		case errors.Is(err, customer.ErrCustomerNameEmpty):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		case errors.Is(err, customer.ErrCustomerEmailExists):
			return handler.Error(c, fiber.StatusConflict, "EMAIL_EXISTS", err.Error())
		default:
			log.Error().Err(err).Msg("customer update failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(record)
}

// Delete removes a customer from the tenant.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid customer id")
	}

	if err := customer.Delete(s.db, auth.TenantIDFromContext(c), id); err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "customer not found")
		}

		log.Error().Err(err).Msg("customer delete failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
