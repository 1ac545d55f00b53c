package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/dojo-contact-api/internal/service"
	"github.com/noah-isme/dojo-contact-api/internal/utils"
)

// DisciplineHandler serves the discipline catalog used by the contact form.
type DisciplineHandler struct{}

// NewDisciplineHandler constructs the handler.
func NewDisciplineHandler() *DisciplineHandler {
	return &DisciplineHandler{}
}

// Register wires discipline routes.
func (h *DisciplineHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *DisciplineHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "disciplines retrieved", service.Disciplines())
}
