package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/models"
)

// MetaHandler describes the submission vocabulary to clients.
type MetaHandler struct {
	consentVersion string
}

func NewMetaHandler(consentVersion string) *MetaHandler {
	return &MetaHandler{consentVersion: consentVersion}
}

type MetaSubmissionTypes struct {
	Types          []models.SubmissionType `json:"types"`
	EditableFields map[string][]string     `json:"editable_fields"`
	NewEntryFields []string                `json:"new_entry_fields"`
	ReviewActions  []string                `json:"review_actions"`
	ConsentVersion string                  `json:"consent_version"`
}

func (h *MetaHandler) SubmissionTypes(c *fiber.Ctx) error {
	actions := append([]string{}, models.ValidSubmissionTransitions[models.SubmissionStatusPending]...)
	actions = append(actions, models.ReviewActionApplyChanges)

	return c.JSON(dto.OK(MetaSubmissionTypes{
		Types:          models.SubmissionTypes(),
		EditableFields: models.EditableFields,
		NewEntryFields: models.NewEntryFields,
		ReviewActions:  actions,
		ConsentVersion: h.consentVersion,
	}))
}
