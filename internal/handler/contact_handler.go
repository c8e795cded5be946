package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/model"
	"github.com/TheFlashe/diplom-neto/pkg/database"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
	"github.com/TheFlashe/diplom-neto/prometheus"
)

// ListContacts returns the authenticated user's contacts.
func ListContacts(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var contacts []model.Contact
	if result := database.GetDB().Where("user_id = ?", userID).Order("id").Find(&contacts); result.Error != nil {
		log.Error("Failed to list contacts", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contacts"})
	}
	return c.JSON(http.StatusOK, contacts)
}

// CreateContact adds a contact channel for the user.
func CreateContact(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	var req struct {
		Type  model.ContactType `json:"type"`
		Value string            `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !req.Type.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be phone, email or address"})
	}
	if strings.TrimSpace(req.Value) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value is required"})
	}

	contact := model.Contact{
		UserID: userID,
		Type:   req.Type,
		Value:  req.Value,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&contact); result.Error != nil {
		log.Error("Failed to create contact", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contact"})
	}

	log.Info("Contact created", zap.Uint("user_id", userID), zap.String("type", string(contact.Type)))
	return c.JSON(http.StatusCreated, contact)
}

// UpdateContact changes a contact's type or value. Users can only touch
// their own contacts.
func UpdateContact(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	var req struct {
		Type  *model.ContactType `json:"type"`
		Value *string            `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var contact model.Contact
	if result := database.GetDB().Where("id = ? AND user_id = ?", id, userID).First(&contact); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	if req.Type != nil {
		if !req.Type.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be phone, email or address"})
		}
		contact.Type = *req.Type
	}
	if req.Value != nil {
		if strings.TrimSpace(*req.Value) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "value is required"})
		}
		contact.Value = *req.Value
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&contact); result.Error != nil {
		log.Error("Failed to update contact", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contact"})
	}
	return c.JSON(http.StatusOK, contact)
}

// DeleteContact removes one of the user's contacts.
func DeleteContact(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("id = ? AND user_id = ?", id, userID).Delete(&model.Contact{})
	if result.Error != nil {
		log.Error("Failed to delete contact", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contact"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	log.Info("Contact deleted", zap.Uint("user_id", userID), zap.Uint64("contact_id", id))
	return c.NoContent(http.StatusNoContent)
}
