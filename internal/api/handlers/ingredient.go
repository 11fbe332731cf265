package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/ingredient"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/pkg/common"
)

// IngredientHandler exposes the ingredient commands and queries over HTTP.
type IngredientHandler struct {
	service *ingredient.Service
}

// NewIngredientHandler builds the handler.
func NewIngredientHandler(service *ingredient.Service) *IngredientHandler {
	return &IngredientHandler{service: service}
}

type createIngredientRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	DietViolations []string `json:"diet_violations"`
}

type updateIngredientRequest struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	DietViolations *[]string `json:"diet_violations"`
}

type ingredientResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	DietViolations []string `json:"diet_violations"`
}

func toIngredientResponse(i domain.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:             i.ID.String(),
		Name:           i.Name.String(),
		Description:    i.Description.String(),
		DietViolations: i.DietViolations.Strings(),
	}
}

// respondIngredientError maps ingredient command errors to HTTP statuses.
func respondIngredientError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	var match *domain.MatchError
	var conflict *storage.ConflictError
	var notFound *storage.NotFoundError

	switch {
	case errors.As(err, &validation), errors.As(err, &match):
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
	case errors.As(err, &notFound):
		common.AbortWithError(c, http.StatusNotFound, common.KindNotFound, err.Error())
	case errors.As(err, &conflict):
		common.AbortWithError(c, http.StatusConflict, common.KindConflict, err.Error())
	case errors.Is(err, ingredient.ErrInUseByRecipe):
		common.AbortWithError(c, http.StatusConflict, common.KindInUseByRecipe, err.Error())
	default:
		common.LogError("ingredient request failed",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		common.AbortWithError(c, http.StatusInternalServerError,
			common.KindInternal, common.InternalErrorMessage)
	}
}

// Create handles POST /ingredients.
func (h *IngredientHandler) Create(c *gin.Context) {
	var req createIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), ingredient.CreateIngredient{
		Name:           req.Name,
		Description:    req.Description,
		DietViolations: req.DietViolations,
	})
	if err != nil {
		respondIngredientError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toIngredientResponse(created))
}

// GetByID handles GET /ingredients/:id.
func (h *IngredientHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
		return
	}

	found, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondIngredientError(c, err)
		return
	}

	c.JSON(http.StatusOK, toIngredientResponse(found))
}

// GetAll handles GET /ingredients.
func (h *IngredientHandler) GetAll(c *gin.Context) {
	ingredients, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		respondIngredientError(c, err)
		return
	}

	out := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		out[i] = toIngredientResponse(ing)
	}
	c.JSON(http.StatusOK, out)
}

// Update handles PUT /ingredients/:id.
func (h *IngredientHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
		return
	}

	var req updateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, ingredient.UpdateIngredient{
		Name:           req.Name,
		Description:    req.Description,
		DietViolations: req.DietViolations,
	})
	if err != nil {
		respondIngredientError(c, err)
		return
	}

	c.JSON(http.StatusOK, toIngredientResponse(updated))
}

// Delete handles DELETE /ingredients/:id.
func (h *IngredientHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondIngredientError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
