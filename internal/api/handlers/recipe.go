package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/pkg/common"
)

// RecipeHandler exposes the recipe commands and queries over HTTP.
type RecipeHandler struct {
	service *recipe.Service
}

// NewRecipeHandler builds the handler.
func NewRecipeHandler(service *recipe.Service) *RecipeHandler {
	return &RecipeHandler{service: service}
}

// amountField accepts either the tagged object form {"grams":20} or a
// free-text string like "4 tbsp".
type amountField struct {
	domain.IngredientUnit
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := domain.ParseIngredientUnit(raw)
		if err != nil {
			return err
		}
		a.IngredientUnit = parsed
		return nil
	}
	return a.IngredientUnit.UnmarshalJSON(data)
}

type recipeIngredientRequest struct {
	IngredientID string       `json:"ingredient_id"`
	Amount       *amountField `json:"amount"`
	Notes        string       `json:"notes"`
	Optional     bool         `json:"optional"`
}

type createRecipeRequest struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Steps       []string                  `json:"steps"`
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Time        map[string]string         `json:"time"`
	Servings    domain.Servings           `json:"servings"`
}

type updateRecipeRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Steps       *[]string          `json:"steps"`
	Time        *map[string]string `json:"time"`
	Servings    *domain.Servings   `json:"servings"`
}

type updateAmountRequest struct {
	Amount amountField `json:"amount"`
}

type recipeIngredientResponse struct {
	Ingredient ingredientResponse    `json:"ingredient"`
	Amount     domain.IngredientUnit `json:"amount"`
	Notes      string                `json:"notes,omitempty"`
	Optional   bool                  `json:"optional"`
}

type recipeResponse struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	Steps          []string                   `json:"steps"`
	Ingredients    []recipeIngredientResponse `json:"ingredients"`
	Time           map[string]string          `json:"time"`
	Servings       domain.Servings            `json:"servings"`
	DietViolations []string                   `json:"diet_violations"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

func toRecipeResponse(r domain.Recipe) recipeResponse {
	ingredients := make([]recipeIngredientResponse, len(r.Ingredients))
	for i, assoc := range r.Ingredients {
		ingredients[i] = recipeIngredientResponse{
			Ingredient: toIngredientResponse(assoc.Ingredient),
			Amount:     assoc.Amount,
			Notes:      assoc.Notes,
			Optional:   assoc.Optional,
		}
	}

	times := make(map[string]string, len(r.Time))
	for k, v := range r.Time {
		times[k] = v.String()
	}

	return recipeResponse{
		ID:             r.ID.String(),
		Name:           r.Name,
		Description:    r.Description,
		Steps:          r.Steps,
		Ingredients:    ingredients,
		Time:           times,
		Servings:       r.Servings,
		DietViolations: r.DietViolations().Strings(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func parseTimes(raw map[string]string) (map[string]time.Duration, error) {
	if raw == nil {
		return map[string]time.Duration{}, nil
	}
	out := make(map[string]time.Duration, len(raw))
	for k, v := range raw {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, domain.NewValidationError("time")
		}
		out[k] = d
	}
	return out, nil
}

// respondRecipeError maps recipe command errors to HTTP statuses.
func respondRecipeError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	var measurement *domain.MeasurementError
	var conflict *storage.ConflictError
	var recipeNotFound *recipe.RecipeNotFoundError
	var ingredientNotFound *recipe.IngredientNotFoundError
	var ingredientsNotFound *recipe.IngredientsNotFoundError
	var notInRecipe *recipe.IngredientNotInRecipeError

	switch {
	case errors.As(err, &validation), errors.As(err, &measurement),
		errors.Is(err, recipe.ErrChangesetEmpty):
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
	case errors.As(err, &recipeNotFound), errors.As(err, &ingredientNotFound),
		errors.As(err, &ingredientsNotFound), errors.As(err, &notInRecipe):
		common.AbortWithError(c, http.StatusNotFound, common.KindNotFound, err.Error())
	case errors.As(err, &conflict):
		common.AbortWithError(c, http.StatusConflict, common.KindConflict, err.Error())
	case errors.Is(err, recipe.ErrLastIngredient):
		common.AbortWithError(c, http.StatusUnprocessableEntity, common.KindLastIngredient, err.Error())
	default:
		common.LogError("recipe request failed",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		common.AbortWithError(c, http.StatusInternalServerError,
			common.KindInternal, common.InternalErrorMessage)
	}
}

// Create handles POST /recipes.
func (h *RecipeHandler) Create(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
		return
	}

	times, err := parseTimes(req.Time)
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	ingredients := make([]domain.IngredientAmountData, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		id, err := uuid.Parse(ing.IngredientID)
		if err != nil {
			common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
			return
		}
		amount := domain.DefaultUnit()
		if ing.Amount != nil {
			amount = ing.Amount.IngredientUnit
		}
		ingredients[i] = domain.IngredientAmountData{
			IngredientID: id,
			Amount:       amount,
			Notes:        ing.Notes,
			Optional:     ing.Optional,
		}
	}

	created, err := h.service.Create(c.Request.Context(), recipe.CreateRecipe{
		Name:        req.Name,
		Description: req.Description,
		Steps:       req.Steps,
		Ingredients: ingredients,
		Time:        times,
		Servings:    req.Servings,
	})
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRecipeResponse(created))
}

// GetByID handles GET /recipes/:id.
func (h *RecipeHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid recipe id")
		return
	}

	found, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecipeResponse(found))
}

// GetAll handles GET /recipes.
func (h *RecipeHandler) GetAll(c *gin.Context) {
	recipes, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	out := make([]recipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = toRecipeResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

// Update handles PUT /recipes/:id.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid recipe id")
		return
	}

	var req updateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
		return
	}

	input := recipe.UpdateRecipe{
		Name:        req.Name,
		Description: req.Description,
		Steps:       req.Steps,
		Servings:    req.Servings,
	}
	if req.Time != nil {
		times, err := parseTimes(*req.Time)
		if err != nil {
			respondRecipeError(c, err)
			return
		}
		input.Time = &times
	}

	updated, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecipeResponse(updated))
}

// Delete handles DELETE /recipes/:id.
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid recipe id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondRecipeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddIngredient handles POST /recipes/:id/ingredients.
func (h *RecipeHandler) AddIngredient(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid recipe id")
		return
	}

	var req recipeIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
		return
	}

	ingredientID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
		return
	}

	amount := domain.DefaultUnit()
	if req.Amount != nil {
		amount = req.Amount.IngredientUnit
	}

	updated, err := h.service.AddIngredient(c.Request.Context(), recipeID, domain.IngredientAmountData{
		IngredientID: ingredientID,
		Amount:       amount,
		Notes:        req.Notes,
		Optional:     req.Optional,
	})
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecipeResponse(updated))
}

// RemoveIngredient handles DELETE /recipes/:id/ingredients/:ingredient_id.
func (h *RecipeHandler) RemoveIngredient(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid recipe id")
		return
	}
	ingredientID, err := uuid.Parse(c.Param("ingredient_id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
		return
	}

	if err := h.service.RemoveIngredient(c.Request.Context(), recipeID, ingredientID); err != nil {
		respondRecipeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateIngredientAmount handles PUT /recipes/:id/ingredients/:ingredient_id.
func (h *RecipeHandler) UpdateIngredientAmount(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid recipe id")
		return
	}
	ingredientID, err := uuid.Parse(c.Param("ingredient_id"))
	if err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, "invalid ingredient id")
		return
	}

	var req updateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, http.StatusBadRequest, common.KindValidation, err.Error())
		return
	}

	updated, err := h.service.UpdateIngredientAmount(c.Request.Context(), recipeID, ingredientID, req.Amount.IngredientUnit)
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecipeResponse(updated))
}
