package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

// ItemHandler handles HTTP requests for catalog items.
type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// --- Request types ---

type createItemRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId" validate:"omitempty,uuid"`
}

type updateItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

// --- Response types ---

type itemResponse struct {
	Item *domain.Item `json:"item"`
}

// List handles GET /api/items.
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        pageSize  query     int     false  "Page size (default 10, max 100)"
// @Param        q         query     string  false  "Case-insensitive search on name and description"
// @Success      200       {object}  envelope{data=ports.ListItemsResult}
// @Failure      400       {object}  map[string]any
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	// Absent parameters keep these defaults; an explicit 0 reaches the service
	// and is rejected there.
	in := ports.ListItemsInput{Page: 1, PageSize: ports.DefaultPageSize}
	err := echo.QueryParamsBinder(c).
		Int("page", &in.Page).
		Int("pageSize", &in.PageSize).
		String("q", &in.Query).
		BindError()
	if err != nil {
		return domain.NewValidationError("page and pageSize must be integers")
	}

	res, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return failure("Failed to fetch items", err)
	}
	return respond(c, http.StatusOK, res)
}

// Get handles GET /api/items/:id.
//
// @Summary      Get an item
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  envelope{data=itemResponse}
// @Failure      404  {object}  map[string]any
// @Router       /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failure("Failed to fetch item", err)
	}
	return respond(c, http.StatusOK, itemResponse{Item: item})
}

// Create handles POST /api/items.
//
// @Summary      Create an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createItemRequest  true  "Item details"
// @Success      201   {object}  envelope{data=itemResponse}
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, err := h.service.Create(c.Request().Context(), ports.CreateItemInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
		CallerID:    callerID(c),
	})
	if err != nil {
		return failure("Failed to create item", err)
	}
	return respond(c, http.StatusCreated, itemResponse{Item: item})
}

// Update handles PUT and PATCH /api/items/:id. Absent fields are left unchanged.
//
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Item ID"
// @Param        body  body      updateItemRequest  true  "Fields to change"
// @Success      200   {object}  envelope{data=itemResponse}
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /items/{id} [put]
// @Router       /items/{id} [patch]
func (h *ItemHandler) Update(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return failure("Failed to update item", err)
	}
	return respond(c, http.StatusOK, itemResponse{Item: item})
}

// Delete handles DELETE /api/items/:id.
//
// @Summary      Delete an item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  envelope
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return failure("Failed to delete item", err)
	}
	return respond(c, http.StatusOK, nil)
}
