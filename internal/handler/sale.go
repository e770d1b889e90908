package handler

import (
	"net/http"
	"strconv"

	"caribepos/internal/apierror"
	"caribepos/internal/dto"
	"caribepos/internal/middleware"
	"caribepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// Finalize godoc
// @Summary Finaliza una venta: reserva NCF, descuenta stock y registra el efectivo
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FinalizeSaleRequest true "Venta a finalizar"
// @Success 201 {object} dto.SaleResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *SaleHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Finalize(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Void godoc
// @Summary Anula una venta creando los asientos inversos
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la venta"
// @Param body body dto.VoidSaleRequest true "Motivo de anulación"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/anular [post]
func (h *SaleHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.VoidSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.Void(c.Request.Context(), userID, id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get returns one sale with lines and payments.
func (h *SaleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lista ventas con filtros de turno, estado y fecha
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SaleListResponse
// @Router /v1/ventas [get]
func (h *SaleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter := dto.SaleFilter{
		ShiftID: c.Query("shift_id"),
		Status:  c.Query("status"),
		Date:    c.Query("date"),
		Page:    page,
		Limit:   limit,
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
