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

type ShiftHandler struct{ svc service.ShiftService }

func NewShiftHandler(svc service.ShiftService) *ShiftHandler { return &ShiftHandler{svc: svc} }

// Open godoc
// @Summary Abre un turno de caja con su conteo inicial
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenShiftRequest true "Datos de apertura"
// @Success 201 {object} dto.ShiftResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/turnos/abrir [post]
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Open(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Cierra un turno con el conteo final y devuelve el reporte de arqueo
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseShiftRequest true "Datos de cierre"
// @Success 200 {object} dto.ShiftReportResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/turnos/cerrar [post]
func (h *ShiftHandler) Close(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Close(c.Request.Context(), service.Closer{UserID: userID, Rol: claims.Rol}, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostMovement godoc
// @Summary Registra un ingreso o egreso manual en el turno
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PostMovementRequest true "Movimiento manual"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/turnos/movimientos [post]
func (h *ShiftHandler) PostMovement(c *gin.Context) {
	var req dto.PostMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.PostMovement(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ExpectedTotals godoc
// @Summary Totales esperados por moneda del turno (apertura + ingresos − egresos)
// @Tags turnos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Success 200 {object} map[string]string
// @Failure 404 {object} apierror.APIError
// @Router /v1/turnos/{id}/esperado [get]
func (h *ShiftHandler) ExpectedTotals(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	totals, err := h.svc.ExpectedTotals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Report godoc
// @Summary Reporte de conciliación del turno
// @Tags turnos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Success 200 {object} dto.ShiftReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/turnos/{id}/reporte [get]
func (h *ShiftHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated shift list, optionally filtered by register.
func (h *ShiftHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var registerID *uuid.UUID
	if raw := c.Query("register_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("register_id inválido"))
			return
		}
		registerID = &id
	}

	resp, err := h.svc.History(c.Request.Context(), registerID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
