package handler

import (
	"net/http"

	"caribepos/internal/apierror"
	"caribepos/internal/dto"
	"caribepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NcfHandler exposes the sequence configuration surface (admin only).
type NcfHandler struct{ svc service.NcfService }

func NewNcfHandler(svc service.NcfService) *NcfHandler { return &NcfHandler{svc: svc} }

// CreateSequence godoc
// @Summary Registra un rango de NCF autorizado por la DGII
// @Tags ncf
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateNcfSequenceRequest true "Secuencia"
// @Success 201 {object} dto.NcfSequenceResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/ncf/secuencias [post]
func (h *NcfHandler) CreateSequence(c *gin.Context) {
	var req dto.CreateNcfSequenceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSequence(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateSequence godoc
// @Summary Ajusta una secuencia NCF (el siguiente número nunca retrocede)
// @Tags ncf
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la secuencia"
// @Param body body dto.UpdateNcfSequenceRequest true "Cambios"
// @Success 200 {object} dto.NcfSequenceResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ncf/secuencias/{id} [put]
func (h *NcfHandler) UpdateSequence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.UpdateNcfSequenceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateSequence(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSequences returns every sequence configured for a store.
func (h *NcfHandler) ListSequences(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("store_id inválido"))
		return
	}
	resp, err := h.svc.ListSequences(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
