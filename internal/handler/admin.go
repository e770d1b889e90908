package handler

import (
	"net/http"

	"caribepos/internal/apierror"
	"caribepos/internal/dto"
	"caribepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler serves the reference-data endpoints: stores, registers and cash
// denominations.
type AdminHandler struct{ svc service.AdminService }

func NewAdminHandler(svc service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) CreateStore(c *gin.Context) {
	var req dto.CreateStoreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateStore(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AdminHandler) ListStores(c *gin.Context) {
	resp, err := h.svc.ListStores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateRegister(c *gin.Context) {
	var req dto.CreateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRegister(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AdminHandler) ListRegisters(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("store_id inválido"))
		return
	}
	resp, err := h.svc.ListRegisters(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateDenomination(c *gin.Context) {
	var req dto.CreateDenominationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateDenomination(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListDenominations returns the active counting-form denominations, optionally
// filtered by currency.
func (h *AdminHandler) ListDenominations(c *gin.Context) {
	resp, err := h.svc.ListDenominations(c.Request.Context(), c.Query("currency_code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
