package handler

import (
	"errors"
	"net/http"
	"reflect"

	"caribepos/internal/apierror"
	"caribepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the service sentinels to HTTP statuses and writes the
// error envelope. Unknown errors become 400 — their messages are already
// user-facing Spanish, never internal details.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), apierror.New(err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrShiftNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrSequenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrShiftAlreadyOpen),
		errors.Is(err, service.ErrShiftAlreadyClosed),
		errors.Is(err, service.ErrShiftClosed),
		errors.Is(err, service.ErrSaleAlreadyVoided),
		errors.Is(err, service.ErrSequenceExhausted):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
