package service

import "errors"

// Sentinel errors for the cash-shift and NCF core. Handlers map these to HTTP
// statuses; the messages are the user-facing Spanish toasts. Every one of them
// aborts the enclosing transaction — a caller can always assume "nothing
// happened" after receiving one.
var (
	// NCF allocation
	ErrSequenceNotFound  = errors.New("no existe una secuencia NCF activa para la tienda y tipo indicados")
	ErrSequenceExhausted = errors.New("la secuencia NCF agotó su rango autorizado; solicite más comprobantes a la DGII")

	// Shift state machine
	ErrShiftAlreadyOpen   = errors.New("ya existe un turno abierto en esta caja")
	ErrShiftAlreadyClosed = errors.New("el turno ya fue cerrado")
	ErrShiftClosed        = errors.New("el turno no está abierto")
	ErrShiftNotFound      = errors.New("turno de caja no encontrado")

	// Input validation
	ErrInvalidAmount = errors.New("el monto debe ser mayor que cero")
	ErrInvalidCount  = errors.New("conteo inválido: debe ingresar al menos una cantidad y las denominaciones deben corresponder a su moneda")

	// Sale finalize / void
	ErrSaleNotFound        = errors.New("venta no encontrada")
	ErrSaleAlreadyVoided   = errors.New("la venta ya está anulada")
	ErrInsufficientPayment = errors.New("el monto total de pagos es insuficiente")
	ErrInsufficientStock   = errors.New("stock insuficiente para completar la venta")
	ErrRNCRequired         = errors.New("el tipo de comprobante requiere el RNC del cliente")

	// Authorization
	ErrForbidden = errors.New("solo quien abrió el turno o un supervisor puede cerrarlo")
)
