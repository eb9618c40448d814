package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrUserNotFound            = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists      = errors.New("el email ya está registrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrDuplicate               = errors.New("recurso duplicado")
	ErrUnauthorized            = errors.New("no autorizado")
	ErrForbidden               = errors.New("acceso denegado")
	ErrConflict                = errors.New("conflicto con el estado actual")
	ErrInvalidState            = errors.New("operación no permitida en el estado actual")
	ErrInvalidTransition       = errors.New("transición de estado no permitida")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrOutOfStock              = errors.New("producto sin stock disponible")
	ErrInvalidQuantity         = errors.New("cantidad inválida")
	ErrConfigurationMissing    = errors.New("configuración de referencia ausente")
	ErrDocumentNumberTaken     = errors.New("número de documento ya utilizado")
	ErrDocumentNumberExhausted = errors.New("no se pudo generar un número de documento único")
)

// StockError detalla una falta de stock para un producto concreto.
// errors.Is(err, ErrOutOfStock) o errors.Is(err, ErrInsufficientStock) según Kind.
type StockError struct {
	Kind      error
	ProductID string
	Available int
	Requested int
}

// NewOutOfStock construye el error de la regla de reserva (validación previa).
func NewOutOfStock(productID string, available, requested int) *StockError {
	return &StockError{Kind: ErrOutOfStock, ProductID: productID, Available: available, Requested: requested}
}

// NewInsufficientStock construye el error del ledger al aplicar una salida.
func NewInsufficientStock(productID string, available, requested int) *StockError {
	return &StockError{Kind: ErrInsufficientStock, ProductID: productID, Available: available, Requested: requested}
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s para producto %s. Disponible: %d, Solicitado: %d", e.Kind, e.ProductID, e.Available, e.Requested)
}

// Is permite comparar contra el sentinel correspondiente.
func (e *StockError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap expone el sentinel.
func (e *StockError) Unwrap() error { return e.Kind }
