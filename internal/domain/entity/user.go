package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// Estados de un empleado. Un empleado inactivo no puede iniciar sesión.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// ValidRole valida un rol de empleado.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleBodeguero || r == RoleVendedor
}

// User representa un empleado de la tienda. Es el actor de los movimientos de inventario.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, bodeguero, vendedor
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
