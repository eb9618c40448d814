package entity

import "time"

// Supplier proveedor de mercancía (editoriales, distribuidoras).
type Supplier struct {
	ID        string
	Name      string
	Contact   string
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
