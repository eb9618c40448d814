package entity

import "time"

// Category categoría del catálogo (manga, superhéroes, figuras de colección...).
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
