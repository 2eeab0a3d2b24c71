package models

import "gorm.io/gorm"

// Product represents a digital product in the catalog.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"nome" validate:"required,min=3,max=100"`
	Description string  `json:"descricao" validate:"omitempty,max=500"`
	Price       float64 `json:"preco" validate:"required,gt=0"`
	// DownloadURL points at the digital asset released once payment is approved.
	// Empty means the product has nothing to download.
	DownloadURL string `json:"link_download,omitempty" gorm:"type:varchar(500)"`
	Active      bool   `json:"ativo" gorm:"default:true"`
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
