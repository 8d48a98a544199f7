// Package models defines the core domain models for apartments, companies and users.
// The same structs are mapped by GORM, so table layout lives in the struct tags.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Company defines the domain model for a service provider attached to an apartment.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Title is the company's headline.
	Title string `gorm:"size:200;not null" json:"title"`
	// Content is free text describing the company.
	Content string `gorm:"size:3000" json:"content"`
	// Status is the current lifecycle state of the company.
	Status Status `gorm:"not null;default:0;index" json:"status"`
	// CreationDate is set once, when the company is created.
	CreationDate time.Time `gorm:"not null;index" json:"creationDate"`
	// ModifiedDate is refreshed on every edit.
	ModifiedDate time.Time `gorm:"not null" json:"modifiedDate"`
	// Resources is the URL path of the company photo.
	Resources string `gorm:"size:512" json:"resources"`
	// ApartmentID references the apartment the company belongs to.
	ApartmentID int `gorm:"not null;index" json:"apartmentId"`
	// Apartment is populated when the repository preloads it.
	Apartment *Apartment `gorm:"foreignKey:ApartmentID" json:"apartment,omitempty"`
}

// CompanyUpdate carries the editable fields of a Company.
// Every field is written on edit, so zero values overwrite stored ones.
type CompanyUpdate struct {
	// ID must match the company being edited.
	ID uuid.UUID
	// Status is the new status.
	Status Status
	// Title is the new title.
	Title string
	// Content is the new content.
	Content string
	// Resources is the photo path, replaced when a new photo is uploaded.
	Resources string
}

// SearchFilter selects companies for the extra-details view.
// Nil or empty fields are not applied.
type SearchFilter struct {
	CreatedFrom *time.Time
	Status      *Status
	Address     string
	// UserName is accepted from callers but does not take part in filtering.
	UserName string
}

// ExtraDetails is a company row joined with its apartment address.
type ExtraDetails struct {
	Title            string    `json:"title"`
	Status           string    `json:"status"`
	Content          string    `json:"content"`
	CreationDate     time.Time `json:"creationDate"`
	ModifiedDate     time.Time `json:"modifiedDate"`
	ApartmentAddress string    `json:"apartmentAddress"`
}
