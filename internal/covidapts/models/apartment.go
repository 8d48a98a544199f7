package models

import "strconv"

// Apartment is a physical unit owning zero or more companies.
type Apartment struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Address     string    `gorm:"size:256;not null" json:"address"`
	RoomsNumber int       `json:"roomsNumber"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Companies   []Company `gorm:"foreignKey:ApartmentID;constraint:OnDelete:CASCADE" json:"companies,omitempty"`
}

// Location collapses the coordinates into the single scalar used as a classifier feature.
func (a *Apartment) Location() float64 {
	return a.Latitude + a.Longitude
}

// User is an application user. Its companies are only listed, never filtered on.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"size:256;uniqueIndex" json:"email"`
	Companies []Company `gorm:"many2many:user_companies" json:"companies,omitempty"`
}

// Option is a value/text pair for form select lists.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// CreateForm holds the choices offered by the create-company form.
type CreateForm struct {
	Apartments []Option `json:"apartments"`
	Users      []Option `json:"users"`
	Statuses   []Option `json:"statuses"`
}

// StatusOptions lists every status as a select option.
func StatusOptions() []Option {
	opts := make([]Option, 0, len(statusNames))
	for _, s := range Statuses() {
		opts = append(opts, Option{Value: strconv.Itoa(int(s)), Text: s.String()})
	}
	return opts
}
