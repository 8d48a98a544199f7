package config

import (
	"fmt"
	"os"

	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"gopkg.in/yaml.v3"
)

// Seed is the initial data loaded with the -seed flag.
type Seed struct {
	Apartments []SeedApartment `yaml:"apartments"`
	Users      []SeedUser      `yaml:"users"`
}

type SeedApartment struct {
	Address   string  `yaml:"address"`
	Rooms     int     `yaml:"rooms"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type SeedUser struct {
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
}

// LoadSeed reads a seed file. Apartments need an address and users an id.
func LoadSeed(path string) (*Seed, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(file, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, a := range seed.Apartments {
		if a.Address == "" {
			return nil, fmt.Errorf("seed apartment %d has no address", i)
		}
	}
	for i, u := range seed.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("seed user %d has no id", i)
		}
	}
	return &seed, nil
}

// Models converts the seed into storable records.
func (s *Seed) Models() ([]models.Apartment, []models.User) {
	apartments := make([]models.Apartment, 0, len(s.Apartments))
	for _, a := range s.Apartments {
		apartments = append(apartments, models.Apartment{
			Address:     a.Address,
			RoomsNumber: a.Rooms,
			Latitude:    a.Latitude,
			Longitude:   a.Longitude,
		})
	}
	users := make([]models.User, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, models.User{ID: u.ID, Email: u.Email})
	}
	return apartments, users
}
