// Package controller implements the core business logic (service layer)
// for managing companies and computing apartment statistics, orchestrating
// repository operations, photo storage and lifecycle events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/events"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"github.com/Idanushka/CovidApts/internal/covidapts/photos"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTitleLength   = 200
	maxContentLength = 3000
)

type EventProducer interface {
	Produce(eventType events.EventType, company *models.Company)
}

// PhotoStore resolves the resource path of a company photo.
type PhotoStore interface {
	Save(upload *photos.Upload) (string, error)
}

// Repository defines the storage interface for Company objects.
type Repository interface {
	ListCompanies(ctx context.Context, search string) ([]models.Company, error)
	SearchCompanies(ctx context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate, modified time.Time) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	CompanyExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetApartment(ctx context.Context, id int) (*models.Apartment, error)
	ListApartments(ctx context.Context) ([]models.Apartment, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CompanyService provides methods to manage companies via repository
// operations, photo storage and event production.
type CompanyService struct {
	repo     Repository
	photos   PhotoStore
	producer EventProducer
	logger   *zap.Logger
	now      func() time.Time
}

// NewCompanyService constructs a CompanyService with a repository,
// a photo store, an event producer, and a logger.
func NewCompanyService(repo Repository, photoStore PhotoStore, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		photos:   photoStore,
		producer: producer,
		logger:   logger.Named("company_service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ParseID converts a path id into a company id. Empty and malformed ids are
// reported as not found.
func ParseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing company id", e.ErrNotFound)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed company id %q", e.ErrNotFound, raw)
	}
	return id, nil
}

func validateFields(status models.Status, title, content string) error {
	if title == "" || len(title) > maxTitleLength {
		return fmt.Errorf("%w: invalid title", e.ErrInvalidInput)
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("%w: content too long", e.ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %d", e.ErrInvalidInput, int(status))
	}
	return nil
}

// ListCompanies returns every company, narrowed to those whose content
// contains search when it is not empty.
func (s *CompanyService) ListCompanies(ctx context.Context, search string) ([]models.Company, error) {
	companies, err := s.repo.ListCompanies(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// SearchCompanies returns company rows joined with their apartment address.
// The user name is accepted but not applied.
func (s *CompanyService) SearchCompanies(ctx context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error) {
	if filter.UserName != "" {
		s.logger.Debug("user name filter is not applied", zap.String("user_name", filter.UserName))
	}
	rows, err := s.repo.SearchCompanies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	return rows, nil
}

// CreateForm gathers the choices shown by the create-company form.
func (s *CompanyService) CreateForm(ctx context.Context) (*models.CreateForm, error) {
	apartments, err := s.repo.ListApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list apartments: %w", err)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	form := &models.CreateForm{
		Apartments: make([]models.Option, 0, len(apartments)),
		Users:      make([]models.Option, 0, len(users)),
		Statuses:   models.StatusOptions(),
	}
	for _, a := range apartments {
		form.Apartments = append(form.Apartments, models.Option{Value: fmt.Sprint(a.ID), Text: a.Address})
	}
	for _, u := range users {
		form.Users = append(form.Users, models.Option{Value: u.ID, Text: u.Email})
	}
	return form, nil
}

// CreateCompany binds the company to an existing apartment, stamps both
// timestamps with the same instant, stores the photo and persists the record.
// The photo write and the insert are independent: a failed insert leaves the
// file behind.
func (s *CompanyService) CreateCompany(ctx context.Context, apartmentID int, company *models.Company, photo *photos.Upload) (*models.Company, error) {
	if err := validateFields(company.Status, company.Title, company.Content); err != nil {
		return nil, err
	}

	apartment, err := s.repo.GetApartment(ctx, apartmentID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: apartment %d does not exist", e.ErrInvalidInput, apartmentID)
		}
		return nil, fmt.Errorf("failed to get apartment: %w", err)
	}

	now := s.now()
	company.ID = uuid.New()
	company.ApartmentID = apartment.ID
	company.Apartment = apartment
	company.CreationDate = now
	company.ModifiedDate = now

	resources, err := s.photos.Save(photo)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}
	company.Resources = resources

	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	go func() {
		s.producer.Produce(events.CompanyCreated, company)
	}()
	return company, nil
}

// GetCompany retrieves a Company by its path id.
func (s *CompanyService) GetCompany(ctx context.Context, rawID string) (*models.Company, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// UpdateCompany overwrites the editable fields of the company named by
// rawID. The id carried by update must match. When a photo is supplied it
// replaces update.Resources, otherwise the submitted path is kept.
func (s *CompanyService) UpdateCompany(ctx context.Context, rawID string, update *models.CompanyUpdate, photo *photos.Upload) (*models.Company, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	if update.ID != id {
		return nil, fmt.Errorf("%w: company id mismatch", e.ErrNotFound)
	}
	if err := validateFields(update.Status, update.Title, update.Content); err != nil {
		return nil, err
	}

	current, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	if photo != nil {
		resources, err := s.photos.Save(photo)
		if err != nil {
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
		update.Resources = resources
	}

	modified := s.now()
	if modified.Before(current.ModifiedDate) {
		modified = current.ModifiedDate
	}

	if err := s.repo.UpdateCompany(ctx, update, modified); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	updated, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get company for event",
			zap.Error(err),
			zap.String("company_id", id.String()),
		)
		return nil, err
	}
	go func() {
		s.producer.Produce(events.CompanyUpdated, updated)
	}()
	return updated, nil
}

// DeleteCompany removes a Company by id and fires a deletion event.
func (s *CompanyService) DeleteCompany(ctx context.Context, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}

	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}

	go func() {
		s.producer.Produce(events.CompanyDeleted, company)
	}()

	return nil
}

// CompanyExists reports whether a company with the given path id is stored.
func (s *CompanyService) CompanyExists(ctx context.Context, rawID string) (bool, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return false, nil
	}
	return s.repo.CompanyExists(ctx, id)
}
