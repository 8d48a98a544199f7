package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file, ":memory:" included.
	Path string
}

func dialector(cfg *Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewRepository(cfg *Config) (*Repository, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate creates or updates the apartments, companies and users tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Apartment{}, &models.Company{}, &models.User{})
}

// ConnectWithRetry keeps calling NewRepository with exponential backoff until it
// succeeds or maxElapsed passes.
func ConnectWithRetry(cfg *Config, maxElapsed time.Duration, logger *zap.Logger) (*Repository, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed

	var repo *Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = NewRepository(cfg)
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into a LIKE pattern matching any value containing s.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *Repository) ListCompanies(ctx context.Context, search string) ([]models.Company, error) {
	var companies []models.Company
	q := r.db.WithContext(ctx).Preload("Apartment").Order("creation_date")
	if search != "" {
		q = q.Where(`content LIKE ? ESCAPE '\'`, containsPattern(search))
	}
	if err := q.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

type extraDetailsRow struct {
	Title        string
	Status       models.Status
	Content      string
	CreationDate time.Time
	ModifiedDate time.Time
	Address      string
}

func (r *Repository) SearchCompanies(ctx context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error) {
	q := r.db.WithContext(ctx).
		Table("companies").
		Select("companies.title, companies.status, companies.content, " +
			"companies.creation_date, companies.modified_date, apartments.address").
		Joins("JOIN apartments ON apartments.id = companies.apartment_id").
		Order("companies.creation_date")

	if filter.CreatedFrom != nil {
		q = q.Where("companies.creation_date >= ?", filter.CreatedFrom.UTC())
	}
	if filter.Status != nil {
		q = q.Where("companies.status = ?", *filter.Status)
	}
	if filter.Address != "" {
		q = q.Where(`apartments.address LIKE ? ESCAPE '\'`, containsPattern(filter.Address))
	}

	var rows []extraDetailsRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	details := make([]models.ExtraDetails, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.ExtraDetails{
			Title:            row.Title,
			Status:           row.Status.String(),
			Content:          row.Content,
			CreationDate:     row.CreationDate,
			ModifiedDate:     row.ModifiedDate,
			ApartmentAddress: row.Address,
		})
	}
	return details, nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("%w: unknown apartment", e.ErrInvalidInput)
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).Preload("Apartment").First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

// UpdateCompany overwrites every editable column, zero values included.
func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate, modified time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", update.ID).
		Updates(map[string]interface{}{
			"status":        update.Status,
			"title":         update.Title,
			"content":       update.Content,
			"resources":     update.Resources,
			"modified_date": modified,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) CompanyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CreateApartment(ctx context.Context, apartment *models.Apartment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(apartment).Error
}

func (r *Repository) GetApartment(ctx context.Context, id int) (*models.Apartment, error) {
	var apartment models.Apartment
	result := r.db.WithContext(ctx).First(&apartment, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &apartment, nil
}

func (r *Repository) ListApartments(ctx context.Context) ([]models.Apartment, error) {
	var apartments []models.Apartment
	if err := r.db.WithContext(ctx).Order("id").Find(&apartments).Error; err != nil {
		return nil, err
	}
	return apartments, nil
}

// ListApartmentsWithCompanies loads every apartment with its companies.
func (r *Repository) ListApartmentsWithCompanies(ctx context.Context) ([]models.Apartment, error) {
	var apartments []models.Apartment
	if err := r.db.WithContext(ctx).Preload("Companies").Order("id").Find(&apartments).Error; err != nil {
		return nil, err
	}
	return apartments, nil
}

// FindApartmentByAddress returns the lowest-id apartment whose address contains address.
func (r *Repository) FindApartmentByAddress(ctx context.Context, address string) (*models.Apartment, error) {
	var apartment models.Apartment
	result := r.db.WithContext(ctx).
		Preload("Companies").
		Where(`address LIKE ? ESCAPE '\'`, containsPattern(address)).
		Order("id").
		First(&apartment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &apartment, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("email").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CompanyCreationDates returns the creation dates of companies whose apartment
// address contains address. Grouping by month happens in the caller so the
// query stays portable between Postgres and SQLite.
func (r *Repository) CompanyCreationDates(ctx context.Context, address string) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Joins("JOIN apartments ON apartments.id = companies.apartment_id").
		Where(`apartments.address LIKE ? ESCAPE '\'`, containsPattern(address)).
		Pluck("companies.creation_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

type statusTotal struct {
	Status models.Status
	Total  int
}

// CountCompaniesByStatus returns the number of companies for every status present.
func (r *Repository) CountCompaniesByStatus(ctx context.Context) (map[models.Status]int, error) {
	var totals []statusTotal
	err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int, len(totals))
	for _, t := range totals {
		counts[t.Status] = t.Total
	}
	return counts, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Seed stores the apartments and users that are not present yet, in one
// transaction. Apartments are matched on the exact address, users on their id.
func (r *Repository) Seed(ctx context.Context, apartments []models.Apartment, users []models.User) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		for i := range apartments {
			apartment := apartments[i]
			err := tx.db.WithContext(ctx).
				Omit(clause.Associations).
				Where("address = ?", apartment.Address).
				FirstOrCreate(&apartment).Error
			if err != nil {
				return fmt.Errorf("seed apartment %q: %w", apartment.Address, err)
			}
		}
		for i := range users {
			user := users[i]
			err := tx.db.WithContext(ctx).
				Omit(clause.Associations).
				Where("id = ?", user.ID).
				FirstOrCreate(&user).Error
			if err != nil {
				return fmt.Errorf("seed user %q: %w", user.ID, err)
			}
		}
		return nil
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
