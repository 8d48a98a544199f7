package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Idanushka/CovidApts/internal/covidapts/classifier"
	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/locale"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"go.uber.org/zap"
)

// Threshold is the monthly company count from which an apartment is labelled "above".
const Threshold = 5

const (
	MessageAbove = "Consider putting more stock in this area for this month, a lot of companies are expected."
	MessageUnder = "Your stock is quiet enough! No need to get extra."
)

// StatisticsRepository is the read side the statistics service needs.
type StatisticsRepository interface {
	CompanyCreationDates(ctx context.Context, address string) ([]time.Time, error)
	CountCompaniesByStatus(ctx context.Context) (map[models.Status]int, error)
	ListApartmentsWithCompanies(ctx context.Context) ([]models.Apartment, error)
	FindApartmentByAddress(ctx context.Context, address string) (*models.Apartment, error)
}

// StatisticsService aggregates company counts for the dashboard charts and
// answers the stock advice query.
type StatisticsService struct {
	repo   StatisticsRepository
	months locale.MonthNamer
	logger *zap.Logger
}

// NewStatisticsService constructs a StatisticsService. A nil namer means English month names.
func NewStatisticsService(repo StatisticsRepository, months locale.MonthNamer, logger *zap.Logger) *StatisticsService {
	if months == nil {
		months = locale.English()
	}
	return &StatisticsService{
		repo:   repo,
		months: months,
		logger: logger.Named("statistics_service"),
	}
}

// MonthlyBarData counts companies per creation month for apartments whose
// address contains address. Months without companies are omitted; the rest
// are ordered by calendar month.
func (s *StatisticsService) MonthlyBarData(ctx context.Context, address string) ([]models.MonthCount, error) {
	dates, err := s.repo.CompanyCreationDates(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load creation dates: %w", err)
	}

	counts := make(map[time.Month]int)
	for _, d := range dates {
		counts[d.UTC().Month()]++
	}

	months := make([]time.Month, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	bars := make([]models.MonthCount, 0, len(months))
	for _, m := range months {
		bars = append(bars, models.MonthCount{Month: s.months.MonthName(m), Count: counts[m]})
	}
	return bars, nil
}

// StatusPieData counts companies per status actually present in the store.
func (s *StatisticsService) StatusPieData(ctx context.Context) ([]models.StatusCount, error) {
	counts, err := s.repo.CountCompaniesByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count companies by status: %w", err)
	}

	statuses := make([]models.Status, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	slices := make([]models.StatusCount, 0, len(statuses))
	for _, st := range statuses {
		slices = append(slices, models.StatusCount{Status: st.String(), Count: counts[st]})
	}
	return slices, nil
}

// Dashboard returns both chart payloads of the statistics index.
func (s *StatisticsService) Dashboard(ctx context.Context, address string) (*models.Dashboard, error) {
	bar, err := s.MonthlyBarData(ctx, address)
	if err != nil {
		return nil, err
	}
	pie, err := s.StatusPieData(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Dashboard{Bar: bar, Pie: pie}, nil
}

// BuildTrainingRows labels every apartment by its company count in month.
func BuildTrainingRows(apartments []models.Apartment, month time.Month) []models.AggregationRow {
	rows := make([]models.AggregationRow, 0, len(apartments))
	for i := range apartments {
		apt := &apartments[i]
		count := countInMonth(apt.Companies, month)
		label := models.LabelUnder
		if count >= Threshold {
			label = models.LabelAbove
		}
		rows = append(rows, models.AggregationRow{
			Label:        label,
			RoomsNumber:  apt.RoomsNumber,
			MonthlyCount: count,
			Location:     apt.Location(),
		})
	}
	return rows
}

func countInMonth(companies []models.Company, month time.Month) int {
	count := 0
	for _, c := range companies {
		if c.CreationDate.UTC().Month() == month {
			count++
		}
	}
	return count
}

// Classify trains a classifier on every apartment's count for month and
// labels the first apartment whose address contains address.
// The query vector carries the month number where training rows carry the
// monthly count.
func (s *StatisticsService) Classify(ctx context.Context, address string, month int) (*models.Advice, error) {
	if month < 1 || month > 12 {
		return nil, e.ErrInvalidMonth
	}

	apartment, err := s.repo.FindApartmentByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: no apartment matches %q", e.ErrNotFound, address)
		}
		return nil, fmt.Errorf("failed to find apartment: %w", err)
	}

	apartments, err := s.repo.ListApartmentsWithCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load apartments: %w", err)
	}

	rows := BuildTrainingRows(apartments, time.Month(month))
	samples := make([]classifier.Sample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, classifier.Sample{
			Label:    r.Label,
			Features: []float64{float64(r.RoomsNumber), float64(r.MonthlyCount), r.Location},
		})
	}

	model, err := classifier.Train(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}

	label, err := model.Classify([]float64{
		float64(apartment.RoomsNumber),
		float64(month),
		apartment.Location(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to classify apartment: %w", err)
	}

	s.logger.Debug("apartment classified",
		zap.Int("apartment_id", apartment.ID),
		zap.Int("month", month),
		zap.String("label", label),
		zap.Int("training_rows", len(samples)),
	)

	if label == models.LabelAbove {
		return &models.Advice{Message: MessageAbove}, nil
	}
	return &models.Advice{Message: MessageUnder}, nil
}
