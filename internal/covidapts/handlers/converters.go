package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"github.com/Idanushka/CovidApts/internal/covidapts/photos"
	"github.com/Idanushka/CovidApts/internal/pkg/utils"
	"github.com/google/uuid"
)

const (
	maxUploadBytes = 10 << 20
	photoField     = "photo"
	dateLayout     = "2006-01-02"
)

// companyForm is the submitted create/edit form, echoed back on validation failure.
type companyForm struct {
	ApartmentID string `json:"apartmentId"`
	ID          string `json:"id,omitempty"`
	Status      string `json:"status"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Resources   string `json:"resources"`
}

// readCompanyForm parses a urlencoded or multipart company form. The returned
// upload is nil when no photo was attached; closeFn releases it.
func readCompanyForm(r *http.Request) (*companyForm, *photos.Upload, func(), error) {
	closeFn := func() {}

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, nil, closeFn, fmt.Errorf("%w: malformed form: %v", e.ErrInvalidInput, err)
	}

	form := &companyForm{
		ApartmentID: strings.TrimSpace(r.PostFormValue("apartmentId")),
		ID:          strings.TrimSpace(r.PostFormValue("id")),
		Status:      r.PostFormValue("status"),
		Title:       r.PostFormValue("title"),
		Content:     r.PostFormValue("content"),
		Resources:   r.PostFormValue("resources"),
	}

	upload, closeFn, err := formPhoto(r.MultipartForm)
	if err != nil {
		return nil, nil, func() {}, err
	}
	return form, upload, closeFn, nil
}

func formPhoto(mf *multipart.Form) (*photos.Upload, func(), error) {
	if mf == nil {
		return nil, func() {}, nil
	}
	headers := mf.File[photoField]
	if len(headers) == 0 || headers[0].Filename == "" {
		return nil, func() {}, nil
	}

	file, err := headers[0].Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open uploaded photo: %w", err)
	}
	return &photos.Upload{Name: headers[0].Filename, Content: file}, func() { file.Close() }, nil
}

// parseFormStatus treats an empty field as Active.
func parseFormStatus(raw string) (models.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return models.StatusActive, nil
	}
	s, err := models.ParseStatus(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	return s, nil
}

// toCompany converts the create form into the apartment id and a new company.
func (f *companyForm) toCompany() (int, *models.Company, error) {
	apartmentID, err := strconv.Atoi(f.ApartmentID)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: apartmentId must be a number", e.ErrInvalidInput)
	}
	st, err := parseFormStatus(f.Status)
	if err != nil {
		return 0, nil, err
	}
	return apartmentID, &models.Company{
		Title:     f.Title,
		Content:   f.Content,
		Status:    st,
		Resources: f.Resources,
	}, nil
}

// toUpdate converts the edit form. A missing or malformed id is reported as
// not found, like any other id that names no record.
func (f *companyForm) toUpdate() (*models.CompanyUpdate, error) {
	id, err := uuid.Parse(f.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed form id %q", e.ErrNotFound, f.ID)
	}
	st, err := parseFormStatus(f.Status)
	if err != nil {
		return nil, err
	}
	return &models.CompanyUpdate{
		ID:        id,
		Status:    st,
		Title:     f.Title,
		Content:   f.Content,
		Resources: f.Resources,
	}, nil
}

// searchFilterFromQuery reads the extra-details query parameters.
func searchFilterFromQuery(r *http.Request) (models.SearchFilter, error) {
	q := r.URL.Query()
	filter := models.SearchFilter{
		Address:  q.Get("address"),
		UserName: q.Get("userName"),
	}

	if raw := strings.TrimSpace(q.Get("createDate")); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: createDate %q", e.ErrInvalidInput, raw)
		}
		filter.CreatedFrom = &from
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
		}
		filter.Status = utils.Ptr(st)
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, raw)
}

// parseMonth reads the classify month. Anything that is not a number is a range error.
func parseMonth(raw string) (int, error) {
	month, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, e.ErrInvalidMonth
	}
	return month, nil
}
