package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Idanushka/CovidApts/internal/covidapts/auth"
	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"github.com/Idanushka/CovidApts/internal/covidapts/photos"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "secret"

// mockCompanyController is a simple mock implementation of CompanyController.
type mockCompanyController struct {
	listFunc       func(ctx context.Context, search string) ([]models.Company, error)
	searchFunc     func(ctx context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error)
	createFormFunc func(ctx context.Context) (*models.CreateForm, error)
	createFunc     func(ctx context.Context, apartmentID int, company *models.Company, photo *photos.Upload) (*models.Company, error)
	getFunc        func(ctx context.Context, rawID string) (*models.Company, error)
	updateFunc     func(ctx context.Context, rawID string, update *models.CompanyUpdate, photo *photos.Upload) (*models.Company, error)
	deleteFunc     func(ctx context.Context, rawID string) error
}

func (m *mockCompanyController) ListCompanies(ctx context.Context, search string) ([]models.Company, error) {
	return m.listFunc(ctx, search)
}

func (m *mockCompanyController) SearchCompanies(ctx context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error) {
	return m.searchFunc(ctx, filter)
}

func (m *mockCompanyController) CreateForm(ctx context.Context) (*models.CreateForm, error) {
	if m.createFormFunc == nil {
		return &models.CreateForm{}, nil
	}
	return m.createFormFunc(ctx)
}

func (m *mockCompanyController) CreateCompany(ctx context.Context, apartmentID int, company *models.Company, photo *photos.Upload) (*models.Company, error) {
	return m.createFunc(ctx, apartmentID, company, photo)
}

func (m *mockCompanyController) GetCompany(ctx context.Context, rawID string) (*models.Company, error) {
	return m.getFunc(ctx, rawID)
}

func (m *mockCompanyController) UpdateCompany(ctx context.Context, rawID string, update *models.CompanyUpdate, photo *photos.Upload) (*models.Company, error) {
	return m.updateFunc(ctx, rawID, update, photo)
}

func (m *mockCompanyController) DeleteCompany(ctx context.Context, rawID string) error {
	return m.deleteFunc(ctx, rawID)
}

// newTestHandler wires the routes exactly like the service does.
func newTestHandler(t *testing.T, registrars ...RouteRegistrar) http.Handler {
	t.Helper()
	s := NewServer(0, 0, zaptest.NewLogger(t))
	require.NoError(t, s.RegisterHTTPGateway(testSecret, registrars...))
	return s.Handler()
}

func bearer(t *testing.T, role auth.Role) string {
	t.Helper()
	token, err := auth.GenerateToken("user-1", role, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(h http.Handler, req *http.Request, authz string) *httptest.ResponseRecorder {
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCompanyHandler_List(t *testing.T) {
	var gotSearch string
	ctrl := &mockCompanyController{
		listFunc: func(_ context.Context, search string) ([]models.Company, error) {
			gotSearch = search
			return []models.Company{{ID: uuid.New(), Title: "Plumber", Status: models.StatusPending}}, nil
		},
	}
	h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))

	rec := do(h, httptest.NewRequest(http.MethodGet, "/companies?searchString=pipes", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/companies?searchString=pipes", nil), bearer(t, auth.RoleGuide))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pipes", gotSearch)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Plumber", body[0]["title"])
	assert.Equal(t, "Pending", body[0]["status"])
}

func TestCompanyHandler_ExtraDetails(t *testing.T) {
	var got models.SearchFilter
	ctrl := &mockCompanyController{
		searchFunc: func(_ context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error) {
			got = filter
			return []models.ExtraDetails{{Title: "a", ApartmentAddress: "Herzl 1"}}, nil
		},
	}
	h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))

	rec := do(h, httptest.NewRequest(http.MethodGet,
		"/companies/extra-details?createDate=2024-01-02&status=Closed&address=Herzl&userName=dana", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, got.CreatedFrom)
	assert.True(t, got.CreatedFrom.Equal(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, got.Status)
	assert.Equal(t, models.StatusClosed, *got.Status)
	assert.Equal(t, "Herzl", got.Address)
	assert.Equal(t, "dana", got.UserName)

	for _, query := range []string{"createDate=yesterday", "status=Sleeping"} {
		rec = do(h, httptest.NewRequest(http.MethodGet, "/companies/extra-details?"+query, nil), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestCompanyHandler_Create(t *testing.T) {
	tests := []struct {
		name        string
		values      url.Values
		createErr   error
		wantStatus  int
		wantCreated bool
	}{
		{
			name:        "valid form",
			values:      url.Values{"apartmentId": {"3"}, "status": {"1"}, "title": {"Plumber"}, "content": {"pipes"}},
			wantStatus:  http.StatusSeeOther,
			wantCreated: true,
		},
		{
			name:       "apartment id not a number",
			values:     url.Values{"apartmentId": {"three"}, "title": {"Plumber"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown status",
			values:     url.Values{"apartmentId": {"3"}, "status": {"Sleeping"}, "title": {"Plumber"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "service rejects apartment",
			values:      url.Values{"apartmentId": {"99"}, "title": {"Plumber"}},
			createErr:   e.ErrInvalidInput,
			wantStatus:  http.StatusBadRequest,
			wantCreated: true,
		},
		{
			name:        "service failure",
			values:      url.Values{"apartmentId": {"3"}, "title": {"Plumber"}},
			createErr:   errors.New("database error"),
			wantStatus:  http.StatusInternalServerError,
			wantCreated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			ctrl := &mockCompanyController{
				createFunc: func(_ context.Context, apartmentID int, company *models.Company, photo *photos.Upload) (*models.Company, error) {
					called = true
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					assert.Equal(t, 3, apartmentID)
					assert.Equal(t, models.StatusPending, company.Status)
					assert.Equal(t, "Plumber", company.Title)
					assert.Nil(t, photo)
					company.ID = uuid.New()
					return company, nil
				},
			}
			h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))

			rec := do(h, formRequest(http.MethodPost, "/companies/create", tt.values), bearer(t, auth.RoleJanitor))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCreated, called)
			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, ListPath, rec.Header().Get("Location"))
			}
			if tt.wantStatus == http.StatusBadRequest {
				var body formRejection
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.Message)
				require.NotNil(t, body.Form)
				assert.Equal(t, "Plumber", body.Form.Title)
			}
		})
	}
}

func TestCompanyHandler_CreateRejectedWithoutChoices(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	ctrl := &mockCompanyController{
		createFunc: func(context.Context, int, *models.Company, *photos.Upload) (*models.Company, error) {
			return nil, e.ErrInvalidInput
		},
		createFormFunc: func(context.Context) (*models.CreateForm, error) {
			return nil, errors.New("database error")
		},
	}
	h := newTestHandler(t, NewCompanyHandler(ctrl, zap.New(core)))

	values := url.Values{"apartmentId": {"99"}, "title": {"Plumber"}}
	rec := do(h, formRequest(http.MethodPost, "/companies/create", values), bearer(t, auth.RoleGuide))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body formRejection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Choices)
	require.NotNil(t, body.Form)
	assert.Equal(t, "Plumber", body.Form.Title)

	logs := recorded.FilterMessage("Failed to load form choices").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "database error", logs[0].ContextMap()["error"])
}

func TestCompanyHandler_CreateWithPhoto(t *testing.T) {
	var gotName, gotContent string
	ctrl := &mockCompanyController{
		createFunc: func(_ context.Context, _ int, company *models.Company, photo *photos.Upload) (*models.Company, error) {
			require.NotNil(t, photo)
			gotName = photo.Name
			b, err := io.ReadAll(photo.Content)
			require.NoError(t, err)
			gotContent = string(b)
			company.ID = uuid.New()
			return company, nil
		},
	}
	h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("apartmentId", "3"))
	require.NoError(t, mw.WriteField("title", "Plumber"))
	fw, err := mw.CreateFormFile("photo", "pipes.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/companies/create", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(h, req, bearer(t, auth.RoleAdmin))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "pipes.jpg", gotName)
	assert.Equal(t, "jpeg-bytes", gotContent)
}

func TestCompanyHandler_GetFlows(t *testing.T) {
	known := uuid.New()
	ctrl := &mockCompanyController{
		getFunc: func(_ context.Context, rawID string) (*models.Company, error) {
			if rawID == known.String() {
				return &models.Company{ID: known, Title: "Known"}, nil
			}
			return nil, e.ErrNotFound
		},
	}
	h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))
	authz := bearer(t, auth.RoleSocialWorker)

	for _, prefix := range []string{"/companies/details/", "/companies/edit/", "/companies/delete/"} {
		rec := do(h, httptest.NewRequest(http.MethodGet, prefix+known.String(), nil), authz)
		assert.Equal(t, http.StatusOK, rec.Code, prefix)

		rec = do(h, httptest.NewRequest(http.MethodGet, prefix+uuid.NewString(), nil), authz)
		assert.Equal(t, http.StatusFound, rec.Code, prefix)
		assert.Equal(t, NotFoundPath, rec.Header().Get("Location"))
	}

	rec := do(h, httptest.NewRequest(http.MethodGet, "/companies/edit/"+known.String(), nil), authz)
	var view editView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Known", view.Company.Title)
	assert.Len(t, view.Statuses, 3)
}

func TestCompanyHandler_Edit(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name         string
		values       url.Values
		updateErr    error
		wantStatus   int
		wantLocation string
		wantCalled   bool
	}{
		{
			name:         "valid edit",
			values:       url.Values{"id": {id.String()}, "status": {"Closed"}, "title": {"New"}, "resources": {"/images/companies/a.jpg"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: ListPath,
			wantCalled:   true,
		},
		{
			name:         "form without id",
			values:       url.Values{"title": {"New"}},
			wantStatus:   http.StatusFound,
			wantLocation: NotFoundPath,
		},
		{
			name:         "service reports mismatch",
			values:       url.Values{"id": {id.String()}, "title": {"New"}},
			updateErr:    e.ErrNotFound,
			wantStatus:   http.StatusFound,
			wantLocation: NotFoundPath,
			wantCalled:   true,
		},
		{
			name:       "service rejects title",
			values:     url.Values{"id": {id.String()}},
			updateErr:  e.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			ctrl := &mockCompanyController{
				updateFunc: func(_ context.Context, rawID string, update *models.CompanyUpdate, _ *photos.Upload) (*models.Company, error) {
					called = true
					if tt.updateErr != nil {
						return nil, tt.updateErr
					}
					assert.Equal(t, id.String(), rawID)
					assert.Equal(t, id, update.ID)
					assert.Equal(t, models.StatusClosed, update.Status)
					assert.Equal(t, "/images/companies/a.jpg", update.Resources)
					return &models.Company{ID: id}, nil
				},
			}
			h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))

			rec := do(h, formRequest(http.MethodPost, "/companies/edit/"+id.String(), tt.values), bearer(t, auth.RoleGuide))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestCompanyHandler_DeleteConfirmed(t *testing.T) {
	id := uuid.New()
	ctrl := &mockCompanyController{
		deleteFunc: func(_ context.Context, rawID string) error {
			if rawID == id.String() {
				return nil
			}
			return e.ErrNotFound
		},
	}
	h := newTestHandler(t, NewCompanyHandler(ctrl, zaptest.NewLogger(t)))
	authz := bearer(t, auth.RoleAdmin)

	rec := do(h, httptest.NewRequest(http.MethodPost, "/companies/delete/"+id.String(), nil), authz)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, ListPath, rec.Header().Get("Location"))

	rec = do(h, httptest.NewRequest(http.MethodPost, "/companies/delete/"+uuid.NewString(), nil), authz)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, NotFoundPath, rec.Header().Get("Location"))

	rec = do(h, httptest.NewRequest(http.MethodPost, "/companies/delete/"+id.String(), nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompanyHandler_NotFoundPage(t *testing.T) {
	h := newTestHandler(t, NewCompanyHandler(&mockCompanyController{}, zaptest.NewLogger(t)))

	rec := do(h, httptest.NewRequest(http.MethodGet, NotFoundPath, nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not found", body["message"])
}
