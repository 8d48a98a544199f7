package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Idanushka/CovidApts/internal/covidapts/auth"
	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/Idanushka/CovidApts/internal/covidapts/models"
	"github.com/Idanushka/CovidApts/internal/covidapts/photos"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

const (
	ListPath     = "/companies"
	NotFoundPath = "/companies/not-found"
)

// CompanyController defines the business logic interface
// that the HTTP handlers will invoke.
type CompanyController interface {
	ListCompanies(ctx context.Context, search string) ([]models.Company, error)
	SearchCompanies(ctx context.Context, filter models.SearchFilter) ([]models.ExtraDetails, error)
	CreateForm(ctx context.Context) (*models.CreateForm, error)
	CreateCompany(ctx context.Context, apartmentID int, company *models.Company, photo *photos.Upload) (*models.Company, error)
	GetCompany(ctx context.Context, rawID string) (*models.Company, error)
	UpdateCompany(ctx context.Context, rawID string, update *models.CompanyUpdate, photo *photos.Upload) (*models.Company, error)
	DeleteCompany(ctx context.Context, rawID string) error
}

// CompanyHandler serves the company management pages as JSON views.
type CompanyHandler struct {
	responder
	service CompanyController
}

type editView struct {
	Company  *models.Company `json:"company"`
	Statuses []models.Option `json:"statuses"`
}

type formRejection struct {
	Message string             `json:"message"`
	Form    *companyForm       `json:"form"`
	Choices *models.CreateForm `json:"choices,omitempty"`
}

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service CompanyController, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		responder: responder{logger: logger.Named("company_handler")},
		service:   service,
	}
}

// RegisterRoutes binds the company pages to mux.
func (h *CompanyHandler) RegisterRoutes(mux *runtime.ServeMux) error {
	h.mux = mux
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/companies", h.list},
		{http.MethodGet, "/companies/extra-details", h.extraDetails},
		{http.MethodGet, "/companies/create", h.createForm},
		{http.MethodPost, "/companies/create", h.create},
		{http.MethodGet, "/companies/details/{id}", h.show},
		{http.MethodGet, "/companies/edit/{id}", h.editForm},
		{http.MethodPost, "/companies/edit/{id}", h.edit},
		{http.MethodGet, "/companies/delete/{id}", h.show},
		{http.MethodPost, "/companies/delete/{id}", h.deleteConfirmed},
		{http.MethodGet, "/companies/not-found", h.notFound},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *CompanyHandler) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	companies, err := h.service.ListCompanies(r.Context(), r.URL.Query().Get("searchString"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, companies)
}

func (h *CompanyHandler) extraDetails(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	filter, err := searchFilterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows, err := h.service.SearchCompanies(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, rows)
}

func (h *CompanyHandler) createForm(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	form, err := h.service.CreateForm(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, form)
}

func (h *CompanyHandler) create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	form, photo, closePhoto, err := readCompanyForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closePhoto()

	apartmentID, company, err := form.toCompany()
	if err == nil {
		company, err = h.service.CreateCompany(r.Context(), apartmentID, company, photo)
	}
	if err != nil {
		if errors.Is(err, e.ErrInvalidInput) {
			choices, formErr := h.service.CreateForm(r.Context())
			if formErr != nil {
				h.logger.Warn("Failed to load form choices", zap.Error(formErr))
			}
			h.rejectForm(w, r, form, err, choices)
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Company created",
		zap.String("company_id", company.ID.String()),
		zap.String("user", caller(r.Context())),
	)
	http.Redirect(w, r, ListPath, http.StatusSeeOther)
}

func (h *CompanyHandler) show(w http.ResponseWriter, r *http.Request, params map[string]string) {
	company, err := h.service.GetCompany(r.Context(), params["id"])
	if err != nil {
		h.redirectIfNotFound(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, company)
}

func (h *CompanyHandler) editForm(w http.ResponseWriter, r *http.Request, params map[string]string) {
	company, err := h.service.GetCompany(r.Context(), params["id"])
	if err != nil {
		h.redirectIfNotFound(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, editView{Company: company, Statuses: models.StatusOptions()})
}

func (h *CompanyHandler) edit(w http.ResponseWriter, r *http.Request, params map[string]string) {
	form, photo, closePhoto, err := readCompanyForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closePhoto()

	update, err := form.toUpdate()
	if err == nil {
		_, err = h.service.UpdateCompany(r.Context(), params["id"], update, photo)
	}
	if err != nil {
		if errors.Is(err, e.ErrInvalidInput) {
			h.rejectForm(w, r, form, err, &models.CreateForm{Statuses: models.StatusOptions()})
			return
		}
		h.redirectIfNotFound(w, r, err)
		return
	}

	h.logger.Info("Company updated",
		zap.String("company_id", update.ID.String()),
		zap.String("user", caller(r.Context())),
	)
	http.Redirect(w, r, ListPath, http.StatusSeeOther)
}

func (h *CompanyHandler) deleteConfirmed(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if err := h.service.DeleteCompany(r.Context(), params["id"]); err != nil {
		h.redirectIfNotFound(w, r, err)
		return
	}

	h.logger.Info("Company deleted",
		zap.String("company_id", params["id"]),
		zap.String("user", caller(r.Context())),
	)
	http.Redirect(w, r, ListPath, http.StatusSeeOther)
}

func (h *CompanyHandler) notFound(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	h.writeError(w, r, e.ErrNotFound)
}

func (h *CompanyHandler) redirectIfNotFound(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, e.ErrNotFound) {
		http.Redirect(w, r, NotFoundPath, http.StatusFound)
		return
	}
	h.writeError(w, r, err)
}

func (h *CompanyHandler) rejectForm(w http.ResponseWriter, r *http.Request, form *companyForm, err error, choices *models.CreateForm) {
	h.writeJSON(w, r, http.StatusBadRequest, formRejection{
		Message: err.Error(),
		Form:    form,
		Choices: choices,
	})
}

func caller(ctx context.Context) string {
	if claims, ok := auth.UserFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}
