package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// UserHandler serves account administration and the company directory.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CompanyRouter registers the public company directory.
func CompanyRouter(r chi.Router, users *services.UserService) {
	h := NewUserHandler(users)

	r.Get("/", h.ListCompanies)
	r.Get("/{id}", h.GetCompany)
}

// AdminUserRouter registers the account routes of the admin console.
// Full account records are limited to owner and superadmin.
func AdminUserRouter(r chi.Router, users *services.UserService, auth *Authenticator) {
	h := NewUserHandler(users)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/", h.Delete)
	r.Route("/{id}", func(r chi.Router) {
		r.With(auth.RequireRole(roles.SuperAdmin)).Get("/", h.Get)
		r.With(auth.RequireRole(roles.SuperAdmin)).Put("/", h.Update)
		r.Put("/role", h.SetRole)
	})
}

// AdminCompanyRouter registers the company routes of the admin console.
func AdminCompanyRouter(r chi.Router, users *services.UserService) {
	h := NewUserHandler(users)

	r.Get("/", h.ListCompanies)
	r.Post("/", h.CreateCompany)
	r.Patch("/{id}", h.UpdateCompany)
	r.Delete("/{id}", h.DeleteCompany)
}

// AccountRequest creates or edits an account. Omitted fields keep stored values.
type AccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
	types.Profile
}

func (req AccountRequest) input() services.AccountInput {
	return services.AccountInput{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
		Profile:  req.Profile,
	}
}

type RoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := parseOptionalBool(r.URL.Query().Get("active"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid active")
		return
	}

	users, err := h.users.List(r.Context(), types.UserFilter{
		Type:   strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type"))),
		Role:   r.URL.Query().Get("role"),
		Active: active,
	})
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req AccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.users.CreateAccount(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetManaged(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateAccount(r.Context(), actor, id, req.input())
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.SetRole(r.Context(), actor, id, req.Role)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.deleteUsers(w, r, actor, req.IDs)
}

func (h *UserHandler) deleteUsers(w http.ResponseWriter, r *http.Request, actor types.User, ids []int) {
	deleted, err := h.users.Delete(r.Context(), actor, ids)
	if err != nil {
		if errors.Is(err, roles.ErrOwnerProtected) {
			writeError(w, http.StatusForbidden, "cannot delete the owner account")
			return
		}
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Success: true, DeletedCount: deleted})
}

func (h *UserHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.users.ListCompanies(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "company")
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *UserHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	company, err := h.users.GetCompany(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *UserHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req AccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.users.CreateCompany(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err, "company")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := h.companyID(w, r)
	if err != nil {
		return
	}

	var req AccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := req.input()
	in.Role = ""

	updated, err := h.users.UpdateAccount(r.Context(), actor, id, in)
	if err != nil {
		writeServiceError(w, r, err, "company")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := h.companyID(w, r)
	if err != nil {
		return
	}
	h.deleteUsers(w, r, actor, []int{id})
}

// companyID parses the {id} parameter and checks it names a company.
// It writes the error response itself.
func (h *UserHandler) companyID(w http.ResponseWriter, r *http.Request) (int, error) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, err
	}
	if _, err := h.users.GetCompany(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return 0, err
		}
		writeServiceError(w, r, err, "company")
		return 0, err
	}
	return id, nil
}
