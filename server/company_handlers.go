package server

import (
	"encoding/json"
	"net/http"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	"github.com/L-Aguilar/microsaas-sub003/companies"
	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
)

type createCompanyRequest struct {
	Name    string  `json:"name"`
	Website *string `json:"website,omitempty"`
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	sc, ok := auth.FromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	list, err := s.repos.Companies.List(r.Context(), sc)
	if err != nil {
		s.logger.Error().Err(err).Msg("list companies failed")
		writeInternalError(w)
		return
	}
	if list == nil {
		list = []*companies.Company{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	sc, ok := auth.FromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	company := &companies.Company{
		Name:    req.Name,
		Website: req.Website,
	}
	if err := s.repos.Companies.Create(r.Context(), sc, company); err != nil {
		if apperrors.Is(err, apperrors.ErrTenantRequired) {
			s.forbid(w, r, sc.UserID, err)
			return
		}
		s.logger.Error().Err(err).Msg("create company failed")
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}
