package handlers

import (
	"net/http"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
)

// CatalogHandler handles reference catalog HTTP requests. Catalogs are
// append-only lookup tables, so the handler talks to the repository
// directly.
type CatalogHandler struct {
	catalog repositories.CatalogRepository
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog repositories.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateICDCode handles POST /api/catalog/icd-codes
func (h *CatalogHandler) CreateICDCode(w http.ResponseWriter, r *http.Request) {
	var code entities.ICDCode
	if !decodeJSON(w, r, &code) {
		return
	}
	if code.Code == "" {
		respondWithError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.catalog.CreateICDCode(r.Context(), &code); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, code)
}

// GetICDCode handles GET /api/catalog/icd-codes/{code}
func (h *CatalogHandler) GetICDCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.catalog.GetICDCodeByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, code)
}

// ListICDCodes handles GET /api/catalog/icd-codes
func (h *CatalogHandler) ListICDCodes(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	codes, err := h.catalog.ListICDCodes(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"codes": codes,
		"count": len(codes),
	})
}

// CreateLabTest handles POST /api/catalog/lab-tests
func (h *CatalogHandler) CreateLabTest(w http.ResponseWriter, r *http.Request) {
	var test entities.LabTest
	if !decodeJSON(w, r, &test) {
		return
	}
	if test.LoincCode == "" {
		respondWithError(w, http.StatusBadRequest, "loinc_code is required")
		return
	}

	if err := h.catalog.CreateLabTest(r.Context(), &test); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, test)
}

// GetLabTest handles GET /api/catalog/lab-tests/{loinc}
func (h *CatalogHandler) GetLabTest(w http.ResponseWriter, r *http.Request) {
	test, err := h.catalog.GetLabTestByLoinc(r.Context(), r.PathValue("loinc"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, test)
}

// CreateDrug handles POST /api/catalog/drugs
func (h *CatalogHandler) CreateDrug(w http.ResponseWriter, r *http.Request) {
	var drug entities.Drug
	if !decodeJSON(w, r, &drug) {
		return
	}
	if drug.NDCCode == "" {
		respondWithError(w, http.StatusBadRequest, "ndc_code is required")
		return
	}

	if err := h.catalog.CreateDrug(r.Context(), &drug); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, drug)
}

// GetDrug handles GET /api/catalog/drugs/{ndc}
func (h *CatalogHandler) GetDrug(w http.ResponseWriter, r *http.Request) {
	drug, err := h.catalog.GetDrugByNDC(r.Context(), r.PathValue("ndc"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, drug)
}

// CreateVaccine handles POST /api/catalog/vaccines
func (h *CatalogHandler) CreateVaccine(w http.ResponseWriter, r *http.Request) {
	var vaccine entities.Vaccine
	if !decodeJSON(w, r, &vaccine) {
		return
	}
	if vaccine.CVXCode == "" {
		respondWithError(w, http.StatusBadRequest, "cvx_code is required")
		return
	}

	if err := h.catalog.CreateVaccine(r.Context(), &vaccine); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, vaccine)
}

// GetVaccine handles GET /api/catalog/vaccines/{cvx}
func (h *CatalogHandler) GetVaccine(w http.ResponseWriter, r *http.Request) {
	vaccine, err := h.catalog.GetVaccineByCVX(r.Context(), r.PathValue("cvx"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, vaccine)
}
