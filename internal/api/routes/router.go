package routes

import (
	"net/http"

	"github.com/epiwatch/surveillance/internal/api/handlers"
	"github.com/epiwatch/surveillance/internal/api/middleware"
	"github.com/epiwatch/surveillance/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	patientHandler      *handlers.PatientHandler
	ledgerHandler       *handlers.LedgerHandler
	directoryHandler    *handlers.DirectoryHandler
	catalogHandler      *handlers.CatalogHandler
	regionHandler       *handlers.RegionHandler
	cohortHandler       *handlers.CohortHandler
	surveillanceHandler *handlers.SurveillanceHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	patientHandler *handlers.PatientHandler,
	ledgerHandler *handlers.LedgerHandler,
	directoryHandler *handlers.DirectoryHandler,
	catalogHandler *handlers.CatalogHandler,
	regionHandler *handlers.RegionHandler,
	cohortHandler *handlers.CohortHandler,
	surveillanceHandler *handlers.SurveillanceHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		patientHandler:      patientHandler,
		ledgerHandler:       ledgerHandler,
		directoryHandler:    directoryHandler,
		catalogHandler:      catalogHandler,
		regionHandler:       regionHandler,
		cohortHandler:       cohortHandler,
		surveillanceHandler: surveillanceHandler,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Patient registry endpoints
	r.mux.HandleFunc("POST /api/patients", r.patientHandler.RegisterPatient)
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/search", r.patientHandler.SearchPatients)
	r.mux.HandleFunc("GET /api/patients/quick-search", r.patientHandler.QuickSearch)
	r.mux.HandleFunc("GET /api/patients/mrn/{mrn}", r.patientHandler.GetPatientByMRN)
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("PUT /api/patients/{id}", r.patientHandler.UpdatePatient)
	r.mux.HandleFunc("DELETE /api/patients/{id}", r.patientHandler.DeletePatient)
	r.mux.HandleFunc("POST /api/patients/{id}/deceased", r.patientHandler.MarkDeceased)
	r.mux.HandleFunc("POST /api/patients/{id}/addresses", r.patientHandler.AddAddress)
	r.mux.HandleFunc("GET /api/patients/{id}/addresses", r.patientHandler.ListAddresses)
	r.mux.HandleFunc("POST /api/patients/{id}/contacts", r.patientHandler.AddContactInfo)

	// Clinical event ledger endpoints
	r.mux.HandleFunc("POST /api/patients/{id}/encounters", r.ledgerHandler.RecordEncounter)
	r.mux.HandleFunc("GET /api/patients/{id}/encounters", r.ledgerHandler.ListEncounters)
	r.mux.HandleFunc("POST /api/encounters/{id}/discharge", r.ledgerHandler.DischargeEncounter)
	r.mux.HandleFunc("POST /api/patients/{id}/diagnoses", r.ledgerHandler.RecordDiagnosis)
	r.mux.HandleFunc("GET /api/patients/{id}/diagnoses", r.ledgerHandler.ListDiagnoses)
	r.mux.HandleFunc("POST /api/diagnoses/{id}/transition", r.ledgerHandler.TransitionDiagnosis)
	r.mux.HandleFunc("POST /api/patients/{id}/risk-factors", r.ledgerHandler.RecordRiskFactor)
	r.mux.HandleFunc("GET /api/patients/{id}/risk-factors", r.ledgerHandler.ListRiskFactors)
	r.mux.HandleFunc("POST /api/risk-factors/{id}/end", r.ledgerHandler.EndRiskFactor)
	r.mux.HandleFunc("POST /api/patients/{id}/social-determinants", r.ledgerHandler.RecordSocialDeterminant)
	r.mux.HandleFunc("GET /api/patients/{id}/social-determinants", r.ledgerHandler.ListSocialDeterminants)
	r.mux.HandleFunc("POST /api/social-determinants/{id}/resolve", r.ledgerHandler.ResolveSocialDeterminant)
	r.mux.HandleFunc("POST /api/patients/{id}/medications", r.ledgerHandler.RecordMedication)
	r.mux.HandleFunc("GET /api/patients/{id}/medications", r.ledgerHandler.ListMedications)
	r.mux.HandleFunc("POST /api/medications/{id}/end", r.ledgerHandler.EndMedication)
	r.mux.HandleFunc("POST /api/patients/{id}/allergies", r.ledgerHandler.RecordAllergy)
	r.mux.HandleFunc("GET /api/patients/{id}/allergies", r.ledgerHandler.ListAllergies)
	r.mux.HandleFunc("POST /api/patients/{id}/lab-orders", r.ledgerHandler.OrderLab)
	r.mux.HandleFunc("GET /api/patients/{id}/lab-orders", r.ledgerHandler.ListLabOrders)
	r.mux.HandleFunc("POST /api/lab-orders/{id}/transition", r.ledgerHandler.TransitionLabOrder)
	r.mux.HandleFunc("POST /api/lab-orders/{id}/results", r.ledgerHandler.RecordLabResult)
	r.mux.HandleFunc("GET /api/lab-orders/{id}/results", r.ledgerHandler.ListLabResults)
	r.mux.HandleFunc("POST /api/patients/{id}/vitals", r.ledgerHandler.RecordVitalSigns)
	r.mux.HandleFunc("GET /api/patients/{id}/vitals", r.ledgerHandler.ListVitalSigns)
	r.mux.HandleFunc("POST /api/patients/{id}/immunizations", r.ledgerHandler.RecordImmunization)
	r.mux.HandleFunc("GET /api/patients/{id}/immunizations", r.ledgerHandler.ListImmunizations)
	r.mux.HandleFunc("POST /api/patients/{id}/family-history", r.ledgerHandler.RecordFamilyHistory)
	r.mux.HandleFunc("GET /api/patients/{id}/family-history", r.ledgerHandler.ListFamilyHistory)

	// Provider directory endpoints
	r.mux.HandleFunc("POST /api/providers", r.directoryHandler.RegisterProvider)
	r.mux.HandleFunc("GET /api/providers", r.directoryHandler.ListProviders)
	r.mux.HandleFunc("GET /api/providers/npi/{npi}", r.directoryHandler.GetProviderByNPI)
	r.mux.HandleFunc("GET /api/providers/{id}", r.directoryHandler.GetProvider)
	r.mux.HandleFunc("POST /api/providers/{id}/assignments", r.directoryHandler.AssignProvider)
	r.mux.HandleFunc("GET /api/providers/{id}/assignments", r.directoryHandler.ListAssignments)
	r.mux.HandleFunc("POST /api/departments", r.directoryHandler.CreateDepartment)
	r.mux.HandleFunc("GET /api/departments/{id}", r.directoryHandler.GetDepartment)

	// Reference catalog endpoints
	r.mux.HandleFunc("POST /api/catalog/icd-codes", r.catalogHandler.CreateICDCode)
	r.mux.HandleFunc("GET /api/catalog/icd-codes", r.catalogHandler.ListICDCodes)
	r.mux.HandleFunc("GET /api/catalog/icd-codes/{code}", r.catalogHandler.GetICDCode)
	r.mux.HandleFunc("POST /api/catalog/lab-tests", r.catalogHandler.CreateLabTest)
	r.mux.HandleFunc("GET /api/catalog/lab-tests/{loinc}", r.catalogHandler.GetLabTest)
	r.mux.HandleFunc("POST /api/catalog/drugs", r.catalogHandler.CreateDrug)
	r.mux.HandleFunc("GET /api/catalog/drugs/{ndc}", r.catalogHandler.GetDrug)
	r.mux.HandleFunc("POST /api/catalog/vaccines", r.catalogHandler.CreateVaccine)
	r.mux.HandleFunc("GET /api/catalog/vaccines/{cvx}", r.catalogHandler.GetVaccine)

	// Region hierarchy endpoints
	r.mux.HandleFunc("POST /api/regions", r.regionHandler.AddRegion)
	r.mux.HandleFunc("GET /api/regions", r.regionHandler.ListRegions)
	r.mux.HandleFunc("GET /api/regions/resolve", r.regionHandler.ResolveCoordinate)
	r.mux.HandleFunc("GET /api/regions/{id}", r.regionHandler.GetRegion)
	r.mux.HandleFunc("PATCH /api/regions/{id}/parent", r.regionHandler.ReparentRegion)

	// Cohort endpoints
	r.mux.HandleFunc("POST /api/cohorts", r.cohortHandler.CreateCohort)
	r.mux.HandleFunc("GET /api/cohorts", r.cohortHandler.ListCohorts)
	r.mux.HandleFunc("GET /api/cohorts/{id}", r.cohortHandler.GetCohort)
	r.mux.HandleFunc("POST /api/cohorts/{id}/members", r.cohortHandler.AddMember)
	r.mux.HandleFunc("GET /api/cohorts/{id}/members", r.cohortHandler.ListMembers)
	r.mux.HandleFunc("DELETE /api/cohorts/{id}/members/{patientId}", r.cohortHandler.RemoveMember)

	// Surveillance view endpoints
	r.mux.HandleFunc("GET /api/surveillance/risk-factor-exposure", r.surveillanceHandler.RiskFactorExposure)
	r.mux.HandleFunc("GET /api/surveillance/diagnosis-prevalence", r.surveillanceHandler.DiagnosisPrevalence)
	r.mux.HandleFunc("GET /api/surveillance/geographic-distribution", r.surveillanceHandler.GeographicDistribution)
	r.mux.HandleFunc("GET /api/surveillance/high-risk", r.surveillanceHandler.HighRisk)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
