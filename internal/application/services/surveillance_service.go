package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/geo"
	"github.com/epiwatch/surveillance/internal/infrastructure/observability"
)

// SurveillanceService produces the population-level read views. Each view
// is a single snapshot query, optionally restricted to the active members
// of one cohort. Geographic aggregation runs the query's coordinates
// through the region index in-process; patients whose primary address has
// no coordinate never reach this layer.
type SurveillanceService struct {
	repo    repositories.SurveillanceRepository
	regions *RegionIndexService
	metrics *observability.Metrics
}

// NewSurveillanceService creates a new surveillance service. Metrics may be
// nil.
func NewSurveillanceService(repo repositories.SurveillanceRepository, regions *RegionIndexService, metrics *observability.Metrics) *SurveillanceService {
	return &SurveillanceService{
		repo:    repo,
		regions: regions,
		metrics: metrics,
	}
}

// RiskFactorExposureReport lists patients alongside each of their current
// risk factors. A patient appears once per factor.
func (s *SurveillanceService) RiskFactorExposureReport(ctx context.Context, cohortID *uuid.UUID) ([]repositories.RiskFactorExposureRow, error) {
	ctx, span := observability.StartSpan(ctx, "surveillance.risk_factor_exposure")
	defer span.End()

	rows, err := s.repo.RiskFactorExposure(ctx, cohortID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	s.recordView(ctx, "risk_factor_exposure", len(rows))
	return rows, nil
}

// DiagnosisPrevalenceReport lists (patient, diagnosis) pairs joined to the
// ICD catalog. Pairs are not deduplicated: a patient diagnosed twice with
// the same code contributes two rows.
func (s *SurveillanceService) DiagnosisPrevalenceReport(ctx context.Context, cohortID *uuid.UUID) ([]repositories.DiagnosisPrevalenceRow, error) {
	ctx, span := observability.StartSpan(ctx, "surveillance.diagnosis_prevalence")
	defer span.End()

	rows, err := s.repo.DiagnosisPrevalence(ctx, cohortID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	s.recordView(ctx, "diagnosis_prevalence", len(rows))
	return rows, nil
}

// RegionDiagnosisCount is one cell of the geographic disease distribution
type RegionDiagnosisCount struct {
	RegionID     uuid.UUID `json:"region_id"`
	RegionName   string    `json:"region_name"`
	RegionType   string    `json:"region_type"`
	ICDCode      string    `json:"icd_code"`
	PatientCount int       `json:"patient_count"`
}

// GeographicDiseaseDistribution counts distinct diagnosed patients per
// (region, ICD code) cell. Each patient's primary address coordinate is
// resolved against the region hierarchy, so a patient inside a city also
// counts toward the city's ancestors. Patients without a located primary
// address are silently excluded.
func (s *SurveillanceService) GeographicDiseaseDistribution(ctx context.Context, cohortID *uuid.UUID) ([]RegionDiagnosisCount, error) {
	ctx, span := observability.StartSpan(ctx, "surveillance.geographic_distribution")
	defer span.End()

	rows, err := s.repo.DiagnosisLocations(ctx, cohortID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	type cellKey struct {
		regionID uuid.UUID
		icdCode  string
	}
	type cell struct {
		regionName string
		regionType string
		patients   map[uuid.UUID]struct{}
	}
	cells := make(map[cellKey]*cell)

	for _, row := range rows {
		point := geo.Point{Latitude: row.Latitude, Longitude: row.Longitude}
		resolved := s.regions.Resolve(point)
		if s.metrics != nil {
			observability.RecordRegionResolve(ctx, s.metrics, len(resolved))
		}
		for _, region := range resolved {
			key := cellKey{regionID: region.ID, icdCode: row.ICDCode}
			c, ok := cells[key]
			if !ok {
				c = &cell{
					regionName: region.Name,
					regionType: string(region.RegionType),
					patients:   make(map[uuid.UUID]struct{}),
				}
				cells[key] = c
			}
			c.patients[row.PatientID] = struct{}{}
		}
	}

	results := make([]RegionDiagnosisCount, 0, len(cells))
	for key, c := range cells {
		results = append(results, RegionDiagnosisCount{
			RegionID:     key.regionID,
			RegionName:   c.regionName,
			RegionType:   c.regionType,
			ICDCode:      key.icdCode,
			PatientCount: len(c.patients),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		if ri.RegionName != rj.RegionName {
			return ri.RegionName < rj.RegionName
		}
		if ri.ICDCode != rj.ICDCode {
			return ri.ICDCode < rj.ICDCode
		}
		return ri.RegionID.String() < rj.RegionID.String()
	})

	s.recordView(ctx, "geographic_distribution", len(results))
	return results, nil
}

// HighRiskPatient is one row of the composite high-risk view
type HighRiskPatient struct {
	PatientID            uuid.UUID `json:"patient_id"`
	MRN                  string    `json:"mrn"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	RiskFactorCount      int       `json:"risk_factor_count"`
	ActiveDiagnosisCount int       `json:"active_diagnosis_count"`
	RiskScore            int       `json:"risk_score"`
}

// HighRiskReport scores every patient by current risk factors and active
// diagnoses, highest first. Patients with neither still appear with a zero
// score so the view covers the whole population under watch.
func (s *SurveillanceService) HighRiskReport(ctx context.Context, cohortID *uuid.UUID) ([]HighRiskPatient, error) {
	ctx, span := observability.StartSpan(ctx, "surveillance.high_risk")
	defer span.End()

	rows, err := s.repo.HighRiskComposite(ctx, cohortID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	results := make([]HighRiskPatient, 0, len(rows))
	for _, row := range rows {
		results = append(results, HighRiskPatient{
			PatientID:            row.PatientID,
			MRN:                  row.MRN,
			FirstName:            row.FirstName,
			LastName:             row.LastName,
			RiskFactorCount:      row.RiskFactorCount,
			ActiveDiagnosisCount: row.ActiveDiagnosisCount,
			RiskScore:            row.RiskFactorCount + 2*row.ActiveDiagnosisCount,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		if ri.RiskScore != rj.RiskScore {
			return ri.RiskScore > rj.RiskScore
		}
		if ri.LastName != rj.LastName {
			return ri.LastName < rj.LastName
		}
		return ri.PatientID.String() < rj.PatientID.String()
	})

	s.recordView(ctx, "high_risk", len(results))
	return results, nil
}

func (s *SurveillanceService) recordView(ctx context.Context, view string, rows int) {
	if s.metrics == nil {
		return
	}
	observability.RecordViewMetric(ctx, s.metrics, view, rows)
}
