package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// LedgerService records clinical events against the patient registry and
// owns the derivations callers must not set directly: the current/active
// flag of interval events and every status machine transition. Events are
// immutable once recorded except for those transitions.
//
// No cross-entity temporal check ties event dates to the patient's birth
// date; the source system is permissive there and the ledger preserves
// that.
type LedgerService struct {
	patients     repositories.PatientRepository
	encounters   repositories.EncounterRepository
	diagnoses    repositories.DiagnosisRepository
	riskFactors  repositories.RiskFactorRepository
	medications  repositories.MedicationRepository
	labs         repositories.LabRepository
	observations repositories.ObservationRepository
	catalog      repositories.CatalogRepository
	bus          providers.EventBus
	now          func() time.Time
}

// NewLedgerService creates a new clinical event ledger. The event bus may
// be nil; notices are best-effort.
func NewLedgerService(
	patients repositories.PatientRepository,
	encounters repositories.EncounterRepository,
	diagnoses repositories.DiagnosisRepository,
	riskFactors repositories.RiskFactorRepository,
	medications repositories.MedicationRepository,
	labs repositories.LabRepository,
	observations repositories.ObservationRepository,
	catalog repositories.CatalogRepository,
	bus providers.EventBus,
) *LedgerService {
	return &LedgerService{
		patients:     patients,
		encounters:   encounters,
		diagnoses:    diagnoses,
		riskFactors:  riskFactors,
		medications:  medications,
		labs:         labs,
		observations: observations,
		catalog:      catalog,
		bus:          bus,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// currentFlag derives the is_current/is_active value from an end date. An
// event with a past end date must never stay marked current.
func (s *LedgerService) currentFlag(end *time.Time) bool {
	return end == nil || end.After(s.now())
}

func (s *LedgerService) requirePatient(ctx context.Context, patientID uuid.UUID) error {
	_, err := s.patients.GetByID(ctx, patientID)
	return err
}

func checkInterval(start time.Time, end *time.Time, what string) error {
	if end != nil && end.Before(start) {
		return apperrors.NewTemporalOrderError(what + " end date cannot precede start date")
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, kind entities.ClinicalEventKind, action string, patientID, eventID uuid.UUID, channel string) {
	if s.bus == nil {
		return
	}
	notice := &entities.LedgerNotice{
		ID:        uuid.New(),
		Kind:      kind,
		Action:    action,
		PatientID: patientID,
		EventID:   eventID,
		Timestamp: s.now(),
	}
	for _, ch := range []string{providers.ChannelLedgerAll, channel} {
		if ch == "" {
			continue
		}
		if err := s.bus.Publish(ctx, ch, notice); err != nil {
			log.Warn().Err(err).Str("channel", ch).Msg("failed to publish ledger notice")
		}
	}
}

// RecordEncounter records a patient visit
func (s *LedgerService) RecordEncounter(ctx context.Context, enc *entities.Encounter) error {
	if err := s.requirePatient(ctx, enc.PatientID); err != nil {
		return err
	}
	if err := checkInterval(enc.AdmissionDate, enc.DischargeDate, "encounter"); err != nil {
		return err
	}

	enc.ID = newID(enc.ID)
	enc.IsActive = s.currentFlag(enc.DischargeDate)
	enc.CreatedAt = s.now()

	if err := s.encounters.Create(ctx, enc); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindEncounter, "recorded", enc.PatientID, enc.ID, "")
	return nil
}

// DischargeEncounter closes an encounter, recomputing its active flag in
// the same update
func (s *LedgerService) DischargeEncounter(ctx context.Context, id uuid.UUID, dischargeDate time.Time) error {
	enc, err := s.encounters.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if dischargeDate.Before(enc.AdmissionDate) {
		return apperrors.NewTemporalOrderError("discharge date cannot precede admission date")
	}
	return s.encounters.Discharge(ctx, id, dischargeDate, dischargeDate.After(s.now()))
}

// RecordDiagnosis records a diagnosis against the ICD catalog
func (s *LedgerService) RecordDiagnosis(ctx context.Context, d *entities.Diagnosis) error {
	if err := s.requirePatient(ctx, d.PatientID); err != nil {
		return err
	}
	if _, err := s.catalog.GetICDCodeByID(ctx, d.ICDCodeID); err != nil {
		return err
	}
	if d.Status == "" {
		d.Status = entities.DiagnosisStatusActive
	}
	if !d.Status.Valid() {
		return apperrors.NewValidationError("unknown diagnosis status: " + string(d.Status))
	}
	if d.ResolvedDate != nil && d.ResolvedDate.Before(d.DiagnosisDate) {
		return apperrors.NewTemporalOrderError("resolved date cannot precede diagnosis date")
	}
	if d.ResolvedDate != nil && d.Status != entities.DiagnosisStatusResolved {
		return apperrors.NewTemporalOrderError("resolved date requires RESOLVED status")
	}

	d.ID = newID(d.ID)
	d.Version = 1
	d.CreatedAt = s.now()

	if err := s.diagnoses.Create(ctx, d); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindDiagnosis, "recorded", d.PatientID, d.ID, providers.ChannelDiagnoses)
	return nil
}

// TransitionDiagnosis applies a forward status transition under optimistic
// concurrency. Losing the version race surfaces a concurrent modification
// error; callers may retry after re-reading.
func (s *LedgerService) TransitionDiagnosis(ctx context.Context, id uuid.UUID, next entities.DiagnosisStatus) error {
	d, err := s.diagnoses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.Status.CanTransitionTo(next) {
		return apperrors.NewInvalidTransitionError(
			"diagnosis cannot move from " + string(d.Status) + " to " + string(next))
	}

	var resolvedDate *time.Time
	if next == entities.DiagnosisStatusResolved {
		now := s.now()
		resolvedDate = &now
	}
	if err := s.diagnoses.UpdateStatus(ctx, id, d.Version, next, resolvedDate); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindDiagnosis, "transitioned", d.PatientID, d.ID, providers.ChannelDiagnoses)
	return nil
}

// RecordRiskFactor records a risk factor; the current flag is derived from
// the end date
func (s *LedgerService) RecordRiskFactor(ctx context.Context, rf *entities.RiskFactor) error {
	if err := s.requirePatient(ctx, rf.PatientID); err != nil {
		return err
	}
	if rf.FactorName == "" || rf.FactorType == "" {
		return apperrors.NewValidationError("factor name and type are required")
	}
	if rf.OnsetDate != nil {
		if err := checkInterval(*rf.OnsetDate, rf.EndDate, "risk factor"); err != nil {
			return err
		}
	}

	rf.ID = newID(rf.ID)
	rf.IsCurrent = s.currentFlag(rf.EndDate)
	rf.CreatedAt = s.now()

	if err := s.riskFactors.Create(ctx, rf); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindRiskFactor, "recorded", rf.PatientID, rf.ID, "")
	return nil
}

// EndRiskFactor sets the end date and recomputes the current flag in one
// update
func (s *LedgerService) EndRiskFactor(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	rf, err := s.riskFactors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rf.OnsetDate != nil && endDate.Before(*rf.OnsetDate) {
		return apperrors.NewTemporalOrderError("risk factor end date cannot precede onset date")
	}
	return s.riskFactors.End(ctx, id, endDate, endDate.After(s.now()))
}

// RecordSocialDeterminant records a social determinant of health
func (s *LedgerService) RecordSocialDeterminant(ctx context.Context, det *entities.SocialDeterminant) error {
	if err := s.requirePatient(ctx, det.PatientID); err != nil {
		return err
	}
	if det.Category == "" {
		return apperrors.NewValidationError("social determinant category is required")
	}
	if err := checkInterval(det.IdentifiedDate, det.ResolutionDate, "social determinant"); err != nil {
		return err
	}

	det.ID = newID(det.ID)
	det.IsCurrent = s.currentFlag(det.ResolutionDate)
	det.CreatedAt = s.now()

	if err := s.riskFactors.CreateSocialDeterminant(ctx, det); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindSocialDeterminant, "recorded", det.PatientID, det.ID, "")
	return nil
}

// ResolveSocialDeterminant closes a social determinant
func (s *LedgerService) ResolveSocialDeterminant(ctx context.Context, id uuid.UUID, resolutionDate time.Time) error {
	return s.riskFactors.ResolveSocialDeterminant(ctx, id, resolutionDate, resolutionDate.After(s.now()))
}

// RecordMedication records a prescription interval for a catalog drug
func (s *LedgerService) RecordMedication(ctx context.Context, m *entities.Medication) error {
	if err := s.requirePatient(ctx, m.PatientID); err != nil {
		return err
	}
	if _, err := s.catalog.GetDrugByID(ctx, m.DrugID); err != nil {
		return err
	}
	if err := checkInterval(m.StartDate, m.EndDate, "medication"); err != nil {
		return err
	}

	m.ID = newID(m.ID)
	m.IsActive = s.currentFlag(m.EndDate)
	m.CreatedAt = s.now()

	if err := s.medications.Create(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindMedication, "recorded", m.PatientID, m.ID, "")
	return nil
}

// EndMedication sets the medication end date and recomputes the active flag
func (s *LedgerService) EndMedication(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	m, err := s.medications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if endDate.Before(m.StartDate) {
		return apperrors.NewTemporalOrderError("medication end date cannot precede start date")
	}
	return s.medications.End(ctx, id, endDate, endDate.After(s.now()))
}

// RecordAllergy records a patient allergy
func (s *LedgerService) RecordAllergy(ctx context.Context, a *entities.Allergy) error {
	if err := s.requirePatient(ctx, a.PatientID); err != nil {
		return err
	}
	if a.Allergen == "" || a.AllergyType == "" {
		return apperrors.NewValidationError("allergen and allergy type are required")
	}
	if a.OnsetDate != nil {
		if err := checkInterval(*a.OnsetDate, a.ResolvedDate, "allergy"); err != nil {
			return err
		}
	}

	a.ID = newID(a.ID)
	a.IsCurrent = s.currentFlag(a.ResolvedDate)
	a.CreatedAt = s.now()

	if err := s.medications.CreateAllergy(ctx, a); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindAllergy, "recorded", a.PatientID, a.ID, "")
	return nil
}

// OrderLab opens a lab order in ORDERED state
func (s *LedgerService) OrderLab(ctx context.Context, order *entities.LabOrder) error {
	if err := s.requirePatient(ctx, order.PatientID); err != nil {
		return err
	}
	if _, err := s.catalog.GetLabTestByID(ctx, order.LabTestID); err != nil {
		return err
	}

	order.ID = newID(order.ID)
	order.Status = entities.LabOrderStatusOrdered
	order.Version = 1
	if order.OrderedAt.IsZero() {
		order.OrderedAt = s.now()
	}
	order.CreatedAt = s.now()

	if err := s.labs.CreateOrder(ctx, order); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindLabOrder, "recorded", order.PatientID, order.ID, providers.ChannelLabOrders)
	return nil
}

// TransitionLabOrder applies a workflow transition under optimistic
// concurrency
func (s *LedgerService) TransitionLabOrder(ctx context.Context, id uuid.UUID, next entities.LabOrderStatus) error {
	order, err := s.labs.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(next) {
		return apperrors.NewInvalidTransitionError(
			"lab order cannot move from " + string(order.Status) + " to " + string(next))
	}
	if err := s.labs.UpdateOrderStatus(ctx, id, order.Version, next); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindLabOrder, "transitioned", order.PatientID, order.ID, providers.ChannelLabOrders)
	return nil
}

// RecordLabResult attaches a result to an existing order
func (s *LedgerService) RecordLabResult(ctx context.Context, result *entities.LabResult) error {
	order, err := s.labs.GetOrderByID(ctx, result.LabOrderID)
	if err != nil {
		return err
	}

	result.ID = newID(result.ID)
	if result.ResultedAt.IsZero() {
		result.ResultedAt = s.now()
	}

	if err := s.labs.CreateResult(ctx, result); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindLabResult, "recorded", order.PatientID, result.ID, providers.ChannelLabOrders)
	return nil
}

// RecordVitalSigns records a vitals measurement
func (s *LedgerService) RecordVitalSigns(ctx context.Context, vitals *entities.VitalSigns) error {
	if err := s.requirePatient(ctx, vitals.PatientID); err != nil {
		return err
	}
	vitals.ID = newID(vitals.ID)
	if vitals.MeasuredAt.IsZero() {
		vitals.MeasuredAt = s.now()
	}
	if err := s.observations.CreateVitalSigns(ctx, vitals); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindVitalSigns, "recorded", vitals.PatientID, vitals.ID, "")
	return nil
}

// RecordImmunization records administration of a catalog vaccine
func (s *LedgerService) RecordImmunization(ctx context.Context, imm *entities.Immunization) error {
	if err := s.requirePatient(ctx, imm.PatientID); err != nil {
		return err
	}
	if _, err := s.catalog.GetVaccineByID(ctx, imm.VaccineID); err != nil {
		return err
	}
	imm.ID = newID(imm.ID)
	if imm.AdministeredAt.IsZero() {
		imm.AdministeredAt = s.now()
	}
	imm.CreatedAt = s.now()
	if err := s.observations.CreateImmunization(ctx, imm); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindImmunization, "recorded", imm.PatientID, imm.ID, "")
	return nil
}

// RecordFamilyHistory records a family history entry
func (s *LedgerService) RecordFamilyHistory(ctx context.Context, fh *entities.FamilyHistory) error {
	if err := s.requirePatient(ctx, fh.PatientID); err != nil {
		return err
	}
	if fh.Relationship == "" || fh.Condition == "" {
		return apperrors.NewValidationError("relationship and condition are required")
	}
	fh.ID = newID(fh.ID)
	fh.CreatedAt = s.now()
	if err := s.observations.CreateFamilyHistory(ctx, fh); err != nil {
		return err
	}
	s.publish(ctx, entities.EventKindFamilyHistory, "recorded", fh.PatientID, fh.ID, "")
	return nil
}

// Timeline reads. Each verifies the patient exists so a missing patient
// surfaces as not found rather than an empty list.

func (s *LedgerService) PatientEncounters(ctx context.Context, patientID uuid.UUID) ([]*entities.Encounter, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.encounters.ListByPatient(ctx, patientID)
}

func (s *LedgerService) PatientDiagnoses(ctx context.Context, patientID uuid.UUID) ([]*entities.Diagnosis, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.diagnoses.ListByPatient(ctx, patientID)
}

func (s *LedgerService) PatientRiskFactors(ctx context.Context, patientID uuid.UUID) ([]*entities.RiskFactor, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.riskFactors.ListByPatient(ctx, patientID)
}

func (s *LedgerService) PatientSocialDeterminants(ctx context.Context, patientID uuid.UUID) ([]*entities.SocialDeterminant, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.riskFactors.ListSocialDeterminants(ctx, patientID)
}

func (s *LedgerService) PatientMedications(ctx context.Context, patientID uuid.UUID) ([]*entities.Medication, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.medications.ListByPatient(ctx, patientID)
}

func (s *LedgerService) PatientAllergies(ctx context.Context, patientID uuid.UUID) ([]*entities.Allergy, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.medications.ListAllergies(ctx, patientID)
}

func (s *LedgerService) PatientLabOrders(ctx context.Context, patientID uuid.UUID) ([]*entities.LabOrder, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.labs.ListOrdersByPatient(ctx, patientID)
}

func (s *LedgerService) LabOrderResults(ctx context.Context, orderID uuid.UUID) ([]*entities.LabResult, error) {
	if _, err := s.labs.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.labs.ListResultsByOrder(ctx, orderID)
}

func (s *LedgerService) PatientVitalSigns(ctx context.Context, patientID uuid.UUID) ([]*entities.VitalSigns, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.observations.ListVitalSigns(ctx, patientID)
}

func (s *LedgerService) PatientImmunizations(ctx context.Context, patientID uuid.UUID) ([]*entities.Immunization, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.observations.ListImmunizations(ctx, patientID)
}

func (s *LedgerService) PatientFamilyHistory(ctx context.Context, patientID uuid.UUID) ([]*entities.FamilyHistory, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.observations.ListFamilyHistory(ctx, patientID)
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
