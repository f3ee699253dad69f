package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// Hand-written repository fakes. Each method delegates to an optional
// function field; unset getters report not found, unset writers succeed.

type fakePatientRepo struct {
	CreateFn            func(ctx context.Context, patient *entities.Patient) error
	GetByIDFn           func(ctx context.Context, id uuid.UUID) (*entities.Patient, error)
	GetByMRNFn          func(ctx context.Context, mrn string) (*entities.Patient, error)
	UpdateFn            func(ctx context.Context, patient *entities.Patient) error
	DeleteFn            func(ctx context.Context, id uuid.UUID) error
	ListFn              func(ctx context.Context, limit, offset int) ([]*entities.Patient, error)
	SearchFn            func(ctx context.Context, query repositories.PatientQuery) ([]*entities.Patient, error)
	AddAddressFn        func(ctx context.Context, address *entities.PatientAddress) error
	ListAddressesFn     func(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientAddress, error)
	GetPrimaryAddressFn func(ctx context.Context, patientID uuid.UUID) (*entities.PatientAddress, error)
	AddContactInfoFn    func(ctx context.Context, contact *entities.PatientContactInfo) error
	ListContactInfoFn   func(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientContactInfo, error)

	created []*entities.Patient
	updated []*entities.Patient
}

func (f *fakePatientRepo) Create(ctx context.Context, patient *entities.Patient) error {
	f.created = append(f.created, patient)
	if f.CreateFn != nil {
		return f.CreateFn(ctx, patient)
	}
	return nil
}

func (f *fakePatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Patient, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (f *fakePatientRepo) GetByMRN(ctx context.Context, mrn string) (*entities.Patient, error) {
	if f.GetByMRNFn != nil {
		return f.GetByMRNFn(ctx, mrn)
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (f *fakePatientRepo) Update(ctx context.Context, patient *entities.Patient) error {
	f.updated = append(f.updated, patient)
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, patient)
	}
	return nil
}

func (f *fakePatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *fakePatientRepo) List(ctx context.Context, limit, offset int) ([]*entities.Patient, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, limit, offset)
	}
	return nil, nil
}

func (f *fakePatientRepo) Search(ctx context.Context, query repositories.PatientQuery) ([]*entities.Patient, error) {
	if f.SearchFn != nil {
		return f.SearchFn(ctx, query)
	}
	return nil, nil
}

func (f *fakePatientRepo) AddAddress(ctx context.Context, address *entities.PatientAddress) error {
	if f.AddAddressFn != nil {
		return f.AddAddressFn(ctx, address)
	}
	return nil
}

func (f *fakePatientRepo) ListAddresses(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientAddress, error) {
	if f.ListAddressesFn != nil {
		return f.ListAddressesFn(ctx, patientID)
	}
	return nil, nil
}

func (f *fakePatientRepo) GetPrimaryAddress(ctx context.Context, patientID uuid.UUID) (*entities.PatientAddress, error) {
	if f.GetPrimaryAddressFn != nil {
		return f.GetPrimaryAddressFn(ctx, patientID)
	}
	return nil, apperrors.NewNotFoundError("primary address not found")
}

func (f *fakePatientRepo) AddContactInfo(ctx context.Context, contact *entities.PatientContactInfo) error {
	if f.AddContactInfoFn != nil {
		return f.AddContactInfoFn(ctx, contact)
	}
	return nil
}

func (f *fakePatientRepo) ListContactInfo(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientContactInfo, error) {
	if f.ListContactInfoFn != nil {
		return f.ListContactInfoFn(ctx, patientID)
	}
	return nil, nil
}

// patientExists wires GetByIDFn to accept the given IDs.
func patientExists(ids ...uuid.UUID) func(ctx context.Context, id uuid.UUID) (*entities.Patient, error) {
	return func(_ context.Context, id uuid.UUID) (*entities.Patient, error) {
		for _, known := range ids {
			if id == known {
				return &entities.Patient{ID: id, MRN: "MRN-1", FirstName: "Ada", LastName: "Obi",
					DateOfBirth: time.Date(1980, 3, 14, 0, 0, 0, 0, time.UTC)}, nil
			}
		}
		return nil, apperrors.NewNotFoundError("patient not found")
	}
}

type fakeEncounterRepo struct {
	CreateFn    func(ctx context.Context, encounter *entities.Encounter) error
	GetByIDFn   func(ctx context.Context, id uuid.UUID) (*entities.Encounter, error)
	DischargeFn func(ctx context.Context, id uuid.UUID, dischargeDate time.Time, isActive bool) error

	created []*entities.Encounter
}

func (f *fakeEncounterRepo) Create(ctx context.Context, encounter *entities.Encounter) error {
	f.created = append(f.created, encounter)
	if f.CreateFn != nil {
		return f.CreateFn(ctx, encounter)
	}
	return nil
}

func (f *fakeEncounterRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Encounter, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("encounter not found")
}

func (f *fakeEncounterRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Encounter, error) {
	return nil, nil
}

func (f *fakeEncounterRepo) Discharge(ctx context.Context, id uuid.UUID, dischargeDate time.Time, isActive bool) error {
	if f.DischargeFn != nil {
		return f.DischargeFn(ctx, id, dischargeDate, isActive)
	}
	return nil
}

type fakeDiagnosisRepo struct {
	CreateFn       func(ctx context.Context, diagnosis *entities.Diagnosis) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*entities.Diagnosis, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, version int, status entities.DiagnosisStatus, resolvedDate *time.Time) error

	created []*entities.Diagnosis
}

func (f *fakeDiagnosisRepo) Create(ctx context.Context, diagnosis *entities.Diagnosis) error {
	f.created = append(f.created, diagnosis)
	if f.CreateFn != nil {
		return f.CreateFn(ctx, diagnosis)
	}
	return nil
}

func (f *fakeDiagnosisRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Diagnosis, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("diagnosis not found")
}

func (f *fakeDiagnosisRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Diagnosis, error) {
	return nil, nil
}

func (f *fakeDiagnosisRepo) UpdateStatus(ctx context.Context, id uuid.UUID, version int, status entities.DiagnosisStatus, resolvedDate *time.Time) error {
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(ctx, id, version, status, resolvedDate)
	}
	return nil
}

type fakeRiskFactorRepo struct {
	CreateFn func(ctx context.Context, factor *entities.RiskFactor) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*entities.RiskFactor, error)
	EndFn    func(ctx context.Context, id uuid.UUID, endDate time.Time, isCurrent bool) error

	created []*entities.RiskFactor
}

func (f *fakeRiskFactorRepo) Create(ctx context.Context, factor *entities.RiskFactor) error {
	f.created = append(f.created, factor)
	if f.CreateFn != nil {
		return f.CreateFn(ctx, factor)
	}
	return nil
}

func (f *fakeRiskFactorRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.RiskFactor, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("risk factor not found")
}

func (f *fakeRiskFactorRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.RiskFactor, error) {
	return nil, nil
}

func (f *fakeRiskFactorRepo) End(ctx context.Context, id uuid.UUID, endDate time.Time, isCurrent bool) error {
	if f.EndFn != nil {
		return f.EndFn(ctx, id, endDate, isCurrent)
	}
	return nil
}

func (f *fakeRiskFactorRepo) CreateSocialDeterminant(ctx context.Context, det *entities.SocialDeterminant) error {
	return nil
}

func (f *fakeRiskFactorRepo) ListSocialDeterminants(ctx context.Context, patientID uuid.UUID) ([]*entities.SocialDeterminant, error) {
	return nil, nil
}

func (f *fakeRiskFactorRepo) ResolveSocialDeterminant(ctx context.Context, id uuid.UUID, resolutionDate time.Time, isCurrent bool) error {
	return nil
}

type fakeMedicationRepo struct {
	CreateFn  func(ctx context.Context, medication *entities.Medication) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*entities.Medication, error)
	EndFn     func(ctx context.Context, id uuid.UUID, endDate time.Time, isActive bool) error

	created   []*entities.Medication
	allergies []*entities.Allergy
}

func (f *fakeMedicationRepo) Create(ctx context.Context, medication *entities.Medication) error {
	f.created = append(f.created, medication)
	if f.CreateFn != nil {
		return f.CreateFn(ctx, medication)
	}
	return nil
}

func (f *fakeMedicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Medication, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("medication not found")
}

func (f *fakeMedicationRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Medication, error) {
	return nil, nil
}

func (f *fakeMedicationRepo) End(ctx context.Context, id uuid.UUID, endDate time.Time, isActive bool) error {
	if f.EndFn != nil {
		return f.EndFn(ctx, id, endDate, isActive)
	}
	return nil
}

func (f *fakeMedicationRepo) CreateAllergy(ctx context.Context, allergy *entities.Allergy) error {
	f.allergies = append(f.allergies, allergy)
	return nil
}

func (f *fakeMedicationRepo) ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*entities.Allergy, error) {
	return nil, nil
}

type fakeLabRepo struct {
	CreateOrderFn       func(ctx context.Context, order *entities.LabOrder) error
	GetOrderByIDFn      func(ctx context.Context, id uuid.UUID) (*entities.LabOrder, error)
	UpdateOrderStatusFn func(ctx context.Context, id uuid.UUID, version int, status entities.LabOrderStatus) error
	CreateResultFn      func(ctx context.Context, result *entities.LabResult) error

	orders  []*entities.LabOrder
	results []*entities.LabResult
}

func (f *fakeLabRepo) CreateOrder(ctx context.Context, order *entities.LabOrder) error {
	f.orders = append(f.orders, order)
	if f.CreateOrderFn != nil {
		return f.CreateOrderFn(ctx, order)
	}
	return nil
}

func (f *fakeLabRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*entities.LabOrder, error) {
	if f.GetOrderByIDFn != nil {
		return f.GetOrderByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("lab order not found")
}

func (f *fakeLabRepo) ListOrdersByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.LabOrder, error) {
	return nil, nil
}

func (f *fakeLabRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, version int, status entities.LabOrderStatus) error {
	if f.UpdateOrderStatusFn != nil {
		return f.UpdateOrderStatusFn(ctx, id, version, status)
	}
	return nil
}

func (f *fakeLabRepo) CreateResult(ctx context.Context, result *entities.LabResult) error {
	f.results = append(f.results, result)
	if f.CreateResultFn != nil {
		return f.CreateResultFn(ctx, result)
	}
	return nil
}

func (f *fakeLabRepo) ListResultsByOrder(ctx context.Context, orderID uuid.UUID) ([]*entities.LabResult, error) {
	return nil, nil
}

type fakeObservationRepo struct {
	vitals        []*entities.VitalSigns
	immunizations []*entities.Immunization
	histories     []*entities.FamilyHistory
}

func (f *fakeObservationRepo) CreateVitalSigns(ctx context.Context, vitals *entities.VitalSigns) error {
	f.vitals = append(f.vitals, vitals)
	return nil
}

func (f *fakeObservationRepo) ListVitalSigns(ctx context.Context, patientID uuid.UUID) ([]*entities.VitalSigns, error) {
	return nil, nil
}

func (f *fakeObservationRepo) CreateImmunization(ctx context.Context, immunization *entities.Immunization) error {
	f.immunizations = append(f.immunizations, immunization)
	return nil
}

func (f *fakeObservationRepo) ListImmunizations(ctx context.Context, patientID uuid.UUID) ([]*entities.Immunization, error) {
	return nil, nil
}

func (f *fakeObservationRepo) CreateFamilyHistory(ctx context.Context, history *entities.FamilyHistory) error {
	f.histories = append(f.histories, history)
	return nil
}

func (f *fakeObservationRepo) ListFamilyHistory(ctx context.Context, patientID uuid.UUID) ([]*entities.FamilyHistory, error) {
	return nil, nil
}

// fakeCatalogRepo knows a fixed set of catalog IDs; everything else is not
// found.
type fakeCatalogRepo struct {
	icdCodes map[uuid.UUID]*entities.ICDCode
	labTests map[uuid.UUID]*entities.LabTest
	drugs    map[uuid.UUID]*entities.Drug
	vaccines map[uuid.UUID]*entities.Vaccine
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		icdCodes: make(map[uuid.UUID]*entities.ICDCode),
		labTests: make(map[uuid.UUID]*entities.LabTest),
		drugs:    make(map[uuid.UUID]*entities.Drug),
		vaccines: make(map[uuid.UUID]*entities.Vaccine),
	}
}

func (f *fakeCatalogRepo) CreateICDCode(ctx context.Context, code *entities.ICDCode) error {
	f.icdCodes[code.ID] = code
	return nil
}

func (f *fakeCatalogRepo) GetICDCodeByID(ctx context.Context, id uuid.UUID) (*entities.ICDCode, error) {
	if code, ok := f.icdCodes[id]; ok {
		return code, nil
	}
	return nil, apperrors.NewNotFoundError("icd code not found")
}

func (f *fakeCatalogRepo) GetICDCodeByCode(ctx context.Context, code string) (*entities.ICDCode, error) {
	for _, c := range f.icdCodes {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, apperrors.NewNotFoundError("icd code not found")
}

func (f *fakeCatalogRepo) ListICDCodes(ctx context.Context, limit, offset int) ([]*entities.ICDCode, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) CreateLabTest(ctx context.Context, test *entities.LabTest) error {
	f.labTests[test.ID] = test
	return nil
}

func (f *fakeCatalogRepo) GetLabTestByID(ctx context.Context, id uuid.UUID) (*entities.LabTest, error) {
	if test, ok := f.labTests[id]; ok {
		return test, nil
	}
	return nil, apperrors.NewNotFoundError("lab test not found")
}

func (f *fakeCatalogRepo) GetLabTestByLoinc(ctx context.Context, loincCode string) (*entities.LabTest, error) {
	return nil, apperrors.NewNotFoundError("lab test not found")
}

func (f *fakeCatalogRepo) CreateDrug(ctx context.Context, drug *entities.Drug) error {
	f.drugs[drug.ID] = drug
	return nil
}

func (f *fakeCatalogRepo) GetDrugByID(ctx context.Context, id uuid.UUID) (*entities.Drug, error) {
	if drug, ok := f.drugs[id]; ok {
		return drug, nil
	}
	return nil, apperrors.NewNotFoundError("drug not found")
}

func (f *fakeCatalogRepo) GetDrugByNDC(ctx context.Context, ndcCode string) (*entities.Drug, error) {
	return nil, apperrors.NewNotFoundError("drug not found")
}

func (f *fakeCatalogRepo) CreateVaccine(ctx context.Context, vaccine *entities.Vaccine) error {
	f.vaccines[vaccine.ID] = vaccine
	return nil
}

func (f *fakeCatalogRepo) GetVaccineByID(ctx context.Context, id uuid.UUID) (*entities.Vaccine, error) {
	if vaccine, ok := f.vaccines[id]; ok {
		return vaccine, nil
	}
	return nil, apperrors.NewNotFoundError("vaccine not found")
}

func (f *fakeCatalogRepo) GetVaccineByCVX(ctx context.Context, cvxCode string) (*entities.Vaccine, error) {
	return nil, apperrors.NewNotFoundError("vaccine not found")
}

type fakeCohortRepo struct {
	GetCohortFn            func(ctx context.Context, id uuid.UUID) (*entities.Cohort, error)
	GetActiveMembershipFn  func(ctx context.Context, cohortID, patientID uuid.UUID) (*entities.CohortMembership, error)
	InsertMembershipFn     func(ctx context.Context, membership *entities.CohortMembership) error
	DeactivateMembershipFn func(ctx context.Context, id uuid.UUID, removedBy string, removedDate time.Time) error

	cohorts  []*entities.Cohort
	inserted []*entities.CohortMembership
}

func (f *fakeCohortRepo) CreateCohort(ctx context.Context, cohort *entities.Cohort) error {
	f.cohorts = append(f.cohorts, cohort)
	return nil
}

func (f *fakeCohortRepo) GetCohort(ctx context.Context, id uuid.UUID) (*entities.Cohort, error) {
	if f.GetCohortFn != nil {
		return f.GetCohortFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("cohort not found")
}

func (f *fakeCohortRepo) ListCohorts(ctx context.Context, limit, offset int) ([]*entities.Cohort, error) {
	return nil, nil
}

func (f *fakeCohortRepo) GetActiveMembership(ctx context.Context, cohortID, patientID uuid.UUID) (*entities.CohortMembership, error) {
	if f.GetActiveMembershipFn != nil {
		return f.GetActiveMembershipFn(ctx, cohortID, patientID)
	}
	return nil, apperrors.NewNotFoundError("membership not found")
}

func (f *fakeCohortRepo) InsertMembership(ctx context.Context, membership *entities.CohortMembership) error {
	f.inserted = append(f.inserted, membership)
	if f.InsertMembershipFn != nil {
		return f.InsertMembershipFn(ctx, membership)
	}
	return nil
}

func (f *fakeCohortRepo) DeactivateMembership(ctx context.Context, id uuid.UUID, removedBy string, removedDate time.Time) error {
	if f.DeactivateMembershipFn != nil {
		return f.DeactivateMembershipFn(ctx, id, removedBy, removedDate)
	}
	return nil
}

func (f *fakeCohortRepo) ListMemberships(ctx context.Context, cohortID uuid.UUID) ([]*entities.CohortMembership, error) {
	return nil, nil
}

func (f *fakeCohortRepo) ListActivePatientIDs(ctx context.Context, cohortID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeRegionRepo struct {
	CreateFn       func(ctx context.Context, region *entities.Region) error
	ListAllFn      func(ctx context.Context) ([]*entities.Region, error)
	UpdateParentFn func(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
}

func (f *fakeRegionRepo) Create(ctx context.Context, region *entities.Region) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, region)
	}
	return nil
}

func (f *fakeRegionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Region, error) {
	return nil, apperrors.NewNotFoundError("region not found")
}

func (f *fakeRegionRepo) ListAll(ctx context.Context) ([]*entities.Region, error) {
	if f.ListAllFn != nil {
		return f.ListAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeRegionRepo) UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	if f.UpdateParentFn != nil {
		return f.UpdateParentFn(ctx, id, parentID)
	}
	return nil
}

type fakeSurveillanceRepo struct {
	exposureRows   []repositories.RiskFactorExposureRow
	prevalenceRows []repositories.DiagnosisPrevalenceRow
	locationRows   []repositories.DiagnosisLocationRow
	highRiskRows   []repositories.HighRiskRow

	lastCohortID *uuid.UUID
}

func (f *fakeSurveillanceRepo) RiskFactorExposure(ctx context.Context, cohortID *uuid.UUID) ([]repositories.RiskFactorExposureRow, error) {
	f.lastCohortID = cohortID
	return f.exposureRows, nil
}

func (f *fakeSurveillanceRepo) DiagnosisPrevalence(ctx context.Context, cohortID *uuid.UUID) ([]repositories.DiagnosisPrevalenceRow, error) {
	f.lastCohortID = cohortID
	return f.prevalenceRows, nil
}

func (f *fakeSurveillanceRepo) DiagnosisLocations(ctx context.Context, cohortID *uuid.UUID) ([]repositories.DiagnosisLocationRow, error) {
	f.lastCohortID = cohortID
	return f.locationRows, nil
}

func (f *fakeSurveillanceRepo) HighRiskComposite(ctx context.Context, cohortID *uuid.UUID) ([]repositories.HighRiskRow, error) {
	f.lastCohortID = cohortID
	return f.highRiskRows, nil
}

// fakeEventBus records published notices per channel.
type fakeEventBus struct {
	mu       sync.Mutex
	notices  map[string][]*entities.LedgerNotice
	failWith error
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{notices: make(map[string][]*entities.LedgerNotice)}
}

func (f *fakeEventBus) Publish(ctx context.Context, channel string, notice *entities.LedgerNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.notices[channel] = append(f.notices[channel], notice)
	return nil
}

func (f *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LedgerNotice, error) {
	ch := make(chan *entities.LedgerNotice)
	close(ch)
	return ch, nil
}

func (f *fakeEventBus) Close() error { return nil }

func (f *fakeEventBus) published(channel string) []*entities.LedgerNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notices[channel]
}

type fakeSearchIndex struct {
	IndexFn  func(ctx context.Context, patient *entities.Patient) error
	SearchFn func(ctx context.Context, params providers.PatientSearchParams) ([]*entities.Patient, error)

	indexed []*entities.Patient
	deleted []string
}

func (f *fakeSearchIndex) Index(ctx context.Context, patient *entities.Patient) error {
	f.indexed = append(f.indexed, patient)
	if f.IndexFn != nil {
		return f.IndexFn(ctx, patient)
	}
	return nil
}

func (f *fakeSearchIndex) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearchIndex) Search(ctx context.Context, params providers.PatientSearchParams) ([]*entities.Patient, error) {
	if f.SearchFn != nil {
		return f.SearchFn(ctx, params)
	}
	return nil, nil
}
