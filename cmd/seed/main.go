package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/epiwatch/surveillance/internal/adapters/database"
	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/geo"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	"github.com/epiwatch/surveillance/internal/infrastructure/observability"
	"github.com/epiwatch/surveillance/pkg/config"
)

// Seeds a development database with a small but internally consistent
// data set. Everything goes through the service layer so the fixtures
// pass the same validation and state machines as API traffic.
func main() {
	var cohortName string
	flag.StringVar(&cohortName, "cohort", "Respiratory Outbreak Watch", "Name of the seeded cohort")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("surveillance-seed", cfg.Env)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	patientAdapter := database.NewPatientAdapter(pgClient)
	providerAdapter := database.NewProviderAdapter(pgClient)
	catalogAdapter := database.NewCatalogAdapter(pgClient)
	encounterAdapter := database.NewEncounterAdapter(pgClient)
	diagnosisAdapter := database.NewDiagnosisAdapter(pgClient)
	riskFactorAdapter := database.NewRiskFactorAdapter(pgClient)
	medicationAdapter := database.NewMedicationAdapter(pgClient)
	labAdapter := database.NewLabAdapter(pgClient)
	observationAdapter := database.NewObservationAdapter(pgClient)
	regionAdapter := database.NewRegionAdapter(pgClient)
	cohortAdapter := database.NewCohortAdapter(pgClient)

	registry := services.NewRegistryService(patientAdapter, nil)
	ledger := services.NewLedgerService(
		patientAdapter,
		encounterAdapter,
		diagnosisAdapter,
		riskFactorAdapter,
		medicationAdapter,
		labAdapter,
		observationAdapter,
		catalogAdapter,
		nil,
	)
	cohorts := services.NewCohortService(cohortAdapter, patientAdapter, nil)
	regions := services.NewRegionIndexService(regionAdapter)
	directory := services.NewDirectoryService(providerAdapter)

	ctx := context.Background()

	if err := regions.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load region hierarchy")
	}

	s := &seeder{
		registry:  registry,
		ledger:    ledger,
		cohorts:   cohorts,
		regions:   regions,
		directory: directory,
		catalog:   catalogAdapter,
	}

	start := time.Now()
	if err := s.run(ctx, cohortName); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("seeding complete")
}

type seeder struct {
	registry  *services.RegistryService
	ledger    *services.LedgerService
	cohorts   *services.CohortService
	regions   *services.RegionIndexService
	directory *services.DirectoryService
	catalog   repositories.CatalogRepository

	icdFlu      *entities.ICDCode
	icdDengue   *entities.ICDCode
	icdDiabetes *entities.ICDCode
	testPCR     *entities.LabTest
	testHbA1c   *entities.LabTest
	drugOselt   *entities.Drug
	drugMetf    *entities.Drug
	vaccineFlu  *entities.Vaccine

	provider   *entities.Provider
	department *entities.Department
}

func (s *seeder) run(ctx context.Context, cohortName string) error {
	if err := s.seedCatalog(ctx); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := s.seedRegions(ctx); err != nil {
		return fmt.Errorf("regions: %w", err)
	}
	if err := s.seedDirectory(ctx); err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	patients, err := s.seedPatients(ctx)
	if err != nil {
		return fmt.Errorf("patients: %w", err)
	}
	if err := s.seedClinicalHistory(ctx, patients); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := s.seedCohort(ctx, cohortName, patients); err != nil {
		return fmt.Errorf("cohort: %w", err)
	}
	return nil
}

func (s *seeder) seedCatalog(ctx context.Context) error {
	s.icdFlu = &entities.ICDCode{
		ID: uuid.New(), Code: "J10.1", Description: "Influenza with other respiratory manifestations",
		ICDVersion: "ICD-10", Category: strptr("Respiratory"), IsBillable: true,
	}
	s.icdDengue = &entities.ICDCode{
		ID: uuid.New(), Code: "A90", Description: "Dengue fever",
		ICDVersion: "ICD-10", Category: strptr("Arboviral"), IsBillable: true,
	}
	s.icdDiabetes = &entities.ICDCode{
		ID: uuid.New(), Code: "E11.9", Description: "Type 2 diabetes mellitus without complications",
		ICDVersion: "ICD-10", Category: strptr("Endocrine"), IsBillable: true,
	}
	for _, code := range []*entities.ICDCode{s.icdFlu, s.icdDengue, s.icdDiabetes} {
		if err := s.catalog.CreateICDCode(ctx, code); err != nil {
			return err
		}
	}

	s.testPCR = &entities.LabTest{
		ID: uuid.New(), LoincCode: "92142-9", Name: "Influenza virus A RNA PCR",
		Specimen: strptr("Nasopharyngeal swab"),
	}
	s.testHbA1c = &entities.LabTest{
		ID: uuid.New(), LoincCode: "4548-4", Name: "Hemoglobin A1c",
		Specimen: strptr("Blood"), Units: strptr("%"),
	}
	for _, test := range []*entities.LabTest{s.testPCR, s.testHbA1c} {
		if err := s.catalog.CreateLabTest(ctx, test); err != nil {
			return err
		}
	}

	s.drugOselt = &entities.Drug{
		ID: uuid.New(), NDCCode: "0004-0800-85", Name: "Oseltamivir",
		Form: strptr("capsule"), Strength: strptr("75 mg"),
	}
	s.drugMetf = &entities.Drug{
		ID: uuid.New(), NDCCode: "0093-1048-01", Name: "Metformin",
		Form: strptr("tablet"), Strength: strptr("500 mg"),
	}
	for _, drug := range []*entities.Drug{s.drugOselt, s.drugMetf} {
		if err := s.catalog.CreateDrug(ctx, drug); err != nil {
			return err
		}
	}

	s.vaccineFlu = &entities.Vaccine{
		ID: uuid.New(), CVXCode: "140", Name: "Influenza, seasonal, injectable",
	}
	return s.catalog.CreateVaccine(ctx, s.vaccineFlu)
}

// seedRegions builds a three-level hierarchy: one state containing two
// counties, with a city inside the first county. Boundaries are simple
// rectangles chosen so the seeded patient addresses fall inside them.
func (s *seeder) seedRegions(ctx context.Context) error {
	state := &entities.Region{
		Name:       "Jefferson",
		RegionType: entities.RegionTypeState,
		Boundary:   rect(38.0, -87.0, 40.0, -84.0),
		Population: int64ptr(4_500_000),
	}
	if err := s.regions.AddRegion(ctx, state); err != nil {
		return err
	}

	countyNorth := &entities.Region{
		Name:       "Harlan County",
		RegionType: entities.RegionTypeCounty,
		ParentID:   &state.ID,
		Boundary:   rect(39.0, -87.0, 40.0, -84.0),
		Population: int64ptr(820_000),
	}
	countySouth := &entities.Region{
		Name:       "Mercer County",
		RegionType: entities.RegionTypeCounty,
		ParentID:   &state.ID,
		Boundary:   rect(38.0, -87.0, 39.0, -84.0),
		Population: int64ptr(610_000),
	}
	for _, county := range []*entities.Region{countyNorth, countySouth} {
		if err := s.regions.AddRegion(ctx, county); err != nil {
			return err
		}
	}

	city := &entities.Region{
		Name:       "Corbin",
		RegionType: entities.RegionTypeCity,
		ParentID:   &countyNorth.ID,
		Boundary:   rect(39.4, -86.2, 39.6, -85.8),
		Population: int64ptr(145_000),
	}
	return s.regions.AddRegion(ctx, city)
}

func (s *seeder) seedDirectory(ctx context.Context) error {
	s.department = &entities.Department{
		Name:     "Infectious Disease",
		Location: strptr("Building C, Floor 2"),
	}
	if err := s.directory.CreateDepartment(ctx, s.department); err != nil {
		return err
	}

	s.provider = &entities.Provider{
		NPI:       "1043382716",
		FirstName: "Adaeze",
		LastName:  "Okonkwo",
		Specialty: strptr("Infectious Disease"),
	}
	if err := s.directory.RegisterProvider(ctx, s.provider); err != nil {
		return err
	}

	return s.directory.AssignProvider(ctx, &entities.ProviderAssignment{
		ProviderID:   s.provider.ID,
		DepartmentID: s.department.ID,
		Role:         strptr("attending"),
		StartDate:    date(2023, 1, 9),
	})
}

func (s *seeder) seedPatients(ctx context.Context) ([]*entities.Patient, error) {
	fixtures := []struct {
		mrn, first, last, gender, sex string
		born                          time.Time
		lat, lng                      float64
	}{
		{"MRN-100001", "Rosa", "Delgado", "female", "F", date(1958, 3, 14), 39.52, -86.05},
		{"MRN-100002", "Emeka", "Nwosu", "male", "M", date(1990, 7, 2), 39.48, -85.95},
		{"MRN-100003", "Hana", "Yoshida", "female", "F", date(1984, 11, 30), 39.10, -86.40},
		{"MRN-100004", "Piotr", "Kowalczyk", "male", "M", date(1971, 1, 22), 38.60, -85.30},
		{"MRN-100005", "Amina", "Diallo", "female", "F", date(2001, 5, 9), 38.45, -86.70},
		{"MRN-100006", "Teodoro", "Vasquez", "male", "M", date(1949, 9, 17), 39.55, -86.10},
	}

	patients := make([]*entities.Patient, 0, len(fixtures))
	for _, f := range fixtures {
		p := &entities.Patient{
			MRN:           f.mrn,
			FirstName:     f.first,
			LastName:      f.last,
			DateOfBirth:   f.born,
			Gender:        f.gender,
			BiologicalSex: f.sex,
		}
		if err := s.registry.RegisterPatient(ctx, p); err != nil {
			return nil, err
		}

		address := &entities.PatientAddress{
			PatientID:   p.ID,
			AddressType: entities.AddressTypeHome,
			Street:      fmt.Sprintf("%d Mill Road", 100+len(patients)*7),
			City:        "Corbin",
			State:       "Jefferson",
			ZipCode:     "47401",
			Country:     "US",
			Coordinate:  &geo.Point{Latitude: f.lat, Longitude: f.lng},
			IsPrimary:   true,
		}
		if err := s.registry.AddAddress(ctx, address); err != nil {
			return nil, err
		}

		if err := s.registry.AddContactInfo(ctx, &entities.PatientContactInfo{
			PatientID:   p.ID,
			ContactType: "mobile",
			Phone:       strptr(fmt.Sprintf("+1-812-555-01%02d", len(patients))),
			IsPreferred: true,
		}); err != nil {
			return nil, err
		}

		patients = append(patients, p)
	}
	return patients, nil
}

// seedClinicalHistory writes a season of activity: an influenza cluster in
// the north county, a chronic diabetes patient, and enough supporting
// events that every surveillance view returns rows.
func (s *seeder) seedClinicalHistory(ctx context.Context, patients []*entities.Patient) error {
	fluCluster := []*entities.Patient{patients[0], patients[1], patients[5]}
	for i, p := range fluCluster {
		admitted := date(2026, 1, 12+i*3)

		enc := &entities.Encounter{
			PatientID:      p.ID,
			ProviderID:     &s.provider.ID,
			DepartmentID:   &s.department.ID,
			EncounterClass: "outpatient",
			Reason:         strptr("fever and cough"),
			AdmissionDate:  admitted,
		}
		if err := s.ledger.RecordEncounter(ctx, enc); err != nil {
			return err
		}

		if err := s.ledger.RecordVitalSigns(ctx, &entities.VitalSigns{
			PatientID:    p.ID,
			EncounterID:  &enc.ID,
			MeasuredAt:   admitted.Add(20 * time.Minute),
			TemperatureC: floatptr(38.9),
			HeartRate:    intptr(96),
			SystolicBP:   intptr(128),
			DiastolicBP:  intptr(82),
		}); err != nil {
			return err
		}

		order := &entities.LabOrder{
			PatientID:   p.ID,
			EncounterID: &enc.ID,
			ProviderID:  &s.provider.ID,
			LabTestID:   s.testPCR.ID,
			OrderedAt:   admitted.Add(30 * time.Minute),
			Priority:    strptr("stat"),
		}
		if err := s.ledger.OrderLab(ctx, order); err != nil {
			return err
		}
		for _, next := range []entities.LabOrderStatus{
			entities.LabOrderStatusCollected,
			entities.LabOrderStatusInProgress,
			entities.LabOrderStatusCompleted,
		} {
			if err := s.ledger.TransitionLabOrder(ctx, order.ID, next); err != nil {
				return err
			}
		}
		if err := s.ledger.RecordLabResult(ctx, &entities.LabResult{
			LabOrderID:  order.ID,
			ResultValue: "Detected",
			IsAbnormal:  true,
			ResultedAt:  admitted.Add(6 * time.Hour),
			VerifiedBy:  &s.provider.ID,
		}); err != nil {
			return err
		}

		if err := s.ledger.RecordDiagnosis(ctx, &entities.Diagnosis{
			PatientID:     p.ID,
			EncounterID:   &enc.ID,
			ICDCodeID:     s.icdFlu.ID,
			ProviderID:    &s.provider.ID,
			DiagnosisDate: admitted.Add(7 * time.Hour),
			DiagnosisType: "primary",
		}); err != nil {
			return err
		}

		if err := s.ledger.RecordMedication(ctx, &entities.Medication{
			PatientID:   p.ID,
			EncounterID: &enc.ID,
			ProviderID:  &s.provider.ID,
			DrugID:      s.drugOselt.ID,
			Dosage:      strptr("75 mg"),
			Frequency:   strptr("BID x5d"),
			StartDate:   admitted.Add(8 * time.Hour),
		}); err != nil {
			return err
		}

		if err := s.ledger.DischargeEncounter(ctx, enc.ID, admitted.Add(9*time.Hour)); err != nil {
			return err
		}
	}

	// Chronic comorbidity for the composite risk view.
	diabetic := patients[0]
	if err := s.ledger.RecordDiagnosis(ctx, &entities.Diagnosis{
		PatientID:     diabetic.ID,
		ICDCodeID:     s.icdDiabetes.ID,
		ProviderID:    &s.provider.ID,
		DiagnosisDate: date(2024, 6, 3),
		DiagnosisType: "chronic",
	}); err != nil {
		return err
	}
	hbOrder := &entities.LabOrder{
		PatientID:  diabetic.ID,
		ProviderID: &s.provider.ID,
		LabTestID:  s.testHbA1c.ID,
		OrderedAt:  date(2026, 2, 10),
	}
	if err := s.ledger.OrderLab(ctx, hbOrder); err != nil {
		return err
	}
	if err := s.ledger.RecordMedication(ctx, &entities.Medication{
		PatientID: diabetic.ID,
		DrugID:    s.drugMetf.ID,
		Dosage:    strptr("500 mg"),
		Frequency: strptr("BID"),
		StartDate: date(2024, 6, 4),
	}); err != nil {
		return err
	}

	riskFactors := []struct {
		patient  *entities.Patient
		name     string
		ftype    string
		severity string
		onset    time.Time
	}{
		{patients[0], "tobacco use", "behavioral", "moderate", date(2010, 1, 1)},
		{patients[0], "obesity", "clinical", "moderate", date(2018, 4, 1)},
		{patients[3], "tobacco use", "behavioral", "severe", date(1995, 1, 1)},
		{patients[5], "immunocompromised", "clinical", "severe", date(2022, 8, 15)},
	}
	for _, rf := range riskFactors {
		onset := rf.onset
		if err := s.ledger.RecordRiskFactor(ctx, &entities.RiskFactor{
			PatientID:  rf.patient.ID,
			FactorName: rf.name,
			FactorType: rf.ftype,
			Severity:   strptr(rf.severity),
			OnsetDate:  &onset,
		}); err != nil {
			return err
		}
	}

	if err := s.ledger.RecordSocialDeterminant(ctx, &entities.SocialDeterminant{
		PatientID:      patients[4].ID,
		Category:       "housing_instability",
		Description:    strptr("temporary housing since evacuation"),
		IdentifiedDate: date(2025, 11, 20),
	}); err != nil {
		return err
	}

	if err := s.ledger.RecordAllergy(ctx, &entities.Allergy{
		PatientID:   patients[1].ID,
		Allergen:    "penicillin",
		AllergyType: "drug",
		Reaction:    strptr("hives"),
		Severity:    strptr("moderate"),
		OnsetDate:   timeptr(date(2005, 3, 1)),
	}); err != nil {
		return err
	}

	if err := s.ledger.RecordImmunization(ctx, &entities.Immunization{
		PatientID:      patients[2].ID,
		ProviderID:     &s.provider.ID,
		VaccineID:      s.vaccineFlu.ID,
		AdministeredAt: date(2025, 10, 6),
		DoseNumber:     intptr(1),
		LotNumber:      strptr("FLU25-0113"),
	}); err != nil {
		return err
	}

	return s.ledger.RecordFamilyHistory(ctx, &entities.FamilyHistory{
		PatientID:    patients[2].ID,
		Relationship: "mother",
		Condition:    "type 2 diabetes",
		OnsetAge:     intptr(54),
	})
}

func (s *seeder) seedCohort(ctx context.Context, name string, patients []*entities.Patient) error {
	cohort := &entities.Cohort{
		Name:        name,
		Description: "Patients under active follow-up for the winter respiratory cluster",
		Criteria:    "confirmed influenza diagnosis during the 2026 season",
	}
	if err := s.cohorts.CreateCohort(ctx, cohort); err != nil {
		return err
	}

	for _, p := range []*entities.Patient{patients[0], patients[1], patients[5]} {
		if _, err := s.cohorts.AddMember(ctx, cohort.ID, p.ID, "seed@epiwatch.local", date(2026, 1, 20)); err != nil {
			return err
		}
	}
	return nil
}

// rect builds a rectangular boundary from its southwest and northeast
// corners.
func rect(south, west, north, east float64) *geo.Polygon {
	return &geo.Polygon{Vertices: []geo.Point{
		{Latitude: south, Longitude: west},
		{Latitude: south, Longitude: east},
		{Latitude: north, Longitude: east},
		{Latitude: north, Longitude: west},
	}}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func strptr(s string) *string        { return &s }
func intptr(i int) *int              { return &i }
func int64ptr(i int64) *int64        { return &i }
func floatptr(f float64) *float64    { return &f }
func timeptr(t time.Time) *time.Time { return &t }
