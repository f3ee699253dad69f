package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

type ledgerFixture struct {
	svc          *LedgerService
	patientID    uuid.UUID
	icdCodeID    uuid.UUID
	drugID       uuid.UUID
	labTestID    uuid.UUID
	vaccineID    uuid.UUID
	patients     *fakePatientRepo
	encounters   *fakeEncounterRepo
	diagnoses    *fakeDiagnosisRepo
	riskFactors  *fakeRiskFactorRepo
	medications  *fakeMedicationRepo
	labs         *fakeLabRepo
	observations *fakeObservationRepo
	bus          *fakeEventBus
	now          time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		patientID:    uuid.New(),
		icdCodeID:    uuid.New(),
		drugID:       uuid.New(),
		labTestID:    uuid.New(),
		vaccineID:    uuid.New(),
		encounters:   &fakeEncounterRepo{},
		diagnoses:    &fakeDiagnosisRepo{},
		riskFactors:  &fakeRiskFactorRepo{},
		medications:  &fakeMedicationRepo{},
		labs:         &fakeLabRepo{},
		observations: &fakeObservationRepo{},
		bus:          newFakeEventBus(),
		now:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.patients = &fakePatientRepo{GetByIDFn: patientExists(f.patientID)}

	catalog := newFakeCatalogRepo()
	catalog.icdCodes[f.icdCodeID] = &entities.ICDCode{ID: f.icdCodeID, Code: "A00", Description: "Cholera"}
	catalog.drugs[f.drugID] = &entities.Drug{ID: f.drugID, NDCCode: "0002-1433"}
	catalog.labTests[f.labTestID] = &entities.LabTest{ID: f.labTestID, LoincCode: "718-7"}
	catalog.vaccines[f.vaccineID] = &entities.Vaccine{ID: f.vaccineID, CVXCode: "208"}

	f.svc = NewLedgerService(f.patients, f.encounters, f.diagnoses, f.riskFactors,
		f.medications, f.labs, f.observations, catalog, f.bus)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *ledgerFixture) daysAgo(n int) time.Time   { return f.now.AddDate(0, 0, -n) }
func (f *ledgerFixture) daysAhead(n int) time.Time { return f.now.AddDate(0, 0, n) }

func TestRecordEncounter(t *testing.T) {
	f := newLedgerFixture(t)

	t.Run("unknown patient", func(t *testing.T) {
		err := f.svc.RecordEncounter(context.Background(), &entities.Encounter{
			PatientID:     uuid.New(),
			AdmissionDate: f.daysAgo(2),
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("discharge before admission", func(t *testing.T) {
		discharge := f.daysAgo(5)
		err := f.svc.RecordEncounter(context.Background(), &entities.Encounter{
			PatientID:     f.patientID,
			AdmissionDate: f.daysAgo(2),
			DischargeDate: &discharge,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))
	})

	t.Run("open encounter is active", func(t *testing.T) {
		enc := &entities.Encounter{PatientID: f.patientID, AdmissionDate: f.daysAgo(1)}
		require.NoError(t, f.svc.RecordEncounter(context.Background(), enc))
		assert.True(t, enc.IsActive)
		assert.NotEqual(t, uuid.Nil, enc.ID)
	})

	t.Run("past discharge means inactive regardless of input", func(t *testing.T) {
		discharge := f.daysAgo(1)
		enc := &entities.Encounter{
			PatientID:     f.patientID,
			AdmissionDate: f.daysAgo(3),
			DischargeDate: &discharge,
			IsActive:      true, // caller-set value must be ignored
		}
		require.NoError(t, f.svc.RecordEncounter(context.Background(), enc))
		assert.False(t, enc.IsActive)
	})
}

func TestDischargeEncounter(t *testing.T) {
	f := newLedgerFixture(t)
	encID := uuid.New()
	f.encounters.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*entities.Encounter, error) {
		if id == encID {
			return &entities.Encounter{ID: encID, PatientID: f.patientID, AdmissionDate: f.daysAgo(4), IsActive: true}, nil
		}
		return nil, apperrors.NewNotFoundError("encounter not found")
	}

	var gotActive bool
	f.encounters.DischargeFn = func(ctx context.Context, id uuid.UUID, dischargeDate time.Time, isActive bool) error {
		gotActive = isActive
		return nil
	}

	require.NoError(t, f.svc.DischargeEncounter(context.Background(), encID, f.daysAgo(1)))
	assert.False(t, gotActive)

	err := f.svc.DischargeEncounter(context.Background(), encID, f.daysAgo(10))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))
}

func TestRecordDiagnosis(t *testing.T) {
	f := newLedgerFixture(t)

	t.Run("unknown icd code", func(t *testing.T) {
		err := f.svc.RecordDiagnosis(context.Background(), &entities.Diagnosis{
			PatientID:     f.patientID,
			ICDCodeID:     uuid.New(),
			DiagnosisDate: f.daysAgo(1),
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("defaults to active at version 1", func(t *testing.T) {
		d := &entities.Diagnosis{
			PatientID:     f.patientID,
			ICDCodeID:     f.icdCodeID,
			DiagnosisDate: f.daysAgo(1),
		}
		require.NoError(t, f.svc.RecordDiagnosis(context.Background(), d))
		assert.Equal(t, entities.DiagnosisStatusActive, d.Status)
		assert.Equal(t, 1, d.Version)
	})

	t.Run("resolved date without resolved status", func(t *testing.T) {
		resolved := f.daysAgo(1)
		err := f.svc.RecordDiagnosis(context.Background(), &entities.Diagnosis{
			PatientID:     f.patientID,
			ICDCodeID:     f.icdCodeID,
			DiagnosisDate: f.daysAgo(3),
			Status:        entities.DiagnosisStatusActive,
			ResolvedDate:  &resolved,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))
	})

	t.Run("publishes to firehose and family channel", func(t *testing.T) {
		before := len(f.bus.published(providers.ChannelDiagnoses))
		require.NoError(t, f.svc.RecordDiagnosis(context.Background(), &entities.Diagnosis{
			PatientID:     f.patientID,
			ICDCodeID:     f.icdCodeID,
			DiagnosisDate: f.daysAgo(1),
		}))
		assert.Len(t, f.bus.published(providers.ChannelDiagnoses), before+1)
		assert.NotEmpty(t, f.bus.published(providers.ChannelLedgerAll))
	})
}

func TestTransitionDiagnosis(t *testing.T) {
	f := newLedgerFixture(t)
	diagID := uuid.New()
	current := &entities.Diagnosis{
		ID: diagID, PatientID: f.patientID, ICDCodeID: f.icdCodeID,
		Status: entities.DiagnosisStatusActive, Version: 3,
	}
	f.diagnoses.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*entities.Diagnosis, error) {
		return current, nil
	}

	t.Run("resolve sets resolved date and passes version", func(t *testing.T) {
		var gotVersion int
		var gotResolved *time.Time
		f.diagnoses.UpdateStatusFn = func(ctx context.Context, id uuid.UUID, version int, status entities.DiagnosisStatus, resolvedDate *time.Time) error {
			gotVersion = version
			gotResolved = resolvedDate
			return nil
		}

		require.NoError(t, f.svc.TransitionDiagnosis(context.Background(), diagID, entities.DiagnosisStatusResolved))
		assert.Equal(t, 3, gotVersion)
		require.NotNil(t, gotResolved)
		assert.Equal(t, f.now, *gotResolved)
	})

	t.Run("backward move rejected", func(t *testing.T) {
		current.Status = entities.DiagnosisStatusInactive
		err := f.svc.TransitionDiagnosis(context.Background(), diagID, entities.DiagnosisStatusActive)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("terminal state frozen", func(t *testing.T) {
		current.Status = entities.DiagnosisStatusResolved
		err := f.svc.TransitionDiagnosis(context.Background(), diagID, entities.DiagnosisStatusResolved)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("version race surfaces as concurrent modification", func(t *testing.T) {
		current.Status = entities.DiagnosisStatusActive
		f.diagnoses.UpdateStatusFn = func(ctx context.Context, id uuid.UUID, version int, status entities.DiagnosisStatus, resolvedDate *time.Time) error {
			return apperrors.NewConcurrentModificationError("diagnosis version changed", nil)
		}
		err := f.svc.TransitionDiagnosis(context.Background(), diagID, entities.DiagnosisStatusInactive)
		assert.True(t, apperrors.IsRetryable(err))
	})
}

func TestRecordRiskFactor(t *testing.T) {
	f := newLedgerFixture(t)

	t.Run("requires name and type", func(t *testing.T) {
		err := f.svc.RecordRiskFactor(context.Background(), &entities.RiskFactor{PatientID: f.patientID})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("end before onset", func(t *testing.T) {
		onset := f.daysAgo(1)
		end := f.daysAgo(5)
		err := f.svc.RecordRiskFactor(context.Background(), &entities.RiskFactor{
			PatientID:  f.patientID,
			FactorName: "smoking",
			FactorType: "behavioral",
			OnsetDate:  &onset,
			EndDate:    &end,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))
	})

	t.Run("current flag derived from end date", func(t *testing.T) {
		end := f.daysAgo(2)
		ended := &entities.RiskFactor{
			PatientID:  f.patientID,
			FactorName: "smoking",
			FactorType: "behavioral",
			EndDate:    &end,
			IsCurrent:  true,
		}
		require.NoError(t, f.svc.RecordRiskFactor(context.Background(), ended))
		assert.False(t, ended.IsCurrent)

		open := &entities.RiskFactor{
			PatientID:  f.patientID,
			FactorName: "occupational exposure",
			FactorType: "environmental",
		}
		require.NoError(t, f.svc.RecordRiskFactor(context.Background(), open))
		assert.True(t, open.IsCurrent)
	})
}

func TestEndRiskFactor(t *testing.T) {
	f := newLedgerFixture(t)
	rfID := uuid.New()
	onset := f.daysAgo(30)
	f.riskFactors.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*entities.RiskFactor, error) {
		return &entities.RiskFactor{ID: rfID, PatientID: f.patientID, FactorName: "smoking",
			FactorType: "behavioral", OnsetDate: &onset, IsCurrent: true}, nil
	}

	err := f.svc.EndRiskFactor(context.Background(), rfID, f.daysAgo(60))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))

	var gotCurrent bool
	f.riskFactors.EndFn = func(ctx context.Context, id uuid.UUID, endDate time.Time, isCurrent bool) error {
		gotCurrent = isCurrent
		return nil
	}
	require.NoError(t, f.svc.EndRiskFactor(context.Background(), rfID, f.daysAgo(1)))
	assert.False(t, gotCurrent)
}

func TestRecordMedication(t *testing.T) {
	f := newLedgerFixture(t)

	t.Run("unknown drug", func(t *testing.T) {
		err := f.svc.RecordMedication(context.Background(), &entities.Medication{
			PatientID: f.patientID,
			DrugID:    uuid.New(),
			StartDate: f.daysAgo(1),
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("future end date stays active", func(t *testing.T) {
		end := f.daysAhead(14)
		m := &entities.Medication{
			PatientID: f.patientID,
			DrugID:    f.drugID,
			StartDate: f.daysAgo(1),
			EndDate:   &end,
		}
		require.NoError(t, f.svc.RecordMedication(context.Background(), m))
		assert.True(t, m.IsActive)
	})
}

func TestLabOrderLifecycle(t *testing.T) {
	f := newLedgerFixture(t)

	t.Run("order forced to ordered at version 1", func(t *testing.T) {
		order := &entities.LabOrder{
			PatientID: f.patientID,
			LabTestID: f.labTestID,
			Status:    entities.LabOrderStatusCompleted, // caller-set value must be ignored
		}
		require.NoError(t, f.svc.OrderLab(context.Background(), order))
		assert.Equal(t, entities.LabOrderStatusOrdered, order.Status)
		assert.Equal(t, 1, order.Version)
	})

	orderID := uuid.New()
	current := &entities.LabOrder{ID: orderID, PatientID: f.patientID, LabTestID: f.labTestID,
		Status: entities.LabOrderStatusOrdered, Version: 1}
	f.labs.GetOrderByIDFn = func(ctx context.Context, id uuid.UUID) (*entities.LabOrder, error) {
		if id == orderID {
			return current, nil
		}
		return nil, apperrors.NewNotFoundError("lab order not found")
	}

	t.Run("skipping a stage rejected", func(t *testing.T) {
		err := f.svc.TransitionLabOrder(context.Background(), orderID, entities.LabOrderStatusInProgress)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("next stage accepted", func(t *testing.T) {
		require.NoError(t, f.svc.TransitionLabOrder(context.Background(), orderID, entities.LabOrderStatusCollected))
	})

	t.Run("cancel from any non-terminal state", func(t *testing.T) {
		current.Status = entities.LabOrderStatusInProgress
		require.NoError(t, f.svc.TransitionLabOrder(context.Background(), orderID, entities.LabOrderStatusCanceled))
	})

	t.Run("terminal state frozen", func(t *testing.T) {
		current.Status = entities.LabOrderStatusCanceled
		err := f.svc.TransitionLabOrder(context.Background(), orderID, entities.LabOrderStatusCollected)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("result against unknown order", func(t *testing.T) {
		err := f.svc.RecordLabResult(context.Background(), &entities.LabResult{
			LabOrderID:  uuid.New(),
			ResultValue: "4.2",
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("result recorded", func(t *testing.T) {
		result := &entities.LabResult{LabOrderID: orderID, ResultValue: "4.2"}
		require.NoError(t, f.svc.RecordLabResult(context.Background(), result))
		assert.NotEqual(t, uuid.Nil, result.ID)
		assert.Equal(t, f.now, result.ResultedAt)
	})
}

func TestRecordImmunizationUnknownVaccine(t *testing.T) {
	f := newLedgerFixture(t)
	err := f.svc.RecordImmunization(context.Background(), &entities.Immunization{
		PatientID: f.patientID,
		VaccineID: uuid.New(),
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newLedgerFixture(t)
	f.bus.failWith = errors.New("redis down")

	enc := &entities.Encounter{PatientID: f.patientID, AdmissionDate: f.daysAgo(1)}
	require.NoError(t, f.svc.RecordEncounter(context.Background(), enc))
	assert.Len(t, f.encounters.created, 1)
}
