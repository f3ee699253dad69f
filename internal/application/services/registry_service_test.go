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
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/geo"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

func validPatient() *entities.Patient {
	return &entities.Patient{
		MRN:         "MRN-001",
		FirstName:   "Ada",
		LastName:    "Obi",
		DateOfBirth: time.Date(1980, 3, 14, 0, 0, 0, 0, time.UTC),
		Gender:      "female",
	}
}

func TestRegisterPatient(t *testing.T) {
	repo := &fakePatientRepo{}
	index := &fakeSearchIndex{}
	svc := NewRegistryService(repo, index)

	patient := validPatient()
	err := svc.RegisterPatient(context.Background(), patient)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, patient.ID)
	assert.False(t, patient.CreatedAt.IsZero())
	require.Len(t, repo.created, 1)
	require.Len(t, index.indexed, 1)
	assert.Equal(t, patient.ID, index.indexed[0].ID)
}

func TestRegisterPatientValidation(t *testing.T) {
	svc := NewRegistryService(&fakePatientRepo{}, nil)

	tests := []struct {
		name     string
		mutate   func(p *entities.Patient)
		wantType apperrors.ErrorType
	}{
		{
			name:     "missing mrn",
			mutate:   func(p *entities.Patient) { p.MRN = "" },
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "missing name",
			mutate:   func(p *entities.Patient) { p.FirstName = "" },
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "birth in the future",
			mutate:   func(p *entities.Patient) { p.DateOfBirth = time.Now().UTC().Add(48 * time.Hour) },
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "deceased before birth",
			mutate: func(p *entities.Patient) {
				d := p.DateOfBirth.AddDate(-1, 0, 0)
				p.DeceasedDate = &d
			},
			wantType: apperrors.ErrorTypeTemporalOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patient := validPatient()
			tt.mutate(patient)
			err := svc.RegisterPatient(context.Background(), patient)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType))
		})
	}
}

func TestRegisterPatientDeceasedDateImpliesFlag(t *testing.T) {
	repo := &fakePatientRepo{}
	svc := NewRegistryService(repo, nil)

	patient := validPatient()
	d := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	patient.DeceasedDate = &d

	require.NoError(t, svc.RegisterPatient(context.Background(), patient))
	assert.True(t, patient.IsDeceased)
}

func TestRegisterPatientIndexFailureDoesNotFailWrite(t *testing.T) {
	repo := &fakePatientRepo{}
	index := &fakeSearchIndex{
		IndexFn: func(ctx context.Context, patient *entities.Patient) error {
			return errors.New("typesense unavailable")
		},
	}
	svc := NewRegistryService(repo, index)

	err := svc.RegisterPatient(context.Background(), validPatient())
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}

func TestMarkDeceased(t *testing.T) {
	patientID := uuid.New()
	repo := &fakePatientRepo{GetByIDFn: patientExists(patientID)}
	svc := NewRegistryService(repo, nil)

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.MarkDeceased(context.Background(), patientID, date))

	require.Len(t, repo.updated, 1)
	assert.True(t, repo.updated[0].IsDeceased)
	require.NotNil(t, repo.updated[0].DeceasedDate)
	assert.Equal(t, date, *repo.updated[0].DeceasedDate)
}

func TestMarkDeceasedBeforeBirth(t *testing.T) {
	patientID := uuid.New()
	repo := &fakePatientRepo{GetByIDFn: patientExists(patientID)}
	svc := NewRegistryService(repo, nil)

	err := svc.MarkDeceased(context.Background(), patientID, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))
	assert.Empty(t, repo.updated)
}

func TestAddAddress(t *testing.T) {
	patientID := uuid.New()
	repo := &fakePatientRepo{GetByIDFn: patientExists(patientID)}
	svc := NewRegistryService(repo, nil)

	t.Run("unknown patient", func(t *testing.T) {
		err := svc.AddAddress(context.Background(), &entities.PatientAddress{
			PatientID:   uuid.New(),
			AddressType: entities.AddressTypeHome,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("unknown address type", func(t *testing.T) {
		err := svc.AddAddress(context.Background(), &entities.PatientAddress{
			PatientID:   patientID,
			AddressType: "houseboat",
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("coordinate out of range", func(t *testing.T) {
		err := svc.AddAddress(context.Background(), &entities.PatientAddress{
			PatientID:   patientID,
			AddressType: entities.AddressTypeHome,
			Coordinate:  &geo.Point{Latitude: 91.0, Longitude: 3.4},
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("valid", func(t *testing.T) {
		address := &entities.PatientAddress{
			PatientID:   patientID,
			AddressType: entities.AddressTypeHome,
			Street:      "12 Marina Rd",
			City:        "Lagos",
			IsPrimary:   true,
			Coordinate:  &geo.Point{Latitude: 6.45, Longitude: 3.4},
		}
		require.NoError(t, svc.AddAddress(context.Background(), address))
		assert.NotEqual(t, uuid.Nil, address.ID)
	})
}

func TestSearchPatients(t *testing.T) {
	var captured repositories.PatientQuery
	repo := &fakePatientRepo{
		SearchFn: func(ctx context.Context, query repositories.PatientQuery) ([]*entities.Patient, error) {
			captured = query
			return nil, nil
		},
	}
	svc := NewRegistryService(repo, nil)

	t.Run("age bounds inverted", func(t *testing.T) {
		lo, hi := 60, 18
		_, err := svc.SearchPatients(context.Background(), repositories.PatientQuery{AgeMin: &lo, AgeMax: &hi})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("limit clamped", func(t *testing.T) {
		_, err := svc.SearchPatients(context.Background(), repositories.PatientQuery{Limit: 10_000})
		require.NoError(t, err)
		assert.Equal(t, 50, captured.Limit)
	})
}

func TestQuickSearchFallsBackWithoutIndex(t *testing.T) {
	listed := false
	repo := &fakePatientRepo{
		ListFn: func(ctx context.Context, limit, offset int) ([]*entities.Patient, error) {
			listed = true
			return nil, nil
		},
	}
	svc := NewRegistryService(repo, nil)

	_, err := svc.QuickSearch(context.Background(), providers.PatientSearchParams{Query: "ada", Limit: 10})
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestAddContactInfoRequiresPhoneOrEmail(t *testing.T) {
	patientID := uuid.New()
	repo := &fakePatientRepo{GetByIDFn: patientExists(patientID)}
	svc := NewRegistryService(repo, nil)

	err := svc.AddContactInfo(context.Background(), &entities.PatientContactInfo{PatientID: patientID})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	email := "ada@example.com"
	err = svc.AddContactInfo(context.Background(), &entities.PatientContactInfo{
		PatientID: patientID,
		Email:     &email,
	})
	assert.NoError(t, err)
}

func TestDeletePatientRemovesFromIndex(t *testing.T) {
	patientID := uuid.New()
	repo := &fakePatientRepo{GetByIDFn: patientExists(patientID)}
	index := &fakeSearchIndex{}
	svc := NewRegistryService(repo, index)

	require.NoError(t, svc.DeletePatient(context.Background(), patientID))
	require.Len(t, index.deleted, 1)
	assert.Equal(t, patientID.String(), index.deleted[0])
}
