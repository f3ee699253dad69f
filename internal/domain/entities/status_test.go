package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

func TestDiagnosisStatus_ForwardOnly(t *testing.T) {
	assert.True(t, entities.DiagnosisStatusActive.CanTransitionTo(entities.DiagnosisStatusInactive))
	assert.True(t, entities.DiagnosisStatusActive.CanTransitionTo(entities.DiagnosisStatusResolved))
	assert.True(t, entities.DiagnosisStatusInactive.CanTransitionTo(entities.DiagnosisStatusResolved))

	assert.False(t, entities.DiagnosisStatusInactive.CanTransitionTo(entities.DiagnosisStatusActive))
	assert.False(t, entities.DiagnosisStatusActive.CanTransitionTo(entities.DiagnosisStatusActive))
}

func TestDiagnosisStatus_ResolvedIsTerminal(t *testing.T) {
	assert.True(t, entities.DiagnosisStatusResolved.Terminal())
	assert.False(t, entities.DiagnosisStatusResolved.CanTransitionTo(entities.DiagnosisStatusActive))
	assert.False(t, entities.DiagnosisStatusResolved.CanTransitionTo(entities.DiagnosisStatusInactive))
}

func TestDiagnosisStatus_UnknownStatusRejected(t *testing.T) {
	assert.False(t, entities.DiagnosisStatus("GUESSING").Valid())
	assert.False(t, entities.DiagnosisStatusActive.CanTransitionTo(entities.DiagnosisStatus("GUESSING")))
}

func TestLabOrderStatus_HappyPath(t *testing.T) {
	path := []entities.LabOrderStatus{
		entities.LabOrderStatusOrdered,
		entities.LabOrderStatusCollected,
		entities.LabOrderStatusInProgress,
		entities.LabOrderStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, path[i].CanTransitionTo(path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestLabOrderStatus_NoSkippingOrRewinding(t *testing.T) {
	assert.False(t, entities.LabOrderStatusOrdered.CanTransitionTo(entities.LabOrderStatusInProgress))
	assert.False(t, entities.LabOrderStatusOrdered.CanTransitionTo(entities.LabOrderStatusCompleted))
	assert.False(t, entities.LabOrderStatusInProgress.CanTransitionTo(entities.LabOrderStatusCollected))
}

func TestLabOrderStatus_CancelFromAnyNonTerminalState(t *testing.T) {
	for _, s := range []entities.LabOrderStatus{
		entities.LabOrderStatusOrdered,
		entities.LabOrderStatusCollected,
		entities.LabOrderStatusInProgress,
	} {
		assert.True(t, s.CanTransitionTo(entities.LabOrderStatusCanceled), "%s -> CANCELED", s)
	}
}

func TestLabOrderStatus_TerminalStatesFrozen(t *testing.T) {
	for _, terminal := range []entities.LabOrderStatus{
		entities.LabOrderStatusCompleted,
		entities.LabOrderStatusCanceled,
	} {
		assert.True(t, terminal.Terminal())
		for _, next := range []entities.LabOrderStatus{
			entities.LabOrderStatusOrdered,
			entities.LabOrderStatusCollected,
			entities.LabOrderStatusInProgress,
			entities.LabOrderStatusCompleted,
			entities.LabOrderStatusCanceled,
		} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestRegionType_SpecificityOrdering(t *testing.T) {
	assert.Less(t,
		entities.RegionTypeZip.SpecificityRank(),
		entities.RegionTypeCity.SpecificityRank())
	assert.Less(t,
		entities.RegionTypeCity.SpecificityRank(),
		entities.RegionTypeState.SpecificityRank())
	assert.Greater(t,
		entities.RegionType("planet").SpecificityRank(),
		entities.RegionTypeState.SpecificityRank())
}

func TestPatient_AgeAt(t *testing.T) {
	p := entities.Patient{DateOfBirth: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 29, p.AgeAt(time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, p.AgeAt(time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, p.AgeAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}
