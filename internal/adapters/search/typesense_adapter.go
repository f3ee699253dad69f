package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	tsclient "github.com/epiwatch/surveillance/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements the analyst-facing patient search index using
// Typesense. The relational store stays authoritative; documents carry only
// the fields the quick-search results render.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.PatientSearchIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a patient document
func (a *TypesenseAdapter) Index(ctx context.Context, patient *entities.Patient) error {
	document := map[string]interface{}{
		"id":            patient.ID.String(),
		"mrn":           patient.MRN,
		"full_name":     strings.TrimSpace(patient.FirstName + " " + patient.LastName),
		"first_name":    patient.FirstName,
		"last_name":     patient.LastName,
		"gender":        patient.Gender,
		"date_of_birth": patient.DateOfBirth.Unix(),
		"is_deceased":   patient.IsDeceased,
		"created_at":    patient.CreatedAt.Unix(),
	}
	if patient.Ethnicity != nil {
		document["ethnicity"] = *patient.Ethnicity
	}
	if patient.Race != nil {
		document["race"] = *patient.Race
	}

	if err := a.client.UpsertPatient(ctx, document); err != nil {
		return fmt.Errorf("failed to index patient: %w", err)
	}
	return nil
}

// Delete removes a patient document
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	if err := a.client.DeletePatient(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient from index: %w", err)
	}
	return nil
}

// Search finds patients by free-text query over name and MRN with optional
// demographic filters
func (a *TypesenseAdapter) Search(ctx context.Context, params providers.PatientSearchParams) ([]*entities.Patient, error) {
	query := params.Query
	if query == "" {
		query = "*"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	filters := []string{}
	if params.Gender != "" {
		filters = append(filters, fmt.Sprintf("gender:=%s", params.Gender))
	}
	if params.IsDeceased != nil {
		filters = append(filters, fmt.Sprintf("is_deceased:=%t", *params.IsDeceased))
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("full_name,mrn"),
		Page:    pointer.Int(params.Offset/limit + 1),
		PerPage: pointer.Int(limit),
	}
	if len(filters) > 0 {
		searchParams.FilterBy = pointer.String(strings.Join(filters, " && "))
	}

	result, err := a.client.Client().Collection(tsclient.PatientsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	if result.Hits == nil {
		return []*entities.Patient{}, nil
	}

	patients := []*entities.Patient{}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		patient, err := patientFromDocument(*hit.Document)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

// patientFromDocument rebuilds a partial patient from an index hit. Numeric
// values arrive as float64 through the JSON decoding.
func patientFromDocument(doc map[string]interface{}) (*entities.Patient, error) {
	rawID, _ := doc["id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("malformed patient id in index document: %w", err)
	}

	patient := &entities.Patient{ID: id}
	if mrn, ok := doc["mrn"].(string); ok {
		patient.MRN = mrn
	}
	if firstName, ok := doc["first_name"].(string); ok {
		patient.FirstName = firstName
	}
	if lastName, ok := doc["last_name"].(string); ok {
		patient.LastName = lastName
	}
	if gender, ok := doc["gender"].(string); ok {
		patient.Gender = gender
	}
	if ethnicity, ok := doc["ethnicity"].(string); ok {
		patient.Ethnicity = &ethnicity
	}
	if race, ok := doc["race"].(string); ok {
		patient.Race = &race
	}
	if dob, ok := doc["date_of_birth"].(float64); ok {
		patient.DateOfBirth = time.Unix(int64(dob), 0).UTC()
	}
	if deceased, ok := doc["is_deceased"].(bool); ok {
		patient.IsDeceased = deceased
	}
	if createdAt, ok := doc["created_at"].(float64); ok {
		patient.CreatedAt = time.Unix(int64(createdAt), 0).UTC()
	}
	return patient, nil
}
