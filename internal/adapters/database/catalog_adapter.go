package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// CatalogAdapter implements the CatalogRepository interface over the four
// clinical code catalogs
type CatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client *postgres.Client) repositories.CatalogRepository {
	return &CatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateICDCode creates an ICD catalog entry
func (a *CatalogAdapter) CreateICDCode(ctx context.Context, code *entities.ICDCode) error {
	query, args, err := a.db.Insert("icd_codes").Rows(goqu.Record{
		"id":          code.ID,
		"code":        code.Code,
		"description": code.Description,
		"icd_version": code.ICDVersion,
		"category":    nullString(code.Category),
		"is_billable": code.IsBillable,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("icd code %s already exists", code.Code))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create icd code", err)
	}
	return nil
}

// GetICDCodeByID retrieves an ICD catalog entry by ID
func (a *CatalogAdapter) GetICDCodeByID(ctx context.Context, id uuid.UUID) (*entities.ICDCode, error) {
	return a.getICDCode(ctx, "id", id.String())
}

// GetICDCodeByCode retrieves an ICD catalog entry by code
func (a *CatalogAdapter) GetICDCodeByCode(ctx context.Context, code string) (*entities.ICDCode, error) {
	return a.getICDCode(ctx, "code", code)
}

func (a *CatalogAdapter) getICDCode(ctx context.Context, field, value string) (*entities.ICDCode, error) {
	query, args, err := a.db.Select(
		"id", "code", "description", "icd_version", "category", "is_billable",
	).From("icd_codes").Where(goqu.Ex{field: value}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	code := &entities.ICDCode{}
	var category sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&code.ID, &code.Code, &code.Description, &code.ICDVersion, &category, &code.IsBillable)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("icd code with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get icd code", err)
	}

	code.Category = stringPtr(category)
	return code, nil
}

// ListICDCodes retrieves ICD catalog entries
func (a *CatalogAdapter) ListICDCodes(ctx context.Context, limit, offset int) ([]*entities.ICDCode, error) {
	ds := a.db.Select(
		"id", "code", "description", "icd_version", "category", "is_billable",
	).From("icd_codes").Order(goqu.I("code").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list icd codes", err)
	}
	defer rows.Close()

	codes := []*entities.ICDCode{}
	for rows.Next() {
		code := &entities.ICDCode{}
		var category sql.NullString
		if err := rows.Scan(&code.ID, &code.Code, &code.Description, &code.ICDVersion,
			&category, &code.IsBillable); err != nil {
			return nil, apperrors.NewInternalError("failed to scan icd code", err)
		}
		code.Category = stringPtr(category)
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating icd codes", err)
	}
	return codes, nil
}

// CreateLabTest creates a lab test definition
func (a *CatalogAdapter) CreateLabTest(ctx context.Context, test *entities.LabTest) error {
	query, args, err := a.db.Insert("lab_tests").Rows(goqu.Record{
		"id":         test.ID,
		"loinc_code": test.LoincCode,
		"name":       test.Name,
		"specimen":   nullString(test.Specimen),
		"units":      nullString(test.Units),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("lab test %s already exists", test.LoincCode))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create lab test", err)
	}
	return nil
}

// GetLabTestByID retrieves a lab test definition by ID
func (a *CatalogAdapter) GetLabTestByID(ctx context.Context, id uuid.UUID) (*entities.LabTest, error) {
	return a.getLabTest(ctx, "id", id.String())
}

// GetLabTestByLoinc retrieves a lab test definition by LOINC code
func (a *CatalogAdapter) GetLabTestByLoinc(ctx context.Context, loincCode string) (*entities.LabTest, error) {
	return a.getLabTest(ctx, "loinc_code", loincCode)
}

func (a *CatalogAdapter) getLabTest(ctx context.Context, field, value string) (*entities.LabTest, error) {
	query, args, err := a.db.Select(
		"id", "loinc_code", "name", "specimen", "units",
	).From("lab_tests").Where(goqu.Ex{field: value}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	test := &entities.LabTest{}
	var specimen, units sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&test.ID, &test.LoincCode, &test.Name, &specimen, &units)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("lab test with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get lab test", err)
	}

	test.Specimen = stringPtr(specimen)
	test.Units = stringPtr(units)
	return test, nil
}

// CreateDrug creates a drug catalog entry
func (a *CatalogAdapter) CreateDrug(ctx context.Context, drug *entities.Drug) error {
	query, args, err := a.db.Insert("drugs").Rows(goqu.Record{
		"id":       drug.ID,
		"ndc_code": drug.NDCCode,
		"name":     drug.Name,
		"form":     nullString(drug.Form),
		"strength": nullString(drug.Strength),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("drug %s already exists", drug.NDCCode))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create drug", err)
	}
	return nil
}

// GetDrugByID retrieves a drug catalog entry by ID
func (a *CatalogAdapter) GetDrugByID(ctx context.Context, id uuid.UUID) (*entities.Drug, error) {
	return a.getDrug(ctx, "id", id.String())
}

// GetDrugByNDC retrieves a drug catalog entry by NDC code
func (a *CatalogAdapter) GetDrugByNDC(ctx context.Context, ndcCode string) (*entities.Drug, error) {
	return a.getDrug(ctx, "ndc_code", ndcCode)
}

func (a *CatalogAdapter) getDrug(ctx context.Context, field, value string) (*entities.Drug, error) {
	query, args, err := a.db.Select(
		"id", "ndc_code", "name", "form", "strength",
	).From("drugs").Where(goqu.Ex{field: value}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	drug := &entities.Drug{}
	var form, strength sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&drug.ID, &drug.NDCCode, &drug.Name, &form, &strength)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("drug with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get drug", err)
	}

	drug.Form = stringPtr(form)
	drug.Strength = stringPtr(strength)
	return drug, nil
}

// CreateVaccine creates a vaccine catalog entry
func (a *CatalogAdapter) CreateVaccine(ctx context.Context, vaccine *entities.Vaccine) error {
	query, args, err := a.db.Insert("vaccines").Rows(goqu.Record{
		"id":          vaccine.ID,
		"cvx_code":    vaccine.CVXCode,
		"name":        vaccine.Name,
		"description": nullString(vaccine.Description),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("vaccine %s already exists", vaccine.CVXCode))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create vaccine", err)
	}
	return nil
}

// GetVaccineByID retrieves a vaccine catalog entry by ID
func (a *CatalogAdapter) GetVaccineByID(ctx context.Context, id uuid.UUID) (*entities.Vaccine, error) {
	return a.getVaccine(ctx, "id", id.String())
}

// GetVaccineByCVX retrieves a vaccine catalog entry by CVX code
func (a *CatalogAdapter) GetVaccineByCVX(ctx context.Context, cvxCode string) (*entities.Vaccine, error) {
	return a.getVaccine(ctx, "cvx_code", cvxCode)
}

func (a *CatalogAdapter) getVaccine(ctx context.Context, field, value string) (*entities.Vaccine, error) {
	query, args, err := a.db.Select(
		"id", "cvx_code", "name", "description",
	).From("vaccines").Where(goqu.Ex{field: value}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	vaccine := &entities.Vaccine{}
	var description sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&vaccine.ID, &vaccine.CVXCode, &vaccine.Name, &description)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("vaccine with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get vaccine", err)
	}

	vaccine.Description = stringPtr(description)
	return vaccine, nil
}
