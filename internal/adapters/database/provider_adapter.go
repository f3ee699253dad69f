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

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new provider
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	query, args, err := a.db.Insert("providers").Rows(goqu.Record{
		"id":         provider.ID,
		"npi":        provider.NPI,
		"first_name": provider.FirstName,
		"last_name":  provider.LastName,
		"specialty":  nullString(provider.Specialty),
		"is_active":  provider.IsActive,
		"created_at": provider.CreatedAt,
		"updated_at": provider.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("provider with npi %s already exists", provider.NPI))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create provider", err)
	}
	return nil
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Provider, error) {
	return a.getByField(ctx, "id", id.String())
}

// GetByNPI retrieves a provider by national provider identifier
func (a *ProviderAdapter) GetByNPI(ctx context.Context, npi string) (*entities.Provider, error) {
	return a.getByField(ctx, "npi", npi)
}

func (a *ProviderAdapter) getByField(ctx context.Context, field, value string) (*entities.Provider, error) {
	query, args, err := a.db.Select(
		"id", "npi", "first_name", "last_name", "specialty", "is_active", "created_at", "updated_at",
	).From("providers").Where(goqu.Ex{field: value}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider := &entities.Provider{}
	var specialty sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&provider.ID,
		&provider.NPI,
		&provider.FirstName,
		&provider.LastName,
		&specialty,
		&provider.IsActive,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}

	provider.Specialty = stringPtr(specialty)
	return provider, nil
}

// List retrieves providers
func (a *ProviderAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Provider, error) {
	ds := a.db.Select(
		"id", "npi", "first_name", "last_name", "specialty", "is_active", "created_at", "updated_at",
	).From("providers").Order(goqu.I("last_name").Asc(), goqu.I("first_name").Asc())
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
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	providers := []*entities.Provider{}
	for rows.Next() {
		provider := &entities.Provider{}
		var specialty sql.NullString
		if err := rows.Scan(&provider.ID, &provider.NPI, &provider.FirstName, &provider.LastName,
			&specialty, &provider.IsActive, &provider.CreatedAt, &provider.UpdatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		provider.Specialty = stringPtr(specialty)
		providers = append(providers, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating providers", err)
	}
	return providers, nil
}

// CreateDepartment creates a department
func (a *ProviderAdapter) CreateDepartment(ctx context.Context, department *entities.Department) error {
	query, args, err := a.db.Insert("departments").Rows(goqu.Record{
		"id":         department.ID,
		"name":       department.Name,
		"location":   nullString(department.Location),
		"created_at": department.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create department", err)
	}
	return nil
}

// GetDepartment retrieves a department by ID
func (a *ProviderAdapter) GetDepartment(ctx context.Context, id uuid.UUID) (*entities.Department, error) {
	department := &entities.Department{}
	var location sql.NullString
	err := a.client.DB().QueryRowContext(ctx,
		`SELECT id, name, location, created_at FROM departments WHERE id = $1`, id,
	).Scan(&department.ID, &department.Name, &location, &department.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("department with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get department", err)
	}

	department.Location = stringPtr(location)
	return department, nil
}

// AssignToDepartment records a dated provider/department assignment
func (a *ProviderAdapter) AssignToDepartment(ctx context.Context, assignment *entities.ProviderAssignment) error {
	query, args, err := a.db.Insert("provider_assignments").Rows(goqu.Record{
		"id":            assignment.ID,
		"provider_id":   assignment.ProviderID,
		"department_id": assignment.DepartmentID,
		"role":          nullString(assignment.Role),
		"start_date":    assignment.StartDate,
		"end_date":      nullTime(assignment.EndDate),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create provider assignment", err)
	}
	return nil
}

// ListAssignments retrieves a provider's assignment history
func (a *ProviderAdapter) ListAssignments(ctx context.Context, providerID uuid.UUID) ([]*entities.ProviderAssignment, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, provider_id, department_id, role, start_date, end_date
		FROM provider_assignments
		WHERE provider_id = $1
		ORDER BY start_date`, providerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list provider assignments", err)
	}
	defer rows.Close()

	assignments := []*entities.ProviderAssignment{}
	for rows.Next() {
		assignment := &entities.ProviderAssignment{}
		var role sql.NullString
		var endDate sql.NullTime
		if err := rows.Scan(&assignment.ID, &assignment.ProviderID, &assignment.DepartmentID,
			&role, &assignment.StartDate, &endDate); err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider assignment", err)
		}
		assignment.Role = stringPtr(role)
		assignment.EndDate = timePtr(endDate)
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating provider assignments", err)
	}
	return assignments, nil
}
