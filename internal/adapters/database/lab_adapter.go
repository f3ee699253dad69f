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

// LabAdapter implements the LabRepository interface for lab orders and
// results
type LabAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewLabAdapter creates a new lab adapter
func NewLabAdapter(client *postgres.Client) repositories.LabRepository {
	return &LabAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateOrder creates a new lab order
func (a *LabAdapter) CreateOrder(ctx context.Context, order *entities.LabOrder) error {
	query, args, err := a.db.Insert("lab_orders").Rows(goqu.Record{
		"id":           order.ID,
		"patient_id":   order.PatientID,
		"encounter_id": nullUUID(order.EncounterID),
		"provider_id":  nullUUID(order.ProviderID),
		"lab_test_id":  order.LabTestID,
		"ordered_at":   order.OrderedAt,
		"status":       order.Status,
		"priority":     nullString(order.Priority),
		"version":      order.Version,
		"created_at":   order.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create lab order", err)
	}
	return nil
}

const labOrderSelect = `
	SELECT id, patient_id, encounter_id, provider_id, lab_test_id,
	       ordered_at, status, priority, version, created_at
	FROM lab_orders`

func scanLabOrder(row interface{ Scan(...interface{}) error }) (*entities.LabOrder, error) {
	order := &entities.LabOrder{}
	var encounterID, providerID uuid.NullUUID
	var priority sql.NullString

	err := row.Scan(
		&order.ID,
		&order.PatientID,
		&encounterID,
		&providerID,
		&order.LabTestID,
		&order.OrderedAt,
		&order.Status,
		&priority,
		&order.Version,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.EncounterID = uuidPtr(encounterID)
	order.ProviderID = uuidPtr(providerID)
	order.Priority = stringPtr(priority)
	return order, nil
}

// GetOrderByID retrieves a lab order by ID
func (a *LabAdapter) GetOrderByID(ctx context.Context, id uuid.UUID) (*entities.LabOrder, error) {
	row := a.client.DB().QueryRowContext(ctx, labOrderSelect+` WHERE id = $1`, id)
	order, err := scanLabOrder(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("lab order with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get lab order", err)
	}
	return order, nil
}

// ListOrdersByPatient retrieves a patient's lab orders, newest first
func (a *LabAdapter) ListOrdersByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.LabOrder, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		labOrderSelect+` WHERE patient_id = $1 ORDER BY ordered_at DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list lab orders", err)
	}
	defer rows.Close()

	orders := []*entities.LabOrder{}
	for rows.Next() {
		order, err := scanLabOrder(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan lab order", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating lab orders", err)
	}
	return orders, nil
}

// UpdateOrderStatus applies a status transition guarded by the version the
// caller read
func (a *LabAdapter) UpdateOrderStatus(ctx context.Context, id uuid.UUID, version int, status entities.LabOrderStatus) error {
	result, err := a.client.DB().ExecContext(ctx, `
		UPDATE lab_orders
		SET status = $3, version = version + 1
		WHERE id = $1 AND version = $2`,
		id, version, status)
	if err != nil {
		return apperrors.NewInternalError("failed to update lab order status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewConcurrentModificationError(
			fmt.Sprintf("lab order %s changed since version %d was read", id, version), nil)
	}
	return nil
}

// CreateResult attaches a result to a lab order
func (a *LabAdapter) CreateResult(ctx context.Context, result *entities.LabResult) error {
	query, args, err := a.db.Insert("lab_results").Rows(goqu.Record{
		"id":             result.ID,
		"lab_order_id":   result.LabOrderID,
		"result_value":   result.ResultValue,
		"units":          nullString(result.Units),
		"reference_low":  nullFloat(result.ReferenceLow),
		"reference_high": nullFloat(result.ReferenceHi),
		"is_abnormal":    result.IsAbnormal,
		"resulted_at":    result.ResultedAt,
		"verified_by":    nullUUID(result.VerifiedBy),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create lab result", err)
	}
	return nil
}

// ListResultsByOrder retrieves the results attached to a lab order
func (a *LabAdapter) ListResultsByOrder(ctx context.Context, orderID uuid.UUID) ([]*entities.LabResult, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, lab_order_id, result_value, units, reference_low,
		       reference_high, is_abnormal, resulted_at, verified_by
		FROM lab_results
		WHERE lab_order_id = $1
		ORDER BY resulted_at`, orderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list lab results", err)
	}
	defer rows.Close()

	results := []*entities.LabResult{}
	for rows.Next() {
		result := &entities.LabResult{}
		var units sql.NullString
		var refLow, refHigh sql.NullFloat64
		var verifiedBy uuid.NullUUID
		if err := rows.Scan(&result.ID, &result.LabOrderID, &result.ResultValue, &units,
			&refLow, &refHigh, &result.IsAbnormal, &result.ResultedAt, &verifiedBy); err != nil {
			return nil, apperrors.NewInternalError("failed to scan lab result", err)
		}
		result.Units = stringPtr(units)
		result.ReferenceLow = floatPtr(refLow)
		result.ReferenceHi = floatPtr(refHigh)
		result.VerifiedBy = uuidPtr(verifiedBy)
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating lab results", err)
	}
	return results, nil
}
