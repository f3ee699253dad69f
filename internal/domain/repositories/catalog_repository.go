package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// CatalogRepository defines read access to the clinical code catalogs and
// the write operations the external loading collaborator uses. The core
// treats catalogs as non-empty and immutable during normal operation.
type CatalogRepository interface {
	CreateICDCode(ctx context.Context, code *entities.ICDCode) error
	GetICDCodeByID(ctx context.Context, id uuid.UUID) (*entities.ICDCode, error)
	GetICDCodeByCode(ctx context.Context, code string) (*entities.ICDCode, error)
	ListICDCodes(ctx context.Context, limit, offset int) ([]*entities.ICDCode, error)

	CreateLabTest(ctx context.Context, test *entities.LabTest) error
	GetLabTestByID(ctx context.Context, id uuid.UUID) (*entities.LabTest, error)
	GetLabTestByLoinc(ctx context.Context, loincCode string) (*entities.LabTest, error)

	CreateDrug(ctx context.Context, drug *entities.Drug) error
	GetDrugByID(ctx context.Context, id uuid.UUID) (*entities.Drug, error)
	GetDrugByNDC(ctx context.Context, ndcCode string) (*entities.Drug, error)

	CreateVaccine(ctx context.Context, vaccine *entities.Vaccine) error
	GetVaccineByID(ctx context.Context, id uuid.UUID) (*entities.Vaccine, error)
	GetVaccineByCVX(ctx context.Context, cvxCode string) (*entities.Vaccine, error)
}
