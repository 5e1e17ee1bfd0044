package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// ListFilter narrows catalog listing queries. Page is 0-based.
type ListFilter struct {
	Nature     constants.DocumentNature
	ActiveOnly bool
	Search     string
	Page       int
	Size       int
}

// DocumentTypeRepository persists document type definitions.
// Lookup methods return (nil, nil) when the entry does not exist.
type DocumentTypeRepository interface {
	Save(ctx context.Context, dt *entity.DocumentType) (*entity.DocumentType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.DocumentType, error)
	FindByCode(ctx context.Context, code string) (*entity.DocumentType, error)
	FindAllActive(ctx context.Context) ([]*entity.DocumentType, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*entity.DocumentType, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FieldRepository persists catalog field definitions.
type FieldRepository interface {
	Save(ctx context.Context, f *entity.CatalogField) (*entity.CatalogField, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CatalogField, error)
	FindByCode(ctx context.Context, code string) (*entity.CatalogField, error)
	// FindByCodes returns the fields found; codes with no match are simply
	// absent from the result.
	FindByCodes(ctx context.Context, codes []string) ([]*entity.CatalogField, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*entity.CatalogField, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ValidatorRepository persists validator definitions.
type ValidatorRepository interface {
	Save(ctx context.Context, v *entity.ValidatorDefinition) (*entity.ValidatorDefinition, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ValidatorDefinition, error)
	FindByCode(ctx context.Context, code string) (*entity.ValidatorDefinition, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.ValidatorDefinition, error)
	FindForDocumentType(ctx context.Context, documentTypeID uuid.UUID) ([]*entity.ValidatorDefinition, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*entity.ValidatorDefinition, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
