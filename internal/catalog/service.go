package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

var fieldCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Service encapsulates business logic for the document type, field and
// validator catalog. It depends only on repository interfaces.
type Service struct {
	docTypes   DocumentTypeRepository
	fields     FieldRepository
	validators ValidatorRepository
	log        *slog.Logger
}

func NewService(docTypes DocumentTypeRepository, fields FieldRepository, validators ValidatorRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docTypes: docTypes, fields: fields, validators: validators, log: logger}
}

// ── Document types ──────────────────────────────────────────────────

// CreateDocumentType registers a new document type. Codes are unique
// across active and inactive entries.
func (s *Service) CreateDocumentType(ctx context.Context, dt *entity.DocumentType) (*entity.DocumentType, error) {
	existing, err := s.docTypes.FindByCode(ctx, dt.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.NewDocumentTypeDuplicate(dt.Code)
	}
	if dt.ID == uuid.Nil {
		dt.ID = uuid.New()
	}
	if dt.ConfidenceThreshold == 0 {
		dt.ConfidenceThreshold = 0.7
	}
	if dt.Version == "" {
		dt.Version = "1.0.0"
	}
	dt.IsActive = true
	dt.CreatedAt = time.Now().UTC()
	dt.UpdatedAt = dt.CreatedAt
	saved, err := s.docTypes.Save(ctx, dt)
	if err != nil {
		return nil, err
	}
	s.log.Info("catalog.document_type.created", "id", saved.ID, "code", saved.Code)
	return saved, nil
}

func (s *Service) GetDocumentType(ctx context.Context, id uuid.UUID) (*entity.DocumentType, error) {
	dt, err := s.docTypes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, common.NewDocumentTypeNotFound(id.String())
	}
	return dt, nil
}

func (s *Service) GetDocumentTypeByCode(ctx context.Context, code string) (*entity.DocumentType, error) {
	dt, err := s.docTypes.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, common.NewDocumentTypeNotFound(code)
	}
	return dt, nil
}

func (s *Service) ListDocumentTypes(ctx context.Context, filter ListFilter) ([]*entity.DocumentType, int, error) {
	return s.docTypes.FindAll(ctx, filter)
}

// ListAllActiveDocumentTypes returns every active type, unpaginated.
// Used by classification to build the candidate pool.
func (s *Service) ListAllActiveDocumentTypes(ctx context.Context) ([]*entity.DocumentType, error) {
	return s.docTypes.FindAllActive(ctx)
}

func (s *Service) UpdateDocumentType(ctx context.Context, dt *entity.DocumentType) (*entity.DocumentType, error) {
	if _, err := s.GetDocumentType(ctx, dt.ID); err != nil {
		return nil, err
	}
	dt.UpdatedAt = time.Now().UTC()
	return s.docTypes.Save(ctx, dt)
}

func (s *Service) DeleteDocumentType(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDocumentType(ctx, id); err != nil {
		return err
	}
	return s.docTypes.Delete(ctx, id)
}

func (s *Service) SetDocumentTypeActive(ctx context.Context, id uuid.UUID, active bool) (*entity.DocumentType, error) {
	dt, err := s.GetDocumentType(ctx, id)
	if err != nil {
		return nil, err
	}
	dt.IsActive = active
	dt.UpdatedAt = time.Now().UTC()
	return s.docTypes.Save(ctx, dt)
}

// SetDefaultFieldCodes replaces a type's default field codes after
// verifying every code resolves.
func (s *Service) SetDefaultFieldCodes(ctx context.Context, id uuid.UUID, codes []string) (*entity.DocumentType, error) {
	if _, err := s.ResolveFields(ctx, codes); err != nil {
		return nil, err
	}
	dt, err := s.GetDocumentType(ctx, id)
	if err != nil {
		return nil, err
	}
	dt.DefaultFieldCodes = codes
	dt.UpdatedAt = time.Now().UTC()
	return s.docTypes.Save(ctx, dt)
}

// AssignValidators replaces a type's validator references after verifying
// each one exists.
func (s *Service) AssignValidators(ctx context.Context, id uuid.UUID, validatorIDs []uuid.UUID) (*entity.DocumentType, error) {
	dt, err := s.GetDocumentType(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, vid := range validatorIDs {
		v, err := s.validators.FindByID(ctx, vid)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, common.NewValidatorNotFound(vid.String())
		}
	}
	dt.ValidatorIDs = validatorIDs
	dt.UpdatedAt = time.Now().UTC()
	return s.docTypes.Save(ctx, dt)
}

// ── Fields ──────────────────────────────────────────────────────────

func (s *Service) CreateField(ctx context.Context, f *entity.CatalogField) (*entity.CatalogField, error) {
	if !fieldCodePattern.MatchString(f.Code) {
		return nil, common.NewAppError(common.CodeConfig,
			fmt.Sprintf("field code %q does not match %s", f.Code, fieldCodePattern.String()),
			map[string]any{"field_code": f.Code})
	}
	existing, err := s.fields.FindByCode(ctx, f.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.NewFieldDuplicate(f.Code)
	}
	for _, rule := range f.ValidationRules {
		if err := ValidateValidatorConfig(rule.RuleType, rule.Config); err != nil {
			return nil, err
		}
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.IsActive = true
	f.CreatedAt = time.Now().UTC()
	f.UpdatedAt = f.CreatedAt
	saved, err := s.fields.Save(ctx, f)
	if err != nil {
		return nil, err
	}
	s.log.Info("catalog.field.created", "id", saved.ID, "code", saved.Code)
	return saved, nil
}

func (s *Service) GetField(ctx context.Context, id uuid.UUID) (*entity.CatalogField, error) {
	f, err := s.fields.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, common.NewFieldNotFound(id.String())
	}
	return f, nil
}

func (s *Service) ListFields(ctx context.Context, filter ListFilter) ([]*entity.CatalogField, int, error) {
	return s.fields.FindAll(ctx, filter)
}

func (s *Service) UpdateField(ctx context.Context, f *entity.CatalogField) (*entity.CatalogField, error) {
	if _, err := s.GetField(ctx, f.ID); err != nil {
		return nil, err
	}
	for _, rule := range f.ValidationRules {
		if err := ValidateValidatorConfig(rule.RuleType, rule.Config); err != nil {
			return nil, err
		}
	}
	f.UpdatedAt = time.Now().UTC()
	return s.fields.Save(ctx, f)
}

func (s *Service) DeleteField(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetField(ctx, id); err != nil {
		return err
	}
	return s.fields.Delete(ctx, id)
}

// ResolveFields resolves catalog field codes in bulk, preserving request
// order. Any unresolved code fails the whole resolution with the full
// missing list; a caller naming a nonexistent code is an input error,
// never a silent drop.
func (s *Service) ResolveFields(ctx context.Context, codes []string) ([]*entity.CatalogField, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	found, err := s.fields.FindByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*entity.CatalogField, len(found))
	for _, f := range found {
		byCode[f.Code] = f
	}
	var missing []string
	out := make([]*entity.CatalogField, 0, len(codes))
	for _, code := range codes {
		f, ok := byCode[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		out = append(out, f)
	}
	if len(missing) > 0 {
		return nil, common.NewTargetSchemaResolution(missing)
	}
	return out, nil
}

// DefaultFieldsFor resolves the default field set of a catalog type.
func (s *Service) DefaultFieldsFor(ctx context.Context, documentTypeID uuid.UUID) ([]*entity.CatalogField, error) {
	dt, err := s.GetDocumentType(ctx, documentTypeID)
	if err != nil {
		return nil, err
	}
	if len(dt.DefaultFieldCodes) == 0 {
		return nil, nil
	}
	return s.ResolveFields(ctx, dt.DefaultFieldCodes)
}

// ── Validators ──────────────────────────────────────────────────────

func (s *Service) CreateValidator(ctx context.Context, v *entity.ValidatorDefinition) (*entity.ValidatorDefinition, error) {
	existing, err := s.validators.FindByCode(ctx, v.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.NewValidatorDuplicate(v.Code)
	}
	if err := ValidateValidatorConfig(v.ValidatorType, v.Config); err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Severity == "" {
		v.Severity = constants.SeverityError
	}
	if v.Version == "" {
		v.Version = "1.0.0"
	}
	v.IsActive = true
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	saved, err := s.validators.Save(ctx, v)
	if err != nil {
		return nil, err
	}
	s.log.Info("catalog.validator.created", "id", saved.ID, "code", saved.Code, "type", saved.ValidatorType)
	return saved, nil
}

func (s *Service) GetValidator(ctx context.Context, id uuid.UUID) (*entity.ValidatorDefinition, error) {
	v, err := s.validators.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, common.NewValidatorNotFound(id.String())
	}
	return v, nil
}

func (s *Service) ListValidators(ctx context.Context, filter ListFilter) ([]*entity.ValidatorDefinition, int, error) {
	return s.validators.FindAll(ctx, filter)
}

func (s *Service) DeleteValidator(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetValidator(ctx, id); err != nil {
		return err
	}
	return s.validators.Delete(ctx, id)
}

// ValidatorsByIDs loads validator definitions referenced by a document
// type. IDs with no match are skipped.
func (s *Service) ValidatorsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.ValidatorDefinition, error) {
	return s.validators.FindByIDs(ctx, ids)
}

// ValidatorTypeInfo describes one validator type for discovery endpoints.
type ValidatorTypeInfo struct {
	Code         string         `json:"code"`
	Description  string         `json:"description"`
	ConfigSchema map[string]any `json:"config_schema"`
}

var validatorTypeDescriptions = map[constants.ValidatorType]string{
	constants.ValidatorFormat:       "Validates field values against format rules (regex, date, email, etc.)",
	constants.ValidatorRange:        "Validates numeric or date values fall within a specified range",
	constants.ValidatorRequired:     "Ensures required fields are present and non-empty",
	constants.ValidatorCrossField:   "Validates consistency between multiple fields",
	constants.ValidatorVisual:       "Uses a VLM to perform visual checks (signatures, stamps, photos)",
	constants.ValidatorBusinessRule: "Evaluates custom business rule expressions",
	constants.ValidatorCompleteness: "Checks document completeness (pages, field coverage)",
	constants.ValidatorChecksum:     "Validates check digits and checksums (Luhn, MOD 97)",
	constants.ValidatorLookup:       "Validates values against external data sources",
}

// ListValidatorTypes returns metadata for every known validator type.
func (s *Service) ListValidatorTypes() []ValidatorTypeInfo {
	out := make([]ValidatorTypeInfo, 0, len(constants.ValidatorTypes))
	for _, vt := range constants.ValidatorTypes {
		out = append(out, ValidatorTypeInfo{
			Code:         string(vt),
			Description:  validatorTypeDescriptions[vt],
			ConfigSchema: ConfigSchemaFor(vt),
		})
	}
	return out
}
