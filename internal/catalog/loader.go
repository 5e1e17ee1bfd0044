package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// seedDocumentType extends the entity with code-based validator
// references so seed files never need to hardcode UUIDs.
type seedDocumentType struct {
	entity.DocumentType `yaml:",inline"`
	ValidatorCodes      []string `yaml:"validator_codes,omitempty"`
}

type seedFile struct {
	Fields        []entity.CatalogField        `yaml:"fields"`
	Validators    []entity.ValidatorDefinition `yaml:"validators"`
	DocumentTypes []seedDocumentType           `yaml:"document_types"`
}

// LoadSeedFile reads a YAML catalog definition and registers its fields,
// validators and document types through the service, so all write-time
// checks (duplicate codes, config schemas, field code resolution) apply
// to seed data exactly as they do to API writes.
func (s *Service) LoadSeedFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return common.WrapAppError(common.CodeConfig,
			fmt.Sprintf("cannot open catalog seed file %s", path), err)
	}
	defer f.Close()
	return s.LoadSeed(ctx, f)
}

// LoadSeed registers catalog entries from YAML. Fields first, then
// validators, then document types, so cross-references resolve.
func (s *Service) LoadSeed(ctx context.Context, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return common.WrapAppError(common.CodeConfig, "cannot read catalog seed", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return common.WrapAppError(common.CodeConfig, "cannot parse catalog seed YAML", err)
	}

	for i := range seed.Fields {
		f := seed.Fields[i]
		if _, err := s.CreateField(ctx, &f); err != nil {
			return common.WrapAppError(common.CodeConfig,
				fmt.Sprintf("seed field %q rejected", f.Code), err)
		}
	}

	for i := range seed.Validators {
		v := seed.Validators[i]
		if _, err := s.CreateValidator(ctx, &v); err != nil {
			return common.WrapAppError(common.CodeConfig,
				fmt.Sprintf("seed validator %q rejected", v.Code), err)
		}
	}

	for i := range seed.DocumentTypes {
		dt := seed.DocumentTypes[i].DocumentType
		for _, code := range seed.DocumentTypes[i].ValidatorCodes {
			v, err := s.validators.FindByCode(ctx, code)
			if err != nil {
				return err
			}
			if v == nil {
				return common.WrapAppError(common.CodeConfig,
					fmt.Sprintf("seed document type %q references unknown validator %q", dt.Code, code),
					common.NewValidatorNotFound(code))
			}
			dt.ValidatorIDs = append(dt.ValidatorIDs, v.ID)
		}
		if len(dt.DefaultFieldCodes) > 0 {
			if _, err := s.ResolveFields(ctx, dt.DefaultFieldCodes); err != nil {
				return common.WrapAppError(common.CodeConfig,
					fmt.Sprintf("seed document type %q has unresolvable default fields", dt.Code), err)
			}
		}
		if _, err := s.CreateDocumentType(ctx, &dt); err != nil {
			return common.WrapAppError(common.CodeConfig,
				fmt.Sprintf("seed document type %q rejected", dt.Code), err)
		}
	}

	s.log.Info("catalog.seed.loaded",
		"fields", len(seed.Fields),
		"validators", len(seed.Validators),
		"document_types", len(seed.DocumentTypes))
	return nil
}
