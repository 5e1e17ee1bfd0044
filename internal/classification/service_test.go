package classification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

type fakeClassifier struct {
	result *entity.ClassificationResult
	tokens int
	pool   []*entity.DocumentType
	calls  int
}

func (f *fakeClassifier) ClassifyDocument(_ context.Context, _ []entity.PageImage, candidates []*entity.DocumentType) (*entity.ClassificationResult, int, error) {
	f.calls++
	f.pool = candidates
	if f.result == nil {
		return &entity.ClassificationResult{}, f.tokens, nil
	}
	return f.result, f.tokens, nil
}

type fakeCatalog struct {
	active []*entity.DocumentType
}

func (c *fakeCatalog) ListAllActiveDocumentTypes(context.Context) ([]*entity.DocumentType, error) {
	return c.active, nil
}

func docType(code string, nature constants.DocumentNature, active bool) *entity.DocumentType {
	return &entity.DocumentType{ID: uuid.New(), Code: code, Nature: nature, IsActive: active}
}

func TestBuildPoolMergesCatalogAndAdHoc(t *testing.T) {
	adHoc := []*entity.DocumentType{docType("custom", constants.NatureOther, true)}
	catalog := &fakeCatalog{active: []*entity.DocumentType{docType("invoice", constants.NatureFinancial, true)}}
	svc := NewService(&fakeClassifier{}, catalog, nil)

	pool, err := svc.BuildPool(context.Background(), Request{AdHocTypes: adHoc})
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("pool size = %d, want catalog + ad-hoc merged", len(pool))
	}
	if pool[0].Code != "invoice" || pool[1].Code != "custom" {
		t.Errorf("pool order = [%s %s], want catalog types before ad-hoc", pool[0].Code, pool[1].Code)
	}
}

func TestBuildPoolNatureFilter(t *testing.T) {
	catalog := &fakeCatalog{active: []*entity.DocumentType{
		docType("invoice", constants.NatureFinancial, true),
		docType("passport", constants.NatureIdentity, true),
		docType("receipt", constants.NatureFinancial, true),
	}}
	svc := NewService(&fakeClassifier{}, catalog, nil)

	pool, err := svc.BuildPool(context.Background(), Request{NatureFilter: constants.NatureFinancial})
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	if len(pool) != 2 {
		t.Errorf("pool size = %d, want 2 financial types", len(pool))
	}
	for _, dt := range pool {
		if dt.Nature != constants.NatureFinancial {
			t.Errorf("non-financial type %q in filtered pool", dt.Code)
		}
	}
}

func TestBuildPoolNatureFilterAppliesToAdHocTypes(t *testing.T) {
	catalog := &fakeCatalog{active: []*entity.DocumentType{docType("invoice", constants.NatureFinancial, true)}}
	svc := NewService(&fakeClassifier{}, catalog, nil)

	pool, err := svc.BuildPool(context.Background(), Request{
		AdHocTypes:   []*entity.DocumentType{docType("id_card", constants.NatureIdentity, true)},
		NatureFilter: constants.NatureFinancial,
	})
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	if len(pool) != 1 || pool[0].Code != "invoice" {
		t.Errorf("pool = %v, want the wrong-nature ad-hoc type filtered out", pool)
	}
}

func TestBuildPoolSynthesizesFromExpectedType(t *testing.T) {
	svc := NewService(&fakeClassifier{}, &fakeCatalog{}, nil)

	pool, err := svc.BuildPool(context.Background(), Request{ExpectedTypeCode: "bank_statement"})
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	if len(pool) != 1 {
		t.Fatalf("pool size = %d, want one synthesized type", len(pool))
	}
	dt := pool[0]
	if dt.Code != "bank_statement" {
		t.Errorf("synthesized code = %q", dt.Code)
	}
	if dt.Name != "Bank Statement" {
		t.Errorf("synthesized name = %q", dt.Name)
	}
	if dt.Nature != constants.NatureOther {
		t.Errorf("synthesized nature = %q, want %q", dt.Nature, constants.NatureOther)
	}
}

func TestBuildPoolExpectedTypeNotSynthesizedWhenPoolNonEmpty(t *testing.T) {
	catalog := &fakeCatalog{active: []*entity.DocumentType{docType("invoice", constants.NatureFinancial, true)}}
	svc := NewService(&fakeClassifier{}, catalog, nil)

	pool, err := svc.BuildPool(context.Background(), Request{ExpectedTypeCode: "receipt"})
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	if len(pool) != 1 || pool[0].Code != "invoice" {
		t.Errorf("pool = %v, hint must not add to a non-empty pool", pool)
	}
}

func TestClassifyExpectedTypeOnlyReachesClassifier(t *testing.T) {
	fake := &fakeClassifier{}
	svc := NewService(fake, &fakeCatalog{}, nil)

	if _, _, err := svc.Classify(context.Background(), nil, Request{ExpectedTypeCode: "invoice"}); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if fake.calls != 1 {
		t.Fatal("classifier must run against the synthesized type")
	}
	if len(fake.pool) != 1 || fake.pool[0].Code != "invoice" {
		t.Errorf("classifier pool = %v, want one synthesized invoice type", fake.pool)
	}
}

func TestClassifyEmptyPoolShortCircuits(t *testing.T) {
	fake := &fakeClassifier{}
	svc := NewService(fake, &fakeCatalog{}, nil)

	result, tokens, err := svc.Classify(context.Background(), nil, Request{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if fake.calls != 0 {
		t.Error("classifier must not run against an empty pool")
	}
	if tokens != 0 || result.Confidence != 0 || result.BestMatch != nil {
		t.Errorf("want a zero-confidence unclassified result, got %+v (tokens %d)", result, tokens)
	}
}

func TestClassifyDelegatesPoolAndTokens(t *testing.T) {
	invoice := docType("invoice", constants.NatureFinancial, true)
	fake := &fakeClassifier{
		result: &entity.ClassificationResult{
			BestMatch: &entity.ClassificationCandidate{
				DocumentTypeID: invoice.ID, DocumentTypeCode: "invoice", Confidence: 0.91,
			},
			Confidence: 0.91,
		},
		tokens: 420,
	}
	svc := NewService(fake, &fakeCatalog{active: []*entity.DocumentType{invoice}}, nil)

	result, tokens, err := svc.Classify(context.Background(), nil, Request{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tokens != 420 {
		t.Errorf("tokens = %d, want 420", tokens)
	}
	if result.BestMatch == nil || result.BestMatch.DocumentTypeCode != "invoice" {
		t.Errorf("best match = %+v", result.BestMatch)
	}
	if len(fake.pool) != 1 || fake.pool[0].Code != "invoice" {
		t.Errorf("classifier saw pool %v", fake.pool)
	}
}

type erroringCatalog struct{}

func (erroringCatalog) ListAllActiveDocumentTypes(context.Context) ([]*entity.DocumentType, error) {
	return nil, errors.New("catalog down")
}

func TestClassifyPropagatesCatalogErrors(t *testing.T) {
	svc := NewService(&fakeClassifier{}, erroringCatalog{}, nil)
	if _, _, err := svc.Classify(context.Background(), nil, Request{}); err == nil {
		t.Error("catalog failure must propagate")
	}
}
