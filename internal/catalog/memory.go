package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

// InMemoryDocumentTypeRepository is a map-backed repository for CLI and
// test use.
type InMemoryDocumentTypeRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.DocumentType
}

func NewInMemoryDocumentTypeRepository() *InMemoryDocumentTypeRepository {
	return &InMemoryDocumentTypeRepository{items: make(map[uuid.UUID]*entity.DocumentType)}
}

func (r *InMemoryDocumentTypeRepository) Save(_ context.Context, dt *entity.DocumentType) (*entity.DocumentType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *dt
	r.items[dt.ID] = &cp
	return dt, nil
}

func (r *InMemoryDocumentTypeRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.DocumentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if dt, ok := r.items[id]; ok {
		cp := *dt
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryDocumentTypeRepository) FindByCode(_ context.Context, code string) (*entity.DocumentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, dt := range r.items {
		if dt.Code == code {
			cp := *dt
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *InMemoryDocumentTypeRepository) FindAllActive(_ context.Context) ([]*entity.DocumentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.DocumentType
	for _, dt := range r.items {
		if dt.IsActive {
			cp := *dt
			out = append(out, &cp)
		}
	}
	sortDocumentTypes(out)
	return out, nil
}

func (r *InMemoryDocumentTypeRepository) FindAll(_ context.Context, filter ListFilter) ([]*entity.DocumentType, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*entity.DocumentType
	for _, dt := range r.items {
		if filter.ActiveOnly && !dt.IsActive {
			continue
		}
		if filter.Nature != "" && dt.Nature != filter.Nature {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, dt.Code, dt.Name, dt.Description) {
			continue
		}
		cp := *dt
		matched = append(matched, &cp)
	}
	sortDocumentTypes(matched)
	total := len(matched)
	return paginate(matched, filter.Page, filter.Size), total, nil
}

func (r *InMemoryDocumentTypeRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// InMemoryFieldRepository is a map-backed field repository.
type InMemoryFieldRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.CatalogField
}

func NewInMemoryFieldRepository() *InMemoryFieldRepository {
	return &InMemoryFieldRepository{items: make(map[uuid.UUID]*entity.CatalogField)}
}

func (r *InMemoryFieldRepository) Save(_ context.Context, f *entity.CatalogField) (*entity.CatalogField, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.items[f.ID] = &cp
	return f, nil
}

func (r *InMemoryFieldRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.CatalogField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.items[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryFieldRepository) FindByCode(_ context.Context, code string) (*entity.CatalogField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.items {
		if f.Code == code {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *InMemoryFieldRepository) FindByCodes(_ context.Context, codes []string) ([]*entity.CatalogField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byCode := make(map[string]*entity.CatalogField, len(r.items))
	for _, f := range r.items {
		byCode[f.Code] = f
	}
	var out []*entity.CatalogField
	for _, code := range codes {
		if f, ok := byCode[code]; ok {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *InMemoryFieldRepository) FindAll(_ context.Context, filter ListFilter) ([]*entity.CatalogField, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*entity.CatalogField
	for _, f := range r.items {
		if filter.ActiveOnly && !f.IsActive {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, f.Code, f.DisplayName, f.Description) {
			continue
		}
		cp := *f
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	total := len(matched)
	return paginate(matched, filter.Page, filter.Size), total, nil
}

func (r *InMemoryFieldRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// InMemoryValidatorRepository is a map-backed validator repository.
type InMemoryValidatorRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.ValidatorDefinition
}

func NewInMemoryValidatorRepository() *InMemoryValidatorRepository {
	return &InMemoryValidatorRepository{items: make(map[uuid.UUID]*entity.ValidatorDefinition)}
}

func (r *InMemoryValidatorRepository) Save(_ context.Context, v *entity.ValidatorDefinition) (*entity.ValidatorDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.items[v.ID] = &cp
	return v, nil
}

func (r *InMemoryValidatorRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.ValidatorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.items[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryValidatorRepository) FindByCode(_ context.Context, code string) (*entity.ValidatorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.items {
		if v.Code == code {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *InMemoryValidatorRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.ValidatorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ValidatorDefinition
	for _, id := range ids {
		if v, ok := r.items[id]; ok {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *InMemoryValidatorRepository) FindForDocumentType(_ context.Context, documentTypeID uuid.UUID) ([]*entity.ValidatorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ValidatorDefinition
	for _, v := range r.items {
		for _, dt := range v.ApplicableDocumentTypes {
			if dt == documentTypeID {
				cp := *v
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *InMemoryValidatorRepository) FindAll(_ context.Context, filter ListFilter) ([]*entity.ValidatorDefinition, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*entity.ValidatorDefinition
	for _, v := range r.items {
		if filter.ActiveOnly && !v.IsActive {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, v.Code, v.Name, v.Description) {
			continue
		}
		cp := *v
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	total := len(matched)
	return paginate(matched, filter.Page, filter.Size), total, nil
}

func (r *InMemoryValidatorRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func sortDocumentTypes(items []*entity.DocumentType) {
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
}

func matchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	start := page * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
