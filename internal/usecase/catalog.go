package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// CatalogUseCase manages products and categories.
type CatalogUseCase struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(products repository.ProductRepository, categories repository.CategoryRepository) *CatalogUseCase {
	return &CatalogUseCase{products: products, categories: categories}
}

// ProductInput carries editable product fields.
type ProductInput struct {
	CategoryID  *int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
}

func (u *CatalogUseCase) validateProduct(ctx context.Context, in ProductInput, withStock bool) error {
	verr := &domainErrors.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "is required")
	}
	if in.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if withStock && in.Stock < 0 {
		verr.Add("stock", "must not be negative")
	}
	if in.CategoryID != nil {
		if _, err := u.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if !errors.Is(err, domainErrors.ErrNotFound) {
				return err
			}
			verr.Add("category_id", "unknown category")
		}
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

// CreateProduct adds a product to the catalog.
func (u *CatalogUseCase) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := u.validateProduct(ctx, in, true); err != nil {
		return nil, err
	}
	product := &model.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	}
	if err := u.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits product details. Stock is changed through AdjustStock only.
func (u *CatalogUseCase) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*model.Product, error) {
	if err := u.validateProduct(ctx, in, false); err != nil {
		return nil, err
	}
	product := &model.Product{
		ID:          id,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
	}
	if err := u.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product no order refers to. Ordered products are deactivated instead.
func (u *CatalogUseCase) DeleteProduct(ctx context.Context, id int64) error {
	return u.products.Delete(ctx, id)
}

// AdjustStock changes stock by delta and refuses to go below zero.
func (u *CatalogUseCase) AdjustStock(ctx context.Context, id int64, delta int) (*model.Product, error) {
	if delta == 0 {
		return nil, domainErrors.NewValidationError("delta", "must not be zero")
	}
	return u.products.AdjustStock(ctx, id, delta)
}

// GetProduct returns a product; inactive products are hidden unless includeInactive is set.
func (u *CatalogUseCase) GetProduct(ctx context.Context, id int64, includeInactive bool) (*model.Product, error) {
	product, err := u.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, domainErrors.ErrNotFound
	}
	return product, nil
}

// ListProducts returns one page of products.
func (u *CatalogUseCase) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	filter.Page, filter.PerPage = NormalizePage(filter.Page, filter.PerPage)
	filter.Search = strings.TrimSpace(filter.Search)
	return u.products.List(ctx, filter)
}

// BrowseProducts is the storefront listing: active products only.
func (u *CatalogUseCase) BrowseProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	filter.ActiveOnly = true
	return u.ListProducts(ctx, filter)
}

// CategoryInput carries editable category fields. An empty slug is derived from the name.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

func (in CategoryInput) normalize() (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, domainErrors.NewValidationError("name", "is required")
	}
	if in.Slug = slugify(in.Slug); in.Slug == "" {
		in.Slug = slugify(in.Name)
	}
	if in.Slug == "" {
		return in, domainErrors.NewValidationError("slug", "is required")
	}
	return in, nil
}

// CreateCategory adds a category.
func (u *CatalogUseCase) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	category := &model.Category{Name: in.Name, Slug: in.Slug, Description: in.Description}
	if err := u.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory edits a category.
func (u *CatalogUseCase) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*model.Category, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	category := &model.Category{ID: id, Name: in.Name, Slug: in.Slug, Description: in.Description}
	if err := u.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category; its products become uncategorized.
func (u *CatalogUseCase) DeleteCategory(ctx context.Context, id int64) error {
	return u.categories.Delete(ctx, id)
}

// ListCategories returns all categories.
func (u *CatalogUseCase) ListCategories(ctx context.Context) ([]model.Category, error) {
	return u.categories.List(ctx)
}

var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func slugify(s string) string {
	folded, _, err := transform.String(accentFold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
