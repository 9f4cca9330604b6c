// Package services содержит бизнес-логику справочников: счета, категории,
// центры затрат, поставщики, типы продуктов и продукты.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/admin7club/financial-manager/internal/lib/entitlement"
	"github.com/admin7club/financial-manager/internal/models"
)

// ErrProductLimitReached возвращается, когда лимит продуктов тарифного плана исчерпан.
var ErrProductLimitReached = errors.New("product limit reached for current plan")

// CatalogRepository определяет методы для работы со справочниками в хранилище.
type CatalogRepository interface {
	CreateAccount(ctx context.Context, acc models.Account) (string, error)
	ListAccounts(ctx context.Context, userUID string) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, acc models.Account, id, userUID string) (int, error)
	RemoveAccount(ctx context.Context, id, userUID string) (int, error)

	CreateCategory(ctx context.Context, cat models.Category) (string, error)
	ListCategories(ctx context.Context, userUID, kind string) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, cat models.Category, id, userUID string) (int, error)
	RemoveCategory(ctx context.Context, id, userUID string) (int, error)

	CreateCostCenter(ctx context.Context, cc models.CostCenter) (string, error)
	ListCostCenters(ctx context.Context, userUID string) ([]*models.CostCenter, error)
	UpdateCostCenter(ctx context.Context, cc models.CostCenter, id, userUID string) (int, error)
	RemoveCostCenter(ctx context.Context, id, userUID string) (int, error)

	CreateSupplier(ctx context.Context, sup models.Supplier) (string, error)
	ListSuppliers(ctx context.Context, userUID string) ([]*models.Supplier, error)
	UpdateSupplier(ctx context.Context, sup models.Supplier, id, userUID string) (int, error)
	RemoveSupplier(ctx context.Context, id, userUID string) (int, error)

	CreateProductType(ctx context.Context, pt models.ProductType) (string, error)
	ListProductTypes(ctx context.Context, userUID string) ([]*models.ProductType, error)
	UpdateProductType(ctx context.Context, pt models.ProductType, id, userUID string) (int, error)
	RemoveProductType(ctx context.Context, id, userUID string) (int, error)

	CreateProduct(ctx context.Context, p models.Product) (string, error)
	ListProducts(ctx context.Context, userUID string) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product, id, userUID string) (int, error)
	RemoveProduct(ctx context.Context, id, userUID string) (int, error)
	CountProducts(ctx context.Context, userUID string) (int, error)
}

// LicenseChecker выводит права пользователя для проверки лимитов.
type LicenseChecker interface {
	Check(ctx context.Context, userUID string) (*models.LicenseInfo, error)
}

// CatalogService реализует операции над справочниками.
type CatalogService struct {
	repo    CatalogRepository
	license LicenseChecker
	log     *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo CatalogRepository, license LicenseChecker, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		license: license,
		log:     log,
	}
}

// CreateAccount создает новый финансовый счёт.
func (s *CatalogService) CreateAccount(ctx context.Context, userUID string, req models.DummyAccount) (string, error) {
	acc := models.Account{
		UserUID:        userUID,
		Name:           req.Name,
		Kind:           req.Kind,
		Bank:           optional(req.Bank),
		Branch:         optional(req.Branch),
		Number:         optional(req.Number),
		InitialBalance: req.InitialBalance,
		Notes:          optional(req.Notes),
	}
	return s.repo.CreateAccount(ctx, acc)
}

// ListAccounts возвращает счета пользователя.
func (s *CatalogService) ListAccounts(ctx context.Context, userUID string) ([]*models.Account, error) {
	return s.repo.ListAccounts(ctx, userUID)
}

// UpdateAccount обновляет счёт по ID.
func (s *CatalogService) UpdateAccount(ctx context.Context, req models.DummyAccount, id, userUID string) (int, error) {
	acc := models.Account{
		Name:   req.Name,
		Kind:   req.Kind,
		Bank:   optional(req.Bank),
		Branch: optional(req.Branch),
		Number: optional(req.Number),
		Notes:  optional(req.Notes),
	}
	return s.repo.UpdateAccount(ctx, acc, id, userUID)
}

// RemoveAccount удаляет счёт по ID.
func (s *CatalogService) RemoveAccount(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveAccount(ctx, id, userUID)
}

// CreateCategory создает новую категорию.
func (s *CatalogService) CreateCategory(ctx context.Context, userUID string, req models.DummyCategory) (string, error) {
	cat := models.Category{
		UserUID:     userUID,
		Name:        req.Name,
		Kind:        req.Kind,
		Color:       optional(req.Color),
		Description: optional(req.Description),
		ParentID:    optional(req.ParentID),
	}
	return s.repo.CreateCategory(ctx, cat)
}

// ListCategories возвращает категории пользователя, опционально по виду.
func (s *CatalogService) ListCategories(ctx context.Context, userUID, kind string) ([]*models.Category, error) {
	return s.repo.ListCategories(ctx, userUID, kind)
}

// UpdateCategory обновляет категорию по ID.
func (s *CatalogService) UpdateCategory(ctx context.Context, req models.DummyCategory, id, userUID string) (int, error) {
	cat := models.Category{
		Name:        req.Name,
		Kind:        req.Kind,
		Color:       optional(req.Color),
		Description: optional(req.Description),
		ParentID:    optional(req.ParentID),
	}
	return s.repo.UpdateCategory(ctx, cat, id, userUID)
}

// RemoveCategory удаляет категорию по ID.
func (s *CatalogService) RemoveCategory(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveCategory(ctx, id, userUID)
}

// CreateCostCenter создает новый центр затрат.
func (s *CatalogService) CreateCostCenter(ctx context.Context, userUID string, req models.DummyCostCenter) (string, error) {
	cc := models.CostCenter{
		UserUID:     userUID,
		Name:        req.Name,
		Code:        optional(req.Code),
		Description: optional(req.Description),
	}
	return s.repo.CreateCostCenter(ctx, cc)
}

// ListCostCenters возвращает центры затрат пользователя.
func (s *CatalogService) ListCostCenters(ctx context.Context, userUID string) ([]*models.CostCenter, error) {
	return s.repo.ListCostCenters(ctx, userUID)
}

// UpdateCostCenter обновляет центр затрат по ID.
func (s *CatalogService) UpdateCostCenter(ctx context.Context, req models.DummyCostCenter, id, userUID string) (int, error) {
	cc := models.CostCenter{
		Name:        req.Name,
		Code:        optional(req.Code),
		Description: optional(req.Description),
	}
	return s.repo.UpdateCostCenter(ctx, cc, id, userUID)
}

// RemoveCostCenter удаляет центр затрат по ID.
func (s *CatalogService) RemoveCostCenter(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveCostCenter(ctx, id, userUID)
}

// CreateSupplier создает нового поставщика.
func (s *CatalogService) CreateSupplier(ctx context.Context, userUID string, req models.DummySupplier) (string, error) {
	sup := models.Supplier{
		UserUID:      userUID,
		Name:         req.Name,
		Document:     optional(req.Document),
		DocumentKind: optional(req.DocumentKind),
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		Address:      optional(req.Address),
		Notes:        optional(req.Notes),
	}
	return s.repo.CreateSupplier(ctx, sup)
}

// ListSuppliers возвращает поставщиков пользователя.
func (s *CatalogService) ListSuppliers(ctx context.Context, userUID string) ([]*models.Supplier, error) {
	return s.repo.ListSuppliers(ctx, userUID)
}

// UpdateSupplier обновляет поставщика по ID.
func (s *CatalogService) UpdateSupplier(ctx context.Context, req models.DummySupplier, id, userUID string) (int, error) {
	sup := models.Supplier{
		Name:         req.Name,
		Document:     optional(req.Document),
		DocumentKind: optional(req.DocumentKind),
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		Address:      optional(req.Address),
		Notes:        optional(req.Notes),
	}
	return s.repo.UpdateSupplier(ctx, sup, id, userUID)
}

// RemoveSupplier удаляет поставщика по ID.
func (s *CatalogService) RemoveSupplier(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveSupplier(ctx, id, userUID)
}

// CreateProductType создает новый тип продукта.
func (s *CatalogService) CreateProductType(ctx context.Context, userUID string, req models.DummyProductType) (string, error) {
	pt := models.ProductType{
		UserUID:     userUID,
		Name:        req.Name,
		Description: optional(req.Description),
	}
	return s.repo.CreateProductType(ctx, pt)
}

// ListProductTypes возвращает типы продуктов пользователя.
func (s *CatalogService) ListProductTypes(ctx context.Context, userUID string) ([]*models.ProductType, error) {
	return s.repo.ListProductTypes(ctx, userUID)
}

// UpdateProductType обновляет тип продукта по ID.
func (s *CatalogService) UpdateProductType(ctx context.Context, req models.DummyProductType, id, userUID string) (int, error) {
	pt := models.ProductType{
		Name:        req.Name,
		Description: optional(req.Description),
	}
	return s.repo.UpdateProductType(ctx, pt, id, userUID)
}

// RemoveProductType удаляет тип продукта по ID.
func (s *CatalogService) RemoveProductType(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveProductType(ctx, id, userUID)
}

// CreateProduct создает новый продукт, предварительно проверив лимит
// тарифного плана.
func (s *CatalogService) CreateProduct(ctx context.Context, userUID string, req models.DummyProduct) (string, error) {
	info, err := s.license.Check(ctx, userUID)
	if err != nil {
		return "", err
	}
	count, err := s.repo.CountProducts(ctx, userUID)
	if err != nil {
		return "", err
	}
	if !info.WithinLimit(entitlement.LimitProducts, count) {
		return "", ErrProductLimitReached
	}

	priceKind := req.PriceKind
	if priceKind == "" {
		priceKind = "fixed"
	}
	p := models.Product{
		UserUID:       userUID,
		ProductTypeID: req.ProductTypeID,
		Name:          req.Name,
		Description:   optional(req.Description),
		PriceKind:     priceKind,
		PriceBRL:      req.PriceBRL,
		PriceUSD:      req.PriceUSD,
	}
	return s.repo.CreateProduct(ctx, p)
}

// ListProducts возвращает продукты пользователя.
func (s *CatalogService) ListProducts(ctx context.Context, userUID string) ([]*models.Product, error) {
	return s.repo.ListProducts(ctx, userUID)
}

// UpdateProduct обновляет продукт по ID.
func (s *CatalogService) UpdateProduct(ctx context.Context, req models.DummyProduct, id, userUID string) (int, error) {
	p := models.Product{
		ProductTypeID: req.ProductTypeID,
		Name:          req.Name,
		Description:   optional(req.Description),
		PriceKind:     req.PriceKind,
		PriceBRL:      req.PriceBRL,
		PriceUSD:      req.PriceUSD,
	}
	return s.repo.UpdateProduct(ctx, p, id, userUID)
}

// RemoveProduct удаляет продукт по ID.
func (s *CatalogService) RemoveProduct(ctx context.Context, id, userUID string) (int, error) {
	return s.repo.RemoveProduct(ctx, id, userUID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
