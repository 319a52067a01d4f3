package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

var ErrNotCreator = errors.New("Only the creator may edit this product.")

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) Categories() ([]domain.Category, error) {
	return s.Cats.List()
}

func (s *CatalogService) Category(id string) (domain.Category, error) {
	return s.Cats.Get(id)
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) Browse(o repos.SearchOpts) ([]domain.Product, error) {
	return s.Prods.Search(o)
}

// Similar suggests alternatives on the product page: same category, nearest
// buyer-facing price.
func (s *CatalogService) Similar(p domain.Product) ([]domain.Product, error) {
	return s.Prods.Similar(p, 4)
}

func (s *CatalogService) CreateProduct(creatorID, categoryID, name, description string, basePrice decimal.Decimal, imageLink string) (string, error) {
	p := domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  categoryID,
		Name:        name,
		Description: description,
		BasePrice:   basePrice,
		ImageLink:   imageLink,
		CreatorID:   creatorID,
	}
	if err := s.Prods.Create(p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// EditProduct updates product metadata; only the creating seller may edit.
func (s *CatalogService) EditProduct(actorID string, p domain.Product) error {
	cur, err := s.Prods.Get(p.ID)
	if err != nil {
		return err
	}
	if cur.CreatorID != actorID {
		return ErrNotCreator
	}
	return s.Prods.Update(p)
}
