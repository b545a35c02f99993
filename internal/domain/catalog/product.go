package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"BakeryStore/internal/controller/apperror"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Image       string          `json:"image,omitempty" yaml:"image"`
	Category    Category        `json:"category" yaml:"category"`
	Rating      float64         `json:"rating" yaml:"rating"`
	Stock       int             `json:"stock" yaml:"stock"`
	Vendor      string          `json:"vendor" yaml:"vendor"`
	Occasion    *Occasion       `json:"occasion,omitempty" yaml:"occasion"`
	BreadType   *BreadType      `json:"bread_type,omitempty" yaml:"bread_type"`
	Deleted     bool            `json:"deleted,omitempty" yaml:"-"`
}

type Category string

const (
	CategoryBread  Category = "bread"
	CategoryCake   Category = "cake"
	CategoryPastry Category = "pastry"
)

var AvailableCategories = []Category{CategoryBread, CategoryCake, CategoryPastry}

func NewCategory(raw string) (Category, error) {
	if slices.Contains(AvailableCategories, Category(raw)) {
		return Category(raw), nil
	}
	return "", errors.New("invalid product category")
}

type Occasion string

const (
	OccasionBirthday Occasion = "birthday"
	OccasionWedding  Occasion = "wedding"
	OccasionHoliday  Occasion = "holiday"
)

type BreadType string

const (
	BreadSourdough BreadType = "sourdough"
	BreadWheat     BreadType = "wheat"
	BreadRye       BreadType = "rye"
	BreadWhite     BreadType = "white"
)

// Validate checks the invariants every stored product must hold.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", apperror.ErrValidation)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: product price must be positive", apperror.ErrValidation)
	}
	if _, err := NewCategory(string(p.Category)); err != nil {
		return fmt.Errorf("%w: %s", apperror.ErrValidation, err.Error())
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", apperror.ErrValidation)
	}
	return nil
}

type ProductsQuery struct {
	IDs            []string
	Categories     []Category
	Vendors        []string
	Search         string
	IncludeDeleted bool
}

func (q ProductsQuery) Matches(p Product) bool {
	if p.Deleted && !q.IncludeDeleted {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, p.ID) {
		return false
	}
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, p.Category) {
		return false
	}
	if len(q.Vendors) > 0 && !slices.Contains(q.Vendors, p.Vendor) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=128"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Image       string          `json:"image" binding:"omitempty,url"`
	Category    Category        `json:"category" binding:"required,oneof=bread cake pastry"`
	Stock       int             `json:"stock" binding:"min=0"`
	Vendor      string          `json:"vendor"`
	Occasion    *Occasion       `json:"occasion,omitempty" binding:"omitempty,oneof=birthday wedding holiday"`
	BreadType   *BreadType      `json:"bread_type,omitempty" binding:"omitempty,oneof=sourdough wheat rye white"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" binding:"omitempty,max=128"`
	Description *string          `json:"description,omitempty" binding:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Image       *string          `json:"image,omitempty" binding:"omitempty,url"`
	Category    *Category        `json:"category,omitempty" binding:"omitempty,oneof=bread cake pastry"`
	Occasion    *Occasion        `json:"occasion,omitempty" binding:"omitempty,oneof=birthday wedding holiday"`
	BreadType   *BreadType       `json:"bread_type,omitempty" binding:"omitempty,oneof=sourdough wheat rye white"`
}

func (r UpdateProductRequest) apply(p Product) Product {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Image != nil {
		p.Image = *r.Image
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Occasion != nil {
		p.Occasion = r.Occasion
	}
	if r.BreadType != nil {
		p.BreadType = r.BreadType
	}
	return p
}

type RestockRequest struct {
	Stock *int `json:"stock" binding:"required,min=0"`
}
