package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("service not found")
	ErrDuplicateID  = errors.New("duplicate service id")
	ErrEmptyService = errors.New("service id and name are required")
)

// CurrencySymbol is prepended to every displayed price.
const CurrencySymbol = "₹"

// Service is one bookable salon service.
type Service struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Icon  string
}

// Label is the menu button text, e.g. "Haircut 💇 - ₹100".
func (s Service) Label() string {
	return fmt.Sprintf("%s %s - %s", s.Name, s.Icon, FormatPrice(s.Price))
}

// Title is the service name followed by its icon.
func (s Service) Title() string {
	if s.Icon == "" {
		return s.Name
	}
	return s.Name + " " + s.Icon
}

func FormatPrice(p decimal.Decimal) string {
	return CurrencySymbol + p.StringFixedBank(0)
}

// Catalog keeps services in declaration order; the order is the menu order.
type Catalog struct {
	services []Service
	byID     map[string]int
}

func New(services ...Service) (*Catalog, error) {
	c := &Catalog{
		services: make([]Service, 0, len(services)),
		byID:     make(map[string]int, len(services)),
	}
	for _, s := range services {
		if s.ID == "" || s.Name == "" {
			return nil, ErrEmptyService
		}
		if _, ok := c.byID[s.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
		c.byID[s.ID] = len(c.services)
		c.services = append(c.services, s)
	}
	return c, nil
}

// Default returns the salon's standard menu.
func Default() *Catalog {
	c, err := New(
		Service{ID: "haircut", Name: "Haircut", Price: decimal.NewFromInt(100), Icon: "💇"},
		Service{ID: "coloring", Name: "Coloring", Price: decimal.NewFromInt(500), Icon: "🎨"},
		Service{ID: "smoothening", Name: "Smoothening", Price: decimal.NewFromInt(350), Icon: "✨"},
		Service{ID: "beard", Name: "Beard Trim", Price: decimal.NewFromInt(100), Icon: "🧏‍♂️"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id string) (Service, error) {
	i, ok := c.byID[id]
	if !ok {
		return Service{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.services[i], nil
}

func (c *Catalog) List() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}
