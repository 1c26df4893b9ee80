package testutil

import "github.com/Veraticus/spice-ledger/internal/model"

// Labels from the basic test taxonomy.
const (
	LabelGroceries   = "Food & Dining - Groceries"
	LabelDiningOut   = "Food & Dining - Dining Out"
	LabelStreaming   = "Entertainment - Streaming"
	LabelFuel        = "Transport - Fuel"
	LabelPublic      = "Transport - Public Transport"
	LabelElectricity = "Utilities - Electricity"
)

// TaxonomyBuilder assembles a category taxonomy for tests.
type TaxonomyBuilder struct {
	categories []model.Category
	index      map[string]int
}

// NewTaxonomyBuilder returns an empty builder.
func NewTaxonomyBuilder() *TaxonomyBuilder {
	return &TaxonomyBuilder{index: make(map[string]int)}
}

// WithCategory adds a category and its subcategories. Adding an existing
// category appends the new subcategories to it.
func (b *TaxonomyBuilder) WithCategory(name string, subcategories ...string) *TaxonomyBuilder {
	i, ok := b.index[name]
	if !ok {
		i = len(b.categories)
		b.index[name] = i
		b.categories = append(b.categories, model.Category{Name: name})
	}
	for _, sub := range subcategories {
		b.categories[i].Subcategories = append(b.categories[i].Subcategories, model.Subcategory{Name: sub})
	}
	return b
}

// WithBasicTaxonomy adds the categories behind the Label constants.
func (b *TaxonomyBuilder) WithBasicTaxonomy() *TaxonomyBuilder {
	return b.
		WithCategory("Food & Dining", "Groceries", "Dining Out").
		WithCategory("Entertainment", "Streaming").
		WithCategory("Transport", "Fuel", "Public Transport").
		WithCategory("Utilities", "Electricity")
}

// Build returns the taxonomy.
func (b *TaxonomyBuilder) Build() []model.Category {
	out := make([]model.Category, len(b.categories))
	copy(out, b.categories)
	return out
}
