package model

import "time"

// UncategorisedLabel is the label the classifier uses when no category fits.
const UncategorisedLabel = "Uncategorised"

// Category is a top-level spending category.
type Category struct {
	CreatedAt     time.Time
	Name          string        `yaml:"name"`
	Subcategories []Subcategory `yaml:"subcategories"`
	ID            int64
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	Name       string `yaml:"name"`
	ID         int64
	CategoryID int64
}

// CategoryLabel formats the "<Category> - <Subcategory>" label offered to the classifier.
func CategoryLabel(category, subcategory string) string {
	return category + " - " + subcategory
}

// CategoryRef identifies a (category, subcategory) pair in storage.
type CategoryRef struct {
	CategoryID    int64
	SubcategoryID int64
}

// Taxonomy is the closed set of labels a classifier may choose from.
type Taxonomy struct {
	refs   map[string]CategoryRef
	labels []string
}

// NewTaxonomy builds the label set for the given categories. The uncategorised
// label is always present and always last.
func NewTaxonomy(categories []Category) *Taxonomy {
	t := &Taxonomy{refs: make(map[string]CategoryRef)}
	for _, cat := range categories {
		for _, sub := range cat.Subcategories {
			label := CategoryLabel(cat.Name, sub.Name)
			if _, exists := t.refs[label]; exists {
				continue
			}
			t.refs[label] = CategoryRef{CategoryID: cat.ID, SubcategoryID: sub.ID}
			t.labels = append(t.labels, label)
		}
	}
	t.labels = append(t.labels, UncategorisedLabel)
	return t
}

// Labels returns every allowed label, ending with the uncategorised label.
func (t *Taxonomy) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Resolve maps a label to its stored category. The second return value is
// false for the uncategorised label and for labels outside the taxonomy.
func (t *Taxonomy) Resolve(label string) (CategoryRef, bool) {
	ref, ok := t.refs[label]
	return ref, ok
}

// Contains reports whether label is an allowed label.
func (t *Taxonomy) Contains(label string) bool {
	if label == UncategorisedLabel {
		return true
	}
	_, ok := t.refs[label]
	return ok
}
