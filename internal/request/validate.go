package request

import (
	"fmt"
	"strings"

	"github.com/trouvly/trouvly-backend/internal/geo"
	"github.com/trouvly/trouvly-backend/internal/taxonomy"
)

// maxTags caps the number of tags carried on a request.
const maxTags = 10

// CreateRequest is the payload for posting a new request.
type CreateRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=140"`
	Description string    `json:"description" validate:"required,min=10,max=4000"`
	Category    string    `json:"category" validate:"required"`
	SubCategory string    `json:"sub_category" validate:"required"`
	Location    geo.Point `json:"location"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	RadiusKm    int       `json:"radius_km" validate:"required,min=1,max=100"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	BudgetMin   *float64  `json:"budget_min" validate:"omitempty,min=0"`
	BudgetMax   *float64  `json:"budget_max" validate:"omitempty,min=0"`
	Photos      []string  `json:"photos" validate:"max=10,dive,url"`
	Tags        []string  `json:"tags"`
}

// ValidateDomain applies the checks the struct tags cannot express:
// taxonomy membership, coordinate bounds and budget ordering.
func (r *CreateRequest) ValidateDomain() error {
	if !taxonomy.IsValidCategory(r.Category) {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if !taxonomy.IsValidPair(r.Category, r.SubCategory) {
		return fmt.Errorf("subcategory %q does not belong to category %q", r.SubCategory, r.Category)
	}
	if err := r.Location.Validate(); err != nil {
		return err
	}
	if r.BudgetMin != nil && r.BudgetMax != nil && *r.BudgetMin > *r.BudgetMax {
		return fmt.Errorf("budget_min exceeds budget_max")
	}
	return nil
}

// NormalizeTags lowercases tags and caps the list. Duplicates are kept as
// submitted.
func (r *CreateRequest) NormalizeTags() []string {
	tags := r.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
