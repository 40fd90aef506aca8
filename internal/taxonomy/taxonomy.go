// Package taxonomy defines the closed category/subcategory tree that both
// requests and seller specialties are validated against.
package taxonomy

// Categories maps each category to its allowed subcategories.
var Categories = map[string][]string{
	"electronique": {"smartphones", "ordinateurs", "tablettes", "accessoires", "electromenager"},
	"mode":         {"vetements-homme", "vetements-femme", "chaussures", "sacs", "montres"},
	"maison":       {"meubles", "decoration", "jardinage", "bricolage"},
	"vehicules":    {"voitures", "motos", "pieces-detachees", "velos"},
	"services":     {"reparation", "nettoyage", "demenagement", "cours-particuliers", "plomberie"},
	"immobilier":   {"location", "vente", "colocation"},
	"loisirs":      {"sport", "musique", "livres", "jeux-video"},
	"autres":       {"divers"},
}

// IsValidCategory reports whether the category exists.
func IsValidCategory(category string) bool {
	_, ok := Categories[category]
	return ok
}

// IsValidPair reports whether subCategory belongs to category.
func IsValidPair(category, subCategory string) bool {
	subs, ok := Categories[category]
	if !ok {
		return false
	}
	for _, s := range subs {
		if s == subCategory {
			return true
		}
	}
	return false
}

// List returns all category names.
func List() []string {
	names := make([]string, 0, len(Categories))
	for name := range Categories {
		names = append(names, name)
	}
	return names
}
