package utils

// Drink catalog served to the client. The "Others" category tracks
// non-drink consumables; it counts in the per-key tally but never in the
// competitive total.

const NonScoringCategory = "Others"

type DrinkCategory struct {
	Type     string   `json:"type"`
	Icon     string   `json:"icon"`
	Subtypes []string `json:"subtypes"`
}

var DrinkCategories = []DrinkCategory{
	{Type: "Beer", Icon: "🍺", Subtypes: []string{"Lager", "IPA", "Stout", "Pilsner", "Wheat Beer", "Sour"}},
	{Type: "Wine", Icon: "🍷", Subtypes: []string{"Red", "White", "Rosé", "Sparkling", "Gløgg"}},
	{Type: "Cocktail", Icon: "🍸", Subtypes: []string{"Mojito", "Margarita", "Martini", "Gin & Tonic", "Dark 'n Stormy", "White Russian", "Espresso Martini"}},
	{Type: "Shots", Icon: "🥃", Subtypes: []string{"Tequila", "Jägermeister", "Vodka", "Fisk", "Gammel Dansk", "Snaps"}},
	{Type: "Cider", Icon: "🍏", Subtypes: []string{"Apple", "Pear", "Mixed Berries", "Elderflower"}},
	{Type: "Spirits", Icon: "🥂", Subtypes: []string{"Rum", "Whiskey", "Aquavit", "Cognac"}},
	{Type: NonScoringCategory, Icon: "🚬", Subtypes: []string{"Cigarettes", "Cigars", "Snus", "Vape", "Fjolle Tobak"}},
}

// DrinkKey builds the per-user tally key for a category/subtype pair.
func DrinkKey(category, subtype string) string {
	return category + "_" + subtype
}

// IsScoringCategory reports whether drinks in the category count toward the
// competitive total.
func IsScoringCategory(category string) bool {
	return category != NonScoringCategory
}

// ValidDrink reports whether the category/subtype pair exists in the catalog.
func ValidDrink(category, subtype string) bool {
	for _, c := range DrinkCategories {
		if c.Type != category {
			continue
		}
		for _, s := range c.Subtypes {
			if s == subtype {
				return true
			}
		}
		return false
	}
	return false
}
