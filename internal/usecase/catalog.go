package usecase

import (
	"strings"
	"unicode/utf8"
)

// Category groups related subcategory searches
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Catalog lists the categories offered to users, in display order
var Catalog = []Category{
	{Name: "Tech", Subcategories: []string{"Headphones", "Keyboards", "Graphics Cards", "CPUs", "Laptops", "Monitors", "SSDs", "Routers", "Vintage Tech"}},
	{Name: "Collectibles", Subcategories: []string{"Pokémon", "Magic: The Gathering", "Yu-Gi-Oh", "Funko Pops", "Sports Cards", "Comic Books", "Action Figures", "LEGO Sets"}},
	{Name: "Vintage Clothing", Subcategories: []string{"Jordans", "Nike Dunks", "Vintage Tees", "Band Tees", "Denim Jackets", "Designer Brands", "Carhartt", "Patagonia"}},
	{Name: "Antiques", Subcategories: []string{"Coins", "Watches", "Cameras", "Typewriters", "Vinyl Records", "Vintage Tools", "Old Maps", "Antique Toys"}},
	{Name: "Gaming", Subcategories: []string{"Consoles", "Game Controllers", "Rare Games", "Arcade Machines", "Handhelds", "Gaming Headsets", "VR Gear"}},
	{Name: "Music Gear", Subcategories: []string{"Electric Guitars", "Guitar Pedals", "Synthesizers", "Vintage Amps", "Microphones", "DJ Equipment"}},
	{Name: "Tools & DIY", Subcategories: []string{"Power Tools", "Hand Tools", "Welding Equipment", "Toolboxes", "Measuring Devices", "Woodworking Tools"}},
	{Name: "Outdoors & Sports", Subcategories: []string{"Bikes", "Skateboards", "Scooters", "Camping Gear", "Hiking Gear", "Fishing Gear", "Snowboards"}},
}

// FindCategory looks a category up by name, ignoring case
func FindCategory(name string) (Category, bool) {
	for _, c := range Catalog {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return Category{}, false
}

// subcategoryKeywords are curated search terms, misspellings included,
// because misspelled listings attract fewer bidders and sell cheap.
var subcategoryKeywords = map[string][]string{
	"Magic: The Gathering": {
		"MTG", "Magic The Gathering", "Magic cards", "MTG singles", "Commander deck",
		"Magic booster box", "MTG collection", "Majic the Gathering", "Magic the Gathring", "MTG crads",
	},
	"Pokémon": {
		"Pokemon", "Pokemon cards", "Pokemon TCG", "Pokemon booster", "Pokemon PSA",
		"Charizard", "Pikachu", "Pokmon", "Pokeman", "Pokemn",
	},
	"Yu-Gi-Oh": {
		"Yugioh", "Yu Gi Oh", "YGO", "Yugioh cards", "Yugioh 1st edition",
		"Yugio", "Yugiho", "Yuigoh",
	},
	"Headphones": {
		"wireless headphones", "noise cancelling headphones", "studio headphones", "Sony headphones",
		"Bose headphones", "Sennheiser headphones", "WH-1000XM4", "WH-1000XM5", "QC45", "HD650",
		"AirPods Pro", "headphons", "heaphones", "hedphones",
	},
	"Keyboards": {
		"mechanical keyboard", "gaming keyboard", "60% keyboard", "TKL keyboard", "custom keyboard",
		"Cherry MX", "Keychron", "GMMK", "keybaord", "keyborad", "keybord",
	},
	"Jordans": {
		"Air Jordan", "Jordan 1", "Jordan 4", "Jordan 11", "Jordan Retro",
		"Jordan OG", "Jordon", "Jorden", "Air Jodan",
	},
	"Graphics Cards": {
		"GPU", "graphics card", "video card", "RTX 3080", "RTX 3070", "RX 6800",
		"Founders Edition", "grpahics card", "grafics card", "vidoe card",
	},
	"Consoles": {
		"PS5", "PlayStation 5", "Xbox Series X", "Nintendo Switch", "Switch OLED",
		"console bundle", "Playstation", "Nintedo", "Swich",
	},
}

// maxKeywords bounds how many searches one subcategory can expand into
const maxKeywords = 20

// KeywordExpander turns a subcategory into the search terms sent to marketplaces
type KeywordExpander struct{}

// NewKeywordExpander creates a new keyword expander
func NewKeywordExpander() *KeywordExpander {
	return &KeywordExpander{}
}

// Expand returns up to limit keywords for a subcategory. The subcategory itself
// always comes first, curated terms follow, and generated misspellings fill in
// for subcategories with fewer than five terms.
func (e *KeywordExpander) Expand(subcategory string, limit int) []string {
	subcategory = strings.TrimSpace(subcategory)
	if subcategory == "" {
		return nil
	}
	if limit <= 0 || limit > maxKeywords {
		limit = maxKeywords
	}

	keywords := []string{subcategory}
	keywords = append(keywords, curatedKeywords(subcategory)...)

	if len(keywords) < 5 {
		keywords = append(keywords, typoVariants(subcategory)...)
	}

	return uniqueKeywords(keywords, limit)
}

func curatedKeywords(subcategory string) []string {
	if kws, ok := subcategoryKeywords[subcategory]; ok {
		return kws
	}

	lower := strings.ToLower(subcategory)
	// Map iteration order is random; walk the catalog for a stable fallback.
	for _, c := range Catalog {
		for _, name := range c.Subcategories {
			kws, ok := subcategoryKeywords[name]
			if !ok {
				continue
			}
			key := strings.ToLower(name)
			if strings.Contains(lower, key) || strings.Contains(key, lower) {
				return kws
			}
		}
	}
	return nil
}

// typoVariants generates adjacent swaps, single deletions and mid-word splits
func typoVariants(name string) []string {
	runes := []rune(name)
	var variants []string

	for i := range runes {
		if i > 0 {
			swapped := append([]rune{}, runes...)
			swapped[i-1], swapped[i] = swapped[i], swapped[i-1]
			variants = append(variants, string(swapped))
		}
		if len(runes) > 4 {
			variants = append(variants, string(runes[:i])+string(runes[i+1:]))
		}
	}

	words := strings.Fields(name)
	if len(words) > 1 {
		for i, word := range words {
			if utf8.RuneCountInString(word) <= 3 {
				continue
			}
			wr := []rune(word)
			mid := len(wr) / 2
			split := append([]string{}, words...)
			split[i] = string(wr[:mid]) + " " + string(wr[mid:])
			variants = append(variants, strings.Join(split, " "))
		}
	}

	return variants
}

func uniqueKeywords(keywords []string, limit int) []string {
	seen := make(map[string]bool, len(keywords))
	result := make([]string, 0, limit)

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		result = append(result, kw)
		if len(result) == limit {
			break
		}
	}

	return result
}
