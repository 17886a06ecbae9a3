package mockbackend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/amobagan/nutristream/errors"
)

// Section is one titled part of a report.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Analysis is a full nutrition analysis of one product.
type Analysis struct {
	Barcode  string    `json:"barcode"`
	Product  string    `json:"product"`
	Sections []Section `json:"sections"`
}

// Report renders the analysis as markdown.
func (a Analysis) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", a.Product)
	for _, s := range a.Sections {
		fmt.Fprintf(&b, "\n## %s\n%s\n", s.Name, s.Text)
	}
	return b.String()
}

// Analyzer produces analyses. Implementations return NOT_FOUND for unknown
// barcodes.
type Analyzer interface {
	Analyze(ctx context.Context, barcode string) (Analysis, error)
}

// Product is a catalog entry.
type Product struct {
	Name        string
	Calories    int
	ProteinG    float64
	CarbsG      float64
	SugarG      float64
	FatG        float64
	SodiumMg    int
	Ingredients []string
}

// Catalog is an Analyzer over a fixed product table.
type Catalog struct {
	products map[string]Product
}

// NewCatalog returns a catalog; a nil map selects the built-in products.
func NewCatalog(products map[string]Product) *Catalog {
	if products == nil {
		products = defaultProducts()
	}
	return &Catalog{products: products}
}

func (c *Catalog) Barcodes() []string {
	out := make([]string, 0, len(c.products))
	for k := range c.products {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Analyze(ctx context.Context, barcode string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	p, ok := c.products[barcode]
	if !ok {
		return Analysis{}, errors.NotFound("product", barcode)
	}
	return Analysis{
		Barcode: barcode,
		Product: p.Name,
		Sections: []Section{
			{Name: "Overview", Text: fmt.Sprintf("%s provides %d kcal per serving.", p.Name, p.Calories)},
			{Name: "Macronutrients", Text: fmt.Sprintf(
				"Protein %.1f g, carbohydrates %.1f g of which sugars %.1f g, fat %.1f g.",
				p.ProteinG, p.CarbsG, p.SugarG, p.FatG)},
			{Name: "Sodium", Text: sodiumNote(p.SodiumMg)},
			{Name: "Ingredients", Text: strings.Join(p.Ingredients, ", ") + "."},
			{Name: "Verdict", Text: verdict(p)},
		},
	}, nil
}

func sodiumNote(mg int) string {
	switch {
	case mg >= 600:
		return fmt.Sprintf("%d mg sodium is high for a single serving.", mg)
	case mg >= 200:
		return fmt.Sprintf("%d mg sodium is moderate.", mg)
	default:
		return fmt.Sprintf("%d mg sodium is low.", mg)
	}
}

func verdict(p Product) string {
	var flags []string
	if p.SugarG >= 15 {
		flags = append(flags, "high sugar")
	}
	if p.FatG >= 17.5 {
		flags = append(flags, "high fat")
	}
	if p.SodiumMg >= 600 {
		flags = append(flags, "high sodium")
	}
	if len(flags) == 0 {
		return "A reasonable everyday choice."
	}
	return "Enjoy occasionally: " + strings.Join(flags, ", ") + "."
}

func defaultProducts() map[string]Product {
	return map[string]Product{
		"737628064502": {
			Name: "Thai Kitchen Stir-Fry Rice Noodles", Calories: 200,
			ProteinG: 3, CarbsG: 45, SugarG: 0, FatG: 0.5, SodiumMg: 10,
			Ingredients: []string{"rice", "water"},
		},
		"3017620422003": {
			Name: "Hazelnut Cocoa Spread", Calories: 200,
			ProteinG: 2, CarbsG: 23, SugarG: 21, FatG: 11.5, SodiumMg: 15,
			Ingredients: []string{"sugar", "palm oil", "hazelnuts", "skim milk", "cocoa"},
		},
		"5449000000996": {
			Name: "Cola Classic 330 ml", Calories: 139,
			ProteinG: 0, CarbsG: 35, SugarG: 35, FatG: 0, SodiumMg: 10,
			Ingredients: []string{"carbonated water", "sugar", "colour", "phosphoric acid", "caffeine"},
		},
		"0041196910759": {
			Name: "Chicken Noodle Soup", Calories: 90,
			ProteinG: 4, CarbsG: 12, SugarG: 1, FatG: 2.5, SodiumMg: 890,
			Ingredients: []string{"chicken stock", "noodles", "chicken", "carrots", "salt"},
		},
	}
}

// Fragment is one streamed piece of a report.
type Fragment struct {
	Section string
	Text    string
}

// Fragments splits the report into the pieces a stream delivers. Their
// concatenation equals Report(). Section text is cut every wordsPer words.
func (a Analysis) Fragments(wordsPer int) []Fragment {
	if wordsPer <= 0 {
		wordsPer = 4
	}
	out := []Fragment{{Text: fmt.Sprintf("# %s\n", a.Product)}}
	for _, s := range a.Sections {
		out = append(out, Fragment{Section: s.Name, Text: fmt.Sprintf("\n## %s\n", s.Name)})
		words := strings.SplitAfter(s.Text, " ")
		for i := 0; i < len(words); i += wordsPer {
			end := min(i+wordsPer, len(words))
			out = append(out, Fragment{Section: s.Name, Text: strings.Join(words[i:end], "")})
		}
		out = append(out, Fragment{Section: s.Name, Text: "\n"})
	}
	return out
}
