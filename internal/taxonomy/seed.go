package taxonomy

import (
	"fmt"
	"strings"
)

// catalog holds the taxonomy with precomputed indices.
type catalog struct {
	categories     []Category
	byID           map[string]*Category
	typeByID       map[string]QuestionType
	categoryOfType map[string]string
	interests      map[string]bool
	motivators     map[string]bool
}

// cat is the package-level catalog, built once in init and never mutated.
var cat *catalog

func init() {
	if err := validateCatalog(seedCategories); err != nil {
		panic(fmt.Sprintf("taxonomy: invalid seed data: %v", err))
	}
	cat = buildCatalog(seedCategories, interestOptions, motivatorOptions)
}

func buildCatalog(categories []Category, interests, motivators []string) *catalog {
	c := &catalog{
		categories:     categories,
		byID:           make(map[string]*Category, len(categories)),
		typeByID:       make(map[string]QuestionType),
		categoryOfType: make(map[string]string),
		interests:      make(map[string]bool, len(interests)),
		motivators:     make(map[string]bool, len(motivators)),
	}
	for i := range c.categories {
		cc := &c.categories[i]
		c.byID[cc.ID] = cc
		for _, t := range cc.Types {
			c.typeByID[t.ID] = t
			c.categoryOfType[t.ID] = cc.ID
		}
	}
	for _, v := range interests {
		c.interests[v] = true
	}
	for _, v := range motivators {
		c.motivators[v] = true
	}
	return c
}

// validateCatalog checks for duplicate category and type IDs.
// Returns a combined error describing all problems found, or nil if valid.
func validateCatalog(categories []Category) error {
	var errs []string
	catIDs := make(map[string]bool, len(categories))
	typeIDs := make(map[string]string)

	for _, c := range categories {
		if catIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate category ID: %q", c.ID))
		}
		catIDs[c.ID] = true
		if len(c.Types) == 0 {
			errs = append(errs, fmt.Sprintf("category %q has no question types", c.ID))
		}
		for _, t := range c.Types {
			if owner, ok := typeIDs[t.ID]; ok {
				errs = append(errs, fmt.Sprintf("type %q appears in both %q and %q", t.ID, owner, c.ID))
				continue
			}
			typeIDs[t.ID] = c.ID
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var interestOptions = []string{
	"sports", "music", "art", "science", "nature", "animals", "technology",
	"gaming", "cooking", "space", "history", "travel", "reading", "movies", "building",
}

var motivatorOptions = []string{
	"achievement", "curiosity", "competition", "collaboration",
	"creativity", "mastery", "recognition", "real-world-application",
}

var seedCategories = []Category{
	{
		ID:          "number-operations",
		Name:        "Number Operations",
		Description: "Whole-number arithmetic and place value",
		Types: []QuestionType{
			{ID: "ADDITION", Name: "Addition", Description: "Adding whole numbers, with and without regrouping", Keywords: []string{"sum", "plus", "carry"}},
			{ID: "SUBTRACTION", Name: "Subtraction", Description: "Subtracting whole numbers, with and without borrowing", Keywords: []string{"difference", "minus", "borrow"}},
			{ID: "MULTIPLICATION", Name: "Multiplication", Description: "Multiplying whole numbers and using times tables", Keywords: []string{"product", "times", "groups"}},
			{ID: "DIVISION", Name: "Division", Description: "Dividing whole numbers, with and without remainders", Keywords: []string{"quotient", "share", "remainder"}},
			{ID: "PLACE_VALUE", Name: "Place Value", Description: "Digits, place value and rounding", Keywords: []string{"digits", "rounding", "expanded form"}},
		},
	},
	{
		ID:          "fractions-decimals",
		Name:        "Fractions & Decimals",
		Description: "Parts of a whole and their decimal and percent forms",
		Types: []QuestionType{
			{ID: "FRACTIONS", Name: "Fractions", Description: "Comparing, simplifying and operating on fractions", Keywords: []string{"numerator", "denominator", "equivalent"}},
			{ID: "DECIMALS", Name: "Decimals", Description: "Decimal place value and operations", Keywords: []string{"tenths", "hundredths", "decimal point"}},
			{ID: "PERCENTAGES", Name: "Percentages", Description: "Percent of a quantity and percent change", Keywords: []string{"percent", "discount", "rate"}},
			{ID: "RATIOS", Name: "Ratios", Description: "Ratios, rates and proportional reasoning", Keywords: []string{"ratio", "proportion", "unit rate"}},
		},
	},
	{
		ID:          "algebraic-thinking",
		Name:        "Algebraic Thinking",
		Description: "Patterns, expressions and equations",
		Types: []QuestionType{
			{ID: "PATTERNS", Name: "Patterns", Description: "Extending and describing number patterns", Keywords: []string{"sequence", "rule", "next term"}},
			{ID: "EXPRESSIONS", Name: "Expressions", Description: "Writing and evaluating expressions", Keywords: []string{"variable", "evaluate", "order of operations"}},
			{ID: "ALGEBRAIC_EQUATIONS", Name: "Algebraic Equations", Description: "Solving one- and two-step equations", Keywords: []string{"solve", "unknown", "equation"}},
			{ID: "INEQUALITIES", Name: "Inequalities", Description: "Solving and graphing inequalities", Keywords: []string{"greater than", "less than", "solution set"}},
		},
	},
	{
		ID:          "geometry",
		Name:        "Geometry",
		Description: "Shapes, angles, area and perimeter",
		Types: []QuestionType{
			{ID: "SHAPES", Name: "Shapes", Description: "Identifying and classifying 2D and 3D shapes", Keywords: []string{"polygon", "sides", "vertices"}},
			{ID: "ANGLES", Name: "Angles", Description: "Measuring and reasoning about angles", Keywords: []string{"degrees", "acute", "obtuse"}},
			{ID: "AREA", Name: "Area", Description: "Area of rectangles, triangles and composite figures", Keywords: []string{"square units", "length", "width"}},
			{ID: "PERIMETER", Name: "Perimeter", Description: "Perimeter of polygons", Keywords: []string{"boundary", "sides", "distance around"}},
		},
	},
	{
		ID:          "measurement-data",
		Name:        "Measurement & Data",
		Description: "Units, time, money and reading data",
		Types: []QuestionType{
			{ID: "MEASUREMENT", Name: "Measurement", Description: "Converting and comparing units", Keywords: []string{"length", "mass", "volume"}},
			{ID: "TIME", Name: "Time", Description: "Telling time and elapsed time", Keywords: []string{"hours", "minutes", "elapsed"}},
			{ID: "MONEY", Name: "Money", Description: "Counting money and making change", Keywords: []string{"dollars", "cents", "change"}},
			{ID: "DATA_ANALYSIS", Name: "Data Analysis", Description: "Reading charts and computing averages", Keywords: []string{"mean", "graph", "table"}},
			{ID: "PROBABILITY", Name: "Probability", Description: "Likelihood of simple events", Keywords: []string{"chance", "outcome", "likely"}},
		},
	},
}
