package term

import (
	"sort"
	"strings"
)

// All is the selector that accepts every category.
const All = "all"

// Groups maps a filter selector to the category tags it accepts.
// A selector missing from the table stands for itself.
type Groups map[string][]string

// DefaultGroups returns the built-in selector table.
func DefaultGroups() Groups {
	return Groups{
		"names":         {CategoryName, CategoryOrganization, CategoryPlace, CategorySocial, "website"},
		"social":        {CategorySocial, "website"},
		"medical":       {CategoryMedical, CategoryChemical},
		"technical":     {CategoryTechnical, "equipment"},
		"organizations": {CategoryOrganization},
		"places":        {CategoryPlace, "location"},
		"dates":         {CategoryDate, "time"},
		"general":       {CategoryGeneral},
	}
}

// Selectors returns the selector names of g plus All, sorted.
func (g Groups) Selectors() []string {
	names := make([]string, 0, len(g)+1)
	names = append(names, All)
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// Resolve returns the category tags accepted by selector, or nil for All.
func (g Groups) Resolve(selector string) []string {
	selector = normalizeSelector(selector)
	if selector == All {
		return nil
	}
	if tags, ok := g[selector]; ok {
		return tags
	}
	return []string{selector}
}

// IsAll reports whether selector accepts every category.
func IsAll(selector string) bool {
	return normalizeSelector(selector) == All
}

// FilterAndRank keeps the records whose category the selector accepts,
// sorts them by category and then source, and returns at most max of them.
// A max of zero or less returns every kept record.
func FilterAndRank(records []Record, selector string, groups Groups, max int) []Record {
	var kept []Record
	if IsAll(selector) {
		kept = append([]Record(nil), records...)
	} else {
		allowed := make(map[string]bool)
		for _, tag := range groups.Resolve(selector) {
			allowed[tag] = true
		}
		for _, r := range records {
			if allowed[r.Category] {
				kept = append(kept, r)
			}
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Category != kept[j].Category {
			return kept[i].Category < kept[j].Category
		}
		return kept[i].Source < kept[j].Source
	})

	if max > 0 && len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

func normalizeSelector(selector string) string {
	selector = strings.ToLower(strings.TrimSpace(selector))
	if selector == "" {
		return All
	}
	return selector
}
