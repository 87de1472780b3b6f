package firefox

import "github.com/getsentry/simpleperf2firefox/internal/simpleperf"

// Categories is the immutable category list of one conversion. Frames are all
// put in the "Other" category: classification by execution type is not done.
type Categories struct {
	list  []Category
	other int
}

func DefaultCategories() Categories {
	return Categories{
		list: []Category{
			{Name: "Other", Color: "grey", Subcategories: []string{"Other"}},
		},
		other: 0,
	}
}

// Other returns the index of the default category.
func (c Categories) Other() int {
	return c.other
}

// ForExecutionType returns the category of frames executed as t.
func (c Categories) ForExecutionType(_ simpleperf.ExecutionType) int {
	return c.other
}

// List returns a copy of the categories, ordered by index.
func (c Categories) List() []Category {
	l := make([]Category, len(c.list))
	for i, category := range c.list {
		category.Subcategories = append([]string(nil), category.Subcategories...)
		l[i] = category
	}
	return l
}
