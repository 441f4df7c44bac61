package domain

// CategoryOthers is the catch-all category assigned when a message matched no
// registered account. It must always exist.
const CategoryOthers = "Others"

// DefaultCategories is the built-in category set. The set is extensible:
// accounts may name categories outside this list and the store treats
// category names as opaque tags.
var DefaultCategories = []string{
	"Food",
	"Housing",
	"Transport",
	"Shopping",
	"Utilities",
	"Entertainment",
	"Health",
	"Salary",
	CategoryOthers,
}
