package domain

// Category is the closed set of spending categories every transaction is
// assigned to. The set is fixed: adding a member requires updating the
// ordered list and the config table below, which is checked at init.
type Category string

const (
	CategoryGroceries     Category = "Groceries"
	CategoryDining        Category = "Dining"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategorySubscriptions Category = "Subscriptions"
	CategoryHousing       Category = "Housing"
	CategoryUtilities     Category = "Utilities"
	CategoryHealth        Category = "Health"
	CategoryShopping      Category = "Shopping"
	CategoryIncome        Category = "Income"
	CategoryTransfer      Category = "Transfer"
	// CategoryOther is the required catch-all and the fallback for anything
	// the classifier returns that is not in the set.
	CategoryOther Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGroceries,
	CategoryDining,
	CategoryTransport,
	CategoryEntertainment,
	CategorySubscriptions,
	CategoryHousing,
	CategoryUtilities,
	CategoryHealth,
	CategoryShopping,
	CategoryIncome,
	CategoryTransfer,
	CategoryOther,
}

// CategoryConfig carries presentation metadata for one category. The color
// and icon are display hints for the UI layer and have no effect on any
// analytics or detection behavior.
type CategoryConfig struct {
	Name  Category `json:"name"`
	Color string   `json:"color"`
	Icon  string   `json:"icon"`
}

var categoryConfigs = map[Category]CategoryConfig{
	CategoryGroceries:     {Name: CategoryGroceries, Color: "#22c55e", Icon: "\U0001F6D2"},
	CategoryDining:        {Name: CategoryDining, Color: "#f97316", Icon: "\U0001F37D️"},
	CategoryTransport:     {Name: CategoryTransport, Color: "#3b82f6", Icon: "\U0001F697"},
	CategoryEntertainment: {Name: CategoryEntertainment, Color: "#a855f7", Icon: "\U0001F3AC"},
	CategorySubscriptions: {Name: CategorySubscriptions, Color: "#6366f1", Icon: "\U0001F504"},
	CategoryHousing:       {Name: CategoryHousing, Color: "#64748b", Icon: "\U0001F3E0"},
	CategoryUtilities:     {Name: CategoryUtilities, Color: "#eab308", Icon: "\U0001F4A1"},
	CategoryHealth:        {Name: CategoryHealth, Color: "#ef4444", Icon: "\U0001F3E5"},
	CategoryShopping:      {Name: CategoryShopping, Color: "#ec4899", Icon: "\U0001F6CD️"},
	CategoryIncome:        {Name: CategoryIncome, Color: "#10b981", Icon: "\U0001F4B0"},
	CategoryTransfer:      {Name: CategoryTransfer, Color: "#06b6d4", Icon: "\U0001F501"},
	CategoryOther:         {Name: CategoryOther, Color: "#94a3b8", Icon: "\U0001F4CB"},
}

func init() {
	if len(categoryConfigs) != len(Categories) {
		panic("domain: category config table out of sync with category list")
	}
	for _, c := range Categories {
		if _, ok := categoryConfigs[c]; !ok {
			panic("domain: missing config for category " + string(c))
		}
	}
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryConfigs[c]
	return ok
}

// Config returns the presentation metadata for c.
func (c Category) Config() CategoryConfig {
	return categoryConfigs[c]
}

// IsCashFlow reports whether c represents money movement rather than
// spending. Income and Transfer are excluded from every spending-side
// aggregation and detector.
func (c Category) IsCashFlow() bool {
	return c == CategoryIncome || c == CategoryTransfer
}

// ParseCategory coerces an arbitrary label into the closed set, falling
// back to Other for anything unknown.
func ParseCategory(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryOther
}
