package domain

// FoodItem is a single identified food within a meal. Items are value
// objects: an edit replaces the whole item, fields are never mutated in
// place. Macro fields may be absent on records written by old clients and
// deserialize as zero.
type FoodItem struct {
	Name         string `json:"name"`
	Quantity     string `json:"quantity"`
	Calories     int    `json:"calories"`
	ProteinGrams int    `json:"proteinGrams,omitempty"`
	CarbsGrams   int    `json:"carbsGrams,omitempty"`
	FatGrams     int    `json:"fatGrams,omitempty"`
}

// MealAnalysis is one logged eating event. Timestamp is epoch milliseconds
// and doubles as the sort key for display.
type MealAnalysis struct {
	ID            string     `json:"id"`
	Timestamp     int64      `json:"timestamp"`
	OriginalInput string     `json:"originalInput"`
	TotalCalories int        `json:"totalCalories"`
	ProteinGrams  int        `json:"proteinGrams"`
	CarbsGrams    int        `json:"carbsGrams"`
	FatGrams      int        `json:"fatGrams"`
	FoodItems     []FoodItem `json:"foodItems"`
	HealthTip     string     `json:"healthTip"`
}

// MealEstimate is what the AI returns for a whole-meal analysis, before an
// id, timestamp and the original input text are attached. The totals come
// straight from the model and are not required to equal the sum of the item
// breakdown.
type MealEstimate struct {
	TotalCalories int        `json:"totalCalories"`
	ProteinGrams  int        `json:"proteinGrams"`
	CarbsGrams    int        `json:"carbsGrams"`
	FatGrams      int        `json:"fatGrams"`
	FoodItems     []FoodItem `json:"foodItems"`
	HealthTip     string     `json:"healthTip"`
}

// UserRecord is a registered account. Hash and salt are hex encoded.
// Username keeps the casing entered at registration; lookups are
// case-insensitive.
type UserRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt"`
}

// View identifies which of the three user-facing screens a session shows.
type View string

const (
	ViewHome    View = "home"
	ViewHistory View = "history"
	ViewLogin   View = "login"
)

// DayGroup is one calendar day of history with aggregate totals, used by
// the full history view.
type DayGroup struct {
	Date          string
	DisplayDate   string
	Meals         []MealAnalysis
	TotalCalories int
	ProteinGrams  int
	CarbsGrams    int
	FatGrams      int
}
