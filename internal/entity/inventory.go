package entity

// RecipeIngredient is one requirement line of a recipe: making one unit of
// the recipe consumes RequiredQty units of the ingredient.
type RecipeIngredient struct {
	IngredientName string
	RequiredQty    int
}

// ConsumeResult is the business outcome of a recipe consumption attempt.
// A failed consumption is a normal result value, not an error.
type ConsumeResult struct {
	Consumed bool
	Comments string
}

// Consumption outcome texts, part of the service wire contract.
const (
	ReasonRecipeNotFound = "Recipe not found"
	ReasonConsumed       = "Ingredients consumed successfully"
)

// ReasonInsufficient names the first ingredient that blocked a consumption.
func ReasonInsufficient(ingredient string) string {
	return "Insufficient quantity for ingredient: " + ingredient
}
