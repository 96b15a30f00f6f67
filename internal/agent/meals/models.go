// internal/agent/meals/models.go
package meals

// Tool IDs the meals agent dispatches to.
const (
	ToolAddShopping    = "shopping.addItems"
	ToolRemoveShopping = "shopping.removeItems"
	ToolListShopping   = "shopping.list"
	ToolGeneratePlan   = "meals.generatePlan"
	ToolSavePlan       = "meals.savePlan"
)

// Preference keys consulted when generating a plan.
const (
	prefDietary      = "dietary"
	prefExcluded     = "excluded"
	prefMealsPerDay  = "mealsPerDay"
	prefServings     = "servings"
	prefCuisineHints = "cuisineHints"
)
