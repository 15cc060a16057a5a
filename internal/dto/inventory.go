// Package dto holds the wire shapes of the inventory service boundary.
// The route and field spellings are a frozen contract with existing clients,
// including the misspelled /consumeRecipeIngridients path.
package dto

type ConsumeRecipeTask struct {
	ID         string `json:"id"`
	Type       string `json:"type,omitempty"`
	RecipeName string `json:"recipe_name"`
	Qty        int    `json:"qty"`
}

type ConsumeRecipesRequest struct {
	UserID string              `json:"user_id"`
	Tasks  []ConsumeRecipeTask `json:"tasks"`
}

type ConsumeRecipeResult struct {
	ID         string `json:"id"`
	RecipeName string `json:"recipe_name"`
	Consumed   bool   `json:"consumed"`
	Comments   string `json:"comments,omitempty"`
}

type ConsumeRecipesResponse struct {
	UserID  string                `json:"user_id"`
	Results []ConsumeRecipeResult `json:"results"`
}

type CheckRecipeTask struct {
	ID         string `json:"id"`
	Type       string `json:"type,omitempty"`
	RecipeName string `json:"recipe_name"`
	Qty        int    `json:"qty"`
}

type CheckRecipesRequest struct {
	UserID    string            `json:"user_id"`
	RecipeIDs []CheckRecipeTask `json:"recipe_ids"`
}

type CheckRecipeResult struct {
	ID       string `json:"id"`
	RecipeID string `json:"recipe_id"`
	CanMake  bool   `json:"can_make"`
}

type CheckRecipesResponse struct {
	UserID  string              `json:"user_id"`
	Results []CheckRecipeResult `json:"results"`
}
