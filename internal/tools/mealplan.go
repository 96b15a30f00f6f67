// internal/tools/mealplan.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"household-agent/internal/agent/core"
)

// recipePool is the built-in rotation the planner draws from. Each entry
// lists the ingredients used for allergy and exclusion filtering.
var recipePool = []recipe{
	{Name: "Spaghetti Bolognese", Cuisine: "italian", Ingredients: []string{"pasta", "beef", "tomato"}},
	{Name: "Chicken Stir Fry", Cuisine: "asian", Ingredients: []string{"chicken", "rice", "soy", "broccoli"}},
	{Name: "Vegetable Curry", Cuisine: "indian", Ingredients: []string{"rice", "chickpeas", "coconut", "spinach"}},
	{Name: "Fish Tacos", Cuisine: "mexican", Ingredients: []string{"fish", "tortilla", "cabbage", "lime"}},
	{Name: "Mushroom Risotto", Cuisine: "italian", Ingredients: []string{"rice", "mushrooms", "parmesan"}},
	{Name: "Lentil Soup", Cuisine: "mediterranean", Ingredients: []string{"lentils", "carrot", "celery"}},
	{Name: "Beef Burritos", Cuisine: "mexican", Ingredients: []string{"beef", "tortilla", "beans", "cheese"}},
	{Name: "Salmon with Potatoes", Cuisine: "nordic", Ingredients: []string{"salmon", "potatoes", "dill"}},
	{Name: "Margherita Pizza", Cuisine: "italian", Ingredients: []string{"flour", "tomato", "mozzarella", "basil"}},
	{Name: "Pad Thai", Cuisine: "asian", Ingredients: []string{"noodles", "peanuts", "egg", "lime"}},
	{Name: "Shepherd's Pie", Cuisine: "british", Ingredients: []string{"lamb", "potatoes", "peas"}},
	{Name: "Greek Salad Bowls", Cuisine: "mediterranean", Ingredients: []string{"feta", "cucumber", "olives", "tomato"}},
	{Name: "Chicken Fajitas", Cuisine: "mexican", Ingredients: []string{"chicken", "tortilla", "peppers", "onion"}},
	{Name: "Tomato Basil Gnocchi", Cuisine: "italian", Ingredients: []string{"gnocchi", "tomato", "basil"}},
}

type recipe struct {
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine"`
	Ingredients []string `json:"ingredients"`
}

type planDay struct {
	Date  string   `json:"date"`
	Meals []recipe `json:"meals"`
}

func (e *PostgresExecutor) generateMealPlan(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	start, err := parsePlanDate(input["startDate"])
	if err != nil {
		return nil, userErr("the plan start date couldn't be read")
	}
	end, err := parsePlanDate(input["endDate"])
	if err != nil || !end.After(start) {
		return nil, userErr("the plan date range couldn't be read")
	}

	excluded := lowerSet(stringItems(input["excluded"]))
	for _, allergen := range stringItems(input["dietary"]) {
		excluded[strings.ToLower(allergen)] = true
	}
	cuisineHints := lowerSet(stringItems(input["cuisineHints"]))

	mealsPerDay := intOrDefault(input["mealsPerDay"], 1)
	candidates := filterRecipes(excluded, cuisineHints)
	if len(candidates) == 0 {
		return nil, userErr("no recipes are left after applying the family's restrictions")
	}

	days := []planDay{}
	idx := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		day := planDay{Date: d.Format("2006-01-02")}
		for m := 0; m < mealsPerDay; m++ {
			day.Meals = append(day.Meals, candidates[idx%len(candidates)])
			idx++
		}
		days = append(days, day)
	}

	planJSON, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("marshal meal plan: %w", err)
	}

	planID := uuid.NewString()
	if _, err := e.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, family_id, created_by, start_date, end_date, plan, saved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		planID, rc.FamilyID, rc.UserID, start.UTC(), end.UTC(), planJSON, e.clock.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert meal plan: %w", err)
	}

	return map[string]interface{}{
		"planId": planID,
		"days":   days,
	}, nil
}

func (e *PostgresExecutor) saveMealPlan(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	planID, _ := input["planId"].(string)

	res, err := e.db.ExecContext(ctx, `
		UPDATE meal_plans SET saved = true
		WHERE id = $1 AND family_id = $2`,
		planID, rc.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("save meal plan: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, userErr("that meal plan no longer exists")
	}
	return map[string]interface{}{"planId": planID, "saved": true}, nil
}

// filterRecipes drops recipes containing an excluded ingredient and, when
// cuisine hints are present, prefers matching cuisines but falls back to
// the full filtered pool rather than returning nothing.
func filterRecipes(excluded, cuisineHints map[string]bool) []recipe {
	safe := []recipe{}
	for _, r := range recipePool {
		if containsExcluded(r, excluded) {
			continue
		}
		safe = append(safe, r)
	}
	if len(cuisineHints) == 0 {
		return safe
	}

	preferred := []recipe{}
	for _, r := range safe {
		if cuisineHints[r.Cuisine] {
			preferred = append(preferred, r)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}
	return safe
}

func containsExcluded(r recipe, excluded map[string]bool) bool {
	for _, ing := range r.Ingredients {
		if excluded[strings.ToLower(ing)] {
			return true
		}
	}
	return false
}

func parsePlanDate(v interface{}) (time.Time, error) {
	raw, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("not a string")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

func intOrDefault(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n
		}
	case float64:
		if n > 0 {
			return int(n)
		}
	}
	return fallback
}
