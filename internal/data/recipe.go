package data

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/tamaranch/ranch/internal/world"
)

type RecipeOutput struct {
	ItemID   string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// Recipe turns resource ingredients into items over CraftTime.
type Recipe struct {
	ID            string
	Name          string
	Category      string
	Ingredients   world.Resources
	Outputs       []RecipeOutput
	CraftTime     time.Duration
	RequiredLevel int
}

// OutputCount is Σ output quantities for one craft.
func (r *Recipe) OutputCount() int {
	n := 0
	for _, o := range r.Outputs {
		n += o.Quantity
	}
	return n
}

type recipeEntry struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Category      string         `yaml:"category"`
	Ingredients   map[string]int `yaml:"ingredients"`
	Outputs       []RecipeOutput `yaml:"outputs"`
	CraftTime     string         `yaml:"craft_time"`
	RequiredLevel int            `yaml:"required_level"`
}

type recipeListFile struct {
	Recipes []recipeEntry `yaml:"recipes"`
}

// RecipeTable provides lookup of recipes by id.
type RecipeTable struct {
	recipes map[string]*Recipe
	order   []*Recipe
}

// LoadRecipeTable loads recipes from YAML.
func LoadRecipeTable(fsys fs.FS, name string) (*RecipeTable, error) {
	var f recipeListFile
	if err := readYAML(fsys, name, &f); err != nil {
		return nil, err
	}
	t := &RecipeTable{recipes: make(map[string]*Recipe, len(f.Recipes))}
	for _, e := range f.Recipes {
		if _, dup := t.recipes[e.ID]; dup {
			return nil, fmt.Errorf("recipe %s: duplicate id", e.ID)
		}
		ing, err := parseResources(e.Ingredients)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", e.ID, err)
		}
		d, err := time.ParseDuration(e.CraftTime)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: craft_time: %w", e.ID, err)
		}
		r := &Recipe{
			ID:            e.ID,
			Name:          e.Name,
			Category:      e.Category,
			Ingredients:   ing,
			Outputs:       e.Outputs,
			CraftTime:     d,
			RequiredLevel: e.RequiredLevel,
		}
		t.recipes[r.ID] = r
		t.order = append(t.order, r)
	}
	return t, nil
}

// Get returns the recipe, or nil if unknown.
func (t *RecipeTable) Get(id string) *Recipe {
	return t.recipes[id]
}

func (t *RecipeTable) All() []*Recipe {
	return t.order
}

func (t *RecipeTable) Count() int {
	return len(t.order)
}
