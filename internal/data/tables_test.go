package data

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/tamaranch/ranch/internal/world"
)

func TestLoadDefault(t *testing.T) {
	tb, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if tb.Buildings.Count() != 12 {
		t.Fatalf("expected 12 building types got %d", tb.Buildings.Count())
	}
	hab := tb.Buildings.Get("basic_habitat")
	if hab == nil || hab.BaseCost[world.Coins] != 100 || hab.Effects[EffectTamaCapacity] != 2 {
		t.Fatalf("unexpected basic_habitat %+v", hab)
	}
	if tb.Buildings.Get("auto_feeder").Automation != AutoFeed {
		t.Fatalf("auto_feeder should auto feed")
	}
	jam := tb.Recipes.Get("berry_jam")
	if jam == nil || jam.CraftTime != 5*time.Minute || jam.Ingredients[world.Berries] != 10 {
		t.Fatalf("unexpected berry_jam recipe %+v", jam)
	}
	if tb.Recipes.Get("soap").OutputCount() != 2 {
		t.Fatalf("soap should yield 2 per craft")
	}
	if s := tb.Skills.Get("care", "nurturing"); s == nil || s.Prerequisites[0] != "gentle_touch" {
		t.Fatalf("unexpected nurturing skill %+v", s)
	}
	if tb.Skills.Get("care", "quick_hands") != nil {
		t.Fatalf("skills are scoped to their tree")
	}
	if tb.Progression.ExpBase("tama_interaction") != 2 || tb.Progression.ExpBase("nope") != 0 {
		t.Fatalf("unexpected exp sources")
	}
	if tb.Achievements.All()[0].ID != "first_tama" {
		t.Fatalf("achievements must keep file order")
	}
	if _, ok := tb.Progression.StartingResources[world.EvolutionCrystals]; !ok {
		t.Fatalf("zero starting resources must still be present")
	}
}

func TestLoadRejectsUnknownResource(t *testing.T) {
	fsys := fstest.MapFS{
		"buildings.yaml": {Data: []byte(`
buildings:
  - id: gold_mine
    base_cost: {gold: 10}
`)},
	}
	_, err := LoadBuildingTable(fsys, "buildings.yaml")
	if err == nil || !strings.Contains(err.Error(), "gold") {
		t.Fatalf("expected unknown resource error got %v", err)
	}
}

func TestLoadRejectsUnknownBonus(t *testing.T) {
	fsys := fstest.MapFS{
		"skills.yaml": {Data: []byte(`
trees:
  - tree: care
    skills:
      - id: x
        effects: {luck: 1}
`)},
	}
	if _, err := LoadSkillTable(fsys, "skills.yaml"); err == nil {
		t.Fatalf("expected unknown bonus error")
	}
}

func TestValidateCatchesDanglingOutput(t *testing.T) {
	base, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	fsys := fstest.MapFS{
		"recipes.yaml": {Data: []byte(`
recipes:
  - id: ghost
    ingredients: {wood: 1}
    outputs: [{item: missing, quantity: 1}]
    craft_time: 1m
`)},
	}
	recipes, err := LoadRecipeTable(fsys, "recipes.yaml")
	if err != nil {
		t.Fatalf("load recipes: %v", err)
	}
	base.Recipes = recipes
	if err := base.validate(); err == nil {
		t.Fatalf("expected dangling output to be rejected")
	}
}
