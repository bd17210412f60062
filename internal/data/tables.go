// Package data loads the read-only content tables the ranch systems look up
// by id. The default tables are embedded; a directory with the same file
// names can replace them.
package data

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamaranch/ranch/internal/world"
)

//go:embed yaml/*.yaml
var embedded embed.FS

// Tables groups every static table. Values are shared and must not be mutated.
type Tables struct {
	Buildings    *BuildingTable
	Items        *ItemTable
	Recipes      *RecipeTable
	Skills       *SkillTable
	Achievements *AchievementTable
	Progression  *ProgressionTable
}

// LoadDefault loads the embedded tables.
func LoadDefault() (*Tables, error) {
	sub, err := fs.Sub(embedded, "yaml")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads tables from a directory on disk.
func LoadDir(dir string) (*Tables, error) {
	return Load(os.DirFS(dir))
}

// Load reads every table from fsys and checks cross references.
func Load(fsys fs.FS) (*Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Buildings, err = LoadBuildingTable(fsys, "buildings.yaml"); err != nil {
		return nil, err
	}
	if t.Items, err = LoadItemTable(fsys, "items.yaml"); err != nil {
		return nil, err
	}
	if t.Recipes, err = LoadRecipeTable(fsys, "recipes.yaml"); err != nil {
		return nil, err
	}
	if t.Skills, err = LoadSkillTable(fsys, "skills.yaml"); err != nil {
		return nil, err
	}
	if t.Achievements, err = LoadAchievementTable(fsys, "achievements.yaml"); err != nil {
		return nil, err
	}
	if t.Progression, err = LoadProgressionTable(fsys, "progression.yaml"); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) validate() error {
	for _, r := range t.Recipes.All() {
		for _, out := range r.Outputs {
			if t.Items.Get(out.ItemID) == nil {
				return fmt.Errorf("recipe %s: unknown output item %s", r.ID, out.ItemID)
			}
		}
	}
	for _, s := range t.Skills.All() {
		for _, pre := range s.Prerequisites {
			if t.Skills.Get(s.Tree, pre) == nil {
				return fmt.Errorf("skill %s/%s: unknown prerequisite %s", s.Tree, s.ID, pre)
			}
		}
	}
	check := func(where string, u UnlockSet) error {
		for _, id := range u.Buildings {
			if t.Buildings.Get(id) == nil {
				return fmt.Errorf("%s: unknown building %s", where, id)
			}
		}
		for _, id := range u.Recipes {
			if t.Recipes.Get(id) == nil {
				return fmt.Errorf("%s: unknown recipe %s", where, id)
			}
		}
		return nil
	}
	p := t.Progression
	if err := check("starting unlocks", p.StartingUnlocks); err != nil {
		return err
	}
	for lvl, u := range p.LevelUnlocks {
		if err := check(fmt.Sprintf("level %d unlocks", lvl), u); err != nil {
			return err
		}
	}
	for lvl, u := range p.PrestigeUnlocks {
		if err := check(fmt.Sprintf("prestige %d unlocks", lvl), u); err != nil {
			return err
		}
	}
	return nil
}

// readYAML decodes one file of fsys into out.
func readYAML(fsys fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// parseResources converts a name-keyed YAML map into typed resources.
func parseResources(m map[string]int) (world.Resources, error) {
	out := make(world.Resources, len(m))
	for name, n := range m {
		r, err := world.ParseResource(name)
		if err != nil {
			return nil, err
		}
		out[r] = n
	}
	return out, nil
}

// UnlockSet is a typed list of content ids.
type UnlockSet struct {
	Buildings []string `yaml:"buildings"`
	Recipes   []string `yaml:"recipes"`
	Species   []string `yaml:"species"`
}

// Reward is granted once by a milestone or an achievement.
type Reward struct {
	SkillPoints int
	Resources   world.Resources
	// Unlocks are dispatched by id: see system.DispatchUnlock.
	Unlocks []string
}

type rewardEntry struct {
	SkillPoints int            `yaml:"skill_points"`
	Resources   map[string]int `yaml:"resources"`
	Unlocks     []string       `yaml:"unlocks"`
}

func (e rewardEntry) toReward() (Reward, error) {
	rs, err := parseResources(e.Resources)
	if err != nil {
		return Reward{}, err
	}
	return Reward{SkillPoints: e.SkillPoints, Resources: rs, Unlocks: e.Unlocks}, nil
}
