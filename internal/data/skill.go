package data

import (
	"fmt"
	"io/fs"
)

// BonusKey indexes the cross-system bonus vector.
type BonusKey uint8

const (
	BonusExperience BonusKey = iota
	BonusCraftingSpeed
	BonusContractPayment
	BonusCareQuality
	BonusProduction
	BonusDurability
	BonusReputation

	BonusKeyCount
)

var bonusKeyNames = [BonusKeyCount]string{
	"experience", "crafting_speed", "contract_payment", "care_quality",
	"production", "durability", "reputation",
}

func (k BonusKey) String() string {
	if k < BonusKeyCount {
		return bonusKeyNames[k]
	}
	return fmt.Sprintf("bonus(%d)", uint8(k))
}

func ParseBonusKey(s string) (BonusKey, error) {
	for i, n := range bonusKeyNames {
		if n == s {
			return BonusKey(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bonus %q", s)
}

// Skill is one node of a skill tree.
type Skill struct {
	ID            string
	Tree          string
	Name          string
	MaxLevel      int
	BaseCost      int
	Prerequisites []string
	// Effects are added to the bonus vector once per learned level.
	Effects map[BonusKey]float64
}

type skillEntry struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	MaxLevel      int                `yaml:"max_level"`
	BaseCost      int                `yaml:"base_cost"`
	Prerequisites []string           `yaml:"prerequisites"`
	Effects       map[string]float64 `yaml:"effects"`
}

type skillTreeEntry struct {
	Tree   string       `yaml:"tree"`
	Skills []skillEntry `yaml:"skills"`
}

type skillListFile struct {
	Trees []skillTreeEntry `yaml:"trees"`
}

// SkillTable provides lookup of skills by tree and id.
type SkillTable struct {
	trees map[string]map[string]*Skill
	order []*Skill
}

// LoadSkillTable loads skill trees from YAML.
func LoadSkillTable(fsys fs.FS, name string) (*SkillTable, error) {
	var f skillListFile
	if err := readYAML(fsys, name, &f); err != nil {
		return nil, err
	}
	t := &SkillTable{trees: make(map[string]map[string]*Skill, len(f.Trees))}
	for _, tree := range f.Trees {
		nodes := make(map[string]*Skill, len(tree.Skills))
		for _, e := range tree.Skills {
			if _, dup := nodes[e.ID]; dup {
				return nil, fmt.Errorf("skill %s/%s: duplicate id", tree.Tree, e.ID)
			}
			eff := make(map[BonusKey]float64, len(e.Effects))
			for k, v := range e.Effects {
				key, err := ParseBonusKey(k)
				if err != nil {
					return nil, fmt.Errorf("skill %s/%s: %w", tree.Tree, e.ID, err)
				}
				eff[key] = v
			}
			if e.MaxLevel < 1 {
				e.MaxLevel = 1
			}
			s := &Skill{
				ID:            e.ID,
				Tree:          tree.Tree,
				Name:          e.Name,
				MaxLevel:      e.MaxLevel,
				BaseCost:      e.BaseCost,
				Prerequisites: e.Prerequisites,
				Effects:       eff,
			}
			nodes[s.ID] = s
			t.order = append(t.order, s)
		}
		t.trees[tree.Tree] = nodes
	}
	return t, nil
}

// Get returns the skill, or nil if the tree or id is unknown.
func (t *SkillTable) Get(tree, id string) *Skill {
	return t.trees[tree][id]
}

func (t *SkillTable) All() []*Skill {
	return t.order
}

func (t *SkillTable) Count() int {
	return len(t.order)
}
