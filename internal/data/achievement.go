package data

import (
	"fmt"
	"io/fs"
)

// Achievement pairs a Lua condition with a one-time reward.
type Achievement struct {
	ID          string
	Name        string
	Description string
	// Condition is a Lua boolean expression over the facts table s.
	Condition string
	Reward    Reward
}

type achievementEntry struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Condition   string      `yaml:"condition"`
	Reward      rewardEntry `yaml:"reward"`
}

type achievementListFile struct {
	Achievements []achievementEntry `yaml:"achievements"`
}

// AchievementTable keeps achievements in file order, which is evaluation order.
type AchievementTable struct {
	byID  map[string]*Achievement
	order []*Achievement
}

// LoadAchievementTable loads achievements from YAML.
func LoadAchievementTable(fsys fs.FS, name string) (*AchievementTable, error) {
	var f achievementListFile
	if err := readYAML(fsys, name, &f); err != nil {
		return nil, err
	}
	t := &AchievementTable{byID: make(map[string]*Achievement, len(f.Achievements))}
	for _, e := range f.Achievements {
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("achievement %s: duplicate id", e.ID)
		}
		if e.Condition == "" {
			return nil, fmt.Errorf("achievement %s: empty condition", e.ID)
		}
		rw, err := e.Reward.toReward()
		if err != nil {
			return nil, fmt.Errorf("achievement %s: %w", e.ID, err)
		}
		a := &Achievement{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Condition:   e.Condition,
			Reward:      rw,
		}
		t.byID[a.ID] = a
		t.order = append(t.order, a)
	}
	return t, nil
}

func (t *AchievementTable) Get(id string) *Achievement {
	return t.byID[id]
}

func (t *AchievementTable) All() []*Achievement {
	return t.order
}

func (t *AchievementTable) Count() int {
	return len(t.order)
}
