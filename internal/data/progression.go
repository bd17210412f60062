package data

import (
	"fmt"
	"io/fs"

	"github.com/tamaranch/ranch/internal/world"
)

// ProgressionTable holds experience sources, level milestones and the
// content unlocked at the start, by level and by prestige level.
type ProgressionTable struct {
	ExpSources        map[string]int
	Milestones        map[int]Reward
	LevelUnlocks      map[int]UnlockSet
	PrestigeUnlocks   map[int]UnlockSet
	StartingUnlocks   UnlockSet
	StartingResources world.Resources
}

type progressionFile struct {
	ExpSources        map[string]int      `yaml:"exp_sources"`
	Milestones        map[int]rewardEntry `yaml:"milestones"`
	LevelUnlocks      map[int]UnlockSet   `yaml:"level_unlocks"`
	PrestigeUnlocks   map[int]UnlockSet   `yaml:"prestige_unlocks"`
	StartingUnlocks   UnlockSet           `yaml:"starting_unlocks"`
	StartingResources map[string]int      `yaml:"starting_resources"`
}

// LoadProgressionTable loads progression tuning from YAML.
func LoadProgressionTable(fsys fs.FS, name string) (*ProgressionTable, error) {
	var f progressionFile
	if err := readYAML(fsys, name, &f); err != nil {
		return nil, err
	}
	start, err := parseResources(f.StartingResources)
	if err != nil {
		return nil, fmt.Errorf("starting resources: %w", err)
	}
	t := &ProgressionTable{
		ExpSources:        f.ExpSources,
		Milestones:        make(map[int]Reward, len(f.Milestones)),
		LevelUnlocks:      f.LevelUnlocks,
		PrestigeUnlocks:   f.PrestigeUnlocks,
		StartingUnlocks:   f.StartingUnlocks,
		StartingResources: start,
	}
	for lvl, e := range f.Milestones {
		rw, err := e.toReward()
		if err != nil {
			return nil, fmt.Errorf("milestone %d: %w", lvl, err)
		}
		t.Milestones[lvl] = rw
	}
	if t.ExpSources == nil {
		t.ExpSources = map[string]int{}
	}
	return t, nil
}

// ExpBase returns the base experience of a source, 0 if unknown.
func (t *ProgressionTable) ExpBase(source string) int {
	return t.ExpSources[source]
}
