package data

import (
	"fmt"
	"io/fs"

	"github.com/tamaranch/ranch/internal/world"
)

// AutomationKind is the closed set of building automations.
type AutomationKind uint8

const (
	AutomationNone AutomationKind = iota
	AutoFeed
	AutoCraft
)

var automationNames = [...]string{"none", "auto_feed", "auto_craft"}

func (k AutomationKind) String() string {
	if int(k) < len(automationNames) {
		return automationNames[k]
	}
	return fmt.Sprintf("automation(%d)", uint8(k))
}

func parseAutomation(s string) (AutomationKind, error) {
	if s == "" {
		return AutomationNone, nil
	}
	for i, n := range automationNames {
		if n == s {
			return AutomationKind(i), nil
		}
	}
	return AutomationNone, fmt.Errorf("unknown automation %q", s)
}

// Building effect keys. Each building contributes effect × level × efficiency.
const (
	EffectTamaCapacity    = "tama_capacity"
	EffectCraftingSpeed   = "crafting_speed"
	EffectHappiness       = "happiness_per_hour"
	EffectExperience      = "experience"
	EffectContractPayment = "contract_payment"
)

var knownEffects = map[string]bool{
	EffectTamaCapacity:    true,
	EffectCraftingSpeed:   true,
	EffectHappiness:       true,
	EffectExperience:      true,
	EffectContractPayment: true,
}

// BuildingType is a static building definition.
type BuildingType struct {
	ID               string
	Name             string
	Category         string
	BaseCost         world.Resources
	MaxLevel         int
	RequiredLevel    int
	RequiredPrestige int
	// Production is units per minute per level at full condition.
	Production map[world.Resource]float64
	Effects    map[string]float64
	Automation AutomationKind
}

type buildingEntry struct {
	ID               string             `yaml:"id"`
	Name             string             `yaml:"name"`
	Category         string             `yaml:"category"`
	BaseCost         map[string]int     `yaml:"base_cost"`
	MaxLevel         int                `yaml:"max_level"`
	RequiredLevel    int                `yaml:"required_level"`
	RequiredPrestige int                `yaml:"required_prestige"`
	Production       map[string]float64 `yaml:"production"`
	Effects          map[string]float64 `yaml:"effects"`
	Automation       string             `yaml:"automation"`
}

type buildingListFile struct {
	Buildings []buildingEntry `yaml:"buildings"`
}

// BuildingTable provides lookup of building types by id.
type BuildingTable struct {
	types map[string]*BuildingType
	order []*BuildingType
}

// LoadBuildingTable loads building types from YAML.
func LoadBuildingTable(fsys fs.FS, name string) (*BuildingTable, error) {
	var f buildingListFile
	if err := readYAML(fsys, name, &f); err != nil {
		return nil, err
	}
	t := &BuildingTable{types: make(map[string]*BuildingType, len(f.Buildings))}
	for _, e := range f.Buildings {
		if _, dup := t.types[e.ID]; dup {
			return nil, fmt.Errorf("building %s: duplicate id", e.ID)
		}
		cost, err := parseResources(e.BaseCost)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", e.ID, err)
		}
		prod := make(map[world.Resource]float64, len(e.Production))
		for k, v := range e.Production {
			r, err := world.ParseResource(k)
			if err != nil {
				return nil, fmt.Errorf("building %s: %w", e.ID, err)
			}
			prod[r] = v
		}
		for k := range e.Effects {
			if !knownEffects[k] {
				return nil, fmt.Errorf("building %s: unknown effect %q", e.ID, k)
			}
		}
		auto, err := parseAutomation(e.Automation)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", e.ID, err)
		}
		if e.MaxLevel < 1 {
			e.MaxLevel = 1
		}
		bt := &BuildingType{
			ID:               e.ID,
			Name:             e.Name,
			Category:         e.Category,
			BaseCost:         cost,
			MaxLevel:         e.MaxLevel,
			RequiredLevel:    e.RequiredLevel,
			RequiredPrestige: e.RequiredPrestige,
			Production:       prod,
			Effects:          e.Effects,
			Automation:       auto,
		}
		t.types[bt.ID] = bt
		t.order = append(t.order, bt)
	}
	return t, nil
}

// Get returns the building type, or nil if unknown.
func (t *BuildingTable) Get(id string) *BuildingType {
	return t.types[id]
}

func (t *BuildingTable) All() []*BuildingType {
	return t.order
}

func (t *BuildingTable) Count() int {
	return len(t.order)
}
