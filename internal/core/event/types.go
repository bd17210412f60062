package event

import (
	"fmt"

	"github.com/tamaranch/ranch/internal/world"
)

// ResourceFlow records one credit (positive) or debit (negative) of a
// resource. The economy ledger is built from these.
type ResourceFlow struct {
	Kind     string // building_cost, contract_payment, craft_cost, ...
	Ref      string // id of the building, contract, queue entry, ...
	Resource world.Resource
	Amount   int
}

func (e ResourceFlow) String() string {
	return fmt.Sprintf("%s %+d %s (%s)", e.Kind, e.Amount, e.Resource, e.Ref)
}

type PlayerLeveledUp struct {
	Level       int
	SkillPoints int
}

func (e PlayerLeveledUp) String() string {
	return fmt.Sprintf("reached level %d (+%d skill points)", e.Level, e.SkillPoints)
}

type TamaLeveledUp struct {
	TamaID string
	Name   string
	Level  int
}

func (e TamaLeveledUp) String() string {
	return fmt.Sprintf("%s reached level %d", e.Name, e.Level)
}

type AchievementUnlocked struct {
	ID   string
	Name string
}

func (e AchievementUnlocked) String() string {
	return fmt.Sprintf("achievement unlocked: %s", e.Name)
}

type SkillLearned struct {
	Tree    string
	SkillID string
	Level   int
}

func (e SkillLearned) String() string {
	return fmt.Sprintf("learned %s/%s level %d", e.Tree, e.SkillID, e.Level)
}

type ContentUnlocked struct {
	Kind string // building, recipe, species
	ID   string
}

func (e ContentUnlocked) String() string {
	return fmt.Sprintf("unlocked %s %s", e.Kind, e.ID)
}

type BuildingPlaced struct {
	BuildingID string
	TypeID     string
}

func (e BuildingPlaced) String() string {
	return fmt.Sprintf("built %s", e.TypeID)
}

type BuildingUpgraded struct {
	BuildingID string
	TypeID     string
	Level      int
}

func (e BuildingUpgraded) String() string {
	return fmt.Sprintf("upgraded %s to level %d", e.TypeID, e.Level)
}

type BuildingRemoved struct {
	BuildingID string
	TypeID     string
}

func (e BuildingRemoved) String() string {
	return fmt.Sprintf("removed %s", e.TypeID)
}

type CraftCompleted struct {
	EntryID  string
	RecipeID string
	Items    int
}

func (e CraftCompleted) String() string {
	return fmt.Sprintf("crafted %d× %s", e.Items, e.RecipeID)
}

type ContractResolved struct {
	ContractID string
	CustomerID string
	TamaID     string
	Success    bool
	Payment    int
}

func (e ContractResolved) String() string {
	if e.Success {
		return fmt.Sprintf("contract %s completed (+%d coins)", e.ContractID, e.Payment)
	}
	return fmt.Sprintf("contract %s failed", e.ContractID)
}

type CustomersRotated struct {
	Departed int
	Arrived  int
}

func (e CustomersRotated) String() string {
	return fmt.Sprintf("customers rotated: %d left, %d arrived", e.Departed, e.Arrived)
}

type Prestiged struct {
	PrestigeLevel int
	Points        int
}

func (e Prestiged) String() string {
	return fmt.Sprintf("prestige %d (+%d points)", e.PrestigeLevel, e.Points)
}
