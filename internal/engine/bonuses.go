package engine

import (
	"fmt"

	"github.com/tamaranch/ranch/internal/world"
)

// SystemBonuses is a snapshot of every cross-system multiplier.
type SystemBonuses struct {
	// Skills is the combined skill and specialization vector keyed by bonus name.
	Skills              map[string]float64
	BuildingEffects     map[string]float64
	TamaCapacity        int
	CraftingSpeed       float64
	CraftTimeMultiplier float64
	ContractPayment     float64
	Experience          float64
	PrestigeExperience  float64
}

func (e *Engine) GetSystemBonuses(st *world.State) SystemBonuses {
	return SystemBonuses{
		Skills:              e.Progression.Bonuses(st).Map(),
		BuildingEffects:     e.Buildings.Effects(st),
		TamaCapacity:        e.Buildings.TamaCapacity(st),
		CraftingSpeed:       e.Buildings.CraftingSpeedBonus(st),
		CraftTimeMultiplier: e.Crafting.TimeMultiplier(st),
		ContractPayment:     e.Buildings.ContractPaymentBonus(st),
		Experience:          e.ExperienceBonus(st),
		PrestigeExperience:  e.Progression.PrestigeMultiplier(st),
	}
}

// ValidateState reports consistency problems in human-readable form. An
// empty result means the state is consistent.
func (e *Engine) ValidateState(st *world.State) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	busy := map[string]string{}
	for _, c := range st.Contracts {
		// active work of a departed customer runs to completion
		if c.Status == world.ContractPending && st.Customer(c.CustomerID) == nil {
			add("contract %s references missing customer %s", c.ID, c.CustomerID)
		}
		if c.Status != world.ContractActive {
			continue
		}
		if st.Tama(c.AssigneeID) == nil {
			add("active contract %s references missing tama %s", c.ID, c.AssigneeID)
		}
		if other, dup := busy[c.AssigneeID]; dup {
			add("tama %s is assigned to active contracts %s and %s", c.AssigneeID, other, c.ID)
		}
		busy[c.AssigneeID] = c.ID
	}

	for _, b := range st.Buildings {
		if e.deps.Tables.Buildings.Get(b.TypeID) == nil {
			add("building %s has unknown type %s", b.ID, b.TypeID)
		}
		if b.CaretakerID != "" && st.Tama(b.CaretakerID) == nil {
			add("building %s references missing tama %s", b.ID, b.CaretakerID)
		}
	}

	for _, q := range st.CraftingQueue {
		if !st.Unlocks.Recipes.Has(q.RecipeID) {
			add("queued craft %s uses locked recipe %s", q.ID, q.RecipeID)
		}
	}

	for _, r := range st.Resources.Keys() {
		if n := st.Resources[r]; n < 0 {
			add("resource %s is negative (%d)", r, n)
		}
	}
	return problems
}
