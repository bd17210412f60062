package engine

import (
	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/system"
	"github.com/tamaranch/ranch/internal/world"
)

// Action is a player care action on one tama.
type Action string

const (
	ActionFeed  Action = "feed"
	ActionPlay  Action = "play"
	ActionClean Action = "clean"
	ActionSleep Action = "sleep"
	ActionWake  Action = "wake"
)

// NewGame returns a fresh ranch with starting content, the customer
// population and a full contract board.
func (e *Engine) NewGame() *world.State {
	st := world.NewState(e.deps.Clock.Now())
	e.Progression.ApplyStartingContent(st)
	e.InitializeCustomers(st)
	e.Customers.RefillBoard(st)
	e.deps.Log.Info("new ranch created", zap.Int("customers", len(st.Customers)))
	return st
}

// InitializeCustomers seeds the configured population when the ranch has
// no customers yet.
func (e *Engine) InitializeCustomers(st *world.State) {
	if len(st.Customers) > 0 {
		return
	}
	e.Customers.GenerateInitialPopulation(st, e.deps.Config.Customers.Population)
}

// HandleTamaInteraction records a care interaction and grants its experience.
func (e *Engine) HandleTamaInteraction(st *world.State, amount int) int {
	st.Progression.Stats.Interactions++
	return e.grant(st, "tama_interaction", amount)
}

// HandleTamaCreation records a new tama and grants its experience.
func (e *Engine) HandleTamaCreation(st *world.State) int {
	st.Progression.Stats.TamasRaised++
	return e.grant(st, "tama_created", 0)
}

// HandleTamaLevelUp grants experience for a tama reaching a new level.
func (e *Engine) HandleTamaLevelUp(st *world.State, t *creature.Tama) int {
	event.Emit(e.deps.Bus, event.TamaLeveledUp{TamaID: t.ID, Name: t.Name, Level: t.Level})
	return e.grant(st, "tama_level_up", t.Level)
}

// HandleTamaTierUp grants experience for a tier increase. Tamas never change
// tier inside this engine; the hook exists for external evolution features.
func (e *Engine) HandleTamaTierUp(st *world.State, t *creature.Tama) int {
	return e.grant(st, "tama_tier_up", t.Tier)
}

// AdoptTama creates a random tama if housing allows. The species is drawn
// from the unlocked species of the rolled tier when there are any.
func (e *Engine) AdoptTama(st *world.State, name string) system.Result {
	capacity := e.Buildings.TamaCapacity(st)
	if len(st.Tamas) >= capacity {
		return system.Failed(system.CodeCapacity, "The ranch can house %d tamas", capacity)
	}
	t := creature.NewRandom(e.deps.Rand, name, e.deps.Clock.Now())
	var unlocked []string
	for _, sp := range creature.SpeciesForTier(t.Tier) {
		if st.Unlocks.Species.Has(sp) {
			unlocked = append(unlocked, sp)
		}
	}
	if len(unlocked) > 0 {
		t.Species = unlocked[e.deps.Rand.Intn(len(unlocked))]
	}
	st.Tamas = append(st.Tamas, t)
	e.HandleTamaCreation(st)
	e.deps.Log.Info("tama adopted", zap.String("id", t.ID), zap.String("species", t.Species), zap.Int("tier", t.Tier))
	return system.Succeeded(t.ID, "%s the %s joined the ranch", t.Name, t.Species)
}

// Interact performs a care action. kind selects the food or toy and may be
// empty for the default.
func (e *Engine) Interact(st *world.State, tamaID string, action Action, kind string) system.Result {
	t := st.Tama(tamaID)
	if t == nil {
		return system.Failed(system.CodeNotFound, "Tama not found")
	}
	now := e.deps.Clock.Now()
	var res creature.InteractionResult
	switch action {
	case ActionFeed:
		res = t.Feed(creature.Food(kind), now)
	case ActionPlay:
		res = t.Play(creature.Toy(kind), now)
	case ActionClean:
		res = t.Clean(now)
	case ActionSleep:
		res = t.PutToSleep(now)
	case ActionWake:
		res = t.WakeUp(now)
	default:
		return system.Failed(system.CodeInvalid, "Unknown action %s", action)
	}
	if !res.Success {
		return system.Failed(system.CodeInvalid, "%s", res.Message)
	}
	switch action {
	case ActionFeed, ActionPlay, ActionClean:
		e.HandleTamaInteraction(st, res.Experience)
	}
	if res.LeveledUp {
		e.HandleTamaLevelUp(st, t)
	}
	return system.Succeeded(t.ID, "%s", res.Message)
}

// PlaceBuilding places a building and grants building experience.
func (e *Engine) PlaceBuilding(st *world.State, typeID string) system.Result {
	r := e.Buildings.Place(st, typeID)
	if r.Success {
		e.grant(st, "building_built", 0)
	}
	return r
}

// UpgradeBuilding upgrades a building and grants experience scaled by the
// level reached.
func (e *Engine) UpgradeBuilding(st *world.State, id string) system.Result {
	r := e.Buildings.Upgrade(st, id)
	if r.Success {
		e.grant(st, "building_upgraded", st.Building(id).Level)
	}
	return r
}

// Prestige performs a prestige reset and reseeds the customer population.
func (e *Engine) Prestige(st *world.State) system.Result {
	r := e.Progression.PerformPrestige(st)
	if r.Success {
		e.InitializeCustomers(st)
		e.Customers.RefillBoard(st)
	}
	return r
}
