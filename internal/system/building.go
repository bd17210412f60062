package system

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/world"
)

// caretakerDecayFactor scales condition decay of a building with a caretaker.
const caretakerDecayFactor = 0.5

// BuildingSystem places, upgrades, repairs and removes buildings and runs
// their production, automation and wear.
type BuildingSystem struct {
	deps  *Deps
	prog  *ProgressionSystem
	craft *CraftSystem
}

// NewBuildingSystem creates the building system. The craft system is wired
// with SetCraft once both exist.
func NewBuildingSystem(deps *Deps, prog *ProgressionSystem) *BuildingSystem {
	return &BuildingSystem{deps: deps, prog: prog}
}

// SetCraft wires the craft system used for auto-craft output.
func (s *BuildingSystem) SetCraft(c *CraftSystem) {
	s.craft = c
}

// Place builds a new level 1 building at full condition.
func (s *BuildingSystem) Place(st *world.State, typeID string) Result {
	bt := s.deps.Tables.Buildings.Get(typeID)
	if bt == nil {
		return fail(CodeNotFound, "Unknown building type %s", typeID)
	}
	if !st.Unlocks.Buildings.Has(typeID) {
		return fail(CodeLocked, "%s is not unlocked", bt.Name)
	}
	if st.Progression.Level < bt.RequiredLevel {
		return fail(CodeLevelTooLow, "%s requires level %d", bt.Name, bt.RequiredLevel)
	}
	if st.Progression.PrestigeLevel < bt.RequiredPrestige {
		return fail(CodeLevelTooLow, "%s requires prestige %d", bt.Name, bt.RequiredPrestige)
	}
	if !st.Resources.Spend(bt.BaseCost) {
		s.deps.Log.Debug("building unaffordable", zap.String("type", typeID))
		return fail(CodeInsufficientResources, "Not enough resources for %s", bt.Name)
	}

	now := s.deps.Clock.Now()
	b := &world.Building{
		ID:            uuid.NewString(),
		TypeID:        typeID,
		Level:         1,
		Condition:     100,
		LastProcessed: now,
		Invested:      bt.BaseCost.Clone(),
	}
	st.Buildings = append(st.Buildings, b)
	st.Progression.Stats.BuildingsBuilt++

	emitFlows(s.deps.Bus, "building_cost", b.ID, bt.BaseCost, -1)
	event.Emit(s.deps.Bus, event.BuildingPlaced{BuildingID: b.ID, TypeID: typeID})
	s.deps.Log.Info("building placed", zap.String("type", typeID), zap.String("id", b.ID))
	return succeed(b.ID, "Built %s", bt.Name)
}

// UpgradeCost is floor(baseCost × multiplier^level) per resource.
func (s *BuildingSystem) UpgradeCost(bt *data.BuildingType, level int) world.Resources {
	return bt.BaseCost.Scale(math.Pow(s.deps.Config.Economy.UpgradeMultiplier, float64(level)))
}

// Upgrade raises a building by exactly one level.
func (s *BuildingSystem) Upgrade(st *world.State, id string) Result {
	b := st.Building(id)
	if b == nil {
		return fail(CodeNotFound, "Building not found")
	}
	bt := s.deps.Tables.Buildings.Get(b.TypeID)
	if bt == nil {
		return fail(CodeNotFound, "Unknown building type %s", b.TypeID)
	}
	if b.Level >= bt.MaxLevel {
		return fail(CodeMaxLevel, "%s is already at max level %d", bt.Name, bt.MaxLevel)
	}
	cost := s.UpgradeCost(bt, b.Level)
	if !st.Resources.Spend(cost) {
		s.deps.Log.Debug("upgrade unaffordable", zap.String("type", b.TypeID), zap.Int("level", b.Level))
		return fail(CodeInsufficientResources, "Not enough resources to upgrade %s", bt.Name)
	}
	b.Level++
	if b.Invested == nil {
		b.Invested = world.Resources{}
	}
	b.Invested.AddAll(cost)

	emitFlows(s.deps.Bus, "building_upgrade", b.ID, cost, -1)
	event.Emit(s.deps.Bus, event.BuildingUpgraded{BuildingID: b.ID, TypeID: b.TypeID, Level: b.Level})
	s.deps.Log.Info("building upgraded", zap.String("type", b.TypeID), zap.Int("level", b.Level))
	return succeed(b.ID, "%s upgraded to level %d", bt.Name, b.Level)
}

// Remove demolishes a building and refunds a share of everything paid for it.
func (s *BuildingSystem) Remove(st *world.State, id string) Result {
	b := st.Building(id)
	if b == nil {
		return fail(CodeNotFound, "Building not found")
	}
	refund := b.Invested.Scale(s.deps.Config.Economy.RefundRatio)
	st.Resources.AddAll(refund)
	st.RemoveBuilding(id)

	emitFlows(s.deps.Bus, "building_refund", b.ID, refund, 1)
	event.Emit(s.deps.Bus, event.BuildingRemoved{BuildingID: b.ID, TypeID: b.TypeID})
	s.deps.Log.Info("building removed", zap.String("type", b.TypeID), zap.String("id", b.ID))
	return succeed(b.ID, "Removed %s", b.TypeID)
}

// RepairCost is baseCost × repairRatio × missingCondition/100, floored.
func (s *BuildingSystem) RepairCost(bt *data.BuildingType, b *world.Building) world.Resources {
	missing := (100 - b.Condition) / 100
	return bt.BaseCost.Scale(s.deps.Config.Economy.RepairCostRatio * missing)
}

// Repair restores a building to full condition.
func (s *BuildingSystem) Repair(st *world.State, id string) Result {
	b := st.Building(id)
	if b == nil {
		return fail(CodeNotFound, "Building not found")
	}
	bt := s.deps.Tables.Buildings.Get(b.TypeID)
	if bt == nil {
		return fail(CodeNotFound, "Unknown building type %s", b.TypeID)
	}
	if b.Condition >= 100 {
		return fail(CodeInvalid, "%s is in perfect condition", bt.Name)
	}
	cost := s.RepairCost(bt, b)
	if !st.Resources.Spend(cost) {
		return fail(CodeInsufficientResources, "Not enough resources to repair %s", bt.Name)
	}
	b.Condition = 100
	emitFlows(s.deps.Bus, "building_repair", b.ID, cost, -1)
	return succeed(b.ID, "%s repaired", bt.Name)
}

// AssignCaretaker puts a tama in charge of a building; an empty tama id
// clears the assignment. A tama looks after one building at a time.
func (s *BuildingSystem) AssignCaretaker(st *world.State, buildingID, tamaID string) Result {
	b := st.Building(buildingID)
	if b == nil {
		return fail(CodeNotFound, "Building not found")
	}
	if tamaID == "" {
		b.CaretakerID = ""
		return succeed(b.ID, "Caretaker cleared")
	}
	t := st.Tama(tamaID)
	if t == nil {
		return fail(CodeNotFound, "Tama not found")
	}
	for _, other := range st.Buildings {
		if other != b && other.CaretakerID == tamaID {
			return fail(CodeBusy, "%s already looks after another building", t.Name)
		}
	}
	b.CaretakerID = tamaID
	return succeed(b.ID, "%s now looks after the building", t.Name)
}

// SetAutomation configures the recipe an auto-craft building works on.
func (s *BuildingSystem) SetAutomation(st *world.State, buildingID, recipeID string) Result {
	b := st.Building(buildingID)
	if b == nil {
		return fail(CodeNotFound, "Building not found")
	}
	bt := s.deps.Tables.Buildings.Get(b.TypeID)
	if bt == nil || bt.Automation != data.AutoCraft {
		return fail(CodeInvalid, "%s cannot craft", b.TypeID)
	}
	if recipeID == "" {
		b.Automation = nil
		return succeed(b.ID, "Automation cleared")
	}
	if s.deps.Tables.Recipes.Get(recipeID) == nil {
		return fail(CodeNotFound, "Unknown recipe %s", recipeID)
	}
	if !st.Unlocks.Recipes.Has(recipeID) {
		return fail(CodeLocked, "%s is not unlocked", recipeID)
	}
	b.Automation = &world.Automation{RecipeID: recipeID}
	return succeed(b.ID, "Automation set to %s", recipeID)
}

// Process runs production, automation and condition decay for every
// building over the time since it was last processed.
func (s *BuildingSystem) Process(st *world.State) {
	now := s.deps.Clock.Now()
	bonus := s.prog.Bonuses(st)
	for _, b := range st.Buildings {
		bt := s.deps.Tables.Buildings.Get(b.TypeID)
		elapsed := now.Sub(b.LastProcessed)
		if bt == nil || elapsed <= 0 {
			b.LastProcessed = now
			continue
		}
		minutes := elapsed.Minutes()
		eff := b.Efficiency()

		s.produce(st, b, bt, minutes, eff, bonus.Get(data.BonusProduction))
		s.cheer(st, b, bt, minutes/60, eff, now)
		switch bt.Automation {
		case data.AutoFeed:
			s.autoFeed(st, b, eff, now)
		case data.AutoCraft:
			s.autoCraft(st, b, eff, now)
		case data.AutomationNone:
		}

		decay := s.deps.Config.Economy.DecayPerHour * (minutes / 60) / bonus.Get(data.BonusDurability)
		if b.CaretakerID != "" && st.Tama(b.CaretakerID) != nil {
			decay *= caretakerDecayFactor
		}
		b.Condition = math.Max(0, b.Condition-decay)
		b.LastProcessed = now
	}
}

// produce credits rate × level × efficiency × minutes for every resource the
// ranch holds. The fraction below one unit carries to the next call.
func (s *BuildingSystem) produce(st *world.State, b *world.Building, bt *data.BuildingType, minutes, eff, bonus float64) {
	for _, r := range world.AllResources() {
		rate, ok := bt.Production[r]
		if !ok {
			continue
		}
		if _, held := st.Resources[r]; !held {
			continue
		}
		if b.Carry == nil {
			b.Carry = map[world.Resource]float64{}
		}
		amount := rate*float64(b.Level)*eff*minutes*bonus + b.Carry[r]
		whole := math.Floor(amount)
		b.Carry[r] = amount - whole
		if whole >= 1 {
			st.Resources.Add(r, int(whole))
			event.Emit(s.deps.Bus, event.ResourceFlow{Kind: "production", Ref: b.ID, Resource: r, Amount: int(whole)})
		}
	}
}

// cheer raises every tama's happiness by the building's happiness effect.
func (s *BuildingSystem) cheer(st *world.State, b *world.Building, bt *data.BuildingType, hours, eff float64, now time.Time) {
	rate := bt.Effects[data.EffectHappiness]
	if rate <= 0 {
		return
	}
	gain := rate * float64(b.Level) * eff * hours
	for _, t := range st.Tamas {
		t.UpdateNeeds(now)
		t.AdjustNeeds(creature.Needs{Happiness: gain})
	}
}

// autoFeed feeds up to floor(level × efficiency) hungry tamas, one unit of
// the feed resource each.
func (s *BuildingSystem) autoFeed(st *world.State, b *world.Building, eff float64, now time.Time) {
	cfg := s.deps.Config.Economy
	feed, err := world.ParseResource(cfg.FeedResource)
	if err != nil {
		s.deps.Log.Error("bad feed resource", zap.String("resource", cfg.FeedResource))
		return
	}
	slots := int(math.Floor(float64(b.Level) * eff))
	fed := 0
	for _, t := range st.Tamas {
		if fed >= slots {
			break
		}
		if t.Needs.Hunger >= cfg.AutoFeedThreshold {
			continue
		}
		if !st.Resources.Spend(world.Resources{feed: 1}) {
			break
		}
		if t.Feed(creature.FoodBerry, now).LeveledUp {
			s.deps.tamaLeveledUp(st, t)
		}
		fed++
	}
	if fed > 0 {
		event.Emit(s.deps.Bus, event.ResourceFlow{Kind: "auto_feed", Ref: b.ID, Resource: feed, Amount: -fed})
	}
}

// autoCraft consumes the configured recipe's ingredients × floor(level ×
// efficiency) batches, all or nothing, and adds the output to the inventory.
func (s *BuildingSystem) autoCraft(st *world.State, b *world.Building, eff float64, now time.Time) {
	if b.Automation == nil || b.Automation.RecipeID == "" || s.craft == nil {
		return
	}
	r := s.deps.Tables.Recipes.Get(b.Automation.RecipeID)
	if r == nil || !st.Unlocks.Recipes.Has(r.ID) {
		return
	}
	batches := int(math.Floor(float64(b.Level) * eff))
	if batches < 1 {
		return
	}
	bundle := scaleCost(r.Ingredients, batches)
	if !st.Resources.Spend(bundle) {
		return
	}
	emitFlows(s.deps.Bus, "auto_craft", b.ID, bundle, -1)

	var made int
	for i := 0; i < batches; i++ {
		for _, out := range r.Outputs {
			items := s.craft.makeItems(out.ItemID, out.Quantity, now)
			st.Inventory = append(st.Inventory, items...)
			made += len(items)
		}
	}
	st.Progression.Stats.ItemsCrafted += made
	event.Emit(s.deps.Bus, event.CraftCompleted{EntryID: b.ID, RecipeID: r.ID, Items: made})
}

// Effects sums effect × level × efficiency over all buildings.
func (s *BuildingSystem) Effects(st *world.State) map[string]float64 {
	out := map[string]float64{}
	for _, b := range st.Buildings {
		bt := s.deps.Tables.Buildings.Get(b.TypeID)
		if bt == nil {
			continue
		}
		for k, v := range bt.Effects {
			out[k] += v * float64(b.Level) * b.Efficiency()
		}
	}
	return out
}

// TamaCapacity is the base capacity plus every habitat's contribution.
func (s *BuildingSystem) TamaCapacity(st *world.State) int {
	extra := s.Effects(st)[data.EffectTamaCapacity]
	return s.deps.Config.Economy.BaseTamaCapacity + int(math.Floor(extra))
}

// CraftingSpeedBonus is 1 + Σ crafting speed contributions.
func (s *BuildingSystem) CraftingSpeedBonus(st *world.State) float64 {
	return 1 + s.Effects(st)[data.EffectCraftingSpeed]
}

// ExperienceBonus is 1 + Σ experience contributions.
func (s *BuildingSystem) ExperienceBonus(st *world.State) float64 {
	return 1 + s.Effects(st)[data.EffectExperience]
}

// ContractPaymentBonus is 1 + Σ contract payment contributions.
func (s *BuildingSystem) ContractPaymentBonus(st *world.State) float64 {
	return 1 + s.Effects(st)[data.EffectContractPayment]
}
