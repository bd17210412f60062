package system

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/world"
)

// Quality tiers: cumulative thresholds on a [0,100) roll.
var (
	qualityThresholds  = [...]float64{90, 99, 99.9}
	qualityMultipliers = [...]float64{1.0, 1.5, 2.0, 3.0}
	qualityPrefixes    = [...]string{"", "Fine", "Superior", "Masterwork"}
)

// MaxQuality is the highest item quality tier.
const MaxQuality = len(qualityMultipliers) - 1

// CraftSystem runs the crafting queue: deduct on enqueue, produce on completion.
type CraftSystem struct {
	deps *Deps
	prog *ProgressionSystem
	bld  *BuildingSystem
}

func NewCraftSystem(deps *Deps, prog *ProgressionSystem, bld *BuildingSystem) *CraftSystem {
	return &CraftSystem{deps: deps, prog: prog, bld: bld}
}

// CraftOutput is one completed queue entry and the items it produced.
type CraftOutput struct {
	Entry *world.CraftingQueueItem
	Items []*world.Item
}

// CanCraft reports whether the ingredients for qty crafts are on hand.
func (s *CraftSystem) CanCraft(st *world.State, recipeID string, qty int) bool {
	r := s.deps.Tables.Recipes.Get(recipeID)
	if r == nil || qty < 1 {
		return false
	}
	return st.Resources.Has(scaleCost(r.Ingredients, qty))
}

// TimeMultiplier is the share of base craft time a new entry takes:
// 1/(skill bonus × building speed), never below the configured minimum.
func (s *CraftSystem) TimeMultiplier(st *world.State) float64 {
	speed := s.prog.Bonuses(st).Get(data.BonusCraftingSpeed) * s.bld.CraftingSpeedBonus(st)
	return math.Max(s.deps.Config.Crafting.MinTimeRatio, 1/speed)
}

// StartCrafting deducts ingredients now and enqueues the craft. The time
// multiplier is fixed at enqueue.
func (s *CraftSystem) StartCrafting(st *world.State, recipeID string, qty int) Result {
	if qty < 1 {
		return fail(CodeInvalid, "Quantity must be at least 1")
	}
	r := s.deps.Tables.Recipes.Get(recipeID)
	if r == nil {
		return fail(CodeNotFound, "Unknown recipe %s", recipeID)
	}
	if !st.Unlocks.Recipes.Has(recipeID) {
		return fail(CodeLocked, "%s is not unlocked", r.Name)
	}
	if st.Progression.Level < r.RequiredLevel {
		return fail(CodeLevelTooLow, "%s requires level %d", r.Name, r.RequiredLevel)
	}
	cost := scaleCost(r.Ingredients, qty)
	if !st.Resources.Spend(cost) {
		s.deps.Log.Debug("craft unaffordable", zap.String("recipe", recipeID), zap.Int("qty", qty))
		return fail(CodeInsufficientResources, "Not enough ingredients for %d× %s", qty, r.Name)
	}

	now := s.deps.Clock.Now()
	mult := s.TimeMultiplier(st)
	entry := &world.CraftingQueueItem{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		StartedAt: now,
		EndsAt:    now.Add(time.Duration(float64(r.CraftTime) * mult)),
		Quantity:  qty,
	}
	st.CraftingQueue = append(st.CraftingQueue, entry)
	emitFlows(s.deps.Bus, "craft_cost", entry.ID, cost, -1)

	return succeed(entry.ID, "Crafting %d× %s, ready in %s", qty, r.Name, entry.EndsAt.Sub(now).Round(time.Second))
}

// ProcessQueue completes every entry with now ≥ EndsAt, in queue order, and
// keeps the rest queued.
func (s *CraftSystem) ProcessQueue(st *world.State) []CraftOutput {
	now := s.deps.Clock.Now()
	var done []CraftOutput
	pending := st.CraftingQueue[:0:0]
	for _, entry := range st.CraftingQueue {
		if now.Before(entry.EndsAt) {
			pending = append(pending, entry)
			continue
		}
		r := s.deps.Tables.Recipes.Get(entry.RecipeID)
		if r == nil {
			s.deps.Log.Error("queued recipe missing", zap.String("recipe", entry.RecipeID))
			continue
		}
		var items []*world.Item
		for i := 0; i < entry.Quantity; i++ {
			for _, out := range r.Outputs {
				items = append(items, s.makeItems(out.ItemID, out.Quantity, now)...)
			}
		}
		st.Inventory = append(st.Inventory, items...)
		st.Progression.Stats.ItemsCrafted += len(items)
		done = append(done, CraftOutput{Entry: entry, Items: items})

		event.Emit(s.deps.Bus, event.CraftCompleted{EntryID: entry.ID, RecipeID: entry.RecipeID, Items: len(items)})
		s.deps.Log.Info("craft completed", zap.String("recipe", entry.RecipeID), zap.Int("items", len(items)))
	}
	st.CraftingQueue = pending
	return done
}

// makeItems creates n items of one definition, each with its own quality roll.
func (s *CraftSystem) makeItems(itemID string, n int, now time.Time) []*world.Item {
	out := make([]*world.Item, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.ApplyQuality(itemID, s.GenerateItemQuality(), now))
	}
	return out
}

// GenerateItemQuality rolls a quality tier: 90% / 9% / 0.9% / 0.1%.
func (s *CraftSystem) GenerateItemQuality() int {
	roll := s.deps.Rand.Float64() * 100
	for q, threshold := range qualityThresholds {
		if roll < threshold {
			return q
		}
	}
	return MaxQuality
}

// ApplyQuality builds an item of the given definition at a quality tier.
// Numeric effects are scaled, properties copied, and tiers above 0 get a
// name prefix. An unknown item id is a content bug and panics.
func (s *CraftSystem) ApplyQuality(itemID string, quality int, now time.Time) *world.Item {
	def := s.deps.Tables.Items.Get(itemID)
	if def == nil {
		panic(fmt.Sprintf("system: item %q is not in the item table", itemID))
	}
	quality = max(0, min(quality, MaxQuality))
	mult := qualityMultipliers[quality]

	effects := make(map[string]float64, len(def.Effects))
	for k, v := range def.Effects {
		effects[k] = v * mult
	}
	name := def.Name
	if quality > 0 {
		name = qualityPrefixes[quality] + " " + def.Name
	}
	return &world.Item{
		ID:         uuid.NewString(),
		DefID:      def.ID,
		Name:       name,
		Quality:    quality,
		Effects:    effects,
		Properties: maps.Clone(def.Properties),
		CraftedAt:  now,
	}
}

// UseItem applies an inventory item's effects to a tama and consumes it.
func (s *CraftSystem) UseItem(st *world.State, itemID, tamaID string) Result {
	it := st.Item(itemID)
	if it == nil {
		return fail(CodeNotFound, "Item not found")
	}
	t := st.Tama(tamaID)
	if t == nil {
		return fail(CodeNotFound, "Tama not found")
	}
	res := t.ApplyEffects(it.Effects, s.deps.Clock.Now())
	st.RemoveItem(itemID)
	st.Progression.Stats.Interactions++
	if res.LeveledUp {
		s.deps.tamaLeveledUp(st, t)
	}
	return succeed(it.ID, "%s used %s (+%d exp)", t.Name, it.Name, res.Experience)
}

// emitFlows records every non-zero entry of rs as a ledger flow.
func emitFlows(bus *event.Bus, kind, ref string, rs world.Resources, sign int) {
	for _, r := range rs.Keys() {
		if rs[r] == 0 {
			continue
		}
		event.Emit(bus, event.ResourceFlow{Kind: kind, Ref: ref, Resource: r, Amount: sign * rs[r]})
	}
}

// scaleCost multiplies every quantity by n.
func scaleCost(rs world.Resources, n int) world.Resources {
	out := make(world.Resources, len(rs))
	for r, q := range rs {
		out[r] = q * n
	}
	return out
}
