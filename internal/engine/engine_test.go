package engine

import (
	"math/rand"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/config"
	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/scripting"
	"github.com/tamaranch/ranch/internal/system"
	"github.com/tamaranch/ranch/internal/world"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fixedAdventures []AdventureResult

func (f fixedAdventures) ProcessCompletedAdventures(*world.State) []AdventureResult { return f }

func newTestEngine(t *testing.T, adv AdventureProcessor) (*Engine, *clock.Fake) {
	t.Helper()
	tables, err := data.LoadDefault()
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	scripts := scripting.NewEngine(zap.NewNop())
	t.Cleanup(scripts.Close)
	clk := clock.NewFake(start)
	deps := &system.Deps{
		Tables:  tables,
		Config:  config.Default(),
		Clock:   clk,
		Rand:    rand.New(rand.NewSource(7)),
		Bus:     event.NewBus(),
		Scripts: scripts,
		Log:     zap.NewNop(),
	}
	e, err := New(deps, adv)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, clk
}

func pendingContracts(st *world.State) []*world.Contract {
	var out []*world.Contract
	for _, c := range st.Contracts {
		if c.Status == world.ContractPending {
			out = append(out, c)
		}
	}
	return out
}

func TestNewGame(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	if st.Resources[world.Coins] != 500 || len(st.Customers) != 10 || len(pendingContracts(st)) != 5 {
		t.Fatalf("unexpected new game: coins %d customers %d contracts %d",
			st.Resources[world.Coins], len(st.Customers), len(st.Contracts))
	}
	if p := e.ValidateState(st); len(p) != 0 {
		t.Fatalf("fresh state should be consistent: %v", p)
	}
}

func TestProcessTickCompletesCrafts(t *testing.T) {
	e, clk := newTestEngine(t, nil)
	st := e.NewGame()
	if r := e.PlaceBuilding(st, "berry_farm"); !r.Success {
		t.Fatalf("place: %s", r.Message)
	}
	if st.Progression.Experience != 20 {
		t.Fatalf("placing a building grants 20 exp, have %d", st.Progression.Experience)
	}
	if r := e.Crafting.StartCrafting(st, "berry_jam", 1); !r.Success {
		t.Fatalf("craft: %s", r.Message)
	}

	clk.Advance(5 * time.Minute)
	rep := e.ProcessTick(st, 5*time.Minute)
	if len(rep.Crafts) != 1 || rep.ExperienceGranted != 6 {
		t.Fatalf("expected one craft worth 6 exp, got %d / %d", len(rep.Crafts), rep.ExperienceGranted)
	}
	if !slices.Contains(rep.Events, "crafted 1× berry_jam") || !slices.Contains(rep.Events, "built berry_farm") {
		t.Fatalf("missing events in %v", rep.Events)
	}
	if st.PlayTime != 5*time.Minute || !st.LastTick.Equal(clk.Now()) {
		t.Fatalf("tick bookkeeping not updated")
	}
	if again := e.ProcessTick(st, 0); len(again.Crafts) != 0 {
		t.Fatalf("reprocessing without elapsed time must do nothing")
	}
}

func TestProcessTickResolvesContracts(t *testing.T) {
	e, clk := newTestEngine(t, nil)
	st := e.NewGame()
	r := e.AdoptTama(st, "Mochi")
	if !r.Success {
		t.Fatalf("adopt: %s", r.Message)
	}
	c := pendingContracts(st)[0]
	if a := e.Customers.AssignTamaToContract(st, c.ID, r.ID); !a.Success {
		t.Fatalf("assign: %s", a.Message)
	}
	coins := st.Resources[world.Coins]

	clk.Advance(c.Requirements.Duration)
	rep := e.ProcessTick(st, c.Requirements.Duration)
	if len(rep.Contracts) != 1 || !rep.Contracts[0].Success {
		t.Fatalf("expected a successful contract, got %+v", rep.Contracts)
	}
	pay := rep.Contracts[0].Payment
	if st.Resources[world.Coins] < coins+pay {
		t.Fatalf("payment not credited")
	}
	// the work also takes the fresh tama to level 2: 15 base + 2
	if want := 30 + pay/10 + 17; rep.ExperienceGranted != want {
		t.Fatalf("expected %d exp got %d", want, rep.ExperienceGranted)
	}
	if st.Tama(r.ID).Level != 2 {
		t.Fatalf("contract work should level the tama")
	}
	if !st.HasAchievement("first_contract") || !st.HasAchievement("first_tama") {
		t.Fatalf("expected contract and tama achievements, got %v", st.Achievements)
	}
	if len(pendingContracts(st)) != 5 {
		t.Fatalf("board should be refilled")
	}
}

func TestAdoptTamaRespectsCapacity(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	for i := 0; i < 3; i++ {
		r := e.AdoptTama(st, "T")
		if !r.Success {
			t.Fatalf("adopt %d: %s", i, r.Message)
		}
		tm := st.Tama(r.ID)
		if tm.Tier == 0 && !st.Unlocks.Species.Has(tm.Species) {
			t.Fatalf("common tamas come from unlocked species, got %s", tm.Species)
		}
	}
	if r := e.AdoptTama(st, "T"); r.Code != system.CodeCapacity {
		t.Fatalf("expected capacity failure got %v", r.Code)
	}
	if st.Progression.Stats.TamasRaised != 3 || st.Progression.Experience != 75 {
		t.Fatalf("expected 3 raised and 75 exp, got %d / %d", st.Progression.Stats.TamasRaised, st.Progression.Experience)
	}
}

func TestInteract(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	id := e.AdoptTama(st, "Mochi").ID

	if r := e.Interact(st, id, ActionFeed, string(creature.FoodBerry)); !r.Success {
		t.Fatalf("feed: %s", r.Message)
	}
	// 25 for adoption, 2 base + 2 from the berry
	if st.Progression.Stats.Interactions != 1 || st.Progression.Experience != 29 {
		t.Fatalf("unexpected progression %+v", st.Progression)
	}
	if r := e.Interact(st, id, "dance", ""); r.Code != system.CodeInvalid {
		t.Fatalf("expected invalid got %v", r.Code)
	}
	if r := e.Interact(st, "ghost", ActionFeed, ""); r.Code != system.CodeNotFound {
		t.Fatalf("expected not found got %v", r.Code)
	}
	e.Interact(st, id, ActionSleep, "")
	if r := e.Interact(st, id, ActionPlay, ""); r.Success {
		t.Fatalf("sleeping tamas cannot play")
	}
	if r := e.Interact(st, id, ActionWake, ""); !r.Success {
		t.Fatalf("wake: %s", r.Message)
	}
	if st.Progression.Stats.Interactions != 1 {
		t.Fatalf("sleep and wake are not care interactions")
	}
}

func TestExperienceBonusScalesGrants(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	st.Progression.IncrementSkill("care", "nurturing")
	st.Progression.IncrementSkill("care", "nurturing")

	// 25 base, +10% from two nurturing levels
	if got := e.HandleTamaCreation(st); got != 27 {
		t.Fatalf("expected 27 got %d", got)
	}
}

func TestAdventuresGrantExperience(t *testing.T) {
	e, _ := newTestEngine(t, fixedAdventures{{ID: "a1", Success: true, Experience: 10}})
	st := e.NewGame()
	rep := e.ProcessTick(st, time.Second)
	if len(rep.Adventures) != 1 || rep.ExperienceGranted != 50 {
		t.Fatalf("expected 50 exp from the adventure got %d", rep.ExperienceGranted)
	}
	if st.Progression.Stats.AdventuresFinished != 1 {
		t.Fatalf("adventure not counted")
	}
}

func TestRotationRunsWhenDue(t *testing.T) {
	e, clk := newTestEngine(t, nil)
	st := e.NewGame()
	clk.Advance(time.Hour)
	e.ProcessTick(st, time.Hour)
	if !st.LastRotation.Equal(start) {
		t.Fatalf("rotation ran early")
	}
	clk.Advance(31 * 24 * time.Hour)
	rep := e.ProcessTick(st, 31*24*time.Hour)
	if !st.LastRotation.Equal(clk.Now()) || len(st.Customers) != 10 {
		t.Fatalf("rotation should have run")
	}
	found := false
	for _, ev := range rep.Events {
		if strings.HasPrefix(ev, "customers rotated") {
			found = true
		}
	}
	if !found {
		t.Fatalf("rotation event missing from %v", rep.Events)
	}
}

func TestPrestigeReseedsCustomers(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	st.Progression.Level = 50
	for _, tier := range []int{0, 0, 1, 3, 3} {
		st.Tamas = append(st.Tamas, creature.New("T", "blob", tier, creature.Genetics{Cuteness: 50, Intelligence: 50, Energy: 50, Appetite: 50}, start))
	}
	if r := e.Prestige(st); !r.Success {
		t.Fatalf("prestige: %s", r.Message)
	}
	if len(st.Customers) != 10 || len(pendingContracts(st)) != 5 || len(st.Tamas) != 0 {
		t.Fatalf("customers should be reseeded after prestige")
	}
	if e.GetSystemBonuses(st).PrestigeExperience != 1.1 {
		t.Fatalf("expected prestige multiplier 1.1")
	}
}

func TestValidateState(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	st.Contracts = append(st.Contracts, &world.Contract{ID: "orphan", CustomerID: "gone", Status: world.ContractPending})
	st.Buildings = append(st.Buildings, &world.Building{ID: "b1", TypeID: "berry_farm", Level: 1, Condition: 100, CaretakerID: "ghost"})
	st.CraftingQueue = append(st.CraftingQueue, &world.CraftingQueueItem{ID: "q1", RecipeID: "soap", Quantity: 1})

	problems := e.ValidateState(st)
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems got %v", problems)
	}
}

func TestGetSystemBonuses(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	b := e.GetSystemBonuses(st)
	if b.TamaCapacity != 3 || b.CraftTimeMultiplier != 1 || b.Experience != 1 || b.PrestigeExperience != 1 {
		t.Fatalf("unexpected baseline bonuses %+v", b)
	}
	if b.Skills["crafting_speed"] != 1 {
		t.Fatalf("skill vector should start at 1, got %v", b.Skills)
	}
}

func TestItemLevelUpGrantsPlayerExperience(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.NewGame()
	id := e.AdoptTama(st, "Mochi").ID
	st.Inventory = append(st.Inventory, &world.Item{ID: "snack", Name: "Snack", Effects: map[string]float64{"experience": 10}})
	before := st.Progression.Experience

	if r := e.Crafting.UseItem(st, "snack", id); !r.Success {
		t.Fatalf("use: %s", r.Message)
	}
	if st.Tama(id).Level != 2 {
		t.Fatalf("expected the tama at level 2")
	}
	if got := st.Progression.Experience - before; got != 17 {
		t.Fatalf("level-up from an item should grant 17 exp, got %d", got)
	}
	found := false
	for _, ev := range e.deps.Bus.Drain() {
		if lv, ok := ev.(event.TamaLeveledUp); ok && lv.TamaID == id && lv.Level == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("level-up event missing")
	}
}
