package system

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/config"
	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/scripting"
	"github.com/tamaranch/ranch/internal/world"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	deps  *Deps
	clk   *clock.Fake
	prog  *ProgressionSystem
	bld   *BuildingSystem
	craft *CraftSystem
	cust  *CustomerSystem
	st    *world.State
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tables, err := data.LoadDefault()
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	scripts := scripting.NewEngine(zap.NewNop())
	t.Cleanup(scripts.Close)

	clk := clock.NewFake(start)
	deps := &Deps{
		Tables:  tables,
		Config:  config.Default(),
		Clock:   clk,
		Rand:    rand.New(rand.NewSource(42)),
		Bus:     event.NewBus(),
		Scripts: scripts,
		Log:     zap.NewNop(),
	}
	prog, err := NewProgressionSystem(deps)
	if err != nil {
		t.Fatalf("progression: %v", err)
	}
	bld := NewBuildingSystem(deps, prog)
	craft := NewCraftSystem(deps, prog, bld)
	bld.SetCraft(craft)
	cust := NewCustomerSystem(deps, prog, bld)

	st := world.NewState(start)
	prog.ApplyStartingContent(st)
	return &harness{deps: deps, clk: clk, prog: prog, bld: bld, craft: craft, cust: cust, st: st}
}

func (h *harness) addTama(tier int) *creature.Tama {
	g := creature.Genetics{Cuteness: 50, Intelligence: 50, Energy: 50, Appetite: 50}
	tm := creature.New("Mochi", "blob", tier, g, h.clk.Now())
	h.st.Tamas = append(h.st.Tamas, tm)
	return tm
}

// addBuilding places a building directly, skipping cost and unlock checks.
func (h *harness) addBuilding(typeID string, level int) *world.Building {
	b := &world.Building{
		ID:            typeID + "-" + strconv.Itoa(len(h.st.Buildings)),
		TypeID:        typeID,
		Level:         level,
		Condition:     100,
		LastProcessed: h.clk.Now(),
		Invested:      world.Resources{},
	}
	h.st.Buildings = append(h.st.Buildings, b)
	return b
}
