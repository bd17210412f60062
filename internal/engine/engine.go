// Package engine is the orchestrator. It owns no game state: each call
// advances or mutates the world.State it is handed, driving the ranch
// systems in a fixed order.
package engine

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	coresys "github.com/tamaranch/ranch/internal/core/system"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/system"
	"github.com/tamaranch/ranch/internal/world"
)

// TickReport aggregates everything one tick produced.
type TickReport struct {
	Crafts            []system.CraftOutput
	Contracts         []system.ContractResult
	Adventures        []AdventureResult
	Achievements      []string
	ExperienceGranted int
	// Events is the tick's event log in emission order.
	Events []string
}

// tick is the per-call state threaded through the stage runner.
type tick struct {
	st     *world.State
	now    time.Time
	report *TickReport
}

// Engine wires the ranch systems together and runs ticks over a state.
type Engine struct {
	deps       *system.Deps
	adventures AdventureProcessor
	runner     *coresys.Runner[*tick]
	// active is the tick in progress, nil between ticks
	active *tick

	Progression *system.ProgressionSystem
	Buildings   *system.BuildingSystem
	Crafting    *system.CraftSystem
	Customers   *system.CustomerSystem
}

// New builds the systems and registers the tick stages. A nil adventure
// processor means no adventures.
func New(deps *system.Deps, adventures AdventureProcessor) (*Engine, error) {
	prog, err := system.NewProgressionSystem(deps)
	if err != nil {
		return nil, fmt.Errorf("progression: %w", err)
	}
	bld := system.NewBuildingSystem(deps, prog)
	craft := system.NewCraftSystem(deps, prog, bld)
	bld.SetCraft(craft)

	if adventures == nil {
		adventures = NoAdventures{}
	}
	e := &Engine{
		deps:        deps,
		adventures:  adventures,
		runner:      coresys.NewRunner[*tick](),
		Progression: prog,
		Buildings:   bld,
		Crafting:    craft,
		Customers:   system.NewCustomerSystem(deps, prog, bld),
	}
	deps.OnTamaLevelUp = e.tamaLeveledUp
	e.registerStages()
	return e, nil
}

func (e *Engine) registerStages() {
	stages := []coresys.Func[*tick]{
		{P: coresys.PhaseCreatures, Fn: e.settleCreatures},
		{P: coresys.PhaseBuildings, Fn: e.runBuildings},
		{P: coresys.PhaseCrafting, Fn: e.runCrafting},
		{P: coresys.PhaseContracts, Fn: e.runContracts},
		{P: coresys.PhaseCustomers, Fn: e.runCustomers},
		{P: coresys.PhaseAdventures, Fn: e.runAdventures},
		{P: coresys.PhaseAchievements, Fn: e.runAchievements},
	}
	for _, s := range stages {
		e.runner.Register(s)
	}
}

// ProcessTick advances the ranch to the clock's current time. dt is the
// wall time covered by this tick and only feeds the play-time counter;
// every system measures elapsed time from its own timestamps.
func (e *Engine) ProcessTick(st *world.State, dt time.Duration) *TickReport {
	t := &tick{st: st, now: e.deps.Clock.Now(), report: &TickReport{}}
	e.active = t
	e.runner.Tick(t)
	e.active = nil

	for _, ev := range e.deps.Bus.Drain() {
		t.report.Events = append(t.report.Events, describe(ev))
	}
	if dt > 0 {
		st.PlayTime += dt
	}
	st.LastTick = t.now

	e.deps.Log.Debug("tick",
		zap.Int("crafts", len(t.report.Crafts)),
		zap.Int("contracts", len(t.report.Contracts)),
		zap.Int("exp", t.report.ExperienceGranted),
		zap.Int("events", len(t.report.Events)),
	)
	return t.report
}

func describe(ev any) string {
	if s, ok := ev.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", ev)
}

// tamaLeveledUp handles level-ups caused inside the systems (contract work,
// auto-feed, item use). Experience granted during a tick is reported.
func (e *Engine) tamaLeveledUp(st *world.State, t *creature.Tama) {
	n := e.HandleTamaLevelUp(st, t)
	if e.active != nil {
		e.active.report.ExperienceGranted += n
	}
}

func (e *Engine) settleCreatures(t *tick) {
	for _, tm := range t.st.Tamas {
		tm.UpdateNeeds(t.now)
	}
}

func (e *Engine) runBuildings(t *tick) {
	e.Buildings.Process(t.st)
}

func (e *Engine) runCrafting(t *tick) {
	done := e.Crafting.ProcessQueue(t.st)
	for _, out := range done {
		t.report.ExperienceGranted += e.grant(t.st, "item_crafted", len(out.Items))
	}
	t.report.Crafts = append(t.report.Crafts, done...)
}

func (e *Engine) runContracts(t *tick) {
	results := e.Customers.ProcessContracts(t.st)
	for _, r := range results {
		if r.Success {
			t.report.ExperienceGranted += e.grant(t.st, "contract_completed", r.Payment/10)
		}
	}
	t.report.Contracts = append(t.report.Contracts, results...)
	e.Customers.RefillBoard(t.st)
}

func (e *Engine) runCustomers(t *tick) {
	if e.Customers.RotationDue(t.st) {
		e.Customers.PerformMonthlyRotation(t.st)
	}
}

func (e *Engine) runAdventures(t *tick) {
	results := e.adventures.ProcessCompletedAdventures(t.st)
	for _, r := range results {
		t.st.Progression.Stats.AdventuresFinished++
		if r.Experience > 0 {
			t.report.ExperienceGranted += e.grant(t.st, "adventure_completed", r.Experience)
		}
	}
	t.report.Adventures = append(t.report.Adventures, results...)
}

func (e *Engine) runAchievements(t *tick) {
	t.report.Achievements = append(t.report.Achievements, e.Progression.CheckAchievements(t.st)...)
}

// ExperienceBonus is the combined skill and building experience multiplier.
func (e *Engine) ExperienceBonus(st *world.State) float64 {
	return e.Progression.Bonuses(st).Get(data.BonusExperience) * e.Buildings.ExperienceBonus(st)
}

// grant awards experience with the experience bonus folded into the amount,
// so the bonus scales the source base as well.
func (e *Engine) grant(st *world.State, source string, amount int) int {
	base := e.deps.Tables.Progression.ExpBase(source)
	extra := int(math.Floor(float64(base+amount) * (e.ExperienceBonus(st) - 1)))
	return e.Progression.GrantExperience(st, source, amount+max(0, extra))
}
