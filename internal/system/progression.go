package system

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/scripting"
	"github.com/tamaranch/ranch/internal/world"
)

// Prestige keeps a growing share of resources: min(base + level×step, cap).
const (
	prestigeKeepBase = 0.1
	prestigeKeepStep = 0.05
	prestigeKeepCap  = 0.5

	// rareTier is the tier counted toward prestige eligibility.
	rareTier = 3
)

// Bonuses is the cross-system multiplier vector indexed by data.BonusKey.
// Every entry starts at 1.0.
type Bonuses [data.BonusKeyCount]float64

func baseBonuses() Bonuses {
	var b Bonuses
	for i := range b {
		b[i] = 1
	}
	return b
}

func (b Bonuses) Get(k data.BonusKey) float64 {
	return b[k]
}

// Map returns the vector keyed by bonus name.
func (b Bonuses) Map() map[string]float64 {
	out := make(map[string]float64, len(b))
	for i, v := range b {
		out[data.BonusKey(i).String()] = v
	}
	return out
}

var specializationBands = map[world.Specialization]map[data.BonusKey]float64{
	world.SpecCaretaker: {data.BonusCareQuality: 1.25, data.BonusExperience: 1.1},
	world.SpecMerchant:  {data.BonusContractPayment: 1.25, data.BonusReputation: 1.2},
	world.SpecArtisan:   {data.BonusCraftingSpeed: 1.3, data.BonusProduction: 1.15},
}

// ProgressionSystem owns player experience, levels, skills, achievements
// and the prestige cycle. Every other system reads its bonuses.
type ProgressionSystem struct {
	deps *Deps
}

// NewProgressionSystem compiles every achievement condition into the
// scripting engine.
func NewProgressionSystem(deps *Deps) (*ProgressionSystem, error) {
	for _, a := range deps.Tables.Achievements.All() {
		if err := deps.Scripts.Compile(a.ID, a.Condition); err != nil {
			return nil, err
		}
	}
	return &ProgressionSystem{deps: deps}, nil
}

// ExperienceForLevel is the total experience needed to reach level:
// floor(base × (level−1)^exponent), 0 for level 1.
func (p *ProgressionSystem) ExperienceForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	cfg := p.deps.Config.Progression
	return int(math.Floor(cfg.ExpBase * math.Pow(float64(level-1), cfg.CurveExponent)))
}

// LevelFromExperience walks the curve up from level 1, capped at MaxLevel.
func (p *ProgressionSystem) LevelFromExperience(exp int) int {
	level := 1
	for level < p.deps.Config.Progression.MaxLevel && p.ExperienceForLevel(level+1) <= exp {
		level++
	}
	return level
}

// PrestigeMultiplier is 1 + step × prestige level.
func (p *ProgressionSystem) PrestigeMultiplier(st *world.State) float64 {
	return 1 + p.deps.Config.Progression.PrestigeExpStep*float64(st.Progression.PrestigeLevel)
}

// GrantExperience adds floor((sourceBase + amount) × prestigeMultiplier)
// and runs processLevelUp once for every level crossed. Returns the amount
// granted.
func (p *ProgressionSystem) GrantExperience(st *world.State, source string, amount int) int {
	base := p.deps.Tables.Progression.ExpBase(source)
	granted := int(math.Floor(float64(base+amount) * p.PrestigeMultiplier(st)))
	if granted <= 0 {
		return 0
	}
	pr := &st.Progression
	pr.Experience += granted
	pr.Stats.TotalExperience += granted

	// Level-up rewards can grant experience again; re-read the target each
	// step so no level is processed twice.
	for pr.Level < p.LevelFromExperience(pr.Experience) {
		pr.Level++
		p.processLevelUp(st, pr.Level)
	}
	return granted
}

func skillPointsForLevel(level int) int {
	switch {
	case level <= 5:
		return 1
	case level <= 15:
		return 2
	case level <= 35:
		return 3
	default:
		return 5
	}
}

func (p *ProgressionSystem) processLevelUp(st *world.State, level int) {
	pts := skillPointsForLevel(level)
	st.Progression.SkillPoints += pts

	prog := p.deps.Tables.Progression
	if m, ok := prog.Milestones[level]; ok {
		p.ApplyReward(st, m, fmt.Sprintf("milestone:%d", level))
	}
	if u, ok := prog.LevelUnlocks[level]; ok {
		p.applyUnlockSet(st, u)
	}

	event.Emit(p.deps.Bus, event.PlayerLeveledUp{Level: level, SkillPoints: pts})
	p.deps.Log.Info("player level up", zap.Int("level", level), zap.Int("skill_points", pts))

	p.CheckAchievements(st)
}

// ApplyReward grants skill points, resources and unlocks.
func (p *ProgressionSystem) ApplyReward(st *world.State, rw data.Reward, ref string) {
	st.Progression.SkillPoints += rw.SkillPoints
	for _, r := range rw.Resources.Keys() {
		n := rw.Resources[r]
		st.Resources.Add(r, n)
		event.Emit(p.deps.Bus, event.ResourceFlow{Kind: "reward", Ref: ref, Resource: r, Amount: n})
	}
	for _, id := range rw.Unlocks {
		p.DispatchUnlock(st, id)
	}
}

// DispatchUnlock routes an unlock id by name: ids naming a habitat, workshop
// or generator are buildings, ids containing "recipe" are recipes (with a
// "recipe:" prefix stripped), anything else is a species. Returns the kind
// and whether the id was new.
func (p *ProgressionSystem) DispatchUnlock(st *world.State, id string) (string, bool) {
	var kind string
	var added bool
	switch {
	case strings.Contains(id, "habitat"), strings.Contains(id, "workshop"), strings.Contains(id, "generator"):
		kind = "building"
		added = st.Unlocks.Buildings.Add(id)
	case strings.Contains(id, "recipe"):
		kind = "recipe"
		id = strings.TrimPrefix(id, "recipe:")
		added = st.Unlocks.Recipes.Add(id)
	default:
		kind = "species"
		added = st.Unlocks.Species.Add(id)
	}
	if added {
		event.Emit(p.deps.Bus, event.ContentUnlocked{Kind: kind, ID: id})
	}
	return kind, added
}

func (p *ProgressionSystem) applyUnlockSet(st *world.State, u data.UnlockSet) {
	add := func(set *world.IDSet, kind string, ids []string) {
		for _, id := range ids {
			if set.Add(id) {
				event.Emit(p.deps.Bus, event.ContentUnlocked{Kind: kind, ID: id})
			}
		}
	}
	add(&st.Unlocks.Buildings, "building", u.Buildings)
	add(&st.Unlocks.Recipes, "recipe", u.Recipes)
	add(&st.Unlocks.Species, "species", u.Species)
}

// ApplyStartingContent seeds a fresh ranch with the starting resources and
// unlocks.
func (p *ProgressionSystem) ApplyStartingContent(st *world.State) {
	prog := p.deps.Tables.Progression
	st.Resources.AddAll(prog.StartingResources)
	st.Unlocks = startingUnlocks(prog.StartingUnlocks)
}

func startingUnlocks(u data.UnlockSet) world.Unlocks {
	return world.Unlocks{
		Buildings: world.IDSet(slices.Clone(u.Buildings)),
		Recipes:   world.IDSet(slices.Clone(u.Recipes)),
		Species:   world.IDSet(slices.Clone(u.Species)),
	}
}

// LearnSkill raises a skill by one level. Cost is baseCost + current level.
// Prerequisites are checked before skill points.
func (p *ProgressionSystem) LearnSkill(st *world.State, tree, id string) Result {
	sk := p.deps.Tables.Skills.Get(tree, id)
	if sk == nil {
		return fail(CodeNotFound, "Unknown skill %s/%s", tree, id)
	}
	pr := &st.Progression
	cur := pr.SkillLevel(tree, id)
	if cur >= sk.MaxLevel {
		return fail(CodeMaxLevel, "%s is already at max level", sk.Name)
	}
	for _, pre := range sk.Prerequisites {
		if pr.SkillLevel(tree, pre) < 1 {
			return fail(CodePrerequisiteMissing, "Missing prerequisite skill %s", pre)
		}
	}
	cost := sk.BaseCost + cur
	if pr.SkillPoints < cost {
		return fail(CodeInsufficientSkillPoints, "Need %d skill points, have %d", cost, pr.SkillPoints)
	}
	pr.SkillPoints -= cost
	lvl := pr.IncrementSkill(tree, id)
	event.Emit(p.deps.Bus, event.SkillLearned{Tree: tree, SkillID: id, Level: lvl})
	return succeed("", "Learned %s level %d", sk.Name, lvl)
}

// SkillBonuses folds every learned skill's effects, scaled by its level,
// onto the 1.0 baseline.
func (p *ProgressionSystem) SkillBonuses(st *world.State) Bonuses {
	b := baseBonuses()
	for _, sk := range p.deps.Tables.Skills.All() {
		lvl := st.Progression.SkillLevel(sk.Tree, sk.ID)
		if lvl == 0 {
			continue
		}
		for k, v := range sk.Effects {
			b[k] += v * float64(lvl)
		}
	}
	return b
}

// SpecializationBonuses returns the fixed band of the chosen specialization.
func (p *ProgressionSystem) SpecializationBonuses(st *world.State) Bonuses {
	b := baseBonuses()
	for k, v := range specializationBands[st.Progression.Specialization] {
		b[k] = v
	}
	return b
}

// Bonuses combines skill and specialization bonuses.
func (p *ProgressionSystem) Bonuses(st *world.State) Bonuses {
	skills := p.SkillBonuses(st)
	spec := p.SpecializationBonuses(st)
	var b Bonuses
	for i := range b {
		b[i] = skills[i] * spec[i]
	}
	return b
}

// ChooseSpecialization sets the specialization once; it cannot be changed.
func (p *ProgressionSystem) ChooseSpecialization(st *world.State, spec world.Specialization) Result {
	if _, known := specializationBands[spec]; !known {
		return fail(CodeInvalid, "Unknown specialization %s", spec)
	}
	pr := &st.Progression
	if pr.Specialization != world.SpecNone {
		return fail(CodeAlreadySet, "Specialization already chosen: %s", pr.Specialization)
	}
	need := p.deps.Config.Progression.SpecializationLevel
	if pr.Level < need {
		return fail(CodeLevelTooLow, "Specialization requires level %d", need)
	}
	pr.Specialization = spec
	p.deps.Log.Info("specialization chosen", zap.Stringer("specialization", spec))
	return succeed("", "You are now a %s", spec)
}

// CheckPrestige reports whether prestige is allowed and, if not, why.
func (p *ProgressionSystem) CheckPrestige(st *world.State) Result {
	cfg := p.deps.Config.Progression
	if st.Progression.Level < cfg.PrestigeMinLevel {
		return fail(CodeLevelTooLow, "Prestige requires level %d", cfg.PrestigeMinLevel)
	}
	if len(st.Tamas) < cfg.PrestigeMinTamas {
		return fail(CodeInvalid, "Prestige requires %d tamas", cfg.PrestigeMinTamas)
	}
	rare := 0
	for _, t := range st.Tamas {
		if t.Tier >= rareTier {
			rare++
		}
	}
	if rare < cfg.PrestigeMinRare {
		return fail(CodeInvalid, "Prestige requires %d tamas of tier %d", cfg.PrestigeMinRare, rareTier)
	}
	return succeed("", "Ready to prestige")
}

func (p *ProgressionSystem) CanPrestige(st *world.State) bool {
	return p.CheckPrestige(st).Success
}

// PrestigePoints is floor(level×0.1) + Σ tier×5 over tier ≥ 2 tamas
// + 2 × unlocked achievements.
func (p *ProgressionSystem) PrestigePoints(st *world.State) int {
	points := int(math.Floor(float64(st.Progression.Level) * 0.1))
	for _, t := range st.Tamas {
		if t.Tier >= 2 {
			points += t.Tier * 5
		}
	}
	return points + 2*len(st.Achievements)
}

// PerformPrestige resets progress for prestige points. Specialization,
// achievements and lifetime stats survive; a share of every resource is kept.
func (p *ProgressionSystem) PerformPrestige(st *world.State) Result {
	if r := p.CheckPrestige(st); !r.Success {
		return r
	}
	now := p.deps.Clock.Now()
	pr := &st.Progression
	points := p.PrestigePoints(st)
	keep := math.Min(prestigeKeepBase+float64(pr.PrestigeLevel)*prestigeKeepStep, prestigeKeepCap)

	kept := st.Resources.Scale(keep)
	for r := range p.deps.Tables.Progression.StartingResources {
		if _, held := kept[r]; !held {
			kept[r] = 0
		}
	}
	st.Resources = kept

	pr.Level = 1
	pr.Experience = 0
	pr.SkillPoints = 0
	pr.Skills = map[string]map[string]world.SkillProgress{}
	pr.PrestigeLevel++
	pr.PrestigePoints += points
	pr.Stats.PrestigeCount++

	st.Tamas = nil
	st.Buildings = nil
	st.Customers = nil
	st.Contracts = nil
	st.CraftingQueue = nil
	st.Inventory = nil
	st.LastRotation = now

	st.Unlocks = startingUnlocks(p.deps.Tables.Progression.StartingUnlocks)
	for lvl := 1; lvl <= pr.PrestigeLevel; lvl++ {
		p.ApplyPrestigeUnlocks(st, lvl)
	}

	event.Emit(p.deps.Bus, event.Prestiged{PrestigeLevel: pr.PrestigeLevel, Points: points})
	p.deps.Log.Info("prestige",
		zap.Int("prestige_level", pr.PrestigeLevel),
		zap.Int("points", points),
		zap.Float64("keep_ratio", keep),
	)
	return succeed("", "Prestige %d reached, earned %d points", pr.PrestigeLevel, points)
}

// ApplyPrestigeUnlocks applies the unlocks gated on one prestige level.
// Re-applying a level adds nothing.
func (p *ProgressionSystem) ApplyPrestigeUnlocks(st *world.State, level int) {
	if u, ok := p.deps.Tables.Progression.PrestigeUnlocks[level]; ok {
		p.applyUnlockSet(st, u)
	}
}

// CheckAchievements evaluates every locked achievement in table order and
// rewards new ones exactly once. Returns the ids unlocked by this call.
func (p *ProgressionSystem) CheckAchievements(st *world.State) []string {
	var unlocked []string
	facts := p.Facts(st)
	for _, a := range p.deps.Tables.Achievements.All() {
		if st.HasAchievement(a.ID) {
			continue
		}
		met, err := p.deps.Scripts.Eval(a.ID, facts)
		if err != nil {
			p.deps.Log.Error("achievement condition failed", zap.String("id", a.ID), zap.Error(err))
			continue
		}
		if !met {
			continue
		}
		st.Achievements = append(st.Achievements, world.AchievementRecord{ID: a.ID, UnlockedAt: p.deps.Clock.Now()})
		unlocked = append(unlocked, a.ID)
		event.Emit(p.deps.Bus, event.AchievementUnlocked{ID: a.ID, Name: a.Name})
		p.deps.Log.Info("achievement unlocked", zap.String("id", a.ID))

		p.ApplyReward(st, a.Reward, "achievement:"+a.ID)
		p.GrantExperience(st, "achievement_unlocked", 0)
		facts = p.Facts(st)
	}
	return unlocked
}

// Facts is the snapshot achievement conditions see as s.
func (p *ProgressionSystem) Facts(st *world.State) scripting.Facts {
	pr := st.Progression
	f := scripting.Facts{
		"level":               float64(pr.Level),
		"experience":          float64(pr.Experience),
		"prestige_level":      float64(pr.PrestigeLevel),
		"prestige_points":     float64(pr.PrestigePoints),
		"skill_points":        float64(pr.SkillPoints),
		"skills_learned":      float64(pr.LearnedSkills()),
		"tamas":               float64(len(st.Tamas)),
		"buildings":           float64(len(st.Buildings)),
		"customers":           float64(len(st.Customers)),
		"inventory":           float64(len(st.Inventory)),
		"achievements":        float64(len(st.Achievements)),
		"tamas_raised":        float64(pr.Stats.TamasRaised),
		"contracts_completed": float64(pr.Stats.ContractsCompleted),
		"contracts_failed":    float64(pr.Stats.ContractsFailed),
		"items_crafted":       float64(pr.Stats.ItemsCrafted),
		"coins_earned":        float64(pr.Stats.CoinsEarned),
		"interactions":        float64(pr.Stats.Interactions),
		"adventures":          float64(pr.Stats.AdventuresFinished),
	}
	for _, r := range world.AllResources() {
		f[r.String()] = float64(st.Resources[r])
	}

	maxTier, rare := 0, 0
	for _, t := range st.Tamas {
		maxTier = max(maxTier, t.Tier)
		if t.Tier >= rareTier {
			rare++
		}
	}
	f["max_tier"] = float64(maxTier)
	f["rare_tamas"] = float64(rare)

	maxLevel := 0
	for _, b := range st.Buildings {
		maxLevel = max(maxLevel, b.Level)
	}
	f["max_building_level"] = float64(maxLevel)

	if len(st.Customers) > 0 {
		sum := 0
		for _, c := range st.Customers {
			sum += c.Reputation
		}
		f["reputation_avg"] = float64(sum) / float64(len(st.Customers))
	} else {
		f["reputation_avg"] = 0
	}
	return f
}
