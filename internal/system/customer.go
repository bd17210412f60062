package system

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/world"
)

const (
	// perfectHappiness is the happiness the perfect_happiness bonus needs.
	perfectHappiness = 95
	highTier         = 2
	// fastShare is the share of the allotted duration fast_completion allows.
	fastShare = 0.8

	// maxResolvedKept bounds how many terminal contracts stay in the state.
	maxResolvedKept = 20

	// contractTamaExp is what a tama earns for a successful job.
	contractTamaExp = 10
)

// workFatigue is applied to a tama whenever a contract resolves.
var workFatigue = creature.Needs{Energy: -15, Hunger: -10}

// archetypeProfile is the fixed band a customer of one archetype is drawn from.
type archetypeProfile struct {
	patienceMin, patienceMax int
	payMin, payMax           float64
	minTier                  int
	care                     []string
	rareSpecies              bool
	loyalty                  float64
	extra                    *bonusShare
}

// bonusShare is an extra bonus worth a share of the base payment.
type bonusShare struct {
	kind  world.BonusKind
	share float64
}

var archetypeProfiles = [world.ArchetypeCount]archetypeProfile{
	world.Casual:    {patienceMin: 6, patienceMax: 10, payMin: 0.8, payMax: 1.2},
	world.Demanding: {patienceMin: 1, patienceMax: 4, payMin: 1.2, payMax: 1.8, care: []string{"high_happiness", "clean"}},
	world.Wealthy: {patienceMin: 5, patienceMax: 10, payMin: 1.5, payMax: 3.0, minTier: 1, care: []string{"luxury"},
		loyalty: 0.05, extra: &bonusShare{world.BonusLuxuryItemsUsed, 0.5}},
	world.Collector: {patienceMin: 3, patienceMax: 8, payMin: 1.3, payMax: 2.0, minTier: 2, rareSpecies: true,
		loyalty: 0.1, extra: &bonusShare{world.BonusHighTier, 0.3}},
	world.Breeder: {patienceMin: 4, patienceMax: 9, payMin: 1.0, payMax: 1.5, minTier: 1, care: []string{"high_energy"}},
}

var (
	firstNames = []string{"Ada", "Bram", "Cleo", "Dov", "Esme", "Finn", "Greta", "Hiro", "Ines", "Jory", "Kaia", "Lev", "Mina", "Nils", "Oona", "Pim"}
	lastNames  = []string{"Ashdown", "Brook", "Cole", "Dale", "Fenn", "Hart", "Moss", "Reed", "Thorne", "Vale"}
)

// CustomerSystem generates customers and their contracts and resolves work.
type CustomerSystem struct {
	deps *Deps
	prog *ProgressionSystem
	bld  *BuildingSystem
}

func NewCustomerSystem(deps *Deps, prog *ProgressionSystem, bld *BuildingSystem) *CustomerSystem {
	return &CustomerSystem{deps: deps, prog: prog, bld: bld}
}

// ContractResult is the outcome of one resolved contract.
type ContractResult struct {
	ContractID string
	CustomerID string
	TamaID     string
	Success    bool
	CareScore  float64
	Payment    int
}

func (s *CustomerSystem) intBetween(lo, hi int) int {
	return lo + s.deps.Rand.Intn(hi-lo+1)
}

func (s *CustomerSystem) floatBetween(lo, hi float64) float64 {
	return lo + s.deps.Rand.Float64()*(hi-lo)
}

// GenerateCustomer draws a customer of a uniformly chosen archetype.
func (s *CustomerSystem) GenerateCustomer() *world.Customer {
	rng := s.deps.Rand
	arch := world.Archetype(rng.Intn(int(world.ArchetypeCount)))
	prof := archetypeProfiles[arch]

	prefs := world.Preferences{
		MinTier:        prof.minTier,
		CareAttributes: slices.Clone(prof.care),
	}
	if prof.rareSpecies {
		rare := append(slices.Clone(creature.SpeciesForTier(2)), creature.SpeciesForTier(3)...)
		prefs.Species = []string{rare[rng.Intn(len(rare))]}
	}

	return &world.Customer{
		ID:                uuid.NewString(),
		Name:              firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
		Archetype:         arch,
		Preferences:       prefs,
		Patience:          s.intBetween(prof.patienceMin, prof.patienceMax),
		PaymentMultiplier: s.floatBetween(prof.payMin, prof.payMax),
		Reputation:        rng.Intn(50),
		JoinedAt:          s.deps.Clock.Now(),
	}
}

// GenerateInitialPopulation appends n fresh customers to the state.
func (s *CustomerSystem) GenerateInitialPopulation(st *world.State, n int) []*world.Customer {
	out := make([]*world.Customer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.GenerateCustomer())
	}
	st.Customers = append(st.Customers, out...)
	return out
}

// ReputationMultiplier maps reputation to a payment factor.
func ReputationMultiplier(rep int) float64 {
	switch {
	case rep > 80:
		return 1.3
	case rep > 50:
		return 1.1
	case rep < 0:
		return 0.8
	default:
		return 1.0
	}
}

// GenerateContract builds a pending contract for c scaled to the player's
// level. Payment multipliers are folded into the base amount here, so
// resolution pays exactly base + satisfied bonuses.
func (s *CustomerSystem) GenerateContract(st *world.State, c *world.Customer) *world.Contract {
	level := st.Progression.Level
	prof := archetypeProfiles[c.Archetype]

	raw := float64(50 + level*10 + s.deps.Rand.Intn(50))
	duration := time.Duration(30+level*5) * time.Minute
	care := 1 + level/10
	if c.Archetype == world.Demanding {
		duration = time.Duration(float64(duration) * 1.5)
		care += 2
	}
	care = max(1, min(care, 10))

	mult := c.PaymentMultiplier * ReputationMultiplier(c.Reputation) *
		s.prog.Bonuses(st).Get(data.BonusContractPayment) * s.bld.ContractPaymentBonus(st)
	base := int(math.Floor(raw * mult))

	bonuses := []world.Bonus{
		{Kind: world.BonusPerfectHappiness, Amount: int(math.Floor(float64(base) * 0.2))},
		{Kind: world.BonusFastCompletion, Amount: int(math.Floor(float64(base) * 0.15))},
	}
	if prof.extra != nil {
		bonuses = append(bonuses, world.Bonus{Kind: prof.extra.kind, Amount: int(math.Floor(float64(base) * prof.extra.share))})
	}

	return &world.Contract{
		ID:         uuid.NewString(),
		CustomerID: c.ID,
		Requirements: world.Requirements{
			Duration:        duration,
			CareLevel:       care,
			SpecialRequests: slices.Clone(c.Preferences.CareAttributes),
		},
		Payment:   world.Payment{Base: base, Bonuses: bonuses},
		Status:    world.ContractPending,
		CreatedAt: s.deps.Clock.Now(),
	}
}

// AssignTamaToContract starts a pending contract with a job-ready tama that
// is not already working another active contract.
func (s *CustomerSystem) AssignTamaToContract(st *world.State, contractID, tamaID string) Result {
	c := st.Contract(contractID)
	if c == nil {
		return fail(CodeNotFound, "Contract not found")
	}
	if c.Status != world.ContractPending {
		return fail(CodeInvalid, "Contract is %s", c.Status)
	}
	t := st.Tama(tamaID)
	if t == nil {
		return fail(CodeNotFound, "Tama not found")
	}
	if st.ActiveContractFor(tamaID) != nil {
		return fail(CodeBusy, "%s is busy with another contract", t.Name)
	}
	now := s.deps.Clock.Now()
	t.UpdateNeeds(now)
	if !t.IsReadyForJob() {
		return fail(CodeNotReady, "%s is not ready for work", t.Name)
	}
	c.AssigneeID = tamaID
	c.Status = world.ContractActive
	c.StartedAt = now
	c.EndsAt = now.Add(c.Requirements.Duration)
	s.deps.Log.Debug("contract assigned", zap.String("contract", c.ID), zap.String("tama", t.ID))
	return succeed(c.ID, "%s started work, done in %s", t.Name, c.Requirements.Duration)
}

// CareScore is floor(needsAverage/10) + tier + level×0.5, scaled by the care
// quality bonus.
func CareScore(t *creature.Tama, careBonus float64) float64 {
	return (math.Floor(t.Needs.Average()/10) + float64(t.Tier) + float64(t.Level)*0.5) * careBonus
}

// bonusMet reports whether a bonus condition holds at resolution.
func bonusMet(k world.BonusKind, t *creature.Tama, c *world.Contract, now time.Time) bool {
	switch k {
	case world.BonusPerfectHappiness:
		return t.Needs.Happiness >= perfectHappiness
	case world.BonusHighTier:
		return t.Tier >= highTier
	case world.BonusFastCompletion:
		return now.Sub(c.StartedAt) <= time.Duration(float64(c.Requirements.Duration)*fastShare)
	case world.BonusLuxuryItemsUsed:
		return false
	}
	return false
}

// Payout is base + Σ satisfied bonus amounts.
func Payout(c *world.Contract, t *creature.Tama, now time.Time) int {
	total := c.Payment.Base
	for _, b := range c.Payment.Bonuses {
		if bonusMet(b.Kind, t, c, now) {
			total += b.Amount
		}
	}
	return total
}

// ProcessContracts resolves every active contract whose end time has passed.
func (s *CustomerSystem) ProcessContracts(st *world.State) []ContractResult {
	now := s.deps.Clock.Now()
	bonus := s.prog.Bonuses(st)
	var results []ContractResult
	for _, c := range st.Contracts {
		if c.Status != world.ContractActive || now.Before(c.EndsAt) {
			continue
		}
		res := ContractResult{ContractID: c.ID, CustomerID: c.CustomerID, TamaID: c.AssigneeID}
		t := st.Tama(c.AssigneeID)
		if t != nil {
			t.UpdateNeeds(now)
			res.CareScore = CareScore(t, bonus.Get(data.BonusCareQuality))
			res.Success = res.CareScore >= float64(c.Requirements.CareLevel)
		}

		cust := st.Customer(c.CustomerID)
		pr := &st.Progression
		if res.Success {
			res.Payment = Payout(c, t, now)
			c.Status = world.ContractCompleted
			c.Paid = res.Payment
			st.Resources.Add(world.Coins, res.Payment)
			pr.Stats.ContractsCompleted++
			pr.Stats.CoinsEarned += res.Payment
			t.Stats.JobsCompleted++
			if t.GainExperience(contractTamaExp) {
				s.deps.tamaLeveledUp(st, t)
			}
			if cust != nil {
				gain := 5 + s.deps.Rand.Intn(10)
				cust.AdjustReputation(int(math.Floor(float64(gain) * bonus.Get(data.BonusReputation))))
			}
			event.Emit(s.deps.Bus, event.ResourceFlow{Kind: "contract_payment", Ref: c.ID, Resource: world.Coins, Amount: res.Payment})
		} else {
			c.Status = world.ContractFailed
			pr.Stats.ContractsFailed++
			if cust != nil {
				cust.AdjustReputation(-(10 + s.deps.Rand.Intn(15)))
			}
		}
		if t != nil {
			t.AdjustNeeds(workFatigue)
		}

		results = append(results, res)
		event.Emit(s.deps.Bus, event.ContractResolved{
			ContractID: c.ID, CustomerID: c.CustomerID, TamaID: c.AssigneeID,
			Success: res.Success, Payment: res.Payment,
		})
		s.deps.Log.Info("contract resolved",
			zap.String("contract", c.ID),
			zap.Bool("success", res.Success),
			zap.Float64("care_score", res.CareScore),
			zap.Int("payment", res.Payment),
		)
	}
	return results
}

// RefillBoard withdraws pending contracts that outlasted their customer's
// patience (in hours), trims old resolved contracts, and tops the pending
// board back up to the configured size. Returns the contracts added.
func (s *CustomerSystem) RefillBoard(st *world.State) []*world.Contract {
	now := s.deps.Clock.Now()
	st.Contracts = slices.DeleteFunc(st.Contracts, func(c *world.Contract) bool {
		if c.Status != world.ContractPending {
			return false
		}
		cust := st.Customer(c.CustomerID)
		return cust == nil || now.Sub(c.CreatedAt) > time.Duration(cust.Patience)*time.Hour
	})
	s.trimResolved(st)

	if len(st.Customers) == 0 {
		return nil
	}
	pending := 0
	for _, c := range st.Contracts {
		if c.Status == world.ContractPending {
			pending++
		}
	}
	var added []*world.Contract
	for ; pending < s.deps.Config.Customers.BoardSize; pending++ {
		cust := st.Customers[s.deps.Rand.Intn(len(st.Customers))]
		c := s.GenerateContract(st, cust)
		st.Contracts = append(st.Contracts, c)
		added = append(added, c)
	}
	return added
}

func (s *CustomerSystem) trimResolved(st *world.State) {
	resolved := 0
	for _, c := range st.Contracts {
		if c.Status.Terminal() {
			resolved++
		}
	}
	drop := resolved - maxResolvedKept
	if drop <= 0 {
		return
	}
	st.Contracts = slices.DeleteFunc(st.Contracts, func(c *world.Contract) bool {
		if drop > 0 && c.Status.Terminal() {
			drop--
			return true
		}
		return false
	})
}

// stayChance is the probability a customer is retained at rotation.
func stayChance(c *world.Customer) float64 {
	chance := 0.6
	switch {
	case c.Reputation > 80:
		chance += 0.35
	case c.Reputation > 50:
		chance += 0.1
	case c.Reputation < 0:
		chance -= 0.7
	}
	chance += archetypeProfiles[c.Archetype].loyalty
	return math.Max(0, math.Min(1, chance))
}

// PerformMonthlyRotation keeps each customer with its stay chance and tops
// the population back up to its size before rotation. Departing customers'
// pending and resolved contracts go with them; active work finishes.
func (s *CustomerSystem) PerformMonthlyRotation(st *world.State) (departed, arrived int) {
	size := len(st.Customers)
	gone := map[string]bool{}
	kept := st.Customers[:0:0]
	for _, c := range st.Customers {
		if s.deps.Rand.Float64() < stayChance(c) {
			kept = append(kept, c)
			continue
		}
		gone[c.ID] = true
	}
	st.Customers = kept
	st.Contracts = slices.DeleteFunc(st.Contracts, func(c *world.Contract) bool {
		return gone[c.CustomerID] && c.Status != world.ContractActive
	})

	arrived = size - len(kept)
	s.GenerateInitialPopulation(st, arrived)
	st.LastRotation = s.deps.Clock.Now()

	event.Emit(s.deps.Bus, event.CustomersRotated{Departed: len(gone), Arrived: arrived})
	s.deps.Log.Info("customer rotation", zap.Int("departed", len(gone)), zap.Int("arrived", arrived))
	return len(gone), arrived
}

// RotationDue reports whether the rotation interval has elapsed.
func (s *CustomerSystem) RotationDue(st *world.State) bool {
	return s.deps.Clock.Now().Sub(st.LastRotation) >= s.deps.Config.Customers.RotationInterval
}
