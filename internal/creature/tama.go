// Package creature models a single Tama: needs decay, the sleep cycle,
// care interactions and per-creature leveling. It has no dependency on the
// other ranch systems; callers pass the current time explicitly.
package creature

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const (
	MaxNeed = 100.0

	autoSleepThreshold = 20.0
	autoWakeThreshold  = 95.0
	happinessFloor     = 20.0
	happinessRelax     = 2.0 // points per hour
	cleanlinessDecay   = 30.0

	// DefaultRecoveryRate is energy regained per sleeping minute.
	DefaultRecoveryRate = 1.0
)

// Tier thresholds on a [0,100) roll: 90% common, 9% uncommon, 0.9% rare, rest legendary.
var tierThresholds = [...]float64{90, 99, 99.9}

var speciesByTier = [4][]string{
	{"blob", "sprout", "pebble"},
	{"ember", "ripple", "breeze"},
	{"crystal", "shadow"},
	{"celestial", "phoenix"},
}

// Genetics are fixed at creation, each stat in [1,100].
type Genetics struct {
	Cuteness     int `json:"cuteness"`
	Intelligence int `json:"intelligence"`
	Energy       int `json:"energy"`
	Appetite     int `json:"appetite"`
}

func (g Genetics) Average() float64 {
	return float64(g.Cuteness+g.Intelligence+g.Energy+g.Appetite) / 4
}

// Needs are always kept within [0, MaxNeed].
type Needs struct {
	Hunger      float64 `json:"hunger"`
	Happiness   float64 `json:"happiness"`
	Energy      float64 `json:"energy"`
	Cleanliness float64 `json:"cleanliness"`
}

func (n Needs) Average() float64 {
	return (n.Hunger + n.Happiness + n.Energy + n.Cleanliness) / 4
}

func (n *Needs) clamp() {
	n.Hunger = clampNeed(n.Hunger)
	n.Happiness = clampNeed(n.Happiness)
	n.Energy = clampNeed(n.Energy)
	n.Cleanliness = clampNeed(n.Cleanliness)
}

func clampNeed(v float64) float64 {
	return math.Max(0, math.Min(MaxNeed, v))
}

type Stats struct {
	TotalInteractions int     `json:"totalInteractions"`
	HoursLived        float64 `json:"hoursLived"`
	JobsCompleted     int     `json:"jobsCompleted"`
}

type Sleep struct {
	IsAsleep bool      `json:"isAsleep"`
	Since    time.Time `json:"since"` // sleep start, advanced as recovery is applied
	// RecoveryRate is energy per minute asleep.
	RecoveryRate float64 `json:"recoveryRate"`
	AutoWake     bool    `json:"autoWake"`
}

// Tama is one creature. Tier never changes after creation.
type Tama struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Species    string   `json:"species"`
	Tier       int      `json:"tier"`
	Level      int      `json:"level"`
	Experience int      `json:"experience"`
	Genetics   Genetics `json:"genetics"`
	Needs      Needs    `json:"needs"`
	Stats      Stats    `json:"stats"`
	Sleep      Sleep    `json:"sleep"`

	CreatedAt       time.Time `json:"createdAt"`
	LastInteraction time.Time `json:"lastInteraction"`
	// NeedsUpdatedAt is the decay baseline; stamped by decay and by interactions.
	NeedsUpdatedAt time.Time `json:"needsUpdatedAt"`
}

// New creates a tama with explicit species and genetics. Needs start full.
func New(name, species string, tier int, g Genetics, now time.Time) *Tama {
	if tier < 0 {
		tier = 0
	}
	if tier > 3 {
		tier = 3
	}
	return &Tama{
		ID:       uuid.NewString(),
		Name:     name,
		Species:  species,
		Tier:     tier,
		Level:    1,
		Genetics: g,
		Needs: Needs{
			Hunger:      MaxNeed,
			Happiness:   MaxNeed,
			Energy:      MaxNeed,
			Cleanliness: MaxNeed,
		},
		Sleep:           Sleep{RecoveryRate: DefaultRecoveryRate},
		CreatedAt:       now,
		LastInteraction: now,
		NeedsUpdatedAt:  now,
	}
}

// NewRandom rolls genetics, tier and species.
func NewRandom(rng *rand.Rand, name string, now time.Time) *Tama {
	g := Genetics{
		Cuteness:     rng.Intn(100) + 1,
		Intelligence: rng.Intn(100) + 1,
		Energy:       rng.Intn(100) + 1,
		Appetite:     rng.Intn(100) + 1,
	}
	tier := RollTier(rng, g.Average())
	candidates := speciesByTier[tier]
	species := candidates[rng.Intn(len(candidates))]
	return New(name, species, tier, g, now)
}

// RollTier draws a tier with good genetics nudging the roll upward.
func RollTier(rng *rand.Rand, avgGenetics float64) int {
	roll := rng.Float64()*100 + (avgGenetics-50)*0.001
	for tier, threshold := range tierThresholds {
		if roll < threshold {
			return tier
		}
	}
	return len(tierThresholds)
}

// SpeciesForTier returns the candidate species for a tier.
func SpeciesForTier(tier int) []string {
	if tier < 0 || tier >= len(speciesByTier) {
		return nil
	}
	return speciesByTier[tier]
}

// UpdateNeeds applies wall-clock decay since the last update.
func (t *Tama) UpdateNeeds(now time.Time) {
	elapsed := now.Sub(t.NeedsUpdatedAt)
	if elapsed <= 0 {
		return
	}
	hours := elapsed.Hours()

	if !t.Sleep.IsAsleep && t.Needs.Energy <= autoSleepThreshold {
		t.Sleep.IsAsleep = true
		t.Sleep.Since = t.NeedsUpdatedAt
	}
	sleptThrough := t.Sleep.IsAsleep
	t.recover(now)

	t.Needs.Hunger -= (50 + float64(t.Genetics.Appetite)/5) * hours
	if !sleptThrough {
		t.Needs.Energy -= (40 + float64(100-t.Genetics.Energy)/5) * hours
	}
	t.Needs.Cleanliness -= cleanlinessDecay * hours
	t.Needs.clamp()

	target := math.Max(happinessFloor, (t.Needs.Hunger+t.Needs.Energy+t.Needs.Cleanliness)/3)
	if t.Needs.Happiness > target {
		t.Needs.Happiness = math.Max(target, t.Needs.Happiness-happinessRelax*hours)
	}

	t.Stats.HoursLived += hours
	t.NeedsUpdatedAt = now
}

// recover applies pending sleep recovery up to now.
func (t *Tama) recover(now time.Time) {
	if !t.Sleep.IsAsleep {
		return
	}
	minutes := now.Sub(t.Sleep.Since).Minutes()
	if minutes > 0 {
		t.Needs.Energy = math.Min(MaxNeed, t.Needs.Energy+minutes*t.Sleep.RecoveryRate)
		t.Sleep.Since = now
	}
	if t.Sleep.AutoWake && t.Needs.Energy >= autoWakeThreshold {
		t.Sleep.IsAsleep = false
	}
}

// ExperienceToNextLevel is floor(level² × 10).
func (t *Tama) ExperienceToNextLevel() int {
	return int(math.Floor(float64(t.Level*t.Level) * 10))
}

// GainExperience adds experience and levels up at most once per call.
func (t *Tama) GainExperience(amount int) bool {
	if amount <= 0 {
		return false
	}
	t.Experience += amount
	need := t.ExperienceToNextLevel()
	if t.Experience < need {
		return false
	}
	t.Experience -= need
	t.Level++
	return true
}

type Mood string

const (
	MoodEcstatic  Mood = "ecstatic"
	MoodHappy     Mood = "happy"
	MoodContent   Mood = "content"
	MoodOkay      Mood = "okay"
	MoodSad       Mood = "sad"
	MoodMiserable Mood = "miserable"
)

func (t *Tama) Mood() Mood {
	avg := t.Needs.Average()
	switch {
	case avg >= 90:
		return MoodEcstatic
	case avg >= 75:
		return MoodHappy
	case avg >= 55:
		return MoodContent
	case avg >= 35:
		return MoodOkay
	case avg >= 20:
		return MoodSad
	default:
		return MoodMiserable
	}
}

// IsReadyForJob reports whether the tama can take on contract work.
func (t *Tama) IsReadyForJob() bool {
	return t.Needs.Energy >= 50 && t.Needs.Happiness >= 30 && t.Needs.Hunger >= 30
}
