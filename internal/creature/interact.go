package creature

import (
	"fmt"
	"time"
)

type Food string

const (
	FoodBerry   Food = "berry"
	FoodSalad   Food = "salad"
	FoodPremium Food = "premium_food"
	FoodCake    Food = "cake"
)

type Toy string

const (
	ToyBall    Toy = "ball"
	ToyPuzzle  Toy = "puzzle"
	ToyFeather Toy = "feather"
)

// effect is one row of the interaction table.
type effect struct {
	Hunger      float64
	Happiness   float64
	Energy      float64
	Cleanliness float64
	Experience  int
}

var foodEffects = map[Food]effect{
	FoodBerry:   {Hunger: 20, Happiness: 5, Experience: 2},
	FoodSalad:   {Hunger: 25, Happiness: 2, Energy: 5, Experience: 3},
	FoodPremium: {Hunger: 40, Happiness: 15, Energy: 10, Experience: 5},
	FoodCake:    {Hunger: 15, Happiness: 25, Energy: -5, Experience: 4},
}

var defaultFood = effect{Hunger: 10, Happiness: 2, Experience: 1}

var toyEffects = map[Toy]effect{
	ToyBall:    {Happiness: 20, Energy: -10, Hunger: -5, Experience: 3},
	ToyPuzzle:  {Happiness: 15, Energy: -5, Experience: 5},
	ToyFeather: {Happiness: 10, Energy: -3, Experience: 2},
}

var defaultToy = effect{Happiness: 10, Energy: -5, Experience: 2}

var cleanEffect = effect{Cleanliness: 40, Happiness: 5, Experience: 2}

// InteractionResult reports what an interaction did. Deltas are the table
// values applied before clamping.
type InteractionResult struct {
	Success    bool
	Message    string
	Deltas     Needs
	Experience int
	LeveledUp  bool
}

func (t *Tama) Feed(kind Food, now time.Time) InteractionResult {
	eff, ok := foodEffects[kind]
	if !ok {
		eff = defaultFood
	}
	res := t.apply(eff, now)
	res.Message = fmt.Sprintf("%s ate the %s", t.Name, kind)
	return res
}

func (t *Tama) Play(kind Toy, now time.Time) InteractionResult {
	t.UpdateNeeds(now)
	if t.Sleep.IsAsleep {
		return InteractionResult{Message: fmt.Sprintf("%s is sleeping", t.Name)}
	}
	eff, ok := toyEffects[kind]
	if !ok {
		eff = defaultToy
	}
	res := t.apply(eff, now)
	res.Message = fmt.Sprintf("%s played with the %s", t.Name, kind)
	return res
}

func (t *Tama) Clean(now time.Time) InteractionResult {
	res := t.apply(cleanEffect, now)
	res.Message = fmt.Sprintf("%s is sparkling clean", t.Name)
	return res
}

func (t *Tama) apply(eff effect, now time.Time) InteractionResult {
	t.UpdateNeeds(now)

	t.Needs.Hunger += eff.Hunger
	t.Needs.Happiness += eff.Happiness
	t.Needs.Energy += eff.Energy
	t.Needs.Cleanliness += eff.Cleanliness
	t.Needs.clamp()

	t.Stats.TotalInteractions++
	leveled := t.GainExperience(eff.Experience)
	t.LastInteraction = now
	t.NeedsUpdatedAt = now

	return InteractionResult{
		Success: true,
		Deltas: Needs{
			Hunger:      eff.Hunger,
			Happiness:   eff.Happiness,
			Energy:      eff.Energy,
			Cleanliness: eff.Cleanliness,
		},
		Experience: eff.Experience,
		LeveledUp:  leveled,
	}
}

// PutToSleep starts a sleep cycle now.
func (t *Tama) PutToSleep(now time.Time) InteractionResult {
	t.UpdateNeeds(now)
	if t.Sleep.IsAsleep {
		return InteractionResult{Message: fmt.Sprintf("%s is already asleep", t.Name)}
	}
	t.Sleep.IsAsleep = true
	t.Sleep.Since = now
	return InteractionResult{Success: true, Message: fmt.Sprintf("%s fell asleep", t.Name)}
}

// WakeUp finalizes pending recovery and clears the asleep flag.
func (t *Tama) WakeUp(now time.Time) InteractionResult {
	if !t.Sleep.IsAsleep {
		return InteractionResult{Message: fmt.Sprintf("%s is already awake", t.Name)}
	}
	before := t.Needs.Energy
	t.recover(now)
	t.Sleep.IsAsleep = false
	return InteractionResult{
		Success: true,
		Message: fmt.Sprintf("%s woke up", t.Name),
		Deltas:  Needs{Energy: t.Needs.Energy - before},
	}
}

// ApplyEffects applies item effects keyed by need name; "experience" feeds
// GainExperience. Unknown keys are ignored.
func (t *Tama) ApplyEffects(effects map[string]float64, now time.Time) InteractionResult {
	t.UpdateNeeds(now)
	var d Needs
	var xp int
	for key, v := range effects {
		switch key {
		case "hunger":
			d.Hunger += v
		case "happiness":
			d.Happiness += v
		case "energy":
			d.Energy += v
		case "cleanliness":
			d.Cleanliness += v
		case "experience":
			xp += int(v)
		}
	}
	t.Needs.Hunger += d.Hunger
	t.Needs.Happiness += d.Happiness
	t.Needs.Energy += d.Energy
	t.Needs.Cleanliness += d.Cleanliness
	t.Needs.clamp()
	leveled := t.GainExperience(xp)
	t.LastInteraction = now
	t.NeedsUpdatedAt = now
	return InteractionResult{
		Success:    true,
		Message:    fmt.Sprintf("%s used an item", t.Name),
		Deltas:     d,
		Experience: xp,
		LeveledUp:  leveled,
	}
}

// AdjustNeeds adds d to the needs and clamps. It neither settles decay nor
// counts as an interaction.
func (t *Tama) AdjustNeeds(d Needs) {
	t.Needs.Hunger += d.Hunger
	t.Needs.Happiness += d.Happiness
	t.Needs.Energy += d.Energy
	t.Needs.Cleanliness += d.Cleanliness
	t.Needs.clamp()
}
