package world

import (
	"slices"
	"time"

	"github.com/tamaranch/ranch/internal/creature"
)

// State is the root aggregate of one ranch. Every system mutates it in
// place; it is accessed only from the game loop goroutine, no locks needed.
type State struct {
	Resources     Resources            `json:"resources"`
	Tamas         []*creature.Tama     `json:"tamas"`
	Buildings     []*Building          `json:"buildings"`
	Customers     []*Customer          `json:"customers"`
	Contracts     []*Contract          `json:"contracts"`
	CraftingQueue []*CraftingQueueItem `json:"craftingQueue"`
	Inventory     []*Item              `json:"inventory"`
	Progression   Progression          `json:"progression"`
	Unlocks       Unlocks              `json:"unlocks"`
	Achievements  []AchievementRecord  `json:"achievements"`

	CreatedAt    time.Time     `json:"createdAt"`
	LastTick     time.Time     `json:"lastTick"`
	LastRotation time.Time     `json:"lastRotation"`
	PlayTime     time.Duration `json:"playTime"`
}

// NewState returns an empty ranch with allocated collections.
func NewState(now time.Time) *State {
	return &State{
		Resources:    Resources{},
		Progression:  NewProgression(),
		CreatedAt:    now,
		LastTick:     now,
		LastRotation: now,
	}
}

func (s *State) Tama(id string) *creature.Tama {
	for _, t := range s.Tamas {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *State) Building(id string) *Building {
	for _, b := range s.Buildings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *State) Customer(id string) *Customer {
	for _, c := range s.Customers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *State) Contract(id string) *Contract {
	for _, c := range s.Contracts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *State) Item(id string) *Item {
	for _, it := range s.Inventory {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// RemoveBuilding drops a building by id and reports whether it existed.
func (s *State) RemoveBuilding(id string) bool {
	n := len(s.Buildings)
	s.Buildings = slices.DeleteFunc(s.Buildings, func(b *Building) bool { return b.ID == id })
	return len(s.Buildings) != n
}

func (s *State) RemoveItem(id string) bool {
	n := len(s.Inventory)
	s.Inventory = slices.DeleteFunc(s.Inventory, func(it *Item) bool { return it.ID == id })
	return len(s.Inventory) != n
}

// ActiveContractFor returns the active contract assigned to a tama, if any.
func (s *State) ActiveContractFor(tamaID string) *Contract {
	for _, c := range s.Contracts {
		if c.Status == ContractActive && c.AssigneeID == tamaID {
			return c
		}
	}
	return nil
}

// HasAchievement reports whether an achievement is already unlocked.
func (s *State) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// IDSet is an ordered, duplicate-free list of content ids.
type IDSet []string

func (s IDSet) Has(id string) bool {
	return slices.Contains(s, id)
}

// Add appends id unless present and reports whether it was added.
func (s *IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Unlocks holds the content the player may use.
type Unlocks struct {
	Buildings IDSet `json:"buildings"`
	Recipes   IDSet `json:"recipes"`
	Species   IDSet `json:"species"`
}

type AchievementRecord struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// Building is a placed instance of a static building type.
type Building struct {
	ID            string    `json:"id"`
	TypeID        string    `json:"typeId"`
	Level         int       `json:"level"`
	Condition     float64   `json:"condition"`
	LastProcessed time.Time `json:"lastProcessed"`
	// Invested is everything paid for this building across all levels.
	Invested   Resources   `json:"invested"`
	Automation *Automation `json:"automation,omitempty"`
	// CaretakerID is the tama assigned to look after this building.
	CaretakerID string `json:"caretakerId,omitempty"`
	// Carry holds fractional production not yet credited.
	Carry map[Resource]float64 `json:"carry,omitempty"`
}

// Efficiency is condition/100.
func (b *Building) Efficiency() float64 {
	return b.Condition / 100
}

type Automation struct {
	RecipeID string `json:"recipeId,omitempty"`
}

type CraftingQueueItem struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipeId"`
	StartedAt time.Time `json:"startedAt"`
	EndsAt    time.Time `json:"endsAt"`
	Quantity  int       `json:"quantity"`
}

// Item is one crafted inventory item with its rolled quality applied.
type Item struct {
	ID         string             `json:"id"`
	DefID      string             `json:"defId"`
	Name       string             `json:"name"`
	Quality    int                `json:"quality"`
	Effects    map[string]float64 `json:"effects,omitempty"`
	Properties map[string]string  `json:"properties,omitempty"`
	CraftedAt  time.Time          `json:"craftedAt"`
}
