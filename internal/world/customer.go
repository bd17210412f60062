package world

import (
	"fmt"
	"time"
)

// Archetype is the closed set of customer behaviour profiles.
type Archetype uint8

const (
	Casual Archetype = iota
	Demanding
	Wealthy
	Collector
	Breeder

	ArchetypeCount
)

var archetypeNames = [ArchetypeCount]string{"casual", "demanding", "wealthy", "collector", "breeder"}

func (a Archetype) String() string {
	if a < ArchetypeCount {
		return archetypeNames[a]
	}
	return fmt.Sprintf("archetype(%d)", uint8(a))
}

func (a Archetype) MarshalText() ([]byte, error) {
	if a >= ArchetypeCount {
		return nil, fmt.Errorf("unknown archetype %d", uint8(a))
	}
	return []byte(archetypeNames[a]), nil
}

func (a *Archetype) UnmarshalText(b []byte) error {
	for i, n := range archetypeNames {
		if n == string(b) {
			*a = Archetype(i)
			return nil
		}
	}
	return fmt.Errorf("unknown archetype %q", b)
}

const (
	MinReputation = -100
	MaxReputation = 100
)

type Preferences struct {
	Species        []string `json:"species,omitempty"`
	MinTier        int      `json:"minTier"`
	CareAttributes []string `json:"careAttributes,omitempty"`
}

type Customer struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Archetype         Archetype   `json:"archetype"`
	Preferences       Preferences `json:"preferences"`
	Patience          int         `json:"patience"`
	PaymentMultiplier float64     `json:"paymentMultiplier"`
	Reputation        int         `json:"reputation"`
	JoinedAt          time.Time   `json:"joinedAt"`
}

// AdjustReputation applies delta and clamps to [MinReputation, MaxReputation].
func (c *Customer) AdjustReputation(delta int) {
	c.Reputation += delta
	if c.Reputation > MaxReputation {
		c.Reputation = MaxReputation
	}
	if c.Reputation < MinReputation {
		c.Reputation = MinReputation
	}
}

type ContractStatus uint8

const (
	ContractPending ContractStatus = iota
	ContractActive
	ContractCompleted
	ContractFailed
)

var contractStatusNames = [...]string{"pending", "active", "completed", "failed"}

func (s ContractStatus) String() string {
	if int(s) < len(contractStatusNames) {
		return contractStatusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s ContractStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(contractStatusNames) {
		return nil, fmt.Errorf("unknown contract status %d", uint8(s))
	}
	return []byte(contractStatusNames[s]), nil
}

func (s *ContractStatus) UnmarshalText(b []byte) error {
	for i, n := range contractStatusNames {
		if n == string(b) {
			*s = ContractStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown contract status %q", b)
}

// Terminal reports whether the contract can no longer change.
func (s ContractStatus) Terminal() bool {
	return s == ContractCompleted || s == ContractFailed
}

// BonusKind is the closed set of contract bonus conditions.
type BonusKind uint8

const (
	BonusPerfectHappiness BonusKind = iota
	BonusHighTier
	BonusFastCompletion
	BonusLuxuryItemsUsed
)

var bonusKindNames = [...]string{"perfect_happiness", "high_tier", "fast_completion", "luxury_items_used"}

func (k BonusKind) String() string {
	if int(k) < len(bonusKindNames) {
		return bonusKindNames[k]
	}
	return fmt.Sprintf("bonus(%d)", uint8(k))
}

func (k BonusKind) MarshalText() ([]byte, error) {
	if int(k) >= len(bonusKindNames) {
		return nil, fmt.Errorf("unknown bonus kind %d", uint8(k))
	}
	return []byte(bonusKindNames[k]), nil
}

func (k *BonusKind) UnmarshalText(b []byte) error {
	for i, n := range bonusKindNames {
		if n == string(b) {
			*k = BonusKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown bonus kind %q", b)
}

type Bonus struct {
	Kind   BonusKind `json:"kind"`
	Amount int       `json:"amount"`
}

type Requirements struct {
	Duration        time.Duration `json:"duration"`
	CareLevel       int           `json:"careLevel"`
	SpecialRequests []string      `json:"specialRequests,omitempty"`
}

type Payment struct {
	Base    int     `json:"base"`
	Bonuses []Bonus `json:"bonuses,omitempty"`
}

// Contract moves pending → active → completed|failed.
type Contract struct {
	ID           string         `json:"id"`
	CustomerID   string         `json:"customerId"`
	Requirements Requirements   `json:"requirements"`
	Payment      Payment        `json:"payment"`
	Status       ContractStatus `json:"status"`
	AssigneeID   string         `json:"assigneeId,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	StartedAt    time.Time      `json:"startedAt,omitzero"`
	EndsAt       time.Time      `json:"endsAt,omitzero"`
	// Paid is the amount credited on completion.
	Paid int `json:"paid,omitempty"`
}
