package world

import "fmt"

// Specialization is chosen at most once and survives prestige.
type Specialization uint8

const (
	SpecNone Specialization = iota
	SpecCaretaker
	SpecMerchant
	SpecArtisan
)

var specNames = [...]string{"none", "caretaker", "merchant", "artisan"}

func (s Specialization) String() string {
	if int(s) < len(specNames) {
		return specNames[s]
	}
	return fmt.Sprintf("specialization(%d)", uint8(s))
}

func (s Specialization) MarshalText() ([]byte, error) {
	if int(s) >= len(specNames) {
		return nil, fmt.Errorf("unknown specialization %d", uint8(s))
	}
	return []byte(specNames[s]), nil
}

func (s *Specialization) UnmarshalText(b []byte) error {
	p, err := ParseSpecialization(string(b))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

func ParseSpecialization(name string) (Specialization, error) {
	for i, n := range specNames {
		if n == name {
			return Specialization(i), nil
		}
	}
	return SpecNone, fmt.Errorf("unknown specialization %q", name)
}

type SkillProgress struct {
	Level int `json:"level"`
}

// LifetimeStats only ever grow, prestige included.
type LifetimeStats struct {
	TamasRaised        int `json:"tamasRaised"`
	ContractsCompleted int `json:"contractsCompleted"`
	ContractsFailed    int `json:"contractsFailed"`
	ItemsCrafted       int `json:"itemsCrafted"`
	CoinsEarned        int `json:"coinsEarned"`
	BuildingsBuilt     int `json:"buildingsBuilt"`
	Interactions       int `json:"interactions"`
	TotalExperience    int `json:"totalExperience"`
	AdventuresFinished int `json:"adventuresFinished"`
	PrestigeCount      int `json:"prestigeCount"`
}

type Progression struct {
	Level          int                                 `json:"level"`
	Experience     int                                 `json:"experience"`
	PrestigeLevel  int                                 `json:"prestigeLevel"`
	PrestigePoints int                                 `json:"prestigePoints"`
	SkillPoints    int                                 `json:"skillPoints"`
	Skills         map[string]map[string]SkillProgress `json:"skills"`
	Specialization Specialization                      `json:"specialization"`
	Stats          LifetimeStats                       `json:"stats"`
}

func NewProgression() Progression {
	return Progression{
		Level:  1,
		Skills: map[string]map[string]SkillProgress{},
	}
}

// SkillLevel returns the learned level of a skill, 0 if never learned.
func (p *Progression) SkillLevel(tree, id string) int {
	return p.Skills[tree][id].Level
}

func (p *Progression) setSkillLevel(tree, id string, level int) {
	if p.Skills == nil {
		p.Skills = map[string]map[string]SkillProgress{}
	}
	if p.Skills[tree] == nil {
		p.Skills[tree] = map[string]SkillProgress{}
	}
	p.Skills[tree][id] = SkillProgress{Level: level}
}

// IncrementSkill raises a skill by one level and returns the new level.
func (p *Progression) IncrementSkill(tree, id string) int {
	next := p.SkillLevel(tree, id) + 1
	p.setSkillLevel(tree, id, next)
	return next
}

// LearnedSkills counts skills at level ≥ 1.
func (p *Progression) LearnedSkills() int {
	n := 0
	for _, tree := range p.Skills {
		for _, sp := range tree {
			if sp.Level > 0 {
				n++
			}
		}
	}
	return n
}
