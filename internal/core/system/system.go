package system

// Phase defines execution ordering within a single ranch tick.
type Phase int

const (
	PhaseCreatures    Phase = iota // 0: settle needs decay
	PhaseBuildings                 // 1: production, automation, condition decay
	PhaseCrafting                  // 2: complete due queue entries
	PhaseContracts                 // 3: resolve due contracts, refill the board
	PhaseCustomers                 // 4: periodic population rotation
	PhaseAdventures                // 5: external adventure results
	PhaseAchievements              // 6: achievement checks
)

var phaseNames = [...]string{"creatures", "buildings", "crafting", "contracts", "customers", "adventures", "achievements"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is one stage of a tick over a shared state of type S.
type System[S any] interface {
	Phase() Phase
	Run(st S)
}

// Func adapts a plain function into a System.
type Func[S any] struct {
	P  Phase
	Fn func(st S)
}

func (f Func[S]) Phase() Phase { return f.P }
func (f Func[S]) Run(st S)     { f.Fn(st) }
