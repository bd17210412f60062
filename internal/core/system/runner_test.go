package system

import (
	"reflect"
	"testing"
)

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var got []string
	r := NewRunner[*[]string]()
	add := func(p Phase, name string) {
		r.Register(Func[*[]string]{P: p, Fn: func(st *[]string) { *st = append(*st, name) }})
	}
	add(PhaseAchievements, "achievements")
	add(PhaseBuildings, "buildings")
	add(PhaseContracts, "resolve")
	add(PhaseContracts, "refill")
	add(PhaseCreatures, "creatures")

	r.Tick(&got)
	want := []string{"creatures", "buildings", "resolve", "refill", "achievements"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseCrafting.String() != "crafting" || Phase(42).String() != "unknown" {
		t.Fatalf("unexpected phase names")
	}
}
