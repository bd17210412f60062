package event

import (
	"reflect"
	"testing"
)

func TestDrainKeepsEmissionOrder(t *testing.T) {
	b := NewBus()
	var built []string
	var levels []int
	Subscribe(b, func(e BuildingPlaced) { built = append(built, e.TypeID) })
	Subscribe(b, func(e PlayerLeveledUp) { levels = append(levels, e.Level) })

	Emit(b, BuildingPlaced{TypeID: "berry_farm"})
	Emit(b, PlayerLeveledUp{Level: 2})
	Emit(b, BuildingPlaced{TypeID: "quarry"})

	got := b.Drain()
	want := []any{
		BuildingPlaced{TypeID: "berry_farm"},
		PlayerLeveledUp{Level: 2},
		BuildingPlaced{TypeID: "quarry"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	if !reflect.DeepEqual(built, []string{"berry_farm", "quarry"}) || !reflect.DeepEqual(levels, []int{2}) {
		t.Fatalf("handlers saw %v %v", built, levels)
	}
	if len(b.Drain()) != 0 {
		t.Fatalf("bus should be empty after drain")
	}
}

func TestEventsEmittedByHandlersAreDrained(t *testing.T) {
	b := NewBus()
	Subscribe(b, func(e PlayerLeveledUp) {
		if e.Level == 2 {
			Emit(b, AchievementUnlocked{ID: "lvl2"})
		}
	})
	Emit(b, PlayerLeveledUp{Level: 2})
	got := b.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 events got %v", got)
	}
	if _, ok := got[1].(AchievementUnlocked); !ok {
		t.Fatalf("handler event should follow, got %T", got[1])
	}
}

func TestEmitOnNilBus(t *testing.T) {
	var b *Bus
	Emit(b, Prestiged{PrestigeLevel: 1})
}
