package creature

import (
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestTama() *Tama {
	return New("Mochi", "blob", 0, Genetics{Cuteness: 50, Intelligence: 50, Energy: 50, Appetite: 50}, start)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewRandomStartsFull(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		tm := NewRandom(rng, "x", start)
		if tm.Level != 1 || tm.Experience != 0 {
			t.Fatalf("expected fresh level 1 got %d/%d", tm.Level, tm.Experience)
		}
		if tm.Needs != (Needs{100, 100, 100, 100}) {
			t.Fatalf("expected full needs got %+v", tm.Needs)
		}
		for _, g := range []int{tm.Genetics.Cuteness, tm.Genetics.Intelligence, tm.Genetics.Energy, tm.Genetics.Appetite} {
			if g < 1 || g > 100 {
				t.Fatalf("genetics out of range: %+v", tm.Genetics)
			}
		}
		found := false
		for _, s := range SpeciesForTier(tm.Tier) {
			if s == tm.Species {
				found = true
			}
		}
		if !found {
			t.Fatalf("species %s not valid for tier %d", tm.Species, tm.Tier)
		}
	}
}

func TestTierDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 200000
	var counts [4]int
	for i := 0; i < n; i++ {
		counts[RollTier(rng, 50)]++
	}
	want := [4]float64{0.90, 0.09, 0.009, 0.001}
	tol := [4]float64{0.01, 0.005, 0.002, 0.0008}
	for tier, c := range counts {
		got := float64(c) / n
		if math.Abs(got-want[tier]) > tol[tier] {
			t.Errorf("tier %d: expected ~%.4f got %.4f", tier, want[tier], got)
		}
	}
}

func TestUpdateNeedsDecay(t *testing.T) {
	tm := newTestTama()
	tm.UpdateNeeds(start.Add(time.Hour))

	if !approx(tm.Needs.Hunger, 40) {
		t.Fatalf("hunger: expected 40 got %v", tm.Needs.Hunger)
	}
	if !approx(tm.Needs.Energy, 50) {
		t.Fatalf("energy: expected 50 got %v", tm.Needs.Energy)
	}
	if !approx(tm.Needs.Cleanliness, 70) {
		t.Fatalf("cleanliness: expected 70 got %v", tm.Needs.Cleanliness)
	}
	if !approx(tm.Needs.Happiness, 98) {
		t.Fatalf("happiness: expected 98 got %v", tm.Needs.Happiness)
	}
	if !approx(tm.Stats.HoursLived, 1) {
		t.Fatalf("hours lived: expected 1 got %v", tm.Stats.HoursLived)
	}

	before := tm.Needs
	tm.UpdateNeeds(start.Add(time.Hour))
	if tm.Needs != before {
		t.Fatalf("repeated update at same time changed needs: %+v vs %+v", tm.Needs, before)
	}
}

func TestHappinessNeverRisesOnItsOwn(t *testing.T) {
	tm := newTestTama()
	tm.Needs.Happiness = 10
	tm.UpdateNeeds(start.Add(30 * time.Minute))
	if tm.Needs.Happiness != 10 {
		t.Fatalf("expected happiness to stay 10 got %v", tm.Needs.Happiness)
	}
}

func TestAutoSleepRecoversInsteadOfDecaying(t *testing.T) {
	tm := newTestTama()
	tm.Needs.Energy = 15
	tm.UpdateNeeds(start.Add(30 * time.Minute))

	if !tm.Sleep.IsAsleep {
		t.Fatalf("expected tama to fall asleep")
	}
	if !approx(tm.Needs.Energy, 45) {
		t.Fatalf("expected energy 45 got %v", tm.Needs.Energy)
	}
}

func TestAutoWakeRequiresCapability(t *testing.T) {
	tm := newTestTama()
	tm.Needs.Energy = 15
	tm.UpdateNeeds(start.Add(90 * time.Minute))
	if !tm.Sleep.IsAsleep {
		t.Fatalf("expected to stay asleep without auto-wake")
	}

	tm2 := newTestTama()
	tm2.Sleep.AutoWake = true
	tm2.Needs.Energy = 15
	tm2.UpdateNeeds(start.Add(90 * time.Minute))
	if tm2.Sleep.IsAsleep {
		t.Fatalf("expected auto-wake at full energy")
	}
	if tm2.Needs.Energy != 100 {
		t.Fatalf("expected energy capped at 100 got %v", tm2.Needs.Energy)
	}
}

func TestWakeUp(t *testing.T) {
	tm := newTestTama()
	if res := tm.WakeUp(start); res.Success {
		t.Fatalf("expected wake-up to fail while awake")
	}

	tm.Needs.Energy = 40
	if res := tm.PutToSleep(start); !res.Success {
		t.Fatalf("put to sleep: %s", res.Message)
	}
	res := tm.WakeUp(start.Add(20 * time.Minute))
	if !res.Success {
		t.Fatalf("wake up failed: %s", res.Message)
	}
	if tm.Sleep.IsAsleep {
		t.Fatalf("expected awake")
	}
	if !approx(tm.Needs.Energy, 60) {
		t.Fatalf("expected energy 60 got %v", tm.Needs.Energy)
	}
}

func TestFeedReportsPreClampDeltas(t *testing.T) {
	tm := newTestTama()
	tm.Needs.Hunger = 90
	res := tm.Feed(FoodBerry, start)
	if !res.Success {
		t.Fatalf("feed failed")
	}
	if res.Deltas.Hunger != 20 {
		t.Fatalf("expected hunger delta 20 got %v", res.Deltas.Hunger)
	}
	if tm.Needs.Hunger != 100 {
		t.Fatalf("expected hunger clamped to 100 got %v", tm.Needs.Hunger)
	}
	if tm.Stats.TotalInteractions != 1 {
		t.Fatalf("expected 1 interaction got %d", tm.Stats.TotalInteractions)
	}
	if tm.Experience != 2 {
		t.Fatalf("expected 2 experience got %d", tm.Experience)
	}
}

func TestUnknownKindsFallBack(t *testing.T) {
	tm := newTestTama()
	tm.Needs.Hunger = 50
	res := tm.Feed(Food("mystery_meat"), start)
	if res.Deltas.Hunger != defaultFood.Hunger {
		t.Fatalf("expected default food delta got %v", res.Deltas.Hunger)
	}
	res = tm.Play(Toy("stick"), start)
	if res.Deltas.Happiness != defaultToy.Happiness {
		t.Fatalf("expected default toy delta got %v", res.Deltas.Happiness)
	}
}

func TestPlayWhileAsleepFails(t *testing.T) {
	tm := newTestTama()
	tm.PutToSleep(start)
	if res := tm.Play(ToyBall, start.Add(time.Minute)); res.Success {
		t.Fatalf("expected play to fail while asleep")
	}
	if tm.Stats.TotalInteractions != 0 {
		t.Fatalf("failed play should not count as interaction")
	}
}

func TestNeedsStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tm := NewRandom(rng, "x", start)
	now := start
	for i := 0; i < 2000; i++ {
		now = now.Add(time.Duration(rng.Intn(180)) * time.Minute)
		switch rng.Intn(5) {
		case 0:
			tm.Feed(FoodCake, now)
		case 1:
			tm.Play(ToyBall, now)
		case 2:
			tm.Clean(now)
		case 3:
			tm.ApplyEffects(map[string]float64{"energy": -500, "happiness": 500}, now)
		default:
			tm.UpdateNeeds(now)
		}
		for _, v := range []float64{tm.Needs.Hunger, tm.Needs.Happiness, tm.Needs.Energy, tm.Needs.Cleanliness} {
			if v < 0 || v > 100 {
				t.Fatalf("step %d: need out of range %+v", i, tm.Needs)
			}
		}
	}
}

func TestGainExperienceLevelsOncePerCall(t *testing.T) {
	tm := newTestTama()
	if tm.ExperienceToNextLevel() != 10 {
		t.Fatalf("expected 10 to next level got %d", tm.ExperienceToNextLevel())
	}
	if !tm.GainExperience(100) {
		t.Fatalf("expected level up")
	}
	if tm.Level != 2 || tm.Experience != 90 {
		t.Fatalf("expected level 2 with 90 exp got %d/%d", tm.Level, tm.Experience)
	}
	if tm.GainExperience(0) {
		t.Fatalf("zero experience should not level")
	}
	tm.Level = 3
	if tm.ExperienceToNextLevel() != 90 {
		t.Fatalf("expected 90 got %d", tm.ExperienceToNextLevel())
	}
}

func TestMoodBands(t *testing.T) {
	cases := []struct {
		avg  float64
		want Mood
	}{
		{95, MoodEcstatic},
		{90, MoodEcstatic},
		{80, MoodHappy},
		{60, MoodContent},
		{40, MoodOkay},
		{25, MoodSad},
		{5, MoodMiserable},
	}
	tm := newTestTama()
	for _, c := range cases {
		tm.Needs = Needs{c.avg, c.avg, c.avg, c.avg}
		if got := tm.Mood(); got != c.want {
			t.Errorf("avg %v: expected %s got %s", c.avg, c.want, got)
		}
	}
}

func TestIsReadyForJob(t *testing.T) {
	tm := newTestTama()
	if !tm.IsReadyForJob() {
		t.Fatalf("fresh tama should be ready")
	}
	tm.Needs.Energy = 49
	if tm.IsReadyForJob() {
		t.Fatalf("tired tama should not be ready")
	}
	tm.Needs.Energy = 50
	tm.Needs.Hunger = 29
	if tm.IsReadyForJob() {
		t.Fatalf("hungry tama should not be ready")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tm := NewRandom(rng, "Pip", start)
	tm.Feed(FoodPremium, start.Add(2*time.Hour))
	tm.PutToSleep(start.Add(3 * time.Hour))

	raw, err := json.Marshal(tm)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Tama
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*tm, back) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", *tm, back)
	}
	if back.Mood() != tm.Mood() || back.IsReadyForJob() != tm.IsReadyForJob() {
		t.Fatalf("observable state differs after round trip")
	}
}
