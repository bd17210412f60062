package system

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/config"
	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/creature"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/scripting"
	"github.com/tamaranch/ranch/internal/world"
)

// Deps is shared by every ranch system. Systems hold no game state of their
// own; all of it lives in world.State.
type Deps struct {
	Tables  *data.Tables
	Config  *config.Config
	Clock   clock.Clock
	Rand    *rand.Rand
	Bus     *event.Bus
	Scripts *scripting.Engine
	Log     *zap.Logger

	// OnTamaLevelUp runs for every tama level-up a system causes. The
	// engine installs it to grant player experience. When nil the level-up
	// is only emitted as an event.
	OnTamaLevelUp func(st *world.State, t *creature.Tama)
}

func (d *Deps) tamaLeveledUp(st *world.State, t *creature.Tama) {
	if d.OnTamaLevelUp != nil {
		d.OnTamaLevelUp(st, t)
		return
	}
	event.Emit(d.Bus, event.TamaLeveledUp{TamaID: t.ID, Name: t.Name, Level: t.Level})
}
