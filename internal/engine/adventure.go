package engine

import "github.com/tamaranch/ranch/internal/world"

// AdventureResult is one finished adventure reported by the adventure
// collaborator.
type AdventureResult struct {
	ID         string
	TamaID     string
	Success    bool
	Experience int
}

// AdventureProcessor reports adventures that finished since the last call.
// It is invoked once per tick, after contracts.
type AdventureProcessor interface {
	ProcessCompletedAdventures(st *world.State) []AdventureResult
}

// NoAdventures is the processor used when adventures are not wired.
type NoAdventures struct{}

func (NoAdventures) ProcessCompletedAdventures(*world.State) []AdventureResult { return nil }
