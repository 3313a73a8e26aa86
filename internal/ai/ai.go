// Package ai holds the built-in chicken strategies and a name registry for
// selecting them from the command line.
package ai

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Garsondee/Chicken-Arena/internal/game"
)

var ErrUnknownStrategy = errors.New("ai: unknown strategy")

// Strategy is a named LogicFactory.
type Strategy struct {
	Name        string
	Description string
	Factory     game.LogicFactory
}

var registry = map[string]Strategy{}

func register(s Strategy) { registry[s.Name] = s }

func init() {
	register(Strategy{"idle", "stands still and never fires", func(int64) game.Logic { return Idle{} }})
	register(Strategy{"random", "seeded random moves, turns and shots", NewRandom})
	register(Strategy{"hunter", "tracks the nearest visible enemy and fires when aligned", NewHunter})
	register(Strategy{"spinner", "rotates in place and fires whenever it can", func(int64) game.Logic { return Spinner{} }})
}

// Lookup returns the factory registered under name.
func Lookup(name string) (game.LogicFactory, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
	}
	return s.Factory, nil
}

// Team builds a TeamSpec for count chickens running the named strategy.
func Team(name string, count int) (game.TeamSpec, error) {
	f, err := Lookup(name)
	if err != nil {
		return game.TeamSpec{}, err
	}
	return game.TeamSpec{Name: name, Count: count, Logic: f}, nil
}

// Names lists the registered strategies alphabetically.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Strategies returns every registered strategy, sorted by name.
func Strategies() []Strategy {
	out := make([]Strategy, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n])
	}
	return out
}
