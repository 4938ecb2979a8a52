// Package session holds the state of the bot's current game session.
package session

import (
	"maps"
	"sync"
)

// Position is a location in the world.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is a look direction in degrees.
type Rotation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Vitals is the bot's health and hunger.
type Vitals struct {
	Health     float64 `json:"health"`
	Food       int     `json:"food"`
	Saturation float64 `json:"food_saturation"`
}

// Snapshot is a copy of the whole state at one instant.
type Snapshot struct {
	Position Position          `json:"position"`
	Rotation Rotation          `json:"rotation"`
	Vitals   Vitals            `json:"vitals"`
	Roster   map[string]string `json:"roster"`
}

// State is the session state store. Each field changes only through its
// mutator, and accessors return copies, so readers on other goroutines never
// observe a partial update.
//
// Mutators do not validate their arguments. Values such as NaN are stored
// as given.
type State struct {
	mu     sync.RWMutex
	pos    Position
	rot    Rotation
	vitals Vitals
	// roster maps participant names to their ids.
	roster map[string]string
}

// New returns a state with zero position and an empty roster.
func New() *State {
	return &State{roster: make(map[string]string)}
}

// ApplyPosition records the bot's position and rotation.
func (s *State) ApplyPosition(x, y, z, yaw, pitch float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = Position{X: x, Y: y, Z: z}
	s.rot = Rotation{Yaw: yaw, Pitch: pitch}
}

// ApplyHealth records the bot's health and food.
func (s *State) ApplyHealth(health float64, food int, saturation float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vitals = Vitals{Health: health, Food: food, Saturation: saturation}
}

// ApplyRosterAdd records a participant. A later add with the same name
// replaces the id.
func (s *State) ApplyRosterAdd(name, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster == nil {
		s.roster = make(map[string]string)
	}
	s.roster[name] = id
}

// ApplyRosterRemove removes every participant with the given id.
func (s *State) ApplyRosterRemove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.DeleteFunc(s.roster, func(_, v string) bool { return v == id })
}

// Position returns the bot's current position.
func (s *State) Position() Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pos
}

// Rotation returns the bot's current look direction.
func (s *State) Rotation() Rotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rot
}

// Vitals returns the bot's current health and food.
func (s *State) Vitals() Vitals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vitals
}

// Lookup returns the id of the participant with the given name.
func (s *State) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roster[name]
	return id, ok
}

// Roster returns a copy of the roster, mapping names to ids.
func (s *State) Roster() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.roster)
}

// Len returns the number of participants in the roster.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roster)
}

// Snapshot returns a consistent copy of the entire state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Position: s.pos,
		Rotation: s.rot,
		Vitals:   s.vitals,
		Roster:   maps.Clone(s.roster),
	}
}
