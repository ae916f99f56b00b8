package ui

import (
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayTrueWalls     OverlayID = "true_walls"
	OverlayLearnedWalls  OverlayID = "learned_walls"
	OverlayPathMarkers   OverlayID = "path_markers"
	OverlayDistanceField OverlayID = "distance_field"
	OverlaySensor        OverlayID = "sensor"
	OverlayNetwork       OverlayID = "network"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID        OverlayID
	Name      string
	Key       int32  // 0 = no key
	KeyLabel  string // e.g. "M"
	Enabled   bool   // initial state
	Exclusive []OverlayID
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:       OverlayTrueWalls,
		Name:     "Maze walls",
		Key:      rl.KeyT,
		KeyLabel: "T",
		Enabled:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayLearnedWalls,
		Name:     "Learned walls",
		Key:      rl.KeyW,
		KeyLabel: "W",
		Enabled:  true,
	})
	r.Register(OverlayDescriptor{
		ID:        OverlayPathMarkers,
		Name:      "Path markers",
		Key:       rl.KeyM,
		KeyLabel:  "M",
		Enabled:   true,
		Exclusive: []OverlayID{OverlayDistanceField},
	})
	r.Register(OverlayDescriptor{
		ID:        OverlayDistanceField,
		Name:      "Distances",
		Key:       rl.KeyF,
		KeyLabel:  "F",
		Exclusive: []OverlayID{OverlayPathMarkers},
	})
	r.Register(OverlayDescriptor{
		ID:       OverlaySensor,
		Name:     "Sensor ray",
		Key:      rl.KeyR,
		KeyLabel: "R",
		Enabled:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayNetwork,
		Name:     "Network",
		Key:      rl.KeyN,
		KeyLabel: "N",
		Enabled:  true,
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Enabled
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	state := !r.enabled[id]
	r.SetEnabled(id, state)
	return state
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// HelpText lists the overlay keys, e.g. "[T] Maze walls  [W] Learned walls".
func (r *OverlayRegistry) HelpText() string {
	parts := make([]string, 0, len(r.descriptors))
	for _, desc := range r.descriptors {
		mark := " "
		if r.enabled[desc.ID] {
			mark = "*"
		}
		parts = append(parts, "["+desc.KeyLabel+"]"+mark+desc.Name)
	}
	return strings.Join(parts, "  ")
}
