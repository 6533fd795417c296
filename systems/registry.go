package systems

import "github.com/pthm-cable/trails/telemetry"

// SystemInfo describes a frame phase for UI display.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this phase does
	Category    string // Grouping (e.g., "physics", "trail")
}

// SystemRegistry holds metadata about all frame phases in execution order.
// This centralizes naming so the UI and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known phases to the registry.
// Update this when adding new phases.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: telemetry.PhaseForces, Name: "Forces", Description: "Pairwise repulsion and centering", Category: "physics"})
	r.Register(SystemInfo{ID: telemetry.PhaseIntegrate, Name: "Integrate", Description: "Velocity and position update with drag", Category: "physics"})
	r.Register(SystemInfo{ID: telemetry.PhaseProject, Name: "Project", Description: "World to field-space projection", Category: "trail"})
	r.Register(SystemInfo{ID: telemetry.PhaseSplat, Name: "Splat", Description: "Injects moving nodes into the trail field", Category: "trail"})
	r.Register(SystemInfo{ID: telemetry.PhaseTrailStep, Name: "Trail Step", Description: "Fades the trail field", Category: "trail"})
	r.Register(SystemInfo{ID: telemetry.PhaseHandles, Name: "Handles", Description: "Syncs render transforms", Category: "render"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, s := range r.systems {
		ids[i] = s.ID
	}
	return ids
}

// All returns all registered phases in registration order.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}
