package graph

import (
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// deterministicNodeID computes a stable node identity as a function of
// plugin name, plugin version, canonicalized config, and position. Two
// builds of the same config at the same position yield identical IDs —
// required so a checkpoint taken against one build of a graph is still
// addressable against a later, config-identical build.
func deterministicNodeID(pluginName, pluginVersion string, config map[string]any, position int) (string, error) {
	encoded, err := ids.Canonicalize(struct {
		Plugin   string
		Version  string
		Config   map[string]any
		Position int
	}{pluginName, pluginVersion, config, position})
	if err != nil {
		return "", err
	}
	hash := ids.HashBytes(encoded)
	// Truncate for log readability; collision risk is negligible at this
	// length for the node counts a single run's graph will ever have.
	if len(hash) > 32 {
		hash = hash[:32]
	}
	return pluginName + "-" + hash, nil
}
