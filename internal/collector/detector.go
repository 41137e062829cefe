package collector

import (
	"encoding/json"
	"fmt"
)

// PayloadKind identifies the shape of a scan input file
type PayloadKind string

const (
	PayloadBatch   PayloadKind = "batch"   // {"routes": [...]}
	PayloadRoute   PayloadKind = "route"   // {"route": ..., "url": ..., "violations": [...]}
	PayloadAxe     PayloadKind = "axe"     // raw axe-core results {"url": ..., "violations": [...]}
	PayloadUnknown PayloadKind = "unknown"
)

// DetectPayloadKind identifies which scan payload shape the JSON data has.
// It uses a two-phase approach:
// 1. Check for the batch envelope ("routes")
// 2. Fallback to structural analysis of a single route result
func DetectPayloadKind(data []byte) (PayloadKind, error) {
	var structure map[string]json.RawMessage
	if err := json.Unmarshal(data, &structure); err != nil {
		return PayloadUnknown, fmt.Errorf("failed to parse JSON: %w", err)
	}

	// Phase 1: batch envelope
	if hasKey(structure, "routes") {
		return PayloadBatch, nil
	}

	// Phase 2: single route shapes
	if hasKey(structure, "route") {
		return PayloadRoute, nil
	}

	// axe-core results carry testEngine/testRunner next to url
	if hasKey(structure, "url") && (hasKey(structure, "violations") || hasKey(structure, "testEngine")) {
		return PayloadAxe, nil
	}

	return PayloadUnknown, fmt.Errorf("%w: expected 'routes', 'route', or axe-core 'url'/'violations'", ErrMissingCollection)
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}
