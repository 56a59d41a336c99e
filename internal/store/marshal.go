package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/modelsync/internal/ir"
)

// marshalCanonical converts v to canonical JSON TEXT for storage.
func marshalCanonical(what string, v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

func unmarshalInstance(data string) (ir.InstanceModel, error) {
	var m ir.InstanceModel
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return m, fmt.Errorf("unmarshal instance model: %w", err)
	}
	if m.Objects == nil {
		m.Objects = []ir.InstanceObject{}
	}
	return m, nil
}

func unmarshalRepresentation(data string) (ir.RepresentationInstanceModel, error) {
	var m ir.RepresentationInstanceModel
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return m, fmt.Errorf("unmarshal representation instance model: %w", err)
	}
	if m.Objects == nil {
		m.Objects = []ir.RepresentationInstanceObject{}
	}
	return m, nil
}

func unmarshalCounters(data string) (map[string]int, error) {
	counters := map[string]int{}
	if data == "" {
		return counters, nil
	}
	if err := json.Unmarshal([]byte(data), &counters); err != nil {
		return nil, fmt.Errorf("unmarshal counters: %w", err)
	}
	return counters, nil
}

func unmarshalOperation(data string) (ir.Operation, error) {
	var op ir.Operation
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return op, fmt.Errorf("unmarshal operation: %w", err)
	}
	return op, nil
}
