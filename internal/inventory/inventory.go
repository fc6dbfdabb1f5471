// Package inventory enumerates scene objects into a stable, structured form.
// The payload shape ({"objects": [...]}, 5-decimal rounding) is a published
// contract consumed by downstream tooling.
package inventory

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/itchyny/gojq"

	"renderplan/internal/host"
)

// Record describes one scene object.
type Record struct {
	Name     string     `json:"name"`
	Kind     string     `json:"type"`
	Location [3]float64 `json:"location"`
	Rotation [3]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
}

// Payload is the structured output envelope.
type Payload struct {
	Objects []Record `json:"objects"`
}

// Collect walks the scene's objects in scene order. Hidden objects are
// excluded unless includeHidden is set. Every numeric component is rounded
// to 5 decimal places.
func Collect(scene host.Scene, includeHidden bool) Payload {
	var records []Record
	for _, obj := range scene.Objects() {
		if !includeHidden && obj.Hidden() {
			continue
		}
		records = append(records, Record{
			Name:     obj.Name(),
			Kind:     obj.Kind(),
			Location: roundVec(obj.Location()),
			Rotation: roundVec(obj.RotationEuler()),
			Scale:    roundVec(obj.Scale()),
		})
	}
	return Payload{Objects: records}
}

func roundVec(v [3]float64) [3]float64 {
	for i, c := range v {
		v[i] = math.Round(c*1e5) / 1e5
	}
	return v
}

// Query runs a jq expression over the payload and returns the produced
// values in order.
func Query(p Payload, expr string) ([]any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}

	// Round-trip through JSON so gojq sees plain maps and numbers.
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, err
	}

	var results []any
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		results = append(results, v)
	}
	return results, nil
}
