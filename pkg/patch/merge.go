package patch

import (
	"encoding/json"
	"fmt"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/mike-meow/zestify/pkg/record"
)

// ApplyMergePatch applies an RFC 7386 merge patch. Keys set to null are
// removed, objects merge recursively and any other value replaces the
// target's wholesale. Neither argument is modified.
func ApplyMergePatch(target, patch map[string]any) (map[string]any, error) {
	if target == nil {
		target = map[string]any{}
	}
	doc, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("patch: encode target: %w", err)
	}
	merged, err := mergeBytes(doc, patch)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("patch: decode merged document: %w", err)
	}
	return out, nil
}

// MergeAggregate applies a merge patch to a copy of agg and returns the
// validated result with the components the patch names.
func MergeAggregate(agg *record.Aggregate, patch map[string]any) (*record.Aggregate, []string, error) {
	if len(patch) == 0 {
		return nil, nil, fmt.Errorf("%w: empty merge patch", ErrInvalidPatch)
	}
	doc, err := json.Marshal(agg)
	if err != nil {
		return nil, nil, fmt.Errorf("patch: encode aggregate: %w", err)
	}
	merged, err := mergeBytes(doc, patch)
	if err != nil {
		return nil, nil, err
	}
	next, err := decode(merged)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)
	return next, names, nil
}

func mergeBytes(doc []byte, patch map[string]any) ([]byte, error) {
	p, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	merged, err := jsonpatch.MergePatch(doc, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return merged, nil
}
