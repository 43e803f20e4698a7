// Package patch applies collaborator-submitted mutations to an aggregate.
//
// Two formats are accepted: RFC 7386 merge patches and RFC 6902 JSON patches.
// Either way the result is decoded back through the record schema, and a
// patch that yields an invalid aggregate is rejected as a whole.
//
// List-valued sections (goals, readings, conditions, workouts, chat turns)
// must be appended with a trailing "/-" path segment rather than addressed by
// index; indices shift between sequential patches from the same producer.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/gjson"

	"github.com/mike-meow/zestify/pkg/record"
)

var (
	// ErrConflict means an operation addressed a path that does not exist,
	// an index out of range, or a test operation failed.
	ErrConflict = errors.New("patch: conflict")

	// ErrValidation means the patch applied cleanly but the result does not
	// satisfy the record schema. The *record.ValidationError is wrapped too.
	ErrValidation = errors.New("patch: result failed validation")

	// ErrInvalidPatch means the patch itself is malformed.
	ErrInvalidPatch = errors.New("patch: invalid patch")
)

// Operation is one RFC 6902 operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

var valueOps = map[string]bool{"add": true, "replace": true, "test": true}
var fromOps = map[string]bool{"move": true, "copy": true}

func (o Operation) check() error {
	if !valueOps[o.Op] && !fromOps[o.Op] && o.Op != "remove" {
		return fmt.Errorf("%w: unknown op %q", ErrInvalidPatch, o.Op)
	}
	if !strings.HasPrefix(o.Path, "/") {
		return fmt.Errorf("%w: %s path %q must start with /", ErrInvalidPatch, o.Op, o.Path)
	}
	if fromOps[o.Op] && !strings.HasPrefix(o.From, "/") {
		return fmt.Errorf("%w: %s from %q must start with /", ErrInvalidPatch, o.Op, o.From)
	}
	return nil
}

// wire renders the operation with "value" present whenever the op takes one,
// including null, false and zero values.
func (o Operation) wire() map[string]any {
	m := map[string]any{"op": o.Op, "path": o.Path}
	if valueOps[o.Op] {
		m["value"] = o.Value
	}
	if fromOps[o.Op] {
		m["from"] = o.From
	}
	return m
}

// DecodeOperations parses a JSON array of operations.
func DecodeOperations(raw []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return ops, nil
}

// ApplyJSONPatch applies ops to a copy of agg and returns the patched,
// normalized and validated aggregate. On any error agg is untouched and no
// partial result is returned.
func ApplyJSONPatch(agg *record.Aggregate, ops []Operation) (*record.Aggregate, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: no operations", ErrInvalidPatch)
	}
	for i, op := range ops {
		if err := op.check(); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}

	doc, err := json.Marshal(agg)
	if err != nil {
		return nil, fmt.Errorf("patch: encode aggregate: %w", err)
	}
	for i, op := range ops {
		if op.Op == "test" && !exists(doc, op.Path) {
			return nil, fmt.Errorf("%w: op %d: test path %q does not exist", ErrConflict, i, op.Path)
		}
		if doc, err = applyOne(doc, op); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return decode(doc)
}

// applyOne applies a single operation so that test ops see the document as
// it stands after every earlier op.
func applyOne(doc []byte, op Operation) ([]byte, error) {
	raw, err := json.Marshal([]map[string]any{op.wire()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	out, err := p.Apply(doc)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// exists reports whether pointer resolves to a value in doc. A missing path
// would otherwise compare equal to null in a test op.
func exists(doc []byte, pointer string) bool {
	if pointer == "" {
		return true
	}
	segs := strings.Split(pointer[1:], "/")
	for i, seg := range segs {
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		if seg == "" || (len(seg) > 1 && seg[0] == '0' && isDigits(seg)) {
			return false
		}
		segs[i] = escapePathKey(seg)
	}
	return gjson.GetBytes(doc, strings.Join(segs, ".")).Exists()
}

func escapePathKey(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		switch {
		case r >= 0x80, r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func classify(err error) error {
	switch {
	case errors.Is(err, jsonpatch.ErrMissing),
		errors.Is(err, jsonpatch.ErrTestFailed),
		errors.Is(err, jsonpatch.ErrInvalidIndex):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
}

func decode(doc []byte) (*record.Aggregate, error) {
	next, err := record.DecodeAggregate(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return next, nil
}

// ModifiedComponents returns the sorted set of components the operations
// touch: the first segment of every path, and of every from for move and copy.
func ModifiedComponents(ops []Operation) []string {
	seen := make(map[string]bool)
	for _, op := range ops {
		for _, p := range []string{op.Path, op.From} {
			if name := firstSegment(p); name != "" {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstSegment(pointer string) string {
	if !strings.HasPrefix(pointer, "/") {
		return ""
	}
	seg, _, _ := strings.Cut(pointer[1:], "/")
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
}
