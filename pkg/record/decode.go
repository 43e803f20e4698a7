package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DecodeComponent decodes one stored component document into a, replacing
// the component only when the document passes normalization and validation.
// Unknown fields are ignored so older files keep loading.
func DecodeComponent(a *Aggregate, name string, raw []byte) error {
	return decodeComponent(a, name, raw, false)
}

// DecodeAggregate decodes a whole-aggregate document, as produced by
// marshaling an Aggregate and patching it. Every component must be present
// and unknown fields are rejected.
func DecodeAggregate(raw []byte) (*Aggregate, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ValidationError{Reason: "malformed document"}
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, &ValidationError{Reason: "document must be an object"}
	}

	var unknown error
	doc.ForEach(func(key, _ gjson.Result) bool {
		if !IsComponent(key.String()) {
			unknown = &ValidationError{Component: key.String(), Reason: "unknown component"}
			return false
		}
		return true
	})
	if unknown != nil {
		return nil, unknown
	}

	a := &Aggregate{}
	for _, name := range Components {
		part := doc.Get(name)
		if !part.Exists() {
			return nil, &ValidationError{Component: name, Reason: "component missing"}
		}
		if err := decodeComponent(a, name, []byte(part.Raw), true); err != nil {
			return nil, err
		}
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeComponent(a *Aggregate, name string, raw []byte, strict bool) error {
	raw, err := upgradeLegacy(name, raw)
	if err != nil {
		return inComponent(name, err)
	}
	switch name {
	case ComponentUserInfo:
		err = decodeInto(raw, &a.UserInfo, strict)
	case ComponentUserProfile:
		err = decodeInto(raw, &a.UserProfile, strict)
	case ComponentBiometrics:
		err = decodeInto(raw, &a.Biometrics, strict)
	case ComponentWorkoutMemory:
		err = decodeInto(raw, &a.WorkoutMemory, strict)
	case ComponentActivities:
		err = decodeInto(raw, &a.Activities, strict)
	case ComponentWorkoutPlan:
		err = decodeInto(raw, &a.WorkoutPlan, strict)
	case ComponentChatHistory:
		err = decodeInto(raw, &a.ChatHistory, strict)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return inComponent(name, err)
}

// decodeInto decodes, normalizes and validates a fresh T, storing it in dst
// only on success.
func decodeInto[T any, PT interface {
	*T
	Component
}](raw []byte, dst PT, strict bool) error {
	var v T
	if d, ok := any(PT(&v)).(interface{ presetDefaults() }); ok {
		d.presetDefaults()
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(PT(&v)); err != nil {
		return err
	}
	PT(&v).Normalize()
	if err := PT(&v).Validate(); err != nil {
		return err
	}
	*dst = v
	return nil
}

// upgradeLegacy rewrites older shapes of a component document into the
// current one. Documents already in the current shape are returned as is.
func upgradeLegacy(name string, raw []byte) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return raw, nil
	}
	doc := gjson.ParseBytes(raw)

	switch name {
	case ComponentActivities:
		switch {
		case doc.IsArray():
			return sjson.SetRawBytes([]byte(`{}`), "activities", raw)
		case doc.IsObject() && !doc.Get("activities").Exists() && doc.Get("date").Exists():
			return sjson.SetRawBytes([]byte(`{}`), "activities", append(append([]byte("["), raw...), ']'))
		}

	case ComponentWorkoutMemory:
		switch {
		case doc.IsArray():
			return sjson.SetRawBytes([]byte(`{}`), "recent_workouts", raw)
		case doc.Get("workout_memory").IsObject():
			inner := []byte(doc.Get("workout_memory").Raw)
			if uid := doc.Get("metadata.user_id"); uid.Exists() && !gjson.GetBytes(inner, "user_id").Exists() {
				return sjson.SetBytes(inner, "user_id", uid.String())
			}
			return inner, nil
		}

	case ComponentChatHistory:
		if doc.IsArray() {
			return sjson.SetRawBytes([]byte(`{}`), "conversations", raw)
		}

	case ComponentBiometrics:
		return foldBodyCompositionHistory(doc, raw)
	}
	return raw, nil
}

// legacyBodySeries maps the old {current, unit, history} keys of
// body_composition onto their reading lists.
var legacyBodySeries = []struct {
	key, readings string
}{
	{"weight", "weight_readings"},
	{"bmi", "bmi_readings"},
	{"body_fat_percentage", "body_fat_percentage_readings"},
	{"body_fat", "body_fat_percentage_readings"},
}

func foldBodyCompositionHistory(doc gjson.Result, raw []byte) ([]byte, error) {
	for _, s := range legacyBodySeries {
		old := doc.Get("body_composition." + s.key)
		if !old.IsObject() {
			continue
		}

		var readings []json.RawMessage
		for _, r := range doc.Get("body_composition." + s.readings).Array() {
			readings = append(readings, json.RawMessage(r.Raw))
		}
		unit := old.Get("unit").String()
		for _, h := range old.Get("history").Array() {
			if r, ok := legacyReading(h, h.Get("value"), unit); ok {
				readings = append(readings, r)
			}
		}
		if len(old.Get("history").Array()) == 0 {
			// Only a current value: date it from the closest timestamp available.
			dated := old
			if !old.Get("date").Exists() {
				dated = doc
			}
			if r, ok := legacyReading(dated, old.Get("current"), unit); ok {
				readings = append(readings, r)
			}
		}

		var err error
		if raw, err = sjson.SetBytes(raw, "body_composition."+s.readings, orEmpty(readings)); err != nil {
			return nil, err
		}
		if raw, err = sjson.DeleteBytes(raw, "body_composition."+s.key); err != nil {
			return nil, err
		}
		doc = gjson.ParseBytes(raw)
	}
	return raw, nil
}

// legacyReading builds a reading from a history entry. Entries without a
// numeric value or a date are skipped.
func legacyReading(entry, value gjson.Result, unit string) (json.RawMessage, bool) {
	var v float64
	switch value.Type {
	case gjson.Number:
		v = value.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(value.String(), 64)
		if err != nil {
			return nil, false
		}
		v = f
	default:
		return nil, false
	}

	date := entry.Get("date")
	if !date.Exists() {
		date = entry.Get("timestamp")
	}
	if !date.Exists() {
		date = entry.Get("last_updated")
	}
	if date.String() == "" {
		return nil, false
	}

	if u := entry.Get("unit").String(); u != "" {
		unit = u
	}
	out, err := json.Marshal(map[string]any{
		"value":  v,
		"unit":   unit,
		"date":   date.String(),
		"source": entry.Get("source").String(),
	})
	if err != nil {
		return nil, false
	}
	return out, true
}
