package record

import (
	"math"
	"strings"
	"time"
)

// Reading is one dated biometric measurement.
type Reading struct {
	Value  float64   `json:"value"`
	Unit   string    `json:"unit"`
	Date   Timestamp `json:"date"`
	Source string    `json:"source"`
	Type   string    `json:"type,omitempty"`

	// Timestamp is the older name for Date. It is folded into Date on
	// normalization and never written back.
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// BodyComposition holds body measurement series.
type BodyComposition struct {
	WeightReadings            []Reading `json:"weight_readings"`
	BMIReadings               []Reading `json:"bmi_readings"`
	BodyFatPercentageReadings []Reading `json:"body_fat_percentage_readings"`
}

// Biometrics holds every biometric time series for a user.
type Biometrics struct {
	BodyComposition          BodyComposition `json:"body_composition"`
	RestingHeartRateReadings []Reading       `json:"resting_heart_rate_readings"`
	SleepAnalysisReadings    []Reading       `json:"sleep_analysis_readings"`
	LastUpdated              *Timestamp      `json:"last_updated"`
}

// Series kinds, in display order.
const (
	SeriesWeight           = "weight"
	SeriesBMI              = "bmi"
	SeriesBodyFat          = "body_fat_percentage"
	SeriesRestingHeartRate = "resting_heart_rate"
	SeriesSleep            = "sleep"
)

// Series is a named view over one reading list.
type Series struct {
	Kind     string
	Label    string
	Field    string // JSON path of the reading list inside biometrics
	Readings []Reading
}

// Series lists the biometric series in display order.
func (b *Biometrics) Series() []Series {
	return []Series{
		{SeriesWeight, "Weight", "body_composition.weight_readings", b.BodyComposition.WeightReadings},
		{SeriesBMI, "BMI", "body_composition.bmi_readings", b.BodyComposition.BMIReadings},
		{SeriesBodyFat, "Body fat", "body_composition.body_fat_percentage_readings", b.BodyComposition.BodyFatPercentageReadings},
		{SeriesRestingHeartRate, "Resting heart rate", "resting_heart_rate_readings", b.RestingHeartRateReadings},
		{SeriesSleep, "Sleep", "sleep_analysis_readings", b.SleepAnalysisReadings},
	}
}

// BodyFatPercent converts a stored body-fat value to percent. Values below 1.0
// are fractions and are scaled by 100; anything else is already a percentage.
func BodyFatPercent(v float64) float64 {
	if v < 1.0 {
		return v * 100
	}
	return v
}

func (b *Biometrics) Normalize() {
	bc := &b.BodyComposition
	bc.WeightReadings = normalizeReadings(bc.WeightReadings, "kg")
	bc.BMIReadings = normalizeReadings(bc.BMIReadings, "kg/m²")
	bc.BodyFatPercentageReadings = normalizeReadings(bc.BodyFatPercentageReadings, "%")
	b.RestingHeartRateReadings = normalizeReadings(b.RestingHeartRateReadings, "bpm")
	b.SleepAnalysisReadings = normalizeReadings(b.SleepAnalysisReadings, "hours")
}

func normalizeReadings(readings []Reading, unit string) []Reading {
	readings = orEmpty(readings)
	for i := range readings {
		r := &readings[i]
		if r.Date.IsZero() && r.Timestamp != nil {
			r.Date = *r.Timestamp
		}
		r.Timestamp = nil
		r.Unit = strings.TrimSpace(r.Unit)
		if r.Unit == "" {
			r.Unit = unit
		}
	}
	return collapseByTime(readings, func(r *Reading) time.Time { return r.Date.Time })
}

func (b *Biometrics) Validate() error {
	for _, s := range b.Series() {
		for i, r := range s.Readings {
			field := indexed(s.Field, i)
			if r.Date.IsZero() {
				return invalid(field+".date", "must be set")
			}
			if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				return invalid(field+".value", "must be a finite number")
			}
			if r.Value < 0 {
				return invalid(field+".value", "must not be negative, got %g", r.Value)
			}
		}
	}
	return nil
}
