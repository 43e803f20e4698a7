package view

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stats summarizes one numeric field over a bucket.
type Stats struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	Median float64
}

// Summarize computes stats over vs, which must not be empty.
func Summarize(vs []float64) Stats {
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return Stats{
		Count:  n,
		Mean:   sum / float64(n),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: median,
	}
}

func num(v float64) string {
	// Avoid rendering "-0.0" for tiny negative rounding noise.
	if math.Abs(v) < 0.05 {
		v = 0
	}
	return fmt.Sprintf("%.1f", v)
}

func withUnit(v float64, unit string) string {
	switch unit {
	case "":
		return num(v)
	case "%":
		return num(v) + "%"
	default:
		return num(v) + " " + unit
	}
}

// writeStats writes one line per category, categories in name order.
func writeStats(b *strings.Builder, samples []sample) {
	byCategory := map[string][]sample{}
	for _, s := range samples {
		byCategory[s.category] = append(byCategory[s.category], s)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		group := byCategory[c]

		var order []string
		fields := map[string][]float64{}
		meta := map[string]value{}
		for _, s := range group {
			for _, v := range s.values {
				if _, seen := meta[v.name]; !seen {
					order = append(order, v.name)
					meta[v.name] = v
				}
				fields[v.name] = append(fields[v.name], v.v)
			}
		}

		parts := make([]string, 0, len(order))
		for _, name := range order {
			m := meta[name]
			st := Summarize(fields[name])
			extra := ""
			if m.median {
				extra = ", median " + withUnit(st.Median, m.unit)
			}
			parts = append(parts, fmt.Sprintf("%s mean %s (min %s, max %s%s)",
				name, withUnit(st.Mean, m.unit), withUnit(st.Min, m.unit), withUnit(st.Max, m.unit), extra))
		}

		line := fmt.Sprintf("- %s (n=%d)", c, len(group))
		if len(parts) > 0 {
			line += ": " + strings.Join(parts, "; ")
		}
		b.WriteString(line + "\n")
	}
}
