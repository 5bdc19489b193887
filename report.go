package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

type Comparison struct {
	Name        string
	Kind        QueryKind
	Before      float64
	After       float64
	Improvement float64
	Skipped     bool
	Reason      string
}

type Report struct {
	Comparisons []Comparison
}

// Improvement is the relative reduction of the duration, in percent.
func Improvement(before, after float64) float64 {
	return (before - after) / before * 100
}

// Compare pairs measurements by label. Labels that failed (or are missing) in
// either phase are kept as skipped entries with the reason.
func Compare(before, after Phase) Report {
	report := Report{Comparisons: make([]Comparison, 0, len(before.Measurements))}
	for _, b := range before.Measurements {
		a, ok := after.Lookup(b.Name)
		comparison := Comparison{Name: b.Name, Kind: b.Kind, Before: b.Seconds, After: FailedDuration}
		switch {
		case !ok:
			comparison.Skipped, comparison.Reason = true, fmt.Sprintf("not measured in %v", after.Name)
		case b.Seconds <= 0:
			comparison.After = a.Seconds
			comparison.Skipped, comparison.Reason = true, failureReason(before.Name, b)
		case a.Seconds <= 0:
			comparison.After = a.Seconds
			comparison.Skipped, comparison.Reason = true, failureReason(after.Name, a)
		default:
			comparison.After = a.Seconds
			comparison.Improvement = Improvement(b.Seconds, a.Seconds)
		}
		report.Comparisons = append(report.Comparisons, comparison)
	}
	for _, a := range after.Measurements {
		if _, ok := before.Lookup(a.Name); ok {
			continue
		}
		report.Comparisons = append(report.Comparisons, Comparison{
			Name:    a.Name,
			Kind:    a.Kind,
			Before:  FailedDuration,
			After:   a.Seconds,
			Skipped: true,
			Reason:  fmt.Sprintf("not measured in %v", before.Name),
		})
	}
	return report
}

func failureReason(phase string, m Measurement) string {
	if m.Err != nil {
		return fmt.Sprintf("failed %v: %v", phase, m.Err)
	}
	return fmt.Sprintf("non-positive duration %v", phase)
}

func (r Report) Skipped() []Comparison {
	skipped := make([]Comparison, 0)
	for _, comparison := range r.Comparisons {
		if comparison.Skipped {
			skipped = append(skipped, comparison)
		}
	}
	return skipped
}

func (r Report) Lookup(name string) (Comparison, bool) {
	for _, comparison := range r.Comparisons {
		if comparison.Name == name {
			return comparison, true
		}
	}
	return Comparison{}, false
}

func formatSeconds(seconds float64) string {
	if seconds < 0 {
		return "failed"
	}
	return fmt.Sprintf("%.4fs", seconds)
}

// Render prints one table per query kind, scalar queries first.
func (r Report) Render(w io.Writer) {
	for _, kind := range []QueryKind{QueryScalar, QueryText} {
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetCaption(true, fmt.Sprintf("%v queries", kind))
		table.SetHeader([]string{"Query", "Before", "After", "Improvement"})
		rows := 0
		for _, comparison := range r.Comparisons {
			if comparison.Kind != kind {
				continue
			}
			improvement := fmt.Sprintf("%+.2f%%", comparison.Improvement)
			if comparison.Skipped {
				improvement = "skipped: " + comparison.Reason
			}
			table.Append([]string{
				comparison.Name,
				formatSeconds(comparison.Before),
				formatSeconds(comparison.After),
				improvement,
			})
			rows++
		}
		if rows > 0 {
			table.Render()
			fmt.Fprintln(w)
		}
	}
}
