// Package report renders a plain-text accessibility report.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/access"
)

// DefaultTopN is the number of regions and facilities listed per section.
const DefaultTopN = 5

// Report is the input to Render.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Facilities  int
	Metrics     access.Metrics
	Regions     []access.RegionSummary // sorted worst first
	Demand      []access.FacilityDemand

	// Vulnerability is optional; the section is omitted when nil.
	Vulnerability *access.VulnerabilitySummary
	TopN          int
}

// Render writes the report to w.
func Render(w io.Writer, r Report) error {
	n := r.TopN
	if n <= 0 {
		n = DefaultTopN
	}
	title := r.Title
	if title == "" {
		title = "Accessibility Report"
	}

	ew := &errWriter{w: w}
	rule := strings.Repeat("=", 80)

	ew.printf("%s\n%s\n", strings.ToUpper(title), rule)
	ew.printf("Generated:            %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	ew.printf("Population analyzed:  %d\n", r.Metrics.Count)
	ew.printf("Facilities included:  %d\n\n", r.Facilities)

	section(ew, "SUMMARY")
	ew.printf("Mean distance to nearest facility:  %.2f km\n", r.Metrics.MeanKM)
	ew.printf("Median distance:                    %.2f km\n", r.Metrics.MedianKM)
	ew.printf("Range:                              %.2f - %.2f km\n", r.Metrics.MinKM, r.Metrics.MaxKM)
	ew.printf("Nearest facility in own region:     %.1f%%\n\n", r.Metrics.PctSameRegion)

	section(ew, "DISTANCE DISTRIBUTION")
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	for _, b := range r.Metrics.Histogram {
		pct := 0.0
		if r.Metrics.Count > 0 {
			pct = float64(b.Count) / float64(r.Metrics.Count) * 100
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t(%.1f%%)\n", b.Label, b.Count, pct)
	}
	_ = tw.Flush()
	ew.printf("\n")

	if len(r.Regions) > 0 {
		section(ew, "ACCESSIBILITY BY REGION")
		worst := r.Regions[:min(n, len(r.Regions))]
		ew.printf("Worst %d regions:\n", len(worst))
		writeRegions(ew, worst)

		best := make([]access.RegionSummary, 0, len(worst))
		for i := len(r.Regions) - 1; i >= 0 && len(best) < n; i-- {
			best = append(best, r.Regions[i])
		}
		ew.printf("\nBest %d regions:\n", len(best))
		writeRegions(ew, best)
		ew.printf("\n")
	}

	section(ew, "RECOMMENDATIONS")
	underserved := access.UnderservedRegions(r.Regions, r.Metrics, n)
	if len(underserved) == 0 {
		ew.printf("No region exceeds the overall mean distance.\n")
	} else {
		ew.printf("Prioritize new facilities in:\n")
		for _, s := range underserved {
			ew.printf("  - %s (%.1f km mean)\n", s.Region, s.MeanKM)
		}
	}
	ew.printf("\n")

	if len(r.Demand) > 0 {
		section(ew, "MOST DEMANDED FACILITIES")
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "FACILITY\tREGION\tASSIGNED\tMEAN_KM")
		for _, d := range r.Demand[:min(n, len(r.Demand))] {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", truncate(d.FacilityName, 40), d.Region, d.Assigned, d.MeanKM)
		}
		_ = tw.Flush()
		ew.printf("\n")
	}

	if v := r.Vulnerability; v != nil {
		section(ew, "SOCIAL VULNERABILITY")
		ew.printf("People scored:                      %d\n", v.Scored)
		ew.printf("High-vulnerability hotspots (>=%.1f): %d (%.1f%% of population)\n\n", access.HotspotThreshold, v.Hotspots, v.PctHotspots)
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "REGION\tINDEX\tLEVEL\tPOPULATION\tHOTSPOTS")
		for _, rv := range v.Regions[:min(n, len(v.Regions))] {
			if rv.Scored == 0 {
				break
			}
			_, _ = fmt.Fprintf(tw, "%s\t%.2f\t%s\t%d\t%d\n", rv.Region, rv.MeanIndex, rv.Level, rv.Population, rv.Hotspots)
		}
		_ = tw.Flush()
		ew.printf("\n")
	}

	ew.printf("%s\n", rule)
	return eris.Wrap(ew.err, "report: render")
}

func section(ew *errWriter, name string) {
	ew.printf("%s\n%s\n", name, strings.Repeat("-", len(name)))
}

func writeRegions(ew *errWriter, regions []access.RegionSummary) {
	for i, s := range regions {
		ew.printf("%d. %s: %.1f km mean, %d people\n", i+1, s.Region, s.MeanKM, s.Population)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e, format, args...)
}
