package reporting

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// RenderSummary writes the console summary printed at the end of a batch:
// totals, loss rate and the tier table.
func RenderSummary(w io.Writer, r *Report) error {
	s := r.Summary
	lines := []string{
		"PORTFOLIO SUMMARY",
		fmt.Sprintf("Total Applications:   %d", s.Applications),
		fmt.Sprintf("Average Risk Score:   %.1f", s.AverageScore),
		fmt.Sprintf("Total Requested:      %s", formatMoney(s.TotalRequested)),
		fmt.Sprintf("Total Expected Loss:  %s", formatMoney(s.TotalExpectedLoss)),
		fmt.Sprintf("Loss Rate:            %s", formatPct(s.LossRate)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tCOUNT\tMEAN SCORE\tAMOUNT\tEXPECTED LOSS")
	for _, t := range r.Tiers {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%s\t%s\n",
			t.Tier, t.Count, t.MeanScore, formatMoney(t.TotalAmount), formatMoney(t.TotalExpectedLoss))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if sim := r.Simulation; sim != nil {
		if _, err := fmt.Fprintf(w, "\nMONTE CARLO (%d trials)\n", sim.Trials); err != nil {
			return err
		}
		for _, t := range sim.Tail {
			if _, err := fmt.Fprintf(w, "VaR %-6s %s   ES %s\n",
				confidenceLabel(t.Confidence), formatMoney(t.VaR), formatMoney(t.ES)); err != nil {
				return err
			}
		}
	}
	return nil
}
