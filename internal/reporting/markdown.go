package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Credit Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Metadata
	md := r.Metadata
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Batch | %s |\n", orDash(md.BatchID)))
	sb.WriteString(fmt.Sprintf("| Execution | %s |\n", orDash(md.ExecutionID)))
	sb.WriteString(fmt.Sprintf("| Dataset Hash | %s |\n", orDash(md.DatasetHash)))
	sb.WriteString(fmt.Sprintf("| Model | %s |\n", orDash(md.Model)))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", md.Seed))
	if md.Generated > 0 {
		sb.WriteString(fmt.Sprintf("| Generated | %d |\n", md.Generated))
		sb.WriteString(fmt.Sprintf("| Train / Test | %d / %d |\n", md.TrainCount, md.TestCount))
	}
	sb.WriteString("\n")

	// Portfolio Summary
	s := r.Summary
	sb.WriteString("## Portfolio Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Applications | %d |\n", s.Applications))
	sb.WriteString(fmt.Sprintf("| Average Risk Score | %.1f |\n", s.AverageScore))
	sb.WriteString(fmt.Sprintf("| Median Risk Score | %.1f |\n", s.MedianScore))
	sb.WriteString(fmt.Sprintf("| Total Requested | %s |\n", formatMoney(s.TotalRequested)))
	sb.WriteString(fmt.Sprintf("| Total Expected Loss | %s |\n", formatMoney(s.TotalExpectedLoss)))
	sb.WriteString(fmt.Sprintf("| Loss Rate | %s |\n", formatPct(s.LossRate)))
	sb.WriteString(fmt.Sprintf("| Observed Default Rate | %s |\n", formatPct(s.DefaultRate)))
	sb.WriteString("\n")

	// Tier Breakdown
	sb.WriteString("## Risk Tiers\n\n")
	if len(r.Tiers) > 0 {
		sb.WriteString("| Tier | Count | Share | Mean Score | Total Amount | Expected Loss | LGD | Action |\n")
		sb.WriteString("|------|-------|-------|------------|--------------|---------------|-----|--------|\n")
		for _, t := range r.Tiers {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %.1f | %s | %s | %.2f | %s |\n",
				t.Tier, t.Count, formatPct(t.Share), t.MeanScore,
				formatMoney(t.TotalAmount), formatMoney(t.TotalExpectedLoss), t.LGD, t.Recommendation))
		}
	} else {
		sb.WriteString("No tier data available.\n")
	}
	sb.WriteString("\n")

	// Purpose Breakdown
	sb.WriteString("## Loan Purposes\n\n")
	if len(r.Purposes) > 0 {
		sb.WriteString("| Purpose | Count | Mean Score | High Risk |\n")
		sb.WriteString("|---------|-------|------------|-----------|\n")
		for _, p := range r.Purposes {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %s |\n",
				p.Purpose, p.Count, p.MeanScore, formatPct(p.HighRiskFraction)))
		}
	} else {
		sb.WriteString("No purpose data available.\n")
	}
	sb.WriteString("\n")

	// Monte Carlo
	sb.WriteString("## Monte Carlo Loss Distribution\n\n")
	if sim := r.Simulation; sim != nil {
		sb.WriteString(fmt.Sprintf("Run `%s`: %d trials, seed %d.\n\n", sim.RunID, sim.Trials, sim.Seed))
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Expected Loss (closed form) | %s |\n", formatMoney(sim.ExpectedLoss)))
		sb.WriteString(fmt.Sprintf("| Mean Simulated Loss | %s |\n", formatMoney(sim.MeanLoss)))
		sb.WriteString(fmt.Sprintf("| Std Dev | %s |\n", formatMoney(sim.StdDevLoss)))
		sb.WriteString(fmt.Sprintf("| Min / Max | %s / %s |\n", formatMoney(sim.MinLoss), formatMoney(sim.MaxLoss)))
		for _, t := range sim.Tail {
			sb.WriteString(fmt.Sprintf("| VaR %s | %s |\n", confidenceLabel(t.Confidence), formatMoney(t.VaR)))
			sb.WriteString(fmt.Sprintf("| ES %s | %s |\n", confidenceLabel(t.Confidence), formatMoney(t.ES)))
		}
		sb.WriteString("\n")

		if len(sim.Distribution) > 0 {
			sb.WriteString("| Percentile | Loss |\n")
			sb.WriteString("|------------|------|\n")
			for _, d := range sim.Distribution {
				sb.WriteString(fmt.Sprintf("| %s | %s |\n", confidenceLabel(d.Percentile), formatMoney(d.Loss)))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No simulation run.\n\n")
	}

	return sb.String()
}

func confidenceLabel(p float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", p*100), "0"), ".") + "%"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
