package reporting

import (
	"fmt"
	"strings"
)

// RenderTierCSV renders the tier table as CSV string.
func RenderTierCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("risk_tier,count,share,mean_risk_score,total_amount,total_expected_loss,lgd,recommendation\n")
	for _, t := range r.Tiers {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%.4f,%s,%s,%.2f,%s\n",
			t.Tier,
			t.Count,
			t.Share,
			t.MeanScore,
			t.TotalAmount.StringFixed(2),
			t.TotalExpectedLoss.StringFixed(2),
			t.LGD,
			quote(t.Recommendation),
		))
	}

	return sb.String()
}

// RenderPurposeCSV renders the purpose table as CSV string.
func RenderPurposeCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("loan_purpose,count,mean_risk_score,high_risk_fraction\n")
	for _, p := range r.Purposes {
		sb.WriteString(fmt.Sprintf("%s,%d,%.4f,%.6f\n",
			p.Purpose,
			p.Count,
			p.MeanScore,
			p.HighRiskFraction,
		))
	}

	return sb.String()
}

// quote wraps fields containing commas, as recommendations like "Approve, Standard Terms" do.
func quote(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
