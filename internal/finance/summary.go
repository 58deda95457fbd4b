package finance

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const summaryWidth = 78

// Summary renders the fitted model as a plain-text report in the layout of
// the usual OLS regression results table.
func (r *OLSResult) Summary(at time.Time) string {
	var b strings.Builder
	eq := strings.Repeat("=", summaryWidth)
	dash := strings.Repeat("-", summaryWidth)

	b.WriteString(center("OLS Regression Results", summaryWidth) + "\n")
	b.WriteString(eq + "\n")
	left := [][2]string{
		{"Dep. Variable:", r.DepVar},
		{"Model:", "OLS"},
		{"Method:", "Least Squares"},
		{"Date:", at.Format("Mon, 02 Jan 2006")},
		{"Time:", at.Format("15:04:05")},
		{"No. Observations:", fmt.Sprintf("%d", r.NObs)},
		{"Df Residuals:", fmt.Sprintf("%.0f", r.DfResid)},
		{"Df Model:", fmt.Sprintf("%.0f", r.DfModel)},
		{"Covariance Type:", "nonrobust"},
	}
	right := [][2]string{
		{"R-squared:", fmt.Sprintf("%.3f", r.RSquared)},
		{"Adj. R-squared:", fmt.Sprintf("%.3f", r.AdjRSquared)},
		{"F-statistic:", fmt.Sprintf("%.4g", r.FStat)},
		{"Prob (F-statistic):", fmt.Sprintf("%.3g", r.FPValue)},
		{"Log-Likelihood:", fmt.Sprintf("%.2f", r.LogLike)},
		{"AIC:", fmt.Sprintf("%.4g", r.AIC)},
		{"BIC:", fmt.Sprintf("%.4g", r.BIC)},
		{"", ""},
		{"", ""},
	}
	for i := range left {
		b.WriteString(pairLine(left[i], right[i]) + "\n")
	}
	b.WriteString(eq + "\n")

	fmt.Fprintf(&b, "%-14s%10s%10s%10s%10s%12s%12s\n", "", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]")
	b.WriteString(dash + "\n")
	for i, name := range r.Names {
		fmt.Fprintf(&b, "%-14s%10.4f%10.3f%10.3f%10.3f%12.3f%12.3f\n",
			trunc(name, 14), r.Params[i], r.StdErr[i], r.TValues[i], r.PValues[i], r.ConfLow[i], r.ConfHigh[i])
	}
	b.WriteString(eq + "\n")

	diagLeft := [][2]string{
		{"Omnibus:", fmt.Sprintf("%.3f", r.Omnibus)},
		{"Prob(Omnibus):", fmt.Sprintf("%.3f", r.OmnibusPValue)},
		{"Skew:", fmt.Sprintf("%.3f", r.Skew)},
		{"Kurtosis:", fmt.Sprintf("%.3f", r.Kurtosis)},
	}
	diagRight := [][2]string{
		{"Durbin-Watson:", fmt.Sprintf("%.3f", r.DurbinWatson)},
		{"Jarque-Bera (JB):", fmt.Sprintf("%.3f", r.JarqueBera)},
		{"Prob(JB):", fmt.Sprintf("%.3g", r.JBPValue)},
		{"Cond. No.", fmt.Sprintf("%.3g", r.CondNo)},
	}
	for i := range diagLeft {
		b.WriteString(pairLine(diagLeft[i], diagRight[i]) + "\n")
	}
	b.WriteString(eq + "\n")
	b.WriteString("\nNotes:\n")
	b.WriteString("[1] Standard Errors assume that the covariance matrix of the errors is correctly specified.\n")
	n := 2
	if r.CondNo > 1e3 && !math.IsInf(r.CondNo, 0) {
		fmt.Fprintf(&b, "[%d] The condition number is large, %.3g. This might indicate that there are\nstrong multicollinearity or other numerical problems.\n", n, r.CondNo)
		n++
	}
	for _, note := range r.Notes {
		fmt.Fprintf(&b, "[%d] %s\n", n, note)
		n++
	}
	return b.String()
}

func pairLine(l, r [2]string) string {
	half := summaryWidth / 2
	return fmt.Sprintf("%-20s%*s   %-20s%*s", l[0], half-23, l[1], r[0], half-23, r[1])
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
