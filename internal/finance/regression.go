package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ConstName is the regressor name of the intercept column.
const ConstName = "const"

// OLSResult holds a fitted ordinary least squares model and its summary
// statistics.
type OLSResult struct {
	DepVar string
	Names  []string // regressors, intercept first

	Params   []float64
	StdErr   []float64
	TValues  []float64
	PValues  []float64
	ConfLow  []float64
	ConfHigh []float64

	NObs        int
	DfModel     float64
	DfResid     float64
	RSquared    float64
	AdjRSquared float64
	FStat       float64
	FPValue     float64
	LogLike     float64
	AIC         float64
	BIC         float64

	Omnibus       float64
	OmnibusPValue float64
	Skew          float64
	Kurtosis      float64
	DurbinWatson  float64
	JarqueBera    float64
	JBPValue      float64
	CondNo        float64

	Residuals []float64

	// Notes are appended to the rendered summary.
	Notes []string
}

// Param returns the fitted coefficient of the named regressor.
func (r *OLSResult) Param(name string) (float64, error) {
	for i, n := range r.Names {
		if n == name {
			return r.Params[i], nil
		}
	}
	return 0, fmt.Errorf("regressor %q not in model", name)
}

// RegressFrame fits dep on indep plus an intercept over the rows where all
// of them are present.
func RegressFrame(f *Frame, dep string, indep ...string) (*OLSResult, error) {
	rows, err := f.CompleteRows(append([]string{dep}, indep...)...)
	if err != nil {
		return nil, err
	}
	ycol, _ := f.Column(dep)
	xs := make([][]float64, len(indep))
	for i, name := range indep {
		col, _ := f.Column(name)
		xs[i] = take(col, rows)
	}
	return FitOLS(take(ycol, rows), xs, indep, dep)
}

// FitOLS regresses y on the columns xs plus an intercept using a QR
// solve. Inputs must be aligned and free of missing values.
func FitOLS(y []float64, xs [][]float64, names []string, depVar string) (*OLSResult, error) {
	n := len(y)
	k := len(xs) + 1
	if len(names) != len(xs) {
		return nil, fmt.Errorf("got %d regressor names for %d regressors", len(names), len(xs))
	}
	for i, x := range xs {
		if len(x) != n {
			return nil, fmt.Errorf("regressor %s has %d observations, expected %d", names[i], len(x), n)
		}
	}
	if n <= k {
		return nil, fmt.Errorf("need more than %d observations for %d parameters, got %d", k, k, n)
	}

	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j, x := range xs {
			X.Set(i, j+1, x[i])
		}
	}
	Y := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, Y); err != nil {
		return nil, fmt.Errorf("failed to solve least squares: %w", err)
	}

	var xtx, xtxInv mat.Dense
	xtx.Mul(X.T(), X)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("singular design matrix: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	resid := make([]float64, n)
	ssr := 0.0
	for i := range resid {
		resid[i] = y[i] - fitted.AtVec(i)
		ssr += resid[i] * resid[i]
	}
	ybar := stat.Mean(y, nil)
	tss := 0.0
	for _, v := range y {
		tss += (v - ybar) * (v - ybar)
	}

	res := &OLSResult{
		DepVar:    depVar,
		Names:     append([]string{ConstName}, names...),
		NObs:      n,
		DfModel:   float64(k - 1),
		DfResid:   float64(n - k),
		Residuals: resid,
	}
	nf := float64(n)
	sigma2 := ssr / res.DfResid
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DfResid}
	q := tdist.Quantile(0.975)
	for j := 0; j < k; j++ {
		b := beta.AtVec(j)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		tv := b / se
		res.Params = append(res.Params, b)
		res.StdErr = append(res.StdErr, se)
		res.TValues = append(res.TValues, tv)
		res.PValues = append(res.PValues, 2*(1-tdist.CDF(math.Abs(tv))))
		res.ConfLow = append(res.ConfLow, b-q*se)
		res.ConfHigh = append(res.ConfHigh, b+q*se)
	}

	res.RSquared = 1 - ssr/tss
	res.AdjRSquared = 1 - (nf-1)/res.DfResid*(1-res.RSquared)
	if res.DfModel > 0 {
		res.FStat = ((tss - ssr) / res.DfModel) / sigma2
		res.FPValue = 1 - distuv.F{D1: res.DfModel, D2: res.DfResid}.CDF(res.FStat)
	} else {
		res.FStat, res.FPValue = math.NaN(), math.NaN()
	}
	res.LogLike = -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
	res.AIC = -2*res.LogLike + 2*float64(k)
	res.BIC = -2*res.LogLike + float64(k)*math.Log(nf)

	dw := 0.0
	for i := 1; i < n; i++ {
		d := resid[i] - resid[i-1]
		dw += d * d
	}
	res.DurbinWatson = dw / ssr

	m2 := stat.Moment(2, resid, nil)
	res.Skew = stat.Moment(3, resid, nil) / math.Pow(m2, 1.5)
	res.Kurtosis = stat.Moment(4, resid, nil) / (m2 * m2)
	chi2 := distuv.ChiSquared{K: 2}
	res.JarqueBera = nf / 6 * (res.Skew*res.Skew + (res.Kurtosis-3)*(res.Kurtosis-3)/4)
	res.JBPValue = 1 - chi2.CDF(res.JarqueBera)
	res.Omnibus = math.NaN()
	res.OmnibusPValue = math.NaN()
	if n >= 8 {
		zs := skewTest(res.Skew, nf)
		zk := kurtosisTest(res.Kurtosis, nf)
		res.Omnibus = zs*zs + zk*zk
		res.OmnibusPValue = 1 - chi2.CDF(res.Omnibus)
	}
	res.CondNo = mat.Cond(X, 2)
	return res, nil
}

// skewTest is D'Agostino's normal approximation for sample skewness b.
func skewTest(b, n float64) float64 {
	y := b * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

// kurtosisTest is Anscombe and Glynn's normal approximation for sample
// kurtosis b (not excess).
func kurtosisTest(b, n float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b - e) / math.Sqrt(varb)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
