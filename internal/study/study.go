package study

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/PaddyFinan/Petrobras-project/internal/finance"
)

// Tickers are downloaded in this order: Petrobras ADR, Brent future,
// USD/BRL rate and the Bovespa index.
var Tickers = []string{"PBR", "BZ=F", "BRL=X", "^BVSP"}

// RebasedTickers are drawn on the rebased price chart.
var RebasedTickers = []string{"PBR", "BZ=F", "^BVSP"}

const (
	DepVar = "PBR_ret"

	FileRebased     = "rebased_prices.png"
	FileScatter     = "scatter_brent_pbr.png"
	FileRolling     = "rolling_correlations.png"
	FileCorrelation = "correlations.csv"
	FileOLS         = "ols_summary.txt"
	FileCommentary  = "commentary.txt"
)

// Regressors of the OLS model, intercept excluded.
var Regressors = []string{"Brent_ret", "USDBRL_ret"}

type rollingPair struct {
	label string
	other string
}

var rollingPairs = []rollingPair{
	{"PBR ~ Brent", "Brent_ret"},
	{"PBR ~ USD/BRL", "USDBRL_ret"},
	{"PBR ~ Bovespa", "Bovespa_ret"},
}

// Downloader fetches the provider table for a set of tickers.
type Downloader interface {
	Download(ctx context.Context, req finance.DownloadRequest) (*finance.RawTable, error)
}

// Snapshotter persists the computed tables of one run.
type Snapshotter interface {
	SaveRun(ctx context.Context, at time.Time, prices, returns *finance.Frame, corr *finance.CorrMatrix, rollingDates []time.Time, rolling []finance.RollingSeries) (int64, error)
}

// Commentator turns the correlation table and OLS report into prose.
type Commentator interface {
	Comment(ctx context.Context, correlations, olsSummary string) (string, error)
}

// Publisher delivers the written artifacts somewhere outside the output
// directory.
type Publisher interface {
	Publish(ctx context.Context, caption string, files []string) error
}

// Options control one run.
type Options struct {
	OutputDir           string
	Start               time.Time
	End                 time.Time // zero means latest
	RollingWindow       int
	CompleteCorrelation bool
}

// Result carries everything a run computed, mainly for callers and tests.
type Result struct {
	Prices      *finance.Frame
	Returns     *finance.Frame
	Rebased     *finance.Frame
	Correlation *finance.CorrMatrix
	Rolling     []finance.RollingSeries
	OLS         *finance.OLSResult
	Files       []string
}

// Study runs the download, statistics and rendering steps once.
type Study struct {
	dl   Downloader
	opts Options
	out  io.Writer
	log  zerolog.Logger
	now  func() time.Time

	snapshotter Snapshotter
	commentator Commentator
	publisher   Publisher
}

// New returns a Study that prints its tables to out.
func New(dl Downloader, opts Options, out io.Writer, logger zerolog.Logger) *Study {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.RollingWindow == 0 {
		opts.RollingWindow = 90
	}
	return &Study{
		dl:   dl,
		opts: opts,
		out:  out,
		log:  logger.With().Str("component", "study").Logger(),
		now:  time.Now,
	}
}

func (s *Study) WithSnapshotter(sn Snapshotter) *Study { s.snapshotter = sn; return s }
func (s *Study) WithCommentator(c Commentator) *Study  { s.commentator = c; return s }
func (s *Study) WithPublisher(p Publisher) *Study      { s.publisher = p; return s }

// Run executes the study. Download and computation errors abort the run;
// exporter errors are only logged.
func (s *Study) Run(ctx context.Context) (*Result, error) {
	outDir, err := filepath.Abs(s.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	raw, err := s.dl.Download(ctx, finance.DownloadRequest{
		Tickers:    Tickers,
		Start:      s.opts.Start,
		End:        s.opts.End,
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("download prices: %w", err)
	}
	prices, err := finance.ExtractPrices(raw, Tickers)
	if err != nil {
		return nil, err
	}
	prices = finance.CleanPrices(prices)
	s.log.Info().Str("layout", raw.Layout.String()).Int("rows", prices.Len()).Strs("tickers", prices.Columns).Msg("price table ready")

	returns, err := finance.PctChange(prices)
	if err != nil {
		return nil, err
	}
	returns = returns.Rename(finance.ReturnNames).DropIncompleteRows()
	if returns.Len() < 2 {
		return nil, fmt.Errorf("only %d complete return rows", returns.Len())
	}

	res := &Result{Prices: prices, Returns: returns}

	if s.opts.CompleteCorrelation {
		res.Correlation, err = finance.CompleteCorrelationMatrix(returns)
		if err != nil {
			return nil, fmt.Errorf("correlation matrix: %w", err)
		}
	} else {
		res.Correlation = finance.CorrelationMatrix(returns)
	}
	corrText := res.Correlation.Format(3)
	fmt.Fprintf(s.out, "\n=== Daily Return Correlations ===\n%s", corrText)

	window := s.opts.RollingWindow
	pbr, err := returns.MustColumn(DepVar)
	if err != nil {
		return nil, err
	}
	for _, p := range rollingPairs {
		other, err := returns.MustColumn(p.other)
		if err != nil {
			return nil, err
		}
		res.Rolling = append(res.Rolling, finance.RollingSeries{
			Name:   p.label,
			Values: finance.RollingCorrelation(pbr, other, window),
		})
	}

	res.OLS, err = finance.RegressFrame(returns, DepVar, Regressors...)
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	if !s.opts.CompleteCorrelation {
		if note := s.alignmentNote(res.Correlation, res.OLS.NObs); note != "" {
			res.OLS.Notes = append(res.OLS.Notes, note)
		}
	}
	summary := res.OLS.Summary(s.now())
	fmt.Fprintf(s.out, "\n=== OLS Regression: %s ~ %s + %s ===\n%s", DepVar, Regressors[0], Regressors[1], summary)

	rebased, err := finance.Rebase(prices).Select(present(prices, RebasedTickers)...)
	if err != nil {
		return nil, err
	}
	res.Rebased = rebased.DropEmptyRows()
	img, err := finance.MakeRebasedChart(res.Rebased)
	if err != nil {
		return nil, fmt.Errorf("rebased chart: %w", err)
	}
	if err := s.write(res, outDir, FileRebased, img); err != nil {
		return nil, err
	}

	brent, _ := returns.Column("Brent_ret")
	intercept, _ := res.OLS.Param(finance.ConstName)
	slope, _ := res.OLS.Param("Brent_ret")
	img, err = finance.MakeScatterChart("Petrobras vs Brent Daily Returns", "Brent returns", "PBR returns", brent, pbr, intercept, slope)
	if err != nil {
		return nil, fmt.Errorf("scatter chart: %w", err)
	}
	if err := s.write(res, outDir, FileScatter, img); err != nil {
		return nil, err
	}

	img, err = finance.MakeRollingChart(returns.Dates, window, res.Rolling)
	if err != nil {
		return nil, fmt.Errorf("rolling chart: %w", err)
	}
	if err := s.write(res, outDir, FileRolling, img); err != nil {
		return nil, err
	}

	var csvBuf bytes.Buffer
	if err := res.Correlation.WriteCSV(&csvBuf, 4); err != nil {
		return nil, fmt.Errorf("correlation csv: %w", err)
	}
	if err := s.write(res, outDir, FileCorrelation, csvBuf.Bytes()); err != nil {
		return nil, err
	}
	if err := s.write(res, outDir, FileOLS, []byte(summary)); err != nil {
		return nil, err
	}

	s.export(ctx, res, outDir, corrText, summary)

	fmt.Fprintf(s.out, "\nCharts saved in: %s\n", outDir)
	return res, nil
}

// alignmentNote compares the pairwise observation counts of the model
// variables against the listwise count the regression used.
func (s *Study) alignmentNote(corr *finance.CorrMatrix, nobs int) string {
	vars := append([]string{DepVar}, Regressors...)
	idx := make(map[string]int, len(corr.Columns))
	for i, c := range corr.Columns {
		idx[c] = i
	}
	minObs, maxObs := -1, -1
	for a := 0; a < len(vars); a++ {
		for b := a + 1; b < len(vars); b++ {
			i, ok1 := idx[vars[a]]
			j, ok2 := idx[vars[b]]
			if !ok1 || !ok2 {
				continue
			}
			n := corr.Obs[i][j]
			if minObs < 0 || n < minObs {
				minObs = n
			}
			if n > maxObs {
				maxObs = n
			}
		}
	}
	if minObs < 0 || (minObs == nobs && maxObs == nobs) {
		return ""
	}
	s.log.Warn().
		Int("corr_obs_min", minObs).
		Int("corr_obs_max", maxObs).
		Int("ols_obs", nobs).
		Msg("correlations and regression use different rows")
	return fmt.Sprintf("Correlations use pairwise-complete rows (%d to %d); this regression uses %d listwise-complete rows.", minObs, maxObs, nobs)
}

func (s *Study) write(res *Result, dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	res.Files = append(res.Files, path)
	s.log.Debug().Str("file", path).Int("bytes", len(data)).Msg("saved")
	return nil
}

func (s *Study) export(ctx context.Context, res *Result, outDir, corrText, summary string) {
	if s.snapshotter != nil {
		runID, err := s.snapshotter.SaveRun(ctx, s.now(), res.Prices, res.Returns, res.Correlation, res.Returns.Dates, res.Rolling)
		if err != nil {
			s.log.Error().Err(err).Msg("sqlite snapshot failed")
		} else {
			s.log.Info().Int64("run_id", runID).Msg("snapshot saved")
		}
	}
	if s.commentator != nil {
		text, err := s.commentator.Comment(ctx, corrText, summary)
		if err != nil {
			s.log.Error().Err(err).Msg("commentary failed")
		} else if err := s.write(res, outDir, FileCommentary, []byte(text+"\n")); err != nil {
			s.log.Error().Err(err).Msg("commentary not saved")
		}
	}
	if s.publisher != nil {
		caption := fmt.Sprintf("PBR study %s: R²=%.3f, β Brent=%.3f, β USD/BRL=%.3f",
			s.now().Format("2006-01-02"), res.OLS.RSquared, res.OLS.Params[1], res.OLS.Params[2])
		if err := s.publisher.Publish(ctx, caption, res.Files); err != nil {
			s.log.Error().Err(err).Msg("telegram delivery failed")
		}
	}
}

func present(f *finance.Frame, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := f.Column(n); ok {
			out = append(out, n)
		}
	}
	return out
}
