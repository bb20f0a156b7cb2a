package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/chronoline/chronoline/cmd/chronoline/internal/config"
	"github.com/chronoline/chronoline/pkg/annotation"
	"github.com/chronoline/chronoline/pkg/cli"
	"github.com/chronoline/chronoline/pkg/metric"
	"github.com/chronoline/chronoline/pkg/parser"
	"github.com/chronoline/chronoline/pkg/scoreboard"
	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

var (
	evalMetric     string
	evalReference  string
	evalHypothesis string
	evalUEM        string
	evalManifest   string
	evalRun        string
	evalJQ         string
	evalJSON       bool
)

// metricFactories maps the metric names accepted on the command line to
// their constructors.
var metricFactories = map[string]func() metric.Metric{
	"detection":      func() metric.Metric { return metric.NewDetectionErrorRate() },
	"identification": func() metric.Metric { return metric.NewIdentificationErrorRate() },
	"diarization":    func() metric.Metric { return metric.NewDiarizationErrorRate() },
	"purity":         func() metric.Metric { return metric.NewDiarizationPurity() },
	"coverage":       func() metric.Metric { return metric.NewDiarizationCoverage() },
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score hypothesis annotations against references",
	Long: `Score hypothesis annotations against reference annotations.

Documents are matched by URI and modality. A reference document with no
hypothesis counterpart is scored against an empty hypothesis. When a UEM
file is given, both sides are cropped to its regions first.

With --run, per-document components are persisted so later invocations
can resume the accumulation: --run new starts a run and prints its id,
--run <id> folds the new documents into an existing run. Re-scoring a
document replaces its previous entry.

Examples:
  chronoline eval -m diarization -r ref.mdtm -y hyp.mdtm
  chronoline eval -m detection -f corpus.yaml --json
  chronoline eval -r ref.mdtm -y hyp.mdtm -u eval.uem --run new
  chronoline eval -f more.yaml --run 3f1c...
  chronoline eval -f corpus.yaml --jq '.documents[] | {uri, rate}'`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalMetric, "metric", "m", "", "metric to compute (default from config)")
	evalCmd.Flags().StringVarP(&evalReference, "reference", "r", "", "reference MDTM file")
	evalCmd.Flags().StringVarP(&evalHypothesis, "hypothesis", "y", "", "hypothesis MDTM file")
	evalCmd.Flags().StringVarP(&evalUEM, "uem", "u", "", "UEM file with evaluation regions")
	evalCmd.Flags().StringVarP(&evalManifest, "manifest", "f", "", "manifest listing document pairs")
	evalCmd.Flags().StringVar(&evalRun, "run", "", `accumulation run: "new" or an existing run id`)
	evalCmd.Flags().StringVar(&evalJQ, "jq", "", "jq filter applied to the JSON report")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "emit the report as JSON")

	rootCmd.AddCommand(evalCmd)
}

// scoredDoc is one reference/hypothesis document pair ready to score.
type scoredDoc struct {
	ref *annotation.Annotation
	hyp *annotation.Annotation
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	name := evalMetric
	if name == "" {
		name = cfg.DefaultMetric
	}
	m, err := newMetric(name)
	if err != nil {
		return err
	}

	pairs, err := evalPairList()
	if err != nil {
		return err
	}
	var docs []scoredDoc
	for _, p := range pairs {
		d, err := loadDocuments(p)
		if err != nil {
			return err
		}
		docs = append(docs, d...)
	}
	if len(docs) == 0 {
		return errors.New("no reference documents found")
	}

	var (
		store *scoreboard.Store
		run   scoreboard.Run
	)
	if evalRun != "" {
		store, err = scoreboard.Open(scoreboard.Options{Dir: cfg.ScoreboardDir})
		if err != nil {
			return err
		}
		defer store.Close()

		if evalRun == "new" {
			run, err = store.Begin(m.Name())
		} else {
			run, err = store.Resume(evalRun)
		}
		if err != nil {
			return err
		}
		if run.Metric != m.Name() {
			return fmt.Errorf("run %s accumulates %q, not %q", run.ID, run.Metric, m.Name())
		}

		// Restore earlier documents, except those about to be
		// re-scored: their fresh entry replaces the stored one.
		fresh := make(map[string]bool, len(docs))
		for _, d := range docs {
			fresh[d.ref.URI()] = true
		}
		entries, err := store.Entries(run.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if fresh[e.URI] {
				continue
			}
			m.Add(e.URI, e.Components)
		}
	}

	for _, d := range docs {
		rate, err := m.Compute(d.ref, d.hyp)
		if err != nil {
			return fmt.Errorf("score %s: %w", d.ref.URI(), err)
		}
		slog.Debug("scored document", "uri", d.ref.URI(), "rate", rate)
		if store != nil {
			results := m.Results()
			last := results[len(results)-1]
			err := store.Record(run.ID, scoreboard.Entry{
				URI:        last.URI,
				Rate:       last.Rate,
				Components: last.Components,
			})
			if err != nil {
				return err
			}
		}
	}

	rep := buildReport(m, run.ID)
	return writeReport(cmd.OutOrStdout(), m.ComponentNames(), rep)
}

func newMetric(name string) (metric.Metric, error) {
	factory, ok := metricFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q (have: %s)", name, strings.Join(metricNames(), ", "))
	}
	return factory(), nil
}

// metricForRun maps a stored run's full metric name back to a fresh
// accumulator.
func metricForRun(fullName string) (metric.Metric, error) {
	for _, factory := range metricFactories {
		if m := factory(); m.Name() == fullName {
			return m, nil
		}
	}
	return nil, fmt.Errorf("no metric named %q", fullName)
}

func metricNames() []string {
	names := make([]string, 0, len(metricFactories))
	for name := range metricFactories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func evalPairList() ([]config.Pair, error) {
	switch {
	case evalManifest != "":
		if evalReference != "" || evalHypothesis != "" || evalUEM != "" {
			return nil, errors.New("--manifest cannot be combined with --reference, --hypothesis or --uem")
		}
		man, err := config.LoadManifest(evalManifest)
		if err != nil {
			return nil, err
		}
		return man.Pairs, nil
	case evalReference != "" && evalHypothesis != "":
		return []config.Pair{{Reference: evalReference, Hypothesis: evalHypothesis, UEM: evalUEM}}, nil
	default:
		return nil, errors.New("need --reference and --hypothesis, or --manifest")
	}
}

// loadDocuments reads one pair of MDTM files and matches their documents
// by URI and modality, cropping both sides to the pair's UEM regions
// when present.
func loadDocuments(p config.Pair) ([]scoredDoc, error) {
	refs, err := readMDTMFile(p.Reference)
	if err != nil {
		return nil, err
	}
	hyps, err := readMDTMFile(p.Hypothesis)
	if err != nil {
		return nil, err
	}

	var uems map[string]*timeline.Timeline
	if p.UEM != "" {
		tls, err := readUEMFile(p.UEM)
		if err != nil {
			return nil, err
		}
		uems = make(map[string]*timeline.Timeline, len(tls))
		for _, tl := range tls {
			uems[tl.URI()] = tl
		}
	}

	type key struct{ uri, modality string }
	index := make(map[key]*annotation.Annotation, len(hyps))
	for _, h := range hyps {
		index[key{h.URI(), h.Modality()}] = h
	}

	docs := make([]scoredDoc, 0, len(refs))
	for _, ref := range refs {
		hyp, ok := index[key{ref.URI(), ref.Modality()}]
		if !ok {
			slog.Warn("document has no hypothesis, scoring against empty",
				"uri", ref.URI(), "modality", ref.Modality())
			hyp = annotation.New(ref.URI(), ref.Modality())
		}
		if uem, ok := uems[ref.URI()]; ok {
			if ref, err = ref.CropTimeline(uem, segment.CropIntersection); err != nil {
				return nil, err
			}
			if hyp, err = hyp.CropTimeline(uem, segment.CropIntersection); err != nil {
				return nil, err
			}
		}
		docs = append(docs, scoredDoc{ref: ref, hyp: hyp})
	}
	return docs, nil
}

func readMDTMFile(path string) ([]*annotation.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	anns, err := parser.ReadMDTM(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anns, nil
}

func readUEMFile(path string) ([]*timeline.Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tls, err := parser.ReadUEM(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tls, nil
}

// evalReport is the JSON shape of an evaluation report.
type evalReport struct {
	Metric     string            `json:"metric"`
	Run        string            `json:"run,omitempty"`
	Documents  []evalDocument    `json:"documents"`
	Global     float64           `json:"global"`
	Components metric.Components `json:"components"`
	Confidence *evalConfidence   `json:"confidence,omitempty"`
}

type evalDocument struct {
	URI        string            `json:"uri"`
	Rate       float64           `json:"rate"`
	Components metric.Components `json:"components"`
}

type evalConfidence struct {
	Alpha float64 `json:"alpha"`
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

func buildReport(m metric.Metric, runID string) evalReport {
	rep := evalReport{
		Metric:     m.Name(),
		Run:        runID,
		Global:     m.Global(),
		Components: m.Components(),
	}
	for _, r := range m.Results() {
		rep.Documents = append(rep.Documents, evalDocument{
			URI:        r.URI,
			Rate:       r.Rate,
			Components: r.Components,
		})
	}
	mean, lower, upper, err := m.ConfidenceInterval(metric.DefaultAlpha)
	if err == nil {
		rep.Confidence = &evalConfidence{
			Alpha: metric.DefaultAlpha,
			Mean:  mean,
			Lower: lower,
			Upper: upper,
		}
	}
	return rep
}

func writeReport(w io.Writer, componentNames []string, rep evalReport) error {
	switch {
	case evalJQ != "":
		return filterReport(w, evalJQ, rep)
	case evalJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	default:
		renderReport(w, componentNames, rep)
		return nil
	}
}

// filterReport pipes the JSON report through a jq filter and prints each
// produced value on its own line.
func filterReport(w io.Writer, expr string, rep evalReport) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse jq filter: %w", err)
	}

	// gojq operates on generic JSON values, not structs.
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq filter: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func renderReport(w io.Writer, componentNames []string, rep evalReport) {
	s := cli.NewStyles(cli.DefaultTheme)

	tbl := cli.Table{Headers: append([]string{"document", "rate"}, componentNames...)}
	for _, d := range rep.Documents {
		cells := []string{d.URI, fmt.Sprintf("%.4f", d.Rate)}
		for _, n := range componentNames {
			cells = append(cells, fmt.Sprintf("%.2f", d.Components[n]))
		}
		tbl.Add(cells...)
	}

	fmt.Fprintln(w, s.Title.Render(rep.Metric))
	fmt.Fprintln(w, s.Table(tbl))
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.KeyValue("global", fmt.Sprintf("%.4f", rep.Global), 10))
	if c := rep.Confidence; c != nil {
		fmt.Fprintln(w, s.KeyValue(fmt.Sprintf("%g%% CI", c.Alpha*100),
			fmt.Sprintf("%.4f .. %.4f", c.Lower, c.Upper), 10))
	}
	if rep.Run != "" {
		fmt.Fprintln(w, s.KeyValue("run", rep.Run, 10))
	}
}
