package results

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// The CORE-V extension list collapses back to its shorthand in reports.
const xpulpExtensions = "_xcvalu_xcvbi_xcvbitmanip_xcvhwlp_xcvmac_xcvmem_xcvsimd"

var (
	seedToken           = regexp.MustCompile(`_seed-(\d+)_`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
	instrTypeToken      = regexp.MustCompile(`instrType-(double|float|fixedpt)`)
)

// InferenceResult is the timing document one simulator run produces for one
// TPG on one architecture.
type InferenceResult struct {
	Simulator     string  `json:"simulator"`
	ISA           string  `json:"isa"`
	ABI           string  `json:"abi"`
	DType         string  `json:"dtype"`
	MeanLatency   float64 `json:"tpg_mean_latency"`
	StddevLatency float64 `json:"tpg_stddev_latency"`
}

// seedResult is one seed's timing within an architecture group.
type seedResult struct {
	seed   int
	mean   float64
	stddev float64
}

// archGroup collects the per-seed timings of one TPG variant on one
// (microarchitecture, ISA) pair.
type archGroup struct {
	simulator string
	isa       string
	abi       string
	dtype     string
	nickname  string
	seeds     []seedResult
}

// InferenceAggregator groups simulator timing documents by seed-less TPG
// variant and architecture, then renders per-seed and averaged tables.
type InferenceAggregator struct {
	// canonical TPG name -> "uarch|isa" -> group
	groups map[string]map[string]*archGroup
}

// NewInferenceAggregator returns an empty aggregator.
func NewInferenceAggregator() *InferenceAggregator {
	return &InferenceAggregator{groups: map[string]map[string]*archGroup{}}
}

// CanonicalizeTPGDir strips the seed token from a TPG directory name so runs
// of the same variant with different seeds group together. Adjacent
// underscores left by the removal collapse and edge underscores are trimmed.
func CanonicalizeTPGDir(name string) (canonical string, seed int, err error) {
	match := seedToken.FindStringSubmatch(name)
	if match == nil {
		return "", 0, errors.Errorf("no seed token in TPG directory name %q", name)
	}
	seed, err = strconv.Atoi(match[1])
	if err != nil {
		return "", 0, errors.Wrapf(err, "bad seed in TPG directory name %q", name)
	}

	canonical = seedToken.ReplaceAllString(name, "_")
	canonical = repeatedUnderscores.ReplaceAllString(canonical, "_")
	canonical = strings.Trim(canonical, "_")

	return canonical, seed, nil
}

// CollapseXpulp replaces the expanded CORE-V extension list in an ISA string
// with the _xpulp shorthand.
func CollapseXpulp(isa string) string {
	return strings.Replace(isa, xpulpExtensions, "_xpulp", 1)
}

// Nickname derives a compact label from a canonical TPG name. Variants using
// the Log2Exp2 or Zmmul flags get the l2e2/zmu form; the rest get the
// trig/logexp form.
func Nickname(canonical string) string {
	flag := func(name string) int {
		match := regexp.MustCompile(name + `-(True|False)`).FindStringSubmatch(canonical)
		if match != nil && match[1] == "True" {
			return 1
		}
		return 0
	}

	dtype := "unk"
	if match := instrTypeToken.FindStringSubmatch(canonical); match != nil {
		dtype = match[1]
	}

	if strings.Contains(canonical, "useInstrLog2Exp2-") || strings.Contains(canonical, "useInstrZmmul-") {
		return "l2e2" + strconv.Itoa(flag("useInstrLog2Exp2")) +
			"_zmu" + strconv.Itoa(flag("useInstrZmmul")) +
			"_expari" + strconv.Itoa(flag("useInstrExpensiveArithmetic")) +
			"-" + dtype
	}

	return "trig" + strconv.Itoa(flag("useInstrTrig")) +
		"_logexp" + strconv.Itoa(flag("useInstrLogExp")) +
		"_expari" + strconv.Itoa(flag("useInstrExpensiveArithmetic")) +
		"-" + dtype
}

// LoadResult reads and validates one timing document. Validation failures
// are warnings; the caller skips the file and keeps aggregating.
func LoadResult(filePath string) (*InferenceResult, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read result %q", filePath)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrapf(err, "could not parse result %q", filePath)
	}
	for _, required := range []string{"simulator", "isa", "abi", "dtype", "tpg_mean_latency", "tpg_stddev_latency"} {
		if _, ok := fields[required]; !ok {
			return nil, errors.Errorf("result %q is missing required key %q", filePath, required)
		}
	}

	result := &InferenceResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, errors.Wrapf(err, "could not decode result %q", filePath)
	}

	result.ISA = CollapseXpulp(result.ISA)
	return result, nil
}

// AddResultFile folds one timing document into the aggregator. The owning
// TPG directory is the third ancestor of the result file, per the
// <tpg>/inference/results/<file>.json layout.
func (a *InferenceAggregator) AddResultFile(filePath string) {
	result, err := LoadResult(filePath)
	if err != nil {
		logrus.Warnf("Skipping inference result: %v", err)
		return
	}

	tpgDir := filepath.Base(filepath.Dir(filepath.Dir(filepath.Dir(filePath))))
	canonical, seed, err := CanonicalizeTPGDir(tpgDir)
	if err != nil {
		logrus.Warnf("Skipping inference result %q: %v", filePath, err)
		return
	}

	archMap, ok := a.groups[canonical]
	if !ok {
		archMap = map[string]*archGroup{}
		a.groups[canonical] = archMap
	}

	key := result.Simulator + "|" + result.ISA
	group, ok := archMap[key]
	if !ok {
		group = &archGroup{
			simulator: result.Simulator,
			isa:       result.ISA,
			abi:       result.ABI,
			dtype:     result.DType,
			nickname:  Nickname(canonical),
		}
		archMap[key] = group
	}

	group.seeds = append(group.seeds, seedResult{seed: seed, mean: result.MeanLatency, stddev: result.StddevLatency})
}

// AddResultsUnder walks <root>/training_results/*/inference/results/*.json
// and folds every timing document found.
func (a *InferenceAggregator) AddResultsUnder(root string) error {
	resultPaths, err := FindInferenceFiles(root, "results")
	if err != nil {
		return err
	}
	for _, resultPath := range resultPaths {
		a.AddResultFile(resultPath)
	}
	return nil
}

// FindInferenceFiles lists the JSON files under every TPG directory's
// inference/<kind> subtree, kind being "configs" or "results".
func FindInferenceFiles(root, kind string) ([]string, error) {
	if kind != "configs" && kind != "results" {
		return nil, errors.Errorf("unrecognized inference folder kind %q", kind)
	}

	base := filepath.Join(root, "training_results")
	tpgDirs, err := os.ReadDir(base)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list training results under %q", root)
	}

	files := []string{}
	for _, tpgDir := range tpgDirs {
		if !tpgDir.IsDir() {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(base, tpgDir.Name(), "inference", kind, "*.json"))
		if err != nil {
			return nil, errors.Wrap(err, "could not glob inference files")
		}
		files = append(files, matches...)
	}

	sort.Strings(files)
	return files, nil
}

// sortedGroups walks the aggregation in deterministic order.
func (a *InferenceAggregator) sortedGroups(visit func(canonical string, group *archGroup)) {
	canonicals := make([]string, 0, len(a.groups))
	for canonical := range a.groups {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		archMap := a.groups[canonical]
		keys := make([]string, 0, len(archMap))
		for key := range archMap {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			visit(canonical, archMap[key])
		}
	}
}

// WritePerSeedCSV renders one row per (TPG variant, architecture, seed).
func (a *InferenceAggregator) WritePerSeedCSV(output io.Writer) error {
	writer := csv.NewWriter(output)
	header := []string{"tpg_nickname", "uarch", "isa", "abi", "dtype", "seed", "tpg_mean_latency", "tpg_stddev_latency"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "could not write per-seed header")
	}

	var writeErr error
	a.sortedGroups(func(canonical string, group *archGroup) {
		for _, seed := range group.seeds {
			record := []string{
				group.nickname, group.simulator, group.isa, group.abi, group.dtype,
				strconv.Itoa(seed.seed),
				strconv.FormatFloat(seed.mean, 'g', -1, 64),
				strconv.FormatFloat(seed.stddev, 'g', -1, 64),
			}
			if err := writer.Write(record); err != nil && writeErr == nil {
				writeErr = errors.Wrap(err, "could not write per-seed row")
			}
		}
	})
	if writeErr != nil {
		return writeErr
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "could not flush per-seed table")
}

// WriteSummaryCSV renders one row per (TPG variant, architecture) averaging
// the per-seed mean latencies, and the per-seed stddevs alongside, rounded
// to two decimal places.
func (a *InferenceAggregator) WriteSummaryCSV(output io.Writer) error {
	writer := csv.NewWriter(output)
	header := []string{"tpg_nickname", "uarch", "isa", "abi", "dtype", "mean_latency_avg", "mean_latency_stddev"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "could not write summary header")
	}

	var writeErr error
	a.sortedGroups(func(canonical string, group *archGroup) {
		if len(group.seeds) == 0 {
			return
		}

		meanSum := decimal.Zero
		stddevSum := decimal.Zero
		for _, seed := range group.seeds {
			meanSum = meanSum.Add(decimal.NewFromFloat(seed.mean))
			stddevSum = stddevSum.Add(decimal.NewFromFloat(seed.stddev))
		}
		count := decimal.NewFromInt(int64(len(group.seeds)))
		meanAvg := meanSum.Div(count).Round(2)
		stddevAvg := stddevSum.Div(count).Round(2)

		record := []string{
			group.nickname, group.simulator, group.isa, group.abi, group.dtype,
			meanAvg.String(), stddevAvg.String(),
		}
		if err := writer.Write(record); err != nil && writeErr == nil {
			writeErr = errors.Wrap(err, "could not write summary row")
		}
	})
	if writeErr != nil {
		return writeErr
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "could not flush summary table")
}

// SaveCSVs writes both tables under the output directory.
func (a *InferenceAggregator) SaveCSVs(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "could not create output directory %q", outputDir)
	}

	perSeed, err := os.Create(filepath.Join(outputDir, "aggregated_tpg_results.csv"))
	if err != nil {
		return errors.Wrap(err, "could not create per-seed table")
	}
	defer perSeed.Close()
	if err := a.WritePerSeedCSV(perSeed); err != nil {
		return err
	}

	summary, err := os.Create(filepath.Join(outputDir, "aggregated_averaged_tpg_results.csv"))
	if err != nil {
		return errors.Wrap(err, "could not create summary table")
	}
	defer summary.Close()
	return a.WriteSummaryCSV(summary)
}
