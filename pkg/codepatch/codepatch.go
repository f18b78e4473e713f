// Package codepatch retargets generated TPG inference sources from the code
// generator's default double arithmetic to the experiment's configured type.
// The rules lean on the generator's fixed naming contract (bestProgram,
// inferenceTPG, P<n>, T<n>Scores); renames upstream break them silently.
package codepatch

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/sweep"
)

var (
	// Declaration and definition sites of the generator's contract names,
	// plus the local score variables its emitted functions use.
	declarationSite = regexp.MustCompile(`\bdouble(\s+\*?)(bestProgram\b|inferenceTPG\b|P\d+\b|T\d+Scores\b|\w*[Ss]core\w*\b)`)

	// Pointer parameter types in the contract signatures (double* results).
	pointerSite = regexp.MustCompile(`\bdouble(\s*\*)`)

	// Every default-type token, for the program body full replacement.
	defaultTypeToken = regexp.MustCompile(`\bdouble\b`)

	// Storage declarations the generator emits for its free inputs. Their
	// storage differs per target, so the default-type externs must go.
	externFreeInput = regexp.MustCompile(`(?m)^[ \t]*extern[ \t]+double[ \t]+in\d+\b[^;\n]*;[ \t]*\n?`)

	// Running-best seeds and their guard, valid only for floating targets.
	sentinelInit = regexp.MustCompile(`=\s*(?:NAN|-INFINITY)\s*;`)
	indexedArray = regexp.MustCompile(`([A-Za-z_]\w*)\s*\[`)
	isnanGuard   = regexp.MustCompile(`\bisnan\([^)]*\)\s*\|\|\s*`)
)

// Engine applies the retargeting rules for one arithmetic type.
type Engine struct {
	target sweep.DataType
}

// New validates the type tag and returns an engine for it. An unrecognized
// tag is fatal for the unit's patch step; callers keep the batch going.
func New(tag string) (*Engine, error) {
	target, err := sweep.ParseDataType(tag)
	if err != nil {
		return nil, errors.Wrap(err, "cannot patch generated sources")
	}
	return &Engine{target: target}, nil
}

// cType is the C spelling of the target type.
func (e *Engine) cType() string {
	return string(e.target)
}

// PatchUnit patches the generated set of one stem under dir: the graph
// source, the program body and both headers. A missing file is a warning,
// never an abort. Re-running over already patched output changes nothing.
func (e *Engine) PatchUnit(dir, stem string) error {
	type edit struct {
		name      string
		transform func(string) string
	}

	edits := []edit{
		{stem + ".c", e.patchGraphSource},
		{stem + ".h", e.patchHeader},
		{stem + "_program.c", e.patchProgramBody},
		{stem + "_program.h", e.patchHeader},
	}

	for _, fileEdit := range edits {
		filePath := filepath.Join(dir, fileEdit.name)
		if err := patchFile(filePath, fileEdit.transform); err != nil {
			return err
		}
	}

	return nil
}

// patchFile applies one transform in place, skipping absent files and
// leaving untouched files unwritten.
func patchFile(filePath string, transform func(string) string) error {
	raw, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		logrus.Warnf("Generated file %q is missing, skipping", filePath)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not read generated file %q", filePath)
	}

	patched := transform(string(raw))
	if patched == string(raw) {
		return nil
	}

	if err := os.WriteFile(filePath, []byte(patched), 0644); err != nil {
		return errors.Wrapf(err, "could not write patched file %q", filePath)
	}
	return nil
}

// patchGraphSource substitutes the type at declaration sites and, for the
// integer target, rewrites the floating comparison idiom.
func (e *Engine) patchGraphSource(content string) string {
	content = e.substituteDeclarations(content)
	if e.target == sweep.Integer {
		content = replaceSentinels(content)
		content = isnanGuard.ReplaceAllString(content, "")
	}
	return content
}

// patchHeader substitutes declaration sites and makes sure the header is
// usable from C++ exactly once.
func (e *Engine) patchHeader(content string) string {
	return ensureLinkageGuards(e.substituteDeclarations(content))
}

// patchProgramBody replaces every default-type token, after dropping the
// free-input externs whose storage no longer matches.
func (e *Engine) patchProgramBody(content string) string {
	content = externFreeInput.ReplaceAllString(content, "")
	return defaultTypeToken.ReplaceAllString(content, e.cType())
}

func (e *Engine) substituteDeclarations(content string) string {
	content = declarationSite.ReplaceAllString(content, e.cType()+"$1$2")
	return pointerSite.ReplaceAllString(content, e.cType()+"$1")
}

// replaceSentinels rewrites each NaN or -Infinity running-best seed into a
// direct assignment from the first element of the array the comparison that
// follows actually indexes. Integers have neither NaN nor -Inf, so seeding
// with the first candidate keeps the running-best loop correct. The lookup
// never crosses the enclosing function's closing brace; a seed whose function
// indexes no array is left in place with a warning.
func replaceSentinels(content string) string {
	for {
		location := sentinelInit.FindStringIndex(content)
		if location == nil {
			return content
		}

		window := content[location[1]:]
		if end := strings.Index(window, "\n}"); end >= 0 {
			window = window[:end]
		}
		array := indexedArray.FindStringSubmatch(window)
		if array == nil {
			logrus.Warnf("No indexed array follows a sentinel initialization, leaving it in place")
			return content
		}

		content = content[:location[0]] + "= " + array[1] + "[0];" + content[location[1]:]
	}
}

// Linkage guard fragments inserted around header contents.
const (
	guardOpen  = "#ifdef __cplusplus\nextern \"C\" {\n#endif\n"
	guardClose = "#ifdef __cplusplus\n}\n#endif\n"
)

// ensureLinkageGuards wraps a header in extern "C" guards unless it already
// carries them.
func ensureLinkageGuards(content string) string {
	if strings.Contains(content, `extern "C"`) {
		return content
	}

	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return guardOpen + content + guardClose
}
