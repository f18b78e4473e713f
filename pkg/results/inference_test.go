package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeResult(t *testing.T, root, tpgDir, name, content string) {
	t.Helper()

	resultsDir := filepath.Join(root, "training_results", tpgDir, "inference", "results")
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(resultsDir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCanonicalizeTPGDir(t *testing.T) {
	Convey("While canonicalizing a TPG directory name", t, func() {
		Convey("The seed token is removed and reported", func() {
			canonical, seed, err := CanonicalizeTPGDir(
				"useInstrTrig-True_useInstrLogExp-False_seed-3_instrType-double")
			So(err, ShouldBeNil)
			So(seed, ShouldEqual, 3)
			So(canonical, ShouldEqual, "useInstrTrig-True_useInstrLogExp-False_instrType-double")
		})

		Convey("Different seeds of the same variant share a canonical name", func() {
			first, _, err := CanonicalizeTPGDir("useInstrTrig-True_seed-0_instrType-float")
			So(err, ShouldBeNil)
			second, _, err := CanonicalizeTPGDir("useInstrTrig-True_seed-7_instrType-float")
			So(err, ShouldBeNil)
			So(first, ShouldEqual, second)
		})

		Convey("A name without a seed token is an error", func() {
			_, _, err := CanonicalizeTPGDir("useInstrTrig-True_instrType-double")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNickname(t *testing.T) {
	Convey("While deriving TPG nicknames", t, func() {
		Convey("Trig and LogExp flags use the trig/logexp form", func() {
			nickname := Nickname(
				"useInstrTrig-True_useInstrLogExp-False_useInstrExpensiveArithmetic-True_instrType-double")
			So(nickname, ShouldEqual, "trig1_logexp0_expari1-double")
		})

		Convey("Log2Exp2 and Zmmul variants use the l2e2/zmu form", func() {
			nickname := Nickname(
				"useInstrLog2Exp2-True_useInstrZmmul-False_useInstrExpensiveArithmetic-False_instrType-fixedpt")
			So(nickname, ShouldEqual, "l2e21_zmu0_expari0-fixedpt")
		})

		Convey("An unknown arithmetic type reads unk", func() {
			So(Nickname("useInstrTrig-False_useInstrLogExp-False"), ShouldEndWith, "-unk")
		})
	})
}

func TestCollapseXpulp(t *testing.T) {
	Convey("While collapsing CORE-V extension lists", t, func() {
		So(CollapseXpulp("rv32imc_xcvalu_xcvbi_xcvbitmanip_xcvhwlp_xcvmac_xcvmem_xcvsimd"),
			ShouldEqual, "rv32imc_xpulp")
		So(CollapseXpulp("rv32imfc"), ShouldEqual, "rv32imfc")
	})
}

func TestInferenceAggregator(t *testing.T) {
	Convey("While aggregating inference timing documents", t, func() {
		root := t.TempDir()

		seedZero := "useInstrTrig-True_useInstrLogExp-False_seed-0_instrType-double"
		seedOne := "useInstrTrig-True_useInstrLogExp-False_seed-1_instrType-double"

		writeResult(t, root, seedZero, "cv32e40p_rv32imc.json",
			`{"simulator": "cv32e40p", "isa": "rv32imc", "abi": "ilp32", "dtype": "double",
			  "tpg_mean_latency": 100.0, "tpg_stddev_latency": 4.0}`)
		writeResult(t, root, seedOne, "cv32e40p_rv32imc.json",
			`{"simulator": "cv32e40p", "isa": "rv32imc", "abi": "ilp32", "dtype": "double",
			  "tpg_mean_latency": 110.0, "tpg_stddev_latency": 6.0}`)
		writeResult(t, root, seedZero, "broken.json", `{"simulator": "cv32e40p"}`)

		aggregator := NewInferenceAggregator()
		So(aggregator.AddResultsUnder(root), ShouldBeNil)

		Convey("Seeds of one variant group under one architecture row", func() {
			buffer := &bytes.Buffer{}
			So(aggregator.WriteSummaryCSV(buffer), ShouldBeNil)

			lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
			So(len(lines), ShouldEqual, 2)
			So(lines[0], ShouldEqual, "tpg_nickname,uarch,isa,abi,dtype,mean_latency_avg,mean_latency_stddev")
			So(lines[1], ShouldEqual, "trig1_logexp0_expari0-double,cv32e40p,rv32imc,ilp32,double,105,5")
		})

		Convey("The per-seed table keeps one row per seed", func() {
			buffer := &bytes.Buffer{}
			So(aggregator.WritePerSeedCSV(buffer), ShouldBeNil)

			lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
			So(len(lines), ShouldEqual, 3)
			So(lines[1], ShouldContainSubstring, ",0,100,4")
			So(lines[2], ShouldContainSubstring, ",1,110,6")
		})

		Convey("A document missing required keys is skipped", func() {
			_, err := LoadResult(filepath.Join(root, "training_results", seedZero,
				"inference", "results", "broken.json"))
			So(err, ShouldNotBeNil)
		})
	})
}
