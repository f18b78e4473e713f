package reconcile

import "strings"

// Microarch is one simulated core configuration and the ISA and ABI its
// builds use. The ISA spec may carry a "(c)" marker meaning the compressed
// extension is optional and both variants are measured.
type Microarch struct {
	Name string
	ISA  string
	ABI  string
}

// Microarchs is the fixed table of measured cores, in emission order.
var Microarchs = []Microarch{
	{"cv32e20_im0", "rv32i(c)_zicsr", "ilp32"},
	{"cv32e20_im1", "rv32im(c)_zicsr", "ilp32"},
	{"cv32e20_im2", "rv32im(c)_zicsr", "ilp32"},
	{"cv32e20_im3", "rv32im(c)_zicsr", "ilp32"},

	{"cv32e20_em0", "rv32e(c)_zicsr", "ilp32e"},
	{"cv32e20_em1", "rv32em(c)_zicsr", "ilp32e"},
	{"cv32e20_em2", "rv32em(c)_zicsr", "ilp32e"},
	{"cv32e20_em3", "rv32em(c)_zicsr", "ilp32e"},

	{"cv32e40x_im0", "rv32i(c)_zicsr", "ilp32"},
	{"cv32e40x_im1", "rv32i(c)_zicsr_zmmul", "ilp32"},
	{"cv32e40x_im2", "rv32im(c)_zicsr", "ilp32"},

	{"cv32e40x_em0", "rv32e(c)_zicsr", "ilp32e"},
	{"cv32e40x_em1", "rv32e(c)_zicsr_zmmul", "ilp32e"},
	{"cv32e40x_em2", "rv32em(c)_zicsr", "ilp32e"},

	{"cv32e40px", "rv32im(c)_zicsr", "ilp32"},
	{"cv32e40px_fpu", "rv32imf(c)_zicsr", "ilp32f"},
	{"cv32e40px_corev_pulp", "rv32im(c)_zicsr_xpulp", "ilp32f"},
	{"cv32e40px_corev_pulp_fpu", "rv32imf(c)_zicsr_xpulp", "ilp32f"},

	{"cv32e40p", "rv32im(c)_zicsr", "ilp32"},
	{"cv32e40p_corev_pulp", "rv32im(c)_zicsr_xpulp", "ilp32"},
}

// HasFPU reports whether the core carries a floating point unit. The table
// encodes it in the name.
func (m Microarch) HasFPU() bool {
	return strings.Contains(strings.ToLower(m.Name), "fpu")
}

// ValidFor reports whether measuring the given arithmetic type on this core
// is meaningful. Fixed point and double builds are skipped on FPU cores.
func (m Microarch) ValidFor(dtype string) bool {
	if dtype == "fixedpt" || dtype == "double" {
		return !m.HasFPU()
	}
	return true
}

// ExpandISA resolves a "(c)" marker into the uncompressed and compressed
// variants, preserving any suffix after the marker.
func ExpandISA(isa string) []string {
	if !strings.Contains(isa, "(c)") {
		return []string{isa}
	}

	parts := strings.SplitN(isa, "(c)", 2)
	base, suffix := parts[0], parts[1]
	return []string{base + suffix, base + "c" + suffix}
}

// Compiler paths for the two toolchains the simulator images ship.
const (
	corevToolchain = "/opt/tools/corev"
	riscvToolchain = "/opt/tools/riscv"
)

// CompilerFor picks the toolchain by ISA: CORE-V extensions need the corev
// build, everything else uses the stock riscv one.
func CompilerFor(isa string) string {
	if strings.Contains(strings.ToLower(isa), "xpulp") {
		return corevToolchain
	}
	return riscvToolchain
}
