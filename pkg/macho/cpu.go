package macho

import "github.com/blacktop/go-macho/types"

// A Cpu is a Mach-O cpu type.
type Cpu uint32

const (
	cpuArch64   = 0x01000000 // 64 bit ABI
	cpuArch6432 = 0x02000000 // ABI for 64-bit hardware with 32-bit types; LP32
)

const (
	Cpu386     Cpu = 7
	CpuAmd64   Cpu = Cpu(types.CPUAmd64)
	CpuArm     Cpu = 12
	CpuArm64   Cpu = Cpu(types.CPUArm64)
	CpuArm6432 Cpu = CpuArm | cpuArch6432
	CpuPpc     Cpu = 18
	CpuPpc64   Cpu = CpuPpc | cpuArch64
)

var cpuStrings = []intName{
	{uint32(Cpu386), "i386"},
	{uint32(CpuAmd64), "x86_64"},
	{uint32(CpuArm), "arm"},
	{uint32(CpuArm64), "arm64"},
	{uint32(CpuArm6432), "arm64_32"},
	{uint32(CpuPpc), "ppc"},
	{uint32(CpuPpc64), "ppc64"},
}

func (i Cpu) String() string { return stringName(uint32(i), cpuStrings) }

// SupportedCpus are the architectures a dylib can be inserted into.
var SupportedCpus = []Cpu{CpuAmd64, CpuArm64}

// Supported reports whether i is in SupportedCpus.
func (i Cpu) Supported() bool {
	for _, c := range SupportedCpus {
		if c == i {
			return true
		}
	}
	return false
}
