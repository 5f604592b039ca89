// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Mach-O header data structures
// Originally at:
// http://developer.apple.com/mac/library/documentation/DeveloperTools/Conceptual/MachORuntime/Reference/reference.html (since deleted by Apply)
// Archived copy at:
// https://web.archive.org/web/20090819232456/http://developer.apple.com/documentation/DeveloperTools/Conceptual/MachORuntime/index.html
// For cloned PDF see:
// https://github.com/aidansteele/osx-abi-macho-file-format-reference

// Package macho contains the fixed-layout Mach-O and fat archive records
// needed to splice a dylib load command into a binary.
//
// Every record is a codec: Decode reads the fields at fixed offsets from a
// byte slice and Put writes them back. Nothing is ever cast from memory.
package macho

import (
	"math/bits"
	"strconv"
)

// SwapIf reverses the byte order of v when swap is set.
func SwapIf(v uint32, swap bool) uint32 {
	if swap {
		return bits.ReverseBytes32(v)
	}
	return v
}

type intName struct {
	i uint32
	s string
}

func stringName(i uint32, names []intName) string {
	for _, n := range names {
		if n.i == i {
			return n.s
		}
	}
	return strconv.FormatUint(uint64(i), 10)
}
