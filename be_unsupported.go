//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// The 68000 core's fast fetch path uses unsafe.Pointer uint16/uint32 loads
// with an explicit byte reversal, which assumes a little-endian host.
var _ = "Intuition68K requires a little-endian host architecture" + 1
