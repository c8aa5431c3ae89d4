// image_loader.go - Programme image loading (flat binary and Motorola S-record)

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition68K
License: GPLv3 or later
*/

/*
image_loader.go - Programme Image Loading

Loads a programme image into machine RAM before the processor starts.
Two formats are accepted:

  - Motorola S-record text: S1/S2/S3 data records carrying 16/24/32-bit
    addresses, S7/S8/S9 termination records carrying the entry point, and
    S0/S5/S6 header and count records, which are ignored. Every record's
    byte count and checksum are verified; a malformed record is reported
    with its line number.

  - Flat binary: the whole file copied verbatim to a caller-supplied load
    address, entry point at the first byte.

Detection is by content. A file whose first line is a structurally valid
S-record is parsed as S-record text; anything else loads as flat binary.

The 68000 fetches its initial SSP and PC from vectors 0 and 1 at reset,
so images that do not cover low memory would otherwise start at whatever
the bus returns there. SeedBootVectors fills either vector only when the
image has left it zero.
*/

package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Image formats reported in LoadedImage.Format.
const (
	IMAGE_FORMAT_BINARY = "binary"
	IMAGE_FORMAT_SREC   = "srec"
)

// LoadedImage describes what an image load placed in memory.
type LoadedImage struct {
	Format   string
	Entry    uint32 // Entry point: S7/S8/S9 address, or the load address
	HasEntry bool   // True only when the image itself named an entry point
	LowAddr  uint32 // Lowest byte written
	HighAddr uint32 // Highest byte written
	Bytes    uint32 // Total data bytes written
}

// LoadImageFile reads path and loads it into the bus. loadAddr is only
// used for flat binaries; S-records carry their own addresses.
func LoadImageFile(bus *MachineBus, path string, loadAddr uint32) (*LoadedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", path, err)
	}
	return LoadImageBytes(bus, data, loadAddr)
}

// LoadImageBytes detects the image format and loads it into the bus.
func LoadImageBytes(bus *MachineBus, data []byte, loadAddr uint32) (*LoadedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	var img *LoadedImage
	var err error
	if looksLikeSRecord(data) {
		img, err = loadSRecords(bus, data)
	} else {
		img, err = loadFlatBinary(bus, data, loadAddr)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"format": img.Format,
		"bytes":  img.Bytes,
		"low":    fmt.Sprintf("$%06X", img.LowAddr),
		"high":   fmt.Sprintf("$%06X", img.HighAddr),
		"entry":  fmt.Sprintf("$%06X", img.Entry),
	}).Debug("image loaded")

	return img, nil
}

// looksLikeSRecord reports whether the first line of data is a
// structurally plausible S-record. A flat binary that happens to begin
// with 'S' will not also have a record type digit followed by nothing
// but hex pairs, so content sniffing is reliable in practice.
func looksLikeSRecord(data []byte) bool {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	text := strings.TrimSpace(string(line))
	if len(text) < 10 || text[0] != 'S' {
		return false
	}
	if text[1] < '0' || text[1] > '9' {
		return false
	}
	_, err := hex.DecodeString(text[2:])
	return err == nil
}

// srecAddrBytes maps a record type digit to its address field width.
// A zero entry marks a type that carries no loadable payload here.
var srecAddrBytes = [10]int{
	2, // S0 header
	2, // S1 data, 16-bit address
	3, // S2 data, 24-bit address
	4, // S3 data, 32-bit address
	0, // S4 reserved
	2, // S5 record count
	3, // S6 record count
	4, // S7 entry, 32-bit address
	3, // S8 entry, 24-bit address
	2, // S9 entry, 16-bit address
}

func loadSRecords(bus *MachineBus, data []byte) (*LoadedImage, error) {
	img := &LoadedImage{
		Format:  IMAGE_FORMAT_SREC,
		LowAddr: 0xFFFFFFFF,
	}
	ramLimit := bus.RAMLimit()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] != 'S' || len(line) < 4 {
			return nil, fmt.Errorf("line %d: not an S-record", lineNo)
		}
		typ := int(line[1] - '0')
		if typ < 0 || typ > 9 || typ == 4 {
			return nil, fmt.Errorf("line %d: unknown record type S%c", lineNo, line[1])
		}

		fields, err := hex.DecodeString(line[2:])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad hex in record: %w", lineNo, err)
		}
		// fields[0] counts the address, data and checksum bytes after it
		if len(fields) < 2 || int(fields[0]) != len(fields)-1 {
			return nil, fmt.Errorf("line %d: record length %d does not match count %d",
				lineNo, len(fields)-1, fields[0])
		}

		var sum uint32
		for _, b := range fields[:len(fields)-1] {
			sum += uint32(b)
		}
		want := uint8(^sum)
		got := fields[len(fields)-1]
		if got != want {
			return nil, fmt.Errorf("line %d: checksum $%02X, expected $%02X", lineNo, got, want)
		}

		addrLen := srecAddrBytes[typ]
		if len(fields) < addrLen+2 {
			return nil, fmt.Errorf("line %d: record too short for S%d address", lineNo, typ)
		}
		var addr uint32
		for _, b := range fields[1 : 1+addrLen] {
			addr = addr<<8 | uint32(b)
		}

		switch typ {
		case 1, 2, 3:
			payload := fields[1+addrLen : len(fields)-1]
			if addr >= ramLimit || addr+uint32(len(payload)) > ramLimit {
				return nil, fmt.Errorf("line %d: record writes $%06X-$%06X beyond RAM top $%06X",
					lineNo, addr, addr+uint32(len(payload))-1, ramLimit)
			}
			for i, b := range payload {
				bus.Write8(addr+uint32(i), b)
			}
			if len(payload) > 0 {
				if addr < img.LowAddr {
					img.LowAddr = addr
				}
				if end := addr + uint32(len(payload)) - 1; end > img.HighAddr {
					img.HighAddr = end
				}
				img.Bytes += uint32(len(payload))
			}
		case 7, 8, 9:
			img.Entry = addr
			img.HasEntry = true
		}
		// S0, S5 and S6 carry no loadable payload
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading S-record text: %w", err)
	}

	if img.Bytes == 0 {
		return nil, fmt.Errorf("S-record image contains no data records")
	}
	return img, nil
}

func loadFlatBinary(bus *MachineBus, data []byte, loadAddr uint32) (*LoadedImage, error) {
	ramLimit := bus.RAMLimit()
	if loadAddr >= ramLimit {
		return nil, fmt.Errorf("load address $%06X is beyond RAM top $%06X", loadAddr, ramLimit)
	}
	if loadAddr+uint32(len(data)) > ramLimit {
		return nil, fmt.Errorf("image of %d bytes at $%06X runs beyond RAM top $%06X",
			len(data), loadAddr, ramLimit)
	}

	for i, b := range data {
		bus.Write8(loadAddr+uint32(i), b)
	}

	return &LoadedImage{
		Format:   IMAGE_FORMAT_BINARY,
		Entry:    loadAddr,
		LowAddr:  loadAddr,
		HighAddr: loadAddr + uint32(len(data)) - 1,
		Bytes:    uint32(len(data)),
	}, nil
}

// SeedBootVectors fills the reset vectors the image left empty, so a
// bare programme loaded away from low memory still boots: vector 0 gets
// the initial SSP and vector 1 the entry point. Vectors the image wrote
// are left alone.
func SeedBootVectors(bus *MachineBus, ssp, entry uint32) {
	if bus.Read32(0) == 0 {
		bus.Write32(0, ssp)
	}
	if bus.Read32(M68K_RESET_VECTOR) == 0 {
		bus.Write32(M68K_RESET_VECTOR, entry)
	}
}
