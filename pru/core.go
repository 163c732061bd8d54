package pru

import (
	"strconv"
	"strings"
)

// Core is a PRU instruction set revision.
type Core int

//go:generate go tool stringer -linecomment -type=Core

const (
	CORE_V0 = Core(0) // V0
	CORE_V1 = Core(1) // V1
	CORE_V2 = Core(2) // V2
	CORE_V3 = Core(3) // V3

	CORE_OLDEST  = CORE_V0
	CORE_NEWEST  = CORE_V3
	CORE_DEFAULT = CORE_V2
)

const (
	// DEFAULT_ORIGIN is the first code address when no .origin is given.
	DEFAULT_ORIGIN = uint32(0)
	// LEGACY_ORIGIN is the first code address on V0 cores, following
	// the bootstrap jump at BOOTSTRAP_ADDRESS.
	LEGACY_ORIGIN     = uint32(1)
	BOOTSTRAP_ADDRESS = uint32(0)
)

// Valid returns true for a known core revision.
func (core Core) Valid() bool {
	return core >= CORE_OLDEST && core <= CORE_NEWEST
}

// Origin returns the default origin for the core revision.
func (core Core) Origin() uint32 {
	if core == CORE_V0 {
		return LEGACY_ORIGIN
	}
	return DEFAULT_ORIGIN
}

// HasBootstrap is true when the core needs a jump to the entry point
// at BOOTSTRAP_ADDRESS.
func (core Core) HasBootstrap() bool {
	return core == CORE_V0
}

// ParseCore parses "V2", "v2" or "2".
func ParseCore(text string) (core Core, err error) {
	text = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "v")
	value, err := strconv.Atoi(text)
	if err != nil || !Core(value).Valid() {
		err = ErrCoreUnknown(text)
		return
	}
	core = Core(value)
	return
}
