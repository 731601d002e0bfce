// Package rng derives independent, reproducible random streams from one seed.
//
// Each consumer (feature draws, label draws, the partitioner, every Monte Carlo
// batch) gets its own PCG source so that no generator state is ever shared and
// changing one consumer's draw count never shifts another's sequence.
package rng

import "math/rand/v2"

// Stream identifies a consumer of randomness.
type Stream uint64

// Stream constants. Values are part of the reproducibility contract.
const (
	StreamFeatures   Stream = 1
	StreamLabels     Stream = 2
	StreamSplit      Stream = 3
	StreamSimulation Stream = 4
)

// String returns the stream name for logs.
func (s Stream) String() string {
	switch s {
	case StreamFeatures:
		return "features"
	case StreamLabels:
		return "labels"
	case StreamSplit:
		return "split"
	case StreamSimulation:
		return "simulation"
	default:
		return "unknown"
	}
}

// New returns a PCG source for (seed, stream).
func New(seed uint64, stream Stream) *rand.PCG {
	return rand.NewPCG(mix(seed), mix(uint64(stream)))
}

// NewSub returns a PCG source for substream index within (seed, stream).
// Used to give every Monte Carlo batch its own generator.
func NewSub(seed uint64, stream Stream, index uint64) *rand.PCG {
	return rand.NewPCG(mix(seed^mix(index+1)), mix(uint64(stream)<<32|index))
}

// mix is the SplitMix64 finalizer; it spreads nearby integers across the state space.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
