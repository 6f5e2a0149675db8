package sampling

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// RandFactory returns the generator for one task of one stream. Streams
// usually identify a stand, tasks a stratum within it. Each call must
// return a fresh generator that is used by a single goroutine.
type RandFactory func(stream, task int64) *rand.Rand

// SeededRand derives reproducible, well-separated seeds for every
// (stream, task) pair from one base seed.
func SeededRand(seed int64) RandFactory {
	return func(stream, task int64) *rand.Rand {
		s := mix(uint64(seed) ^ mix(uint64(stream)+0x9e3779b97f4a7c15) ^ mix(uint64(task)+0xbf58476d1ce4e5b9))
		return rand.New(rand.NewSource(int64(s)))
	}
}

var entropyCounter atomic.Uint64

// EntropyRand seeds every generator from the clock and a process-wide
// counter. Output differs between runs.
func EntropyRand() RandFactory {
	return func(stream, task int64) *rand.Rand {
		s := mix(uint64(time.Now().UnixNano()) ^ mix(entropyCounter.Add(1)) ^ mix(uint64(stream)<<32|uint64(task)))
		return rand.New(rand.NewSource(int64(s)))
	}
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
