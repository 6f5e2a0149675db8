// Package sampling turns a polygon and a target density into candidate
// tree positions.
//
// A RadiusEstimator converts stratum statistics into a sampling radius; a
// Sampler then places points at roughly that spacing inside the polygon.
// The canonical pair is HexPacking with HexGrid: a hexagonal lattice whose
// cells each receive one point jittered inside the cell hexagon, giving an
// even but not regular spread. PoissonSampler is the alternative based on
// Poisson-disc sampling.
//
// Samplers never mutate their inputs and draw randomness only from the
// *rand.Rand passed in, so concurrent calls with distinct generators are
// safe. RandFactory hands out those generators.
package sampling
