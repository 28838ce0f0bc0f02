package domain

// RNG is the pseudorandom capability consumed by distributions. It is owned
// by a configuration space or handed in by the caller; samplers never keep
// their own.
type RNG interface {
	// Uniform returns a double in [0, 1).
	Uniform() float64

	// UniformPos returns a double in (0, 1).
	UniformPos() float64

	// UniformInt returns an integer in [0, n). n must be positive.
	UniformInt(n uint64) uint64
}
