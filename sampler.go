package randsample

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

type SampleOptions struct {
	// Seed makes the draw reproducible. Without it a seed is read from crypto/rand
	// and reported back on the Sample.
	Seed   *int64
	Logger *zerolog.Logger
}

// Sample is the unpaired form of a draw: Lat[i] and Lon[i] belong to the same point.
type Sample struct {
	Seed int64
	Lat  []float64
	Lon  []float64
}

func (s *Sample) Len() int {
	return len(s.Lat)
}

func (s *Sample) Pairs() Coordinates {
	ret := make(Coordinates, len(s.Lat))
	for i := range s.Lat {
		ret[i] = LatLon{Lat: s.Lat[i], Lon: s.Lon[i]}
	}
	return ret
}

func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(uint64(seed)))
}

// RandomSample draws size values with replacement from each axis of the lattice.
// The axes are drawn independently with a PCG generator, so the result is uniform
// over the lattice product and not over area.
func RandomSample(l *Lattice, size int, opts SampleOptions) (*Sample, error) {
	logger := loggerOrNop(opts.Logger)
	logger.Info().Int("size", size).Msg("generating random coordinates sample")

	if l == nil || len(l.Lat) == 0 || len(l.Lon) == 0 {
		return nil, fmt.Errorf("%w: empty lattice", ErrGeneration)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: sample size must be positive, got %d", ErrGeneration, size)
	}

	var seed int64
	if opts.Seed != nil {
		seed = *opts.Seed
		logger.Info().Int64("seed", seed).Msg("seeding the generator")
	} else {
		var err error
		if seed, err = NewSeed(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		logger.Debug().Int64("seed", seed).Msg("generated seed")
	}

	rng := newRand(seed)
	s := &Sample{
		Seed: seed,
		Lat:  make([]float64, size),
		Lon:  make([]float64, size),
	}
	for i := 0; i < size; i++ {
		s.Lat[i] = l.Lat[rng.Intn(len(l.Lat))]
	}
	for i := 0; i < size; i++ {
		s.Lon[i] = l.Lon[rng.Intn(len(l.Lon))]
	}

	logger.Info().Int("size", size).Msg("random coordinates sample successfully generated")
	return s, nil
}

// Generate builds the lattice for bbox at prec and draws size coordinates from it.
func Generate(bbox BoundingBox, size int, prec float64, opts SampleOptions) (*Sample, error) {
	l, err := NewLattice(bbox, prec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return RandomSample(l, size, opts)
}

func loggerOrNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l
}
