package train

import "math/rand"

// Seeder holds one trial's random state: independent generators derived
// from a single integer seed, plus the draw that decorrelates the
// following trial.
type Seeder struct {
	Split *rand.Rand // dataset partitioning
	Init  *rand.Rand // parameter initialization
	Noise *rand.Rand // batch shuffling, dropout and input perturbation

	// Device participates only when an accelerator was probed,
	// matching runs that seed the accelerator library alongside the
	// host ones.
	Device *rand.Rand

	seed int64
	next int64
}

// NewSeeder derives the trial generators from seed. The next trial's
// seed is drawn immediately, before any training consumption, so it
// depends only on this seed.
func NewSeeder(seed int64, accelerator bool) *Seeder {
	host := rand.New(rand.NewSource(seed))
	s := &Seeder{
		Split: rand.New(rand.NewSource(seed + 1)),
		Init:  rand.New(rand.NewSource(seed + 2)),
		Noise: rand.New(rand.NewSource(seed + 3)),
		seed:  seed,
		next:  int64(host.Intn(1001)),
	}
	if accelerator {
		s.Device = rand.New(rand.NewSource(seed + 4))
	}
	return s
}

// Seed returns the seed this trial ran under.
func (s *Seeder) Seed() int64 {
	return s.seed
}

// Next returns the following trial's seed, in [0, 1000].
func (s *Seeder) Next() int64 {
	return s.next
}
