// Package randomdata generates throwaway people, reviews and numbers for
// demo runs and tests.
package randomdata

import (
	"bufio"
	_ "embed"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
)

var (
	//go:embed data/first-names.txt
	firstNamesRaw string
	//go:embed data/family-names.txt
	familyNamesRaw string
	//go:embed data/sentences.txt
	sentencesRaw string

	firstNames  = lines(firstNamesRaw)
	familyNames = lines(familyNamesRaw)
	sentences   = lines(sentencesRaw)
)

func lines(raw string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Generator produces random values from its own source. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator seeded with seed; equal seeds give equal sequences.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

var defaultGen = New(time.Now().UnixNano())

// Default returns the process-wide Generator.
func Default() *Generator {
	return defaultGen
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Probability returns true with the given percentage chance (0-100).
func (g *Generator) Probability(percentage float64) bool {
	return g.float()*100 < percentage
}

// Int returns an integer in [lo, hi). It returns lo when the range is empty.
func (g *Generator) Int(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rng.Intn(hi-lo)
}

// Decimal returns a value in [lo, hi) truncated to two decimal places.
func (g *Generator) Decimal(lo, hi float64) float64 {
	v := g.float()*(hi-lo) + lo
	return math.Floor(v*100) / 100
}

// Person returns "First Family".
func (g *Generator) Person() string {
	return Pick(g, firstNames) + " " + Pick(g, familyNames)
}

// Sentence returns one line of review text.
func (g *Generator) Sentence() string {
	return Pick(g, sentences)
}

// UserAddUpdate returns an active customer account with a unique email.
func (g *Generator) UserAddUpdate(password string) bigbooks.UserAddUpdate {
	name := g.Person()
	local := strings.ReplaceAll(name, " ", ".")
	suffix := strings.ToLower(GUID()[:8])
	return bigbooks.UserAddUpdate{
		UserEmail: fmt.Sprintf("%s.%s@demo.com", local, suffix),
		UserName:  name,
		Password:  password,
		Role:      bigbooks.RoleCustomer,
		IsActive:  true,
		Wallet:    g.Decimal(10, 200),
	}
}

// BookReviewAdd returns a review with a score in 1..10; roughly one in five
// is anonymous.
func (g *Generator) BookReviewAdd() bigbooks.BookReviewAdd {
	return bigbooks.BookReviewAdd{
		Score:       g.Int(1, 11),
		IsAnonymous: g.Probability(20),
		Description: g.Sentence(),
	}
}

// Pick returns a random element of items, or the zero value when items is empty.
func Pick[T any](g *Generator, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[g.Int(0, len(items))]
}

// GUID returns an upper-case random UUID.
func GUID() string {
	return strings.ToUpper(uuid.NewString())
}
