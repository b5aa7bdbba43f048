package graf

import "strconv"

// IDGenerator hands out sequential ids per prefix ("n1", "n2", "r1", ...).
type IDGenerator struct {
	counters map[string]int
}

// NewIDGenerator returns a generator whose counters start at 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{counters: make(map[string]int)}
}

// Generate returns the next id for prefix.
func (g *IDGenerator) Generate(prefix string) string {
	g.counters[prefix]++
	return prefix + strconv.Itoa(g.counters[prefix])
}

// GenerateUnused returns the next id for prefix that taken rejects.
func (g *IDGenerator) GenerateUnused(prefix string, taken func(string) bool) string {
	for {
		id := g.Generate(prefix)
		if !taken(id) {
			return id
		}
	}
}
