package testutil

// FixedSessionGenerator returns the same journal session id every time.
//
// A run journaled under a fixed id produces byte-identical rows, which lets
// CLI tests compare trace output. It satisfies journal.SessionGenerator.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
