package block

import (
	"strings"
	"sync"
)

// Store maps block ids to blocks and remembers the order in which they were
// added. Writes come from a single scanner; reads may be concurrent once
// parsing has finished.
type Store struct {
	mu     sync.RWMutex
	order  []string
	blocks map[string]*Block
}

// NewStore creates a new, empty store.
func NewStore() *Store {
	return &Store{blocks: make(map[string]*Block)}
}

// Add registers b under b.ID.
func (s *Store) Add(b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blocks[b.ID]; exists {
		return &DuplicateBlockIDError{ID: b.ID}
	}
	s.blocks[b.ID] = b
	s.order = append(s.order, b.ID)
	return nil
}

// Remove drops the block with the given id, if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blocks[id]; !exists {
		return
	}
	delete(s.blocks, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Has reports whether id is taken.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blocks[id]
	return ok
}

// Get retrieves a single block by id.
func (s *Store) Get(id string) (*Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blocks[id]
	return b, ok
}

// Len returns the number of blocks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// IDs returns the block ids in file order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Blocks returns all blocks in file order.
func (s *Store) Blocks() []*Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Block, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.blocks[id])
	}
	return out
}

// SourceLines returns the header lines followed by the body lines of a block.
func (s *Store) SourceLines(id string) ([]string, error) {
	b, ok := s.Get(id)
	if !ok {
		return nil, &UnknownBlockError{ID: id}
	}
	return b.Lines(), nil
}

// Source returns the header and body lines of a block joined by newlines.
func (s *Store) Source(id string) (string, error) {
	lines, err := s.SourceLines(id)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
