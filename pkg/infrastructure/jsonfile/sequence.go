package jsonfile

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const (
	ProductSequence = "products"
	OrderSequence   = "orders"
)

// Sequence is a set of named, monotonically increasing counters persisted in
// one JSON file. Each counter stores the last value it handed out.
type Sequence struct {
	mu   sync.Mutex
	path string
}

func NewSequence(path string) *Sequence {
	return &Sequence{path: path}
}

// Next returns a value greater than every value returned before and not lower than floor.
func (s *Sequence) Next(name string, floor int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.load()
	if err != nil {
		return 0, err
	}
	next := counters[name] + 1
	if next < floor {
		next = floor
	}
	counters[name] = next
	if err := writeJSON(s.path, counters); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Sequence) load() (map[string]int, error) {
	counters := map[string]int{}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return counters, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	if err := json.Unmarshal(data, &counters); err != nil {
		// Restarted counters are still bounded below by the floor each caller passes.
		quarantine(s.path, data, err)
		return map[string]int{}, nil
	}
	return counters, nil
}
