package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	items     []core.Transaction
	balance   core.Money
	processed core.Date
}

func New(seed ...core.Transaction) *Store {
	s := &Store{}
	for _, t := range seed {
		s.nextID++
		t.ID = s.nextID
		s.items = append(s.items, t)
	}
	return s
}

// NewFromFile seeds the store from a text file with one transaction per line:
//
//	2024-03-01;2500;fixed_income;Salary
//
// Blank lines and lines starting with # are ignored. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	var seed []core.Transaction
	for i, line := range readLines(path) {
		t, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
		seed = append(seed, t)
	}
	return New(seed...), nil
}

func parseSeedLine(line string) (core.Transaction, error) {
	parts := strings.SplitN(line, ";", 4)
	if len(parts) != 4 {
		return core.Transaction{}, fmt.Errorf("want date;amount;category;description, got %q", line)
	}
	d, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseAmount(parts[1])
	if err != nil {
		return core.Transaction{}, err
	}
	cat, err := core.ParseCategory(parts[2])
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewTransaction(d, parts[3], amt, cat)
}

func (s *Store) Insert(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	s.items = append(s.items, t)
	return t.ID, nil
}

// List returns a copy ordered by date, then id.
func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Transaction(nil), s.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, id int64, description string, amount core.Money, category core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	t := s.items[i]
	t.Description = description
	t.Amount = amount
	t.Category = category
	if err := t.Validate(); err != nil {
		return err
	}
	s.items[i] = t
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) indexOf(id int64) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetBalance(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *Store) SetBalance(_ context.Context, m core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = m
	return nil
}

func (s *Store) GetProcessedThrough(_ context.Context) (core.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, nil
}

func (s *Store) SetProcessedThrough(_ context.Context, d core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = d
	return nil
}

var _ ledger.Store = (*Store)(nil)

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
