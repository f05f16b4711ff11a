package placement_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
)

// memStore is an in-memory domain.Store used to exercise the placement
// engine without a database. InTx runs the function directly; conflict
// mapping is a database concern and is not simulated here.
type memStore struct{ d *memData }

type memData struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project
	boards   map[uuid.UUID]*domain.Board
	columns  map[uuid.UUID]*domain.BoardColumn
	cards    map[uuid.UUID]*domain.Card
	activity []*domain.ActivityEntry
	seq      map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{d: &memData{
		projects: make(map[uuid.UUID]*domain.Project),
		boards:   make(map[uuid.UUID]*domain.Board),
		columns:  make(map[uuid.UUID]*domain.BoardColumn),
		cards:    make(map[uuid.UUID]*domain.Card),
		seq:      make(map[uuid.UUID]int),
	}}
}

func (s *memStore) Projects() domain.ProjectRepository  { return &memProjects{s.d} }
func (s *memStore) Boards() domain.BoardRepository      { return &memBoards{s.d} }
func (s *memStore) Columns() domain.ColumnRepository    { return &memColumns{s.d} }
func (s *memStore) Cards() domain.CardRepository        { return &memCards{s.d} }
func (s *memStore) Activity() domain.ActivityRepository { return &memActivity{s.d} }

func (s *memStore) InTx(_ context.Context, fn func(domain.Store) error) error {
	return fn(s)
}

type memProjects struct{ d *memData }

func (r *memProjects) Create(_ context.Context, p *domain.Project) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cp := *p
	r.d.projects[p.ID] = &cp
	return nil
}

func (r *memProjects) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *memProjects) GetByShortName(_ context.Context, shortName string) (*domain.Project, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, p := range r.d.projects {
		if p.ShortName == shortName {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", shortName, domain.ErrNotFound)
}

func (r *memProjects) Update(_ context.Context, p *domain.Project) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.d.projects[p.ID] = &cp
	return nil
}

func (r *memProjects) List(_ context.Context) ([]*domain.Project, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]*domain.Project, 0, len(r.d.projects))
	for _, p := range r.d.projects {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memProjects) ShortNameExists(_ context.Context, shortName string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, p := range r.d.projects {
		if p.ShortName == shortName {
			return true, nil
		}
	}
	return false, nil
}

type memBoards struct{ d *memData }

func (r *memBoards) Create(_ context.Context, b *domain.Board) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cp := *b
	r.d.boards[b.ID] = &cp
	return nil
}

func (r *memBoards) GetByID(_ context.Context, id uuid.UUID) (*domain.Board, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	b, ok := r.d.boards[id]
	if !ok {
		return nil, fmt.Errorf("board %s: %w", id, domain.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (r *memBoards) GetByShortName(_ context.Context, shortName string) (*domain.Board, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, b := range r.d.boards {
		if b.ShortName == shortName {
			cp := *b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("board %s: %w", shortName, domain.ErrNotFound)
}

func (r *memBoards) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Board, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*domain.Board
	for _, b := range r.d.boards {
		if b.ProjectID == projectID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memBoards) Update(_ context.Context, b *domain.Board) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.boards[b.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *b
	r.d.boards[b.ID] = &cp
	return nil
}

func (r *memBoards) ShortNameExists(_ context.Context, shortName string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, b := range r.d.boards {
		if b.ShortName == shortName {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBoards) NextCardSequence(_ context.Context, boardID uuid.UUID) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.boards[boardID]; !ok {
		return 0, domain.ErrNotFound
	}
	r.d.seq[boardID]++
	return r.d.seq[boardID], nil
}

func (r *memBoards) ProjectShortNameFor(_ context.Context, boardShortName string) (string, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, b := range r.d.boards {
		if b.ShortName == boardShortName {
			if p, ok := r.d.projects[b.ProjectID]; ok {
				return p.ShortName, nil
			}
		}
	}
	return "", domain.ErrNotFound
}

type memColumns struct{ d *memData }

func (r *memColumns) Create(_ context.Context, c *domain.BoardColumn) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cp := *c
	r.d.columns[c.ID] = &cp
	return nil
}

func (r *memColumns) GetByID(_ context.Context, id uuid.UUID) (*domain.BoardColumn, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.columns[id]
	if !ok {
		return nil, fmt.Errorf("column %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *memColumns) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*domain.BoardColumn, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*domain.BoardColumn
	for _, c := range r.d.columns {
		if c.BoardID == boardID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func (r *memColumns) FindDefaultFor(_ context.Context, boardID uuid.UUID, location domain.ColumnLocation) (*domain.BoardColumn, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var best *domain.BoardColumn
	for _, c := range r.d.columns {
		if c.BoardID == boardID && c.Location == location {
			if best == nil || c.Order < best.Order {
				best = c
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no %s column for board %s: %w", location, boardID, domain.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

type memCards struct{ d *memData }

func (r *memCards) Create(_ context.Context, c *domain.Card) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cp := *c
	r.d.cards[c.ID] = &cp
	return nil
}

func (r *memCards) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.cards[id]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *memCards) GetBySequence(_ context.Context, boardShortName string, sequence int) (*domain.Card, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, b := range r.d.boards {
		if b.ShortName != boardShortName {
			continue
		}
		for _, c := range r.d.cards {
			if c.BoardID == b.ID && c.Sequence == sequence {
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, fmt.Errorf("card %s-%d: %w", boardShortName, sequence, domain.ErrNotFound)
}

func (r *memCards) ListByColumn(_ context.Context, columnID uuid.UUID) ([]*domain.Card, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*domain.Card
	for _, c := range r.d.cards {
		if c.ColumnID == columnID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *memCards) ListByBoardLocationPaginated(_ context.Context, boardID uuid.UUID, location domain.ColumnLocation, page, limit int) ([]*domain.Card, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*domain.Card
	for _, c := range r.d.cards {
		col, ok := r.d.columns[c.ColumnID]
		if ok && col.BoardID == boardID && col.Location == location {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	offset := page * (limit - 1)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memCards) Rename(_ context.Context, id uuid.UUID, name string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.cards[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

func (r *memCards) MoveToColumn(_ context.Context, id, columnID uuid.UUID, order int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.cards[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.ColumnID = columnID
	c.Order = order
	c.UpdatedAt = time.Now()
	return nil
}

func (r *memCards) ColumnOrders(_ context.Context, columnID uuid.UUID) ([]domain.CardOrder, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []domain.CardOrder
	for _, c := range r.d.cards {
		if c.ColumnID == columnID {
			out = append(out, domain.CardOrder{CardID: c.ID, Order: c.Order})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *memCards) ApplyOrders(_ context.Context, columnID uuid.UUID, orders map[uuid.UUID]int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for id, order := range orders {
		c, ok := r.d.cards[id]
		if !ok || c.ColumnID != columnID {
			return fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
		}
		c.Order = order
	}
	return nil
}

type memActivity struct{ d *memData }

func (r *memActivity) Insert(_ context.Context, e *domain.ActivityEntry) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cp := *e
	if cp.Time.IsZero() {
		cp.Time = time.Now()
	}
	r.d.activity = append(r.d.activity, &cp)
	return nil
}

func (r *memActivity) ListByCard(_ context.Context, cardID uuid.UUID) ([]*domain.ActivityEntry, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*domain.ActivityEntry
	for _, e := range r.d.activity {
		if e.CardID == cardID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}
