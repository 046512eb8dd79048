package service_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"taskboard/internal/model"
	"taskboard/internal/realtime"
	"taskboard/internal/reorder"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

// memStore is an in-memory stand-in for the gorm repositories.
type memStore struct {
	mu     sync.Mutex
	clock  time.Time
	users  map[uuid.UUID]model.User
	boards map[uuid.UUID]model.Board
	tasks  map[uuid.UUID]model.Task

	placementErr error
	writes       int
}

var (
	_ service.BoardStore = (*memStore)(nil)
	_ service.TaskStore  = taskStore{}
	_ service.UserStore  = userStore{}
)

func newMemStore() *memStore {
	return &memStore{
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:  map[uuid.UUID]model.User{},
		boards: map[uuid.UUID]model.Board{},
		tasks:  map[uuid.UUID]model.Task{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addUser(name, email string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := model.User{ID: uuid.New(), Name: name, Email: email}
	m.users[u.ID] = u
	return u
}

func (m *memStore) hydrate(b model.Board) *model.Board {
	b.Owner = m.users[b.OwnerID]
	b.Members = slices.Clone(b.Members)
	for i := range b.Members {
		b.Members[i].User = m.users[b.Members[i].UserID]
	}
	return &b
}

func (m *memStore) Create(_ context.Context, board *model.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	board.ID = uuid.New()
	board.CreatedAt = m.tick()
	board.UpdatedAt = board.CreatedAt
	board.Members = []model.BoardMember{{ID: uuid.New(), BoardID: board.ID, UserID: board.OwnerID, Role: model.RoleAdmin}}
	m.boards[board.ID] = *board
	return nil
}

func (m *memStore) ListForUser(_ context.Context, userID uuid.UUID) ([]model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Board
	for _, b := range m.boards {
		if b.OwnerID == userID || (&b).Member(userID) != nil {
			out = append(out, *m.hydrate(b))
		}
	}
	slices.SortFunc(out, func(a, b model.Board) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, nil
	}
	return m.hydrate(b), nil
}

func (m *memStore) Update(_ context.Context, board *model.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.boards[board.ID]
	if !ok {
		return repository.ErrBoardNotFound
	}
	stored.Title, stored.Description, stored.Background = board.Title, board.Description, board.Background
	stored.UpdatedAt = m.tick()
	m.boards[board.ID] = stored
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return repository.ErrBoardNotFound
	}
	for tid, t := range m.tasks {
		if t.BoardID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.boards, id)
	return nil
}

func (m *memStore) AddMember(_ context.Context, member *model.BoardMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.boards[member.BoardID]
	if (&b).Member(member.UserID) != nil {
		return repository.ErrAlreadyMember
	}
	member.ID = uuid.New()
	b.Members = append(slices.Clone(b.Members), *member)
	m.boards[b.ID] = b
	return nil
}

func (m *memStore) RemoveMember(_ context.Context, boardID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.boards[boardID]
	i := slices.IndexFunc(b.Members, func(mem model.BoardMember) bool { return mem.UserID == userID })
	if i < 0 {
		return repository.ErrMemberNotFound
	}
	b.Members = slices.Delete(slices.Clone(b.Members), i, i+1)
	m.boards[boardID] = b
	return nil
}

func (m *memStore) CreateAtTail(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[task.BoardID]; !ok {
		return repository.ErrBoardNotFound
	}
	next := 0
	for _, t := range m.tasks {
		if t.BoardID == task.BoardID && t.Column == task.Column && t.Order >= next {
			next = t.Order + 1
		}
	}
	task.ID = uuid.New()
	task.Order = next
	task.CreatedAt = m.tick()
	task.UpdatedAt = task.CreatedAt
	m.tasks[task.ID] = *task
	return nil
}

func (m *memStore) hydrateTask(t model.Task) model.Task {
	t.Creator = m.users[t.CreatedBy]
	if t.AssignedTo != nil {
		u := m.users[*t.AssignedTo]
		t.Assignee = &u
	}
	return t
}

func (m *memStore) taskByID(id uuid.UUID) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	h := m.hydrateTask(t)
	return &h, nil
}

func (m *memStore) ListByBoard(_ context.Context, boardID uuid.UUID) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.BoardID == boardID {
			out = append(out, m.hydrateTask(t))
		}
	}
	slices.SortFunc(out, func(a, b model.Task) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (m *memStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) applyLocked(boardID uuid.UUID, placements []reorder.Placement) error {
	if m.placementErr != nil {
		return m.placementErr
	}
	for _, p := range placements {
		if t, ok := m.tasks[p.ID]; !ok || t.BoardID != boardID {
			return repository.ErrTaskNotFound
		}
	}
	for _, p := range placements {
		t := m.tasks[p.ID]
		t.Column, t.Order = p.Column, p.Order
		m.tasks[p.ID] = t
	}
	m.writes++
	return nil
}

func (m *memStore) ApplyPlacements(_ context.Context, boardID uuid.UUID, placements []reorder.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(placements) == 0 {
		return nil
	}
	return m.applyLocked(boardID, placements)
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// taskStore adapts memStore's task methods, whose names collide with the
// board ones.
type taskStore struct{ *memStore }

func (s taskStore) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	return s.taskByID(id)
}

func (s taskStore) Update(_ context.Context, task *model.Task, placements []reorder.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[task.ID]
	if !ok {
		return repository.ErrTaskNotFound
	}
	if len(placements) > 0 {
		if err := s.applyLocked(task.BoardID, placements); err != nil {
			return err
		}
		stored = s.tasks[task.ID]
	}
	stored.Title, stored.Description, stored.Priority = task.Title, task.Description, task.Priority
	stored.AssignedTo, stored.DueDate, stored.Tags = task.AssignedTo, task.DueDate, task.Tags
	s.tasks[task.ID] = stored
	return nil
}

func (s taskStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

type userStore struct{ *memStore }

func (s userStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(_ context.Context, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) last() realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	store  *memStore
	pub    *recorder
	log    *logrus.Logger
	boards *service.BoardService
	tasks  *service.TaskService
}

func newFixture() *fixture {
	store := newMemStore()
	pub := &recorder{}
	log, _ := test.NewNullLogger()
	return &fixture{
		store:  store,
		pub:    pub,
		log:    log,
		boards: service.NewBoardService(store, userStore{store}, pub, log),
		tasks:  service.NewTaskService(store, taskStore{store}, pub, log),
	}
}
