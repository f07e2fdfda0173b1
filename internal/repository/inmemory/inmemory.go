package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskManager/internal/models/client"
	"taskManager/internal/models/profile"
	"taskManager/internal/models/session"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"github.com/google/uuid"
)

// Storage — хранилище в памяти с тем же контрактом, что и postgres.
// Используется в тестах сервисного и HTTP-слоя.
type Storage struct {
	mtx      sync.RWMutex
	tasks    map[uuid.UUID]*task.Task
	clients  map[uuid.UUID]*client.Client
	profiles map[uuid.UUID]*profile.Profile
	sessions map[uuid.UUID]*session.Session
	now      func() time.Time
}

func New() *Storage {
	return &Storage{
		tasks:    make(map[uuid.UUID]*task.Task),
		clients:  make(map[uuid.UUID]*client.Client),
		profiles: make(map[uuid.UUID]*profile.Profile),
		sessions: make(map[uuid.UUID]*session.Session),
		now:      time.Now,
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}

// копия задачи, чтобы вызывающий не менял хранилище мимо Update
func cloneTask(t *task.Task) *task.Task {
	c := *t
	c.Assignees = append([]uuid.UUID{}, t.Assignees...)
	c.Subtasks = append([]task.Subtask{}, t.Subtasks...)
	c.Comments = append([]task.Comment{}, t.Comments...)
	return &c
}

// ----- задачи -----

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *Storage) GetForUser(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.tasks {
		if t.VisibleTo(userID) {
			res = append(res, cloneTask(t))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.tasks {
		res = append(res, cloneTask(t))
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (s *Storage) Update(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[t.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Version != t.Version {
		return repo.ErrVersionConflict
	}

	stored.Title = t.Title
	stored.Description = t.Description
	stored.Status = t.Status
	stored.ClientID = t.ClientID
	stored.UpdatedAt = s.now()
	stored.Version++

	t.UpdatedAt = stored.UpdatedAt
	t.Version = stored.Version
	return nil
}

func (s *Storage) setField(id uuid.UUID, version int, mutate func(*task.Task)) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[id]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Version != version {
		return repo.ErrVersionConflict
	}

	mutate(stored)
	stored.UpdatedAt = s.now()
	stored.Version++
	return nil
}

func (s *Storage) SetSubtasks(ctx context.Context, id uuid.UUID, version int, subs []task.Subtask) error {
	return s.setField(id, version, func(t *task.Task) {
		t.Subtasks = append([]task.Subtask{}, subs...)
	})
}

func (s *Storage) SetComments(ctx context.Context, id uuid.UUID, version int, comments []task.Comment) error {
	return s.setField(id, version, func(t *task.Task) {
		t.Comments = append([]task.Comment{}, comments...)
	})
}

func (s *Storage) SetAssignees(ctx context.Context, id uuid.UUID, version int, assignees []uuid.UUID) error {
	return s.setField(id, version, func(t *task.Task) {
		t.Assignees = append([]uuid.UUID{}, assignees...)
	})
}

func (s *Storage) SetPDF(ctx context.Context, id uuid.UUID, version int, pdfURL *string, status task.Status) error {
	return s.setField(id, version, func(t *task.Task) {
		t.PDFURL = pdfURL
		t.Status = status
	})
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.tasks, id)
	return nil
}

// ----- клиенты -----

func (s *Storage) CreateClient(ctx context.Context, c *client.Client) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cc := *c
	s.clients[c.ID] = &cc
	return nil
}

func (s *Storage) GetClientByID(ctx context.Context, id uuid.UUID) (*client.Client, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (s *Storage) GetAllClients(ctx context.Context) ([]*client.Client, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*client.Client{}
	for _, c := range s.clients {
		cc := *c
		res = append(res, &cc)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].BranchName < res[j].BranchName
	})
	return res, nil
}

func (s *Storage) UpdateClient(ctx context.Context, c *client.Client) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return repo.ErrNotFound
	}
	cc := *c
	s.clients[c.ID] = &cc
	return nil
}

func (s *Storage) DeleteClient(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.clients, id)
	return nil
}

// ----- профили -----

func (s *Storage) CreateProfile(ctx context.Context, p *profile.Profile) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existing := range s.profiles {
		if existing.Email == p.Email {
			return repo.ErrAlreadyExists
		}
	}
	p.CreatedAt = s.now()
	pp := *p
	s.profiles[p.ID] = &pp
	return nil
}

func (s *Storage) GetProfileByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	pp := *p
	return &pp, nil
}

func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, p := range s.profiles {
		if p.Email == email {
			pp := *p
			return &pp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) GetAllProfiles(ctx context.Context) ([]*profile.Profile, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*profile.Profile{}
	for _, p := range s.profiles {
		pp := *p
		res = append(res, &pp)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// ----- сессии -----

func (s *Storage) CreateSession(ctx context.Context, sess *session.Session) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sess.CreatedAt = s.now()
	ss := *sess
	s.sessions[sess.ID] = &ss
	return nil
}

func (s *Storage) GetSessionsByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*session.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			ss := *sess
			res = append(res, &ss)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *Storage) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, before time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(s.sessions, id)
		}
	}
	return nil
}
