package patients

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"clinicq/internal/queue"
	"clinicq/pkg/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*Patient
	lookups  int
	failNext error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{patients: make(map[uuid.UUID]*Patient)}
}

func (r *fakeRepository) CreatePatient(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *fakeRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepository) UpdatePatient(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *fakeRepository) SearchPatients(_ context.Context, query string, limit int) ([]Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Patient, 0)
	for _, p := range r.patients {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// mapCache is an in-process cache.Service
type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]interface{})}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	*(dest.(*string)) = v.(string)
	return nil
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *mapCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	v, err := fetcher()
	if err != nil {
		return err
	}
	_ = c.Set(ctx, key, v, ttl)
	*(dest.(*string)) = v.(string)
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }

func newTestService(t *testing.T) (Service, *fakeRepository, queue.Service) {
	t.Helper()
	repo := newFakeRepository()
	directory := NewDirectory(repo, nil, 0)
	queueService := queue.NewService(queue.NewMemoryStore(), directory, nil, nil)
	return NewService(repo, queueService, directory), repo, queueService
}

func TestRegister_IssuesTicket(t *testing.T) {
	svc, repo, queueService := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, &CreatePatientRequest{Name: "  Jane Alice Doe ", Email: "JANE@example.com", Age: 34, Gender: "female"})
	require.NoError(t, err)
	second, err := svc.Register(ctx, &CreatePatientRequest{Name: "Sam Roe"})
	require.NoError(t, err)

	assert.Equal(t, "Jane Alice Doe", first.Patient.Name)
	require.NotNil(t, first.Patient.Email)
	assert.Equal(t, "jane@example.com", *first.Patient.Email)
	require.NotNil(t, first.Patient.Gender)
	assert.Equal(t, "FEMALE", *first.Patient.Gender)
	assert.Nil(t, second.Patient.Phone)

	assert.Equal(t, int64(1), first.Entry.TicketNumber)
	assert.Equal(t, int64(2), second.Entry.TicketNumber)
	assert.Equal(t, queue.StatusWaiting, first.Entry.Status)
	assert.Len(t, repo.patients, 2)

	snapshot, err := queueService.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.WaitingCount)
	require.NotNil(t, snapshot.Next)
	assert.Equal(t, "Jane D.", snapshot.Next.PatientDisplayName)
}

func TestRegister_RepositoryFailureIssuesNoTicket(t *testing.T) {
	svc, repo, queueService := newTestService(t)
	repo.failNext = errors.New("connection reset")

	_, err := svc.Register(context.Background(), &CreatePatientRequest{Name: "Jane Doe"})
	require.Error(t, err)

	waiting, err := queueService.ListWaiting(context.Background())
	require.NoError(t, err)
	assert.Empty(t, waiting)
}

func TestUpdate_ChangesFieldsAndKeepsOthers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &CreatePatientRequest{Name: "Jane Doe", Phone: "555-0100"})
	require.NoError(t, err)

	name := "Janet Doe"
	updated, err := svc.Update(ctx, reg.Patient.ID, &UpdatePatientRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Janet Doe", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0100", *updated.Phone)

	_, err = svc.Update(ctx, uuid.New(), &UpdatePatientRequest{Name: &name})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestSearch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &CreatePatientRequest{Name: "Jane Doe"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &CreatePatientRequest{Name: "Sam Roe"})
	require.NoError(t, err)

	results, err := svc.Search(ctx, "jan")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Jane Doe", results[0].Name)

	_, err = svc.Search(ctx, " j ")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Cher", "Cher"},
		{"Jane Doe", "Jane D."},
		{"Jane Alice doe", "Jane D."},
		{"  Élodie   Öz ", "Élodie Ö."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.in))
		})
	}
}

func TestDirectory_CachesAndInvalidates(t *testing.T) {
	repo := newFakeRepository()
	c := newMapCache()
	directory := NewDirectory(repo, c, time.Minute)
	svc := NewService(repo, queue.NewService(queue.NewMemoryStore(), directory, nil, nil), directory)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &CreatePatientRequest{Name: "Jane Doe"})
	require.NoError(t, err)
	id := reg.Patient.ID

	repo.lookups = 0
	for i := 0; i < 3; i++ {
		name, err := directory.DisplayName(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Jane D.", name)
	}
	assert.Equal(t, 1, repo.lookups)

	newName := "Jane Smith"
	_, err = svc.Update(ctx, id, &UpdatePatientRequest{Name: &newName})
	require.NoError(t, err)

	name, err := directory.DisplayName(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane S.", name)
}

func TestDirectory_Contact(t *testing.T) {
	repo := newFakeRepository()
	directory := NewDirectory(repo, nil, 0)
	ctx := context.Background()

	email := "jane@example.com"
	withEmail := &Patient{Name: "Jane Doe", Email: &email}
	without := &Patient{Name: "Sam Roe"}
	require.NoError(t, repo.CreatePatient(ctx, withEmail))
	require.NoError(t, repo.CreatePatient(ctx, without))

	got, name, err := directory.Contact(ctx, withEmail.ID)
	require.NoError(t, err)
	assert.Equal(t, email, got)
	assert.Equal(t, "Jane Doe", name)

	got, _, err = directory.Contact(ctx, without.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, err = directory.Contact(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
