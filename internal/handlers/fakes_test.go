package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/events"
	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/anonto42/historical-artifacts/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryStore backs both fake repositories so the toggle can move the counter.
type memoryStore struct {
	mu        sync.Mutex
	artifacts map[primitive.ObjectID]models.Artifact
	order     []primitive.ObjectID
	likes     []models.Like
	failWith  error
	// duringTopLiked runs after the top-liked rows are read, before they are returned.
	duringTopLiked func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{artifacts: map[primitive.ObjectID]models.Artifact{}}
}

func (s *memoryStore) put(a models.Artifact) {
	if _, ok := s.artifacts[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.artifacts[a.ID] = a
}

func (s *memoryStore) list(keep func(models.Artifact) bool) []models.Artifact {
	out := []models.Artifact{}
	for _, id := range s.order {
		if a, ok := s.artifacts[id]; ok && keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, repositories.ErrInvalidID
	}
	return oid, nil
}

type fakeArtifactRepository struct{ s *memoryStore }

func (r fakeArtifactRepository) CreateArtifact(_ context.Context, a *models.Artifact) (*models.InsertResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	a.ID = primitive.NewObjectID()
	r.s.put(*a)
	return &models.InsertResult{Acknowledged: true, InsertedID: a.ID.Hex()}, nil
}

func (r fakeArtifactRepository) GetArtifactByID(_ context.Context, id string) (*models.Artifact, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.artifacts[oid]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r fakeArtifactRepository) FindArtifacts(_ context.Context, q models.ArtifactQuery) ([]models.Artifact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	return r.s.list(func(a models.Artifact) bool {
		switch {
		case q.Filter != "" && a.ArtifactType != q.Filter:
			return false
		case q.Filter == "" && q.Search != "" &&
			!strings.Contains(strings.ToLower(a.ArtifactName), strings.ToLower(q.Search)):
			return false
		case q.Email != "" && a.Email != q.Email:
			return false
		}
		return true
	}), nil
}

func (r fakeArtifactRepository) GetTopLiked(_ context.Context, limit int64) ([]models.Artifact, error) {
	r.s.mu.Lock()
	all := r.s.list(func(models.Artifact) bool { return true })
	hook := r.s.duringTopLiked
	r.s.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].LikeCount > all[j].LikeCount })
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	if hook != nil {
		hook()
	}
	return all, nil
}

func (r fakeArtifactRepository) UpsertArtifact(_ context.Context, id string, u *models.ArtifactUpdate) (*models.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.artifacts[oid]
	if !ok {
		a = models.Artifact{ID: oid}
		u.Apply(&a)
		r.s.put(a)
		return &models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
	}
	before := a
	u.Apply(&a)
	r.s.put(a)
	res := &models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if a != before {
		res.ModifiedCount = 1
	}
	return res, nil
}

func (r fakeArtifactRepository) UpdateStatus(_ context.Context, id string, status string) (*models.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.artifacts[oid]
	if !ok {
		return &models.UpdateResult{Acknowledged: true}, nil
	}
	a.Status = status
	r.s.put(a)
	return &models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r fakeArtifactRepository) DeleteArtifact(_ context.Context, id string) (*models.DeleteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.artifacts[oid]; !ok {
		return &models.DeleteResult{Acknowledged: true}, nil
	}
	delete(r.s.artifacts, oid)
	return &models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

type fakeLikeRepository struct{ s *memoryStore }

func (r fakeLikeRepository) GetLikes(_ context.Context, email string) ([]models.Like, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Like{}
	for _, l := range r.s.likes {
		if email == "" || l.Email == email {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r fakeLikeRepository) ToggleLike(_ context.Context, email, likeID string) (*models.ToggleResult, error) {
	oid, err := parseID(likeID)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}

	delta := 1
	for i, l := range r.s.likes {
		if l.Email == email && l.LikeID == likeID {
			r.s.likes = append(r.s.likes[:i], r.s.likes[i+1:]...)
			delta = -1
			break
		}
	}
	if delta == 1 {
		r.s.likes = append(r.s.likes, models.Like{ID: primitive.NewObjectID(), Email: email, LikeID: likeID, CreatedAt: time.Now()})
	}
	if a, ok := r.s.artifacts[oid]; ok {
		a.LikeCount += delta
		r.s.put(a)
	}
	return &models.ToggleResult{Liked: delta > 0, Delta: delta}, nil
}

type recordingCache struct {
	mu          sync.Mutex
	stored      []models.Artifact
	warm        bool
	invalidated int
	generation  int64
}

func (c *recordingCache) Get(context.Context) ([]models.Artifact, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stored, c.warm, nil
}

func (c *recordingCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *recordingCache) Set(_ context.Context, generation int64, a []models.Artifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.stored, c.warm = a, true
	return nil
}

func (c *recordingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored, c.warm = nil, false
	c.invalidated++
	c.generation++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LikeEvent
	err    error
}

func (p *recordingPublisher) PublishLike(_ context.Context, e events.LikeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var errStorageDown = errors.New("storage unavailable")
