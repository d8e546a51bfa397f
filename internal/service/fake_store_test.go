package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================

// memStore is an in-memory repository.Store. It enforces the same
// uniqueness rules the SQLite schema does (email, GitHub ID, one grant per
// achievement, one pending request per direction) and InTx restores the
// previous state when fn fails, so tests can check atomicity.
//
// Set fail[op] to make a single operation, e.g. "Users.Update", return an
// error.
type memStore struct {
	st   *memState
	fail map[string]error
}

type memState struct {
	seq          int
	users        []*model.User
	tasks        []*model.Task
	achievements []*model.Achievement
	grants       []grant
	friendships  []*model.Friendship
}

type grant struct {
	userID, achievementID string
	at                    time.Time
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{st: &memState{}, fail: make(map[string]error)}
}

func (m *memStore) err(op string) error {
	return m.fail[op]
}

func (m *memStore) nextID(prefix string) string {
	m.st.seq++
	return fmt.Sprintf("%s-%d", prefix, m.st.seq)
}

func (m *memStore) Users() repository.UserRepository               { return memUsers{m} }
func (m *memStore) Tasks() repository.TaskRepository               { return memTasks{m} }
func (m *memStore) Achievements() repository.AchievementRepository { return memAchievements{m} }
func (m *memStore) Friendships() repository.FriendshipRepository   { return memFriendships{m} }

func (m *memStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := m.err("InTx"); err != nil {
		return err
	}
	snapshot := m.st.clone()
	if err := fn(m); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (s *memState) clone() *memState {
	c := &memState{seq: s.seq, grants: append([]grant(nil), s.grants...)}
	for _, u := range s.users {
		cp := *u
		c.users = append(c.users, &cp)
	}
	for _, t := range s.tasks {
		cp := *t
		c.tasks = append(c.tasks, &cp)
	}
	for _, a := range s.achievements {
		cp := *a
		c.achievements = append(c.achievements, &cp)
	}
	for _, f := range s.friendships {
		cp := *f
		c.friendships = append(c.friendships, &cp)
	}
	return c
}

// ---- users ----

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, u *model.User) error {
	if err := r.m.err("Users.Create"); err != nil {
		return err
	}
	for _, other := range r.m.st.users {
		if other.Email == u.Email {
			return apperror.Conflict("user", u.Email)
		}
		if u.GitHubID != nil && other.GitHubID != nil && *other.GitHubID == *u.GitHubID {
			return apperror.Conflict("user", u.Email)
		}
	}
	u.ID = r.m.nextID("user")
	if u.Level < 1 {
		u.Level = 1
	}
	cp := *u
	r.m.st.users = append(r.m.st.users, &cp)
	return nil
}

func (r memUsers) find(match func(*model.User) bool, key string) (*model.User, error) {
	for _, u := range r.m.st.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (r memUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	if err := r.m.err("Users.GetByID"); err != nil {
		return nil, err
	}
	return r.find(func(u *model.User) bool { return u.ID == id }, id)
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := r.m.err("Users.GetByEmail"); err != nil {
		return nil, err
	}
	return r.find(func(u *model.User) bool { return u.Email == email }, email)
}

func (r memUsers) GetByGitHubID(ctx context.Context, id int64) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.GitHubID != nil && *u.GitHubID == id }, fmt.Sprint(id))
}

func (r memUsers) Update(ctx context.Context, u *model.User) error {
	if err := r.m.err("Users.Update"); err != nil {
		return err
	}
	for i, existing := range r.m.st.users {
		if existing.ID == u.ID {
			cp := *u
			r.m.st.users[i] = &cp
			return nil
		}
	}
	return apperror.NotFound("user", u.ID)
}

func (r memUsers) List(ctx context.Context) ([]model.User, error) {
	if err := r.m.err("Users.List"); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(r.m.st.users))
	for _, u := range r.m.st.users {
		out = append(out, *u)
	}
	return out, nil
}

// ---- tasks ----

type memTasks struct{ m *memStore }

func (r memTasks) Create(ctx context.Context, t *model.Task) error {
	if err := r.m.err("Tasks.Create"); err != nil {
		return err
	}
	t.ID = r.m.nextID("task")
	cp := *t
	r.m.st.tasks = append(r.m.st.tasks, &cp)
	return nil
}

func (r memTasks) GetByID(ctx context.Context, id string) (*model.Task, error) {
	for _, t := range r.m.st.tasks {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("task", id)
}

func (r memTasks) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	var out []model.Task
	for _, t := range r.m.st.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r memTasks) MarkCompleted(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	if err := r.m.err("Tasks.MarkCompleted"); err != nil {
		return false, err
	}
	for _, t := range r.m.st.tasks {
		if t.ID == id && t.UserID == userID && !t.Completed {
			t.Completed = true
			t.CompletedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r memTasks) CountCompleted(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, t := range r.m.st.tasks {
		if t.UserID == userID && t.Completed {
			n++
		}
	}
	return n, nil
}

// ---- achievements ----

type memAchievements struct{ m *memStore }

func (r memAchievements) Upsert(ctx context.Context, a *model.Achievement) error {
	if err := r.m.err("Achievements.Upsert"); err != nil {
		return err
	}
	for i, existing := range r.m.st.achievements {
		if existing.Key == a.Key {
			a.ID = existing.ID
			cp := *a
			r.m.st.achievements[i] = &cp
			return nil
		}
	}
	a.ID = r.m.nextID("ach")
	cp := *a
	r.m.st.achievements = append(r.m.st.achievements, &cp)
	return nil
}

func (r memAchievements) List(ctx context.Context) ([]model.Achievement, error) {
	out := make([]model.Achievement, 0, len(r.m.st.achievements))
	for _, a := range r.m.st.achievements {
		out = append(out, *a)
	}
	return out, nil
}

func (r memAchievements) Grant(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	if err := r.m.err("Achievements.Grant"); err != nil {
		return false, err
	}
	for _, g := range r.m.st.grants {
		if g.userID == userID && g.achievementID == achievementID {
			return false, nil
		}
	}
	r.m.st.grants = append(r.m.st.grants, grant{userID, achievementID, at})
	return true, nil
}

func (r memAchievements) ListForUser(ctx context.Context, userID string) ([]model.EarnedAchievement, error) {
	var out []model.EarnedAchievement
	for _, g := range r.m.st.grants {
		if g.userID != userID {
			continue
		}
		for _, a := range r.m.st.achievements {
			if a.ID == g.achievementID {
				out = append(out, model.EarnedAchievement{Achievement: *a, GrantedAt: g.at})
			}
		}
	}
	return out, nil
}

// ---- friendships ----

type memFriendships struct{ m *memStore }

func (r memFriendships) CreatePending(ctx context.Context, f *model.Friendship) (bool, error) {
	for _, existing := range r.m.st.friendships {
		if existing.SenderID == f.SenderID && existing.ReceiverID == f.ReceiverID &&
			existing.Status == model.FriendshipPending {
			return false, nil
		}
	}
	f.ID = r.m.nextID("friendship")
	f.Status = model.FriendshipPending
	cp := *f
	r.m.st.friendships = append(r.m.st.friendships, &cp)
	return true, nil
}

func (r memFriendships) GetByID(ctx context.Context, id string) (*model.Friendship, error) {
	for _, f := range r.m.st.friendships {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("friendship", id)
}

func (r memFriendships) UpdateStatus(ctx context.Context, f *model.Friendship) error {
	if err := r.m.err("Friendships.UpdateStatus"); err != nil {
		return err
	}
	for i, existing := range r.m.st.friendships {
		if existing.ID == f.ID {
			cp := *f
			r.m.st.friendships[i] = &cp
			return nil
		}
	}
	return apperror.NotFound("friendship", f.ID)
}

func (r memFriendships) ListAccepted(ctx context.Context, userID string) ([]model.Friendship, error) {
	var out []model.Friendship
	for _, f := range r.m.st.friendships {
		if f.Status == model.FriendshipAccepted && (f.SenderID == userID || f.ReceiverID == userID) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r memFriendships) ListPendingFor(ctx context.Context, receiverID string) ([]model.FriendRequest, error) {
	var out []model.FriendRequest
	for _, f := range r.m.st.friendships {
		if f.Status != model.FriendshipPending || f.ReceiverID != receiverID {
			continue
		}
		req := model.FriendRequest{Friendship: *f}
		for _, u := range r.m.st.users {
			if u.ID == f.SenderID {
				req.SenderName = u.Name
			}
		}
		out = append(out, req)
	}
	return out, nil
}

// =========================================================================
// SHARED FIXTURES
// =========================================================================

// testNow is a fixed clock: 2024-03-10 15:00 UTC.
var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func testDeps(clock *time.Time) Deps {
	return Deps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Location: time.UTC,
		Clock:    func() time.Time { return *clock },
	}
}

// testAchievements is a small catalog covering every kind.
func testAchievements() []model.Achievement {
	return []model.Achievement{
		{Key: "first", Name: "Primeira tarefa", Kind: model.KindFirstTask, Threshold: 1},
		{Key: "lvl2", Name: "Nível 2", Kind: model.KindLevel, Threshold: 2},
		{Key: "lvl3", Name: "Nível 3", Kind: model.KindLevel, Threshold: 3},
		{Key: "streak2", Name: "2 dias", Kind: model.KindStreak, Threshold: 2},
		{Key: "streak3", Name: "3 dias", Kind: model.KindStreak, Threshold: 3},
	}
}

func seedTestCatalog(t *testing.T, store *memStore) *game.Catalog {
	t.Helper()
	c, err := SeedAchievements(context.Background(), store, testAchievements())
	if err != nil {
		t.Fatalf("SeedAchievements: %v", err)
	}
	return c
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// addUser stores a user directly, bypassing registration.
func addUser(t *testing.T, store *memStore, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Level: 1, Autoplay: true}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return u
}

// achievementKeys maps achievements to their keys for compact assertions.
func achievementKeys(as []model.Achievement) []string {
	var keys []string
	for _, a := range as {
		keys = append(keys, a.Key)
	}
	return keys
}
