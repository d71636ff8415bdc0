package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// --- users ---

type stubUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Count(context.Context) (int64, error) { return int64(len(r.users)), nil }

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("u%d", r.seq)
	r.users[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, p ports.UserPatch) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.IsApproved != nil {
		u.IsApproved = *p.IsApproved
	}
	if p.TrakaWebURL != nil {
		u.TrakaWebURL = *p.TrakaWebURL
	}
	if p.RDPHost != nil {
		u.RDPHost = *p.RDPHost
	}
	if p.RDPUsername != nil {
		u.RDPUsername = *p.RDPUsername
	}
	if p.RDPPasswordEnc != nil {
		u.RDPPasswordEnc = *p.RDPPasswordEnc
	}
	return cloneUser(u), nil
}

// --- tools ---

type stubToolRepo struct {
	tools map[string]*domain.Tool
}

func newStubToolRepo(tools ...*domain.Tool) *stubToolRepo {
	r := &stubToolRepo{tools: make(map[string]*domain.Tool)}
	for _, t := range tools {
		c := *t
		r.tools[t.ID] = &c
	}
	return r
}

func (r *stubToolRepo) FindByID(_ context.Context, id string) (*domain.Tool, error) {
	if t, ok := r.tools[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, domain.ErrToolNotFound
}

func (r *stubToolRepo) List(_ context.Context, activeOnly bool) ([]*domain.Tool, error) {
	var out []*domain.Tool
	for _, t := range r.tools {
		if activeOnly && !t.IsActive {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubToolRepo) Create(_ context.Context, t *domain.Tool) error {
	if _, ok := r.tools[t.ID]; ok {
		return domain.ErrToolExists
	}
	c := *t
	r.tools[t.ID] = &c
	return nil
}

func (r *stubToolRepo) Update(_ context.Context, id string, p ports.ToolPatch) (*domain.Tool, error) {
	t, ok := r.tools[id]
	if !ok {
		return nil, domain.ErrToolNotFound
	}
	applyToolPatch(t, p)
	c := *t
	return &c, nil
}

func (r *stubToolRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tools[id]; !ok {
		return domain.ErrToolNotFound
	}
	delete(r.tools, id)
	return nil
}

// --- favorites ---

type stubFavoriteRepo struct {
	mu   sync.Mutex
	pins map[string]bool
}

func newStubFavoriteRepo() *stubFavoriteRepo {
	return &stubFavoriteRepo{pins: make(map[string]bool)}
}

func (r *stubFavoriteRepo) Toggle(_ context.Context, userID, toolID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + toolID
	if r.pins[key] {
		delete(r.pins, key)
		return false, nil
	}
	r.pins[key] = true
	return true, nil
}

func (r *stubFavoriteRepo) ToolIDs(_ context.Context, userID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for key := range r.pins {
		if u, t, _ := strings.Cut(key, "|"); u == userID {
			out[t] = true
		}
	}
	return out, nil
}

// --- launches ---

type stubLaunchRepo struct {
	mu      sync.Mutex
	records []domain.ToolLaunch
	err     error
}

func (r *stubLaunchRepo) Record(_ context.Context, l *domain.ToolLaunch) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *l)
	return nil
}

func (r *stubLaunchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *stubLaunchRepo) CountByTool(context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, l := range r.records {
		out[l.ToolID]++
	}
	return out, nil
}

func (r *stubLaunchRepo) CountByUser(context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, l := range r.records {
		out[l.UserID]++
	}
	return out, nil
}

func (r *stubLaunchRepo) Count(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, l := range r.records {
		if !l.LaunchedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *stubLaunchRepo) DistinctUsers(_ context.Context, since time.Time) (int64, error) {
	seen := make(map[string]bool)
	for _, l := range r.records {
		if !l.LaunchedAt.Before(since) {
			seen[l.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

func (r *stubLaunchRepo) TopTools(ctx context.Context, limit int) ([]ports.ToolLaunchCount, error) {
	counts, _ := r.CountByTool(ctx)
	out := make([]ports.ToolLaunchCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, ports.ToolLaunchCount{ToolID: id, Launches: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Launches > out[j].Launches })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubLaunchRepo) Daily(_ context.Context, since time.Time) ([]ports.DailyLaunchCount, error) {
	byDay := make(map[string]int64)
	for _, l := range r.records {
		if !l.LaunchedAt.Before(since) {
			byDay[l.LaunchedAt.UTC().Format("2006-01-02")]++
		}
	}
	out := make([]ports.DailyLaunchCount, 0, len(byDay))
	for d, n := range byDay {
		out = append(out, ports.DailyLaunchCount{Date: d, Launches: n})
	}
	return out, nil
}

func (r *stubLaunchRepo) Recent(_ context.Context, limit int) ([]*domain.ToolLaunch, error) {
	out := make([]*domain.ToolLaunch, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		l := r.records[i]
		out = append(out, &l)
	}
	return out, nil
}

// --- announcements ---

type stubAnnouncementRepo struct {
	items map[string]*domain.Announcement
}

func newStubAnnouncementRepo() *stubAnnouncementRepo {
	return &stubAnnouncementRepo{items: make(map[string]*domain.Announcement)}
}

func (r *stubAnnouncementRepo) Create(_ context.Context, a *domain.Announcement) error {
	c := *a
	r.items[a.ID] = &c
	return nil
}

func (r *stubAnnouncementRepo) FindByID(_ context.Context, id string) (*domain.Announcement, error) {
	if a, ok := r.items[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, domain.ErrAnnouncementNotFound
}

func (r *stubAnnouncementRepo) List(_ context.Context, visibleAt *time.Time) ([]*domain.Announcement, error) {
	var out []*domain.Announcement
	for _, a := range r.items {
		if visibleAt != nil && !a.VisibleAt(*visibleAt) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubAnnouncementRepo) Update(_ context.Context, a *domain.Announcement) error {
	if _, ok := r.items[a.ID]; !ok {
		return domain.ErrAnnouncementNotFound
	}
	c := *a
	r.items[a.ID] = &c
	return nil
}

func (r *stubAnnouncementRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrAnnouncementNotFound
	}
	delete(r.items, id)
	return nil
}

// --- revocation ---

type stubRevoker struct {
	revoked map[string]time.Time
}

func (r *stubRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	if r.revoked == nil {
		r.revoked = make(map[string]time.Time)
	}
	r.revoked[id] = until
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, nil
}

// --- vault ---

// stubVault "encrypts" by prefixing; Decrypt fails on anything else.
type stubVault struct{}

func (stubVault) Encrypt(p string) (string, error) { return "enc:" + p, nil }

func (stubVault) Decrypt(b string) (string, error) {
	p, ok := strings.CutPrefix(b, "enc:")
	if !ok {
		return "", domain.ErrDecryption
	}
	return p, nil
}

// --- desktop host ---

type stubHost struct {
	mu        sync.Mutex
	paths     map[string]ports.PathInfo
	spawned   []ports.ProcessSpec
	opened    []string
	creds     []string
	rdp       []string
	spawnErr  error
	credErr   error
	readyErr  map[string]error
	dead      map[int]bool
	nextPID   int
	blockWait bool
}

func newStubHost() *stubHost {
	return &stubHost{paths: make(map[string]ports.PathInfo), readyErr: make(map[string]error), dead: make(map[int]bool)}
}

func (h *stubHost) Stat(path string) ports.PathInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paths[path]
}

func (h *stubHost) Spawn(spec ports.ProcessSpec) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.spawnErr != nil {
		return 0, h.spawnErr
	}
	h.spawned = append(h.spawned, spec)
	h.nextPID++
	return h.nextPID, nil
}

func (h *stubHost) OpenURL(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, url)
	return nil
}

func (h *stubHost) StoreCredential(_ context.Context, host, user, pass string) error {
	if h.credErr != nil {
		return h.credErr
	}
	h.creds = append(h.creds, host+"|"+user+"|"+pass)
	return nil
}

func (h *stubHost) StartRemoteDesktop(host string) error {
	h.rdp = append(h.rdp, host)
	return nil
}

func (h *stubHost) WaitReady(ctx context.Context, addr string) error {
	h.mu.Lock()
	err := h.readyErr[addr]
	block := h.blockWait
	h.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (h *stubHost) Alive(pid int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.dead[pid]
}

var errBoom = errors.New("boom")

func boolPtr(b bool) *bool           { return &b }
func strPtr(s string) *string        { return &s }
func rolesPtr(r ...string) *[]string { return &r }

func admin(id string) domain.Principal {
	return domain.Principal{UserID: id, Role: domain.RoleAdmin}
}

func member(id string, role domain.Role) domain.Principal {
	return domain.Principal{UserID: id, Role: role}
}
