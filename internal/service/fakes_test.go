package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/queue"
	"github.com/iliyamo/theta-web/internal/repository"
	"github.com/iliyamo/theta-web/internal/utils"
)

// fakeAdmins is an in-memory AdminStore.
type fakeAdmins struct {
	mu     sync.Mutex
	nextID uint64
	byName map[string]*model.Admin
	err    error
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byName: map[string]*model.Admin{}}
}

func (f *fakeAdmins) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byName[username]
	if !ok {
		return nil, repository.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdmins) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName), f.err
}

func (f *fakeAdmins) Create(ctx context.Context, username, plain, email string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[username]; ok {
		return 0, repository.ErrDuplicateUsername
	}
	f.nextID++
	f.byName[username] = &model.Admin{ID: f.nextID, Username: username, PasswordHash: hash}
	return f.nextID, nil
}

func (f *fakeAdmins) UpdatePassword(ctx context.Context, username, plain string, cost int) error {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byName[username]
	if !ok {
		return repository.ErrAdminNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (f *fakeAdmins) UpdateUsername(ctx context.Context, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[next]; ok {
		return repository.ErrDuplicateUsername
	}
	a, ok := f.byName[current]
	if !ok {
		return repository.ErrAdminNotFound
	}
	delete(f.byName, current)
	a.Username = next
	f.byName[next] = a
	return nil
}

// fakeInquiries emulates the quotes and notifications tables, including
// the conditional status update.
type fakeInquiries struct {
	mu            sync.Mutex
	nextID        uint64
	rows          map[uint64]*model.Inquiry
	notifications map[uint64]*model.Notification // keyed by quote id
	createErr     error
	// beforeUpdate runs inside UpdateStatus before the status check; tests
	// use it to simulate a concurrent writer.
	beforeUpdate func(id uint64)
}

func newFakeInquiries() *fakeInquiries {
	return &fakeInquiries{rows: map[uint64]*model.Inquiry{}, notifications: map[uint64]*model.Notification{}}
}

func (f *fakeInquiries) CreateWithNotification(ctx context.Context, in *model.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	in.ID = f.nextID
	in.Status = model.StatusNew
	in.CreatedAt = time.Now().UTC().Add(time.Duration(f.nextID) * time.Millisecond)
	if in.Documents == nil {
		in.Documents = []model.DocumentRef{}
	}
	cp := *in
	f.rows[in.ID] = &cp
	f.notifications[in.ID] = &model.Notification{ID: in.ID, QuoteID: in.ID, Kind: in.Kind, CreatedAt: in.CreatedAt}
	return nil
}

func (f *fakeInquiries) List(ctx context.Context, flt repository.InquiryFilter) ([]model.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Inquiry
	for _, r := range f.rows {
		if flt.Status != "" && r.Status != flt.Status {
			continue
		}
		if flt.Kind != "" && r.Kind != flt.Kind {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeInquiries) Get(ctx context.Context, id uint64) (*model.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrInquiryNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeInquiries) UpdateStatus(ctx context.Context, id uint64, from, to model.Status, at time.Time) error {
	if f.beforeUpdate != nil {
		f.beforeUpdate(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return repository.ErrInquiryNotFound
	}
	if r.Status != from {
		return repository.ErrConflict
	}
	r.Status = to
	at = at.UTC()
	switch to {
	case model.StatusRead:
		r.ReadAt = &at
		if n := f.notifications[id]; n != nil {
			n.Read = true
		}
	case model.StatusArchived:
		r.ArchivedAt = &at
	}
	return nil
}

func (f *fakeInquiries) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrInquiryNotFound
	}
	delete(f.notifications, id)
	delete(f.rows, id)
	return nil
}

func (f *fakeInquiries) ListUnread(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.notifications {
		if !n.Read {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeInquiries) notification(quoteID uint64) (model.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[quoteID]
	if !ok {
		return model.Notification{}, false
	}
	return *n, true
}

func (f *fakeInquiries) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeCaptcha struct {
	err    error
	calls  int
	tokens []string
}

func (f *fakeCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	f.calls++
	f.tokens = append(f.tokens, token)
	return f.err
}

type fakeNotifier struct {
	mu  sync.Mutex
	got []model.Inquiry
	err error
}

func (f *fakeNotifier) Notify(ctx context.Context, in model.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	return f.err
}

func (f *fakeNotifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.InquiryReceivedEvent
	err    error
}

func (f *fakePublisher) PublishInquiryReceived(ctx context.Context, ev queue.InquiryReceivedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []MailMessage
	failures int // fail this many calls before succeeding
}

func (f *fakeMailer) Send(ctx context.Context, msg MailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp: connection refused")
	}
	return nil
}

// fakeProjects is an in-memory ProjectStore.
type fakeProjects struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Project
}

func newFakeProjects() *fakeProjects { return &fakeProjects{rows: map[uint64]model.Project{}} }

func (f *fakeProjects) List(ctx context.Context, featuredOnly bool) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Project
	for _, p := range f.rows {
		if featuredOnly && !p.Featured {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeProjects) Get(ctx context.Context, id uint64) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	return &p, nil
}

func (f *fakeProjects) Create(ctx context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProjects) Update(ctx context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID]; !ok {
		return repository.ErrProjectNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProjects) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrProjectNotFound
	}
	delete(f.rows, id)
	return nil
}
