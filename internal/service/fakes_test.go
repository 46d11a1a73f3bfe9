package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]domain.User
	nextID uint
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.User{}, repository.ErrUserEmailExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindAll(_ context.Context, status domain.UserStatus) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if status == "" || u.Status == status {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []uint) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id uint, status domain.UserStatus) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	u.Status = status
	r.users[id] = u
	return u, nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id uint, role domain.Role) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	u.Role = role
	r.users[id] = u
	return u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeEventRepo struct {
	events map[uint]domain.Event
	nextID uint
}

func newFakeEventRepo(events ...domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: map[uint]domain.Event{}}
	for _, e := range events {
		r.events[e.ID] = e
		if e.ID > r.nextID {
			r.nextID = e.ID
		}
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	r.nextID++
	event.ID = r.nextID
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uint) (domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) FindAll(_ context.Context) ([]domain.Event, error) {
	return r.sorted(func(domain.Event) bool { return true }), nil
}

func (r *fakeEventRepo) FindOnOrBefore(_ context.Context, day domain.Date) ([]domain.Event, error) {
	return r.sorted(func(e domain.Event) bool { return !e.Date.AfterDate(day) }), nil
}

func (r *fakeEventRepo) Update(_ context.Context, event domain.Event) (domain.Event, error) {
	if _, ok := r.events[event.ID]; !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) sorted(keep func(domain.Event) bool) []domain.Event {
	events := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		if keep(e) {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

type fakePermissionRepo struct {
	permissions map[uint]domain.Permission
	nextID      uint
}

func newFakePermissionRepo(permissions ...domain.Permission) *fakePermissionRepo {
	r := &fakePermissionRepo{permissions: map[uint]domain.Permission{}}
	for _, p := range permissions {
		r.permissions[p.ID] = p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakePermissionRepo) Create(_ context.Context, p domain.Permission) (domain.Permission, error) {
	r.nextID++
	p.ID = r.nextID
	r.permissions[p.ID] = p
	return p, nil
}

func (r *fakePermissionRepo) FindByID(_ context.Context, id uint) (domain.Permission, error) {
	p, ok := r.permissions[id]
	if !ok {
		return domain.Permission{}, repository.ErrPermissionNotFound
	}
	return p, nil
}

func (r *fakePermissionRepo) FindAll(_ context.Context, status domain.PermissionStatus) ([]domain.Permission, error) {
	return r.filter(func(p domain.Permission) bool { return status == "" || p.Status == status }), nil
}

func (r *fakePermissionRepo) FindByUserID(_ context.Context, userID uint) ([]domain.Permission, error) {
	return r.filter(func(p domain.Permission) bool { return p.UserID == userID }), nil
}

func (r *fakePermissionRepo) FindByUserIDAndStatuses(
	_ context.Context, userID uint, statuses ...domain.PermissionStatus,
) ([]domain.Permission, error) {
	return r.filter(func(p domain.Permission) bool {
		if p.UserID != userID {
			return false
		}
		for _, s := range statuses {
			if p.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *fakePermissionRepo) FindApprovedCovering(_ context.Context, day domain.Date) ([]domain.Permission, error) {
	return r.filter(func(p domain.Permission) bool {
		return p.Status == domain.PermissionApproved && p.Covers(day)
	}), nil
}

func (r *fakePermissionRepo) UpdateReview(
	_ context.Context, id uint, status domain.PermissionStatus, reviewedBy string, reviewedAt time.Time,
) (domain.Permission, error) {
	p, ok := r.permissions[id]
	if !ok {
		return domain.Permission{}, repository.ErrPermissionNotFound
	}
	p.Status = status
	p.ReviewedBy = reviewedBy
	p.ReviewedAt = &reviewedAt
	r.permissions[id] = p
	return p, nil
}

func (r *fakePermissionRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.permissions[id]; !ok {
		return repository.ErrPermissionNotFound
	}
	delete(r.permissions, id)
	return nil
}

func (r *fakePermissionRepo) filter(keep func(domain.Permission) bool) []domain.Permission {
	permissions := make([]domain.Permission, 0)
	for _, p := range r.permissions {
		if keep(p) {
			permissions = append(permissions, p)
		}
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].ID < permissions[j].ID })
	return permissions
}

// fakeAttendanceRepo keeps one bucket per user, like the attendances table.
type fakeAttendanceRepo struct {
	buckets map[uint]*domain.AttendanceBucket
	err     error
}

func newFakeAttendanceRepo(buckets ...domain.AttendanceBucket) *fakeAttendanceRepo {
	r := &fakeAttendanceRepo{buckets: map[uint]*domain.AttendanceBucket{}}
	for i := range buckets {
		b := buckets[i]
		r.buckets[b.UserID] = &b
	}
	return r
}

func (r *fakeAttendanceRepo) FindAll(_ context.Context) ([]domain.AttendanceBucket, error) {
	buckets := make([]domain.AttendanceBucket, 0, len(r.buckets))
	for _, b := range r.buckets {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].UserID < buckets[j].UserID })
	return buckets, nil
}

func (r *fakeAttendanceRepo) FindByUserID(_ context.Context, userID uint) (domain.AttendanceBucket, error) {
	b, ok := r.buckets[userID]
	if !ok {
		return domain.AttendanceBucket{}, repository.ErrAttendanceNotFound
	}
	return *b, nil
}

func (r *fakeAttendanceRepo) UpsertRecords(_ context.Context, entries []domain.AttendanceUpsert) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	for _, e := range entries {
		b, ok := r.buckets[e.UserID]
		if !ok {
			b = &domain.AttendanceBucket{UserID: e.UserID, Name: e.Name}
			r.buckets[e.UserID] = b
		}
		b.Records = append([]domain.AttendanceRecord(nil), b.Records...)
		b.Upsert(e.Record)
	}
	return len(entries), nil
}

func (r *fakeAttendanceRepo) IsEventReferenced(_ context.Context, eventID uint) (bool, error) {
	for _, b := range r.buckets {
		if _, ok := b.Record(eventID); ok {
			return true, nil
		}
	}
	return false, nil
}

type fakeAnnouncementRepo struct {
	announcements map[uint]domain.Announcement
	nextID        uint
}

func newFakeAnnouncementRepo() *fakeAnnouncementRepo {
	return &fakeAnnouncementRepo{announcements: map[uint]domain.Announcement{}}
}

func (r *fakeAnnouncementRepo) Create(_ context.Context, a domain.Announcement) (domain.Announcement, error) {
	r.nextID++
	a.ID = r.nextID
	r.announcements[a.ID] = a
	return a, nil
}

func (r *fakeAnnouncementRepo) FindByID(_ context.Context, id uint) (domain.Announcement, error) {
	a, ok := r.announcements[id]
	if !ok {
		return domain.Announcement{}, repository.ErrAnnouncementNotFound
	}
	return a, nil
}

func (r *fakeAnnouncementRepo) FindAll(_ context.Context) ([]domain.Announcement, error) {
	all := make([]domain.Announcement, 0, len(r.announcements))
	for _, a := range r.announcements {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *fakeAnnouncementRepo) Update(_ context.Context, a domain.Announcement) (domain.Announcement, error) {
	if _, ok := r.announcements[a.ID]; !ok {
		return domain.Announcement{}, repository.ErrAnnouncementNotFound
	}
	r.announcements[a.ID] = a
	return a, nil
}

func (r *fakeAnnouncementRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.announcements[id]; !ok {
		return repository.ErrAnnouncementNotFound
	}
	delete(r.announcements, id)
	return nil
}

type fakeSongRepo struct {
	songs  map[uint]domain.Song
	nextID uint
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{songs: map[uint]domain.Song{}}
}

func (r *fakeSongRepo) Create(_ context.Context, song domain.Song) (domain.Song, error) {
	r.nextID++
	song.ID = r.nextID
	r.songs[song.ID] = song
	return song, nil
}

func (r *fakeSongRepo) FindByID(_ context.Context, id uint) (domain.Song, error) {
	s, ok := r.songs[id]
	if !ok {
		return domain.Song{}, repository.ErrSongNotFound
	}
	return s, nil
}

func (r *fakeSongRepo) Find(_ context.Context, filter domain.SongFilter) ([]domain.Song, error) {
	songs := make([]domain.Song, 0)
	query := strings.ToLower(filter.Query)
	for _, s := range r.songs {
		if filter.Category != "" && s.Category != filter.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(s.Title), query) &&
			!strings.Contains(strings.ToLower(s.Composer), query) {
			continue
		}
		songs = append(songs, s)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

func (r *fakeSongRepo) Update(_ context.Context, song domain.Song) (domain.Song, error) {
	if _, ok := r.songs[song.ID]; !ok {
		return domain.Song{}, repository.ErrSongNotFound
	}
	r.songs[song.ID] = song
	return song, nil
}

func (r *fakeSongRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.songs[id]; !ok {
		return repository.ErrSongNotFound
	}
	delete(r.songs, id)
	return nil
}

type ledgerKey struct {
	contributionID, userID uint
}

type fakeContributionRepo struct {
	contributions map[uint]domain.Contribution
	ledgers       map[ledgerKey]domain.PaymentLedger
	nextID        uint
}

func newFakeContributionRepo(contributions ...domain.Contribution) *fakeContributionRepo {
	r := &fakeContributionRepo{
		contributions: map[uint]domain.Contribution{},
		ledgers:       map[ledgerKey]domain.PaymentLedger{},
	}
	for _, c := range contributions {
		r.contributions[c.ID] = c
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *fakeContributionRepo) Create(_ context.Context, c domain.Contribution) (domain.Contribution, error) {
	r.nextID++
	c.ID = r.nextID
	r.contributions[c.ID] = c
	return c, nil
}

func (r *fakeContributionRepo) FindByID(_ context.Context, id uint) (domain.Contribution, error) {
	c, ok := r.contributions[id]
	if !ok {
		return domain.Contribution{}, repository.ErrContributionNotFound
	}
	return c, nil
}

func (r *fakeContributionRepo) FindAll(_ context.Context) ([]domain.Contribution, error) {
	all := make([]domain.Contribution, 0, len(r.contributions))
	for _, c := range r.contributions {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *fakeContributionRepo) Update(_ context.Context, c domain.Contribution) (domain.Contribution, error) {
	if _, ok := r.contributions[c.ID]; !ok {
		return domain.Contribution{}, repository.ErrContributionNotFound
	}
	r.contributions[c.ID] = c
	for k, l := range r.ledgers {
		if k.contributionID == c.ID {
			l.IsPaid = l.AmountPaid >= c.TargetAmount
			r.ledgers[k] = l
		}
	}
	return c, nil
}

func (r *fakeContributionRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.contributions[id]; !ok {
		return repository.ErrContributionNotFound
	}
	delete(r.contributions, id)
	return nil
}

func (r *fakeContributionRepo) FindLedgers(_ context.Context, contributionID uint) ([]domain.PaymentLedger, error) {
	return r.filterLedgers(func(k ledgerKey) bool { return k.contributionID == contributionID }), nil
}

func (r *fakeContributionRepo) FindLedgersByUserID(_ context.Context, userID uint) ([]domain.PaymentLedger, error) {
	return r.filterLedgers(func(k ledgerKey) bool { return k.userID == userID }), nil
}

// UpdateLedger only stores the ledger when fn succeeds.
func (r *fakeContributionRepo) UpdateLedger(
	_ context.Context, contributionID, userID uint, fn func(ledger *domain.PaymentLedger) error,
) (domain.PaymentLedger, error) {
	key := ledgerKey{contributionID, userID}
	ledger, ok := r.ledgers[key]
	if !ok {
		ledger = domain.PaymentLedger{ContributionID: contributionID, UserID: userID}
	}
	ledger.PaymentHistory = append([]domain.PaymentEntry(nil), ledger.PaymentHistory...)

	if err := fn(&ledger); err != nil {
		return domain.PaymentLedger{}, err
	}
	r.ledgers[key] = ledger
	return ledger, nil
}

func (r *fakeContributionRepo) filterLedgers(keep func(ledgerKey) bool) []domain.PaymentLedger {
	ledgers := make([]domain.PaymentLedger, 0)
	for k, l := range r.ledgers {
		if keep(k) {
			ledgers = append(ledgers, l)
		}
	}
	sort.Slice(ledgers, func(i, j int) bool {
		if ledgers[i].ContributionID != ledgers[j].ContributionID {
			return ledgers[i].ContributionID < ledgers[j].ContributionID
		}
		return ledgers[i].UserID < ledgers[j].UserID
	})
	return ledgers
}

type notice struct {
	kind    string
	payload any
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(kind string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{kind: kind, payload: payload})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, len(n.notices))
	for i, nt := range n.notices {
		kinds[i] = nt.kind
	}
	return kinds
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
