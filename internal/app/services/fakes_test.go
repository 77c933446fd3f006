package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
)

// memStore backs every fake repository so that cross-table reads see the same data
type memStore struct {
	mu sync.Mutex

	nextID    int64
	users     map[int64]*models.User
	labs      map[int64]*models.Lab
	members   map[[2]int64]bool // lab, user
	posts     map[int64]*models.Post
	subs      map[subKey]time.Time
	likes     map[[2]int64]bool // post, user
	interests map[int64]*models.Interest
	userInts  map[int64][]int64
	approvals map[[2]int64]*models.PendingApproval // prof, student
	tokens    map[string]*models.RefreshToken

	feedQueries   int
	followeeReads int
}

type subKey struct {
	follower int64
	followee models.Ref
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]*models.User{},
		labs:      map[int64]*models.Lab{},
		members:   map[[2]int64]bool{},
		posts:     map[int64]*models.Post{},
		subs:      map[subKey]time.Time{},
		likes:     map[[2]int64]bool{},
		interests: map[int64]*models.Interest{},
		userInts:  map[int64][]int64{},
		approvals: map[[2]int64]*models.PendingApproval{},
		tokens:    map[string]*models.RefreshToken{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *memStore) sortedUsers(ids []int64) []*models.User {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out
}

// users

type fakeUserRepo struct{ *memStore }

func (r fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if u.Username == user.Username {
			return apperrors.ErrUsernameAlreadyExists
		}
	}
	user.ID = r.id()
	user.CreatedAt = time.Now()
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r fakeUserRepo) SetEmailVerified(_ context.Context, userID int64, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.EmailVerified = verified
	return nil
}

func (r fakeUserRepo) UpdateLastLogin(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r fakeUserRepo) ListByProfessor(_ context.Context, profID int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, u := range r.users {
		if u.IsSupervisedBy(profID) {
			ids = append(ids, u.ID)
		}
	}
	return r.sortedUsers(ids), nil
}

func (r fakeUserRepo) SearchByName(_ context.Context, userType models.UserType, query string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, u := range r.users {
		if u.UserType == userType && strings.Contains(u.Name, query) {
			ids = append(ids, u.ID)
		}
	}
	return r.sortedUsers(ids), nil
}

// labs

type fakeLabRepo struct{ *memStore }

func (r fakeLabRepo) Create(_ context.Context, lab *models.Lab) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lab.ID = r.id()
	lab.CreatedAt = time.Now()
	c := *lab
	r.labs[lab.ID] = &c
	r.members[[2]int64{lab.ID, lab.CreatedBy}] = true
	return nil
}

func (r fakeLabRepo) GetByID(_ context.Context, id int64) (*models.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.labs[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, apperrors.ErrLabNotFound
}

func (r fakeLabRepo) sorted(match func(*models.Lab) bool) []*models.Lab {
	out := []*models.Lab{}
	for _, l := range r.labs {
		if match(l) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeLabRepo) List(_ context.Context, offset uint64, limit int) ([]*models.Lab, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(*models.Lab) bool { return true })
	return window(all, offset, limit), int64(len(all)), nil
}

func (r fakeLabRepo) SearchByName(_ context.Context, query string) ([]*models.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l *models.Lab) bool { return strings.Contains(l.Name, query) }), nil
}

func (r fakeLabRepo) AddMember(_ context.Context, labID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.labs[labID]; !ok {
		return false, apperrors.ErrLabNotFound
	}
	key := [2]int64{labID, userID}
	if r.members[key] {
		return false, nil
	}
	r.members[key] = true
	return true, nil
}

func (r fakeLabRepo) RemoveMember(_ context.Context, labID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{labID, userID}
	if !r.members[key] {
		return false, nil
	}
	delete(r.members, key)
	return true, nil
}

func (r fakeLabRepo) IsMember(_ context.Context, labID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[[2]int64{labID, userID}], nil
}

func (r fakeLabRepo) Members(_ context.Context, labID int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for key := range r.members {
		if key[0] == labID {
			ids = append(ids, key[1])
		}
	}
	return r.sortedUsers(ids), nil
}

func (r fakeLabRepo) CountMembers(ctx context.Context, labID int64) (int64, error) {
	members, err := r.Members(ctx, labID)
	return int64(len(members)), err
}

func (r fakeLabRepo) ListForMember(_ context.Context, userID int64) ([]*models.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l *models.Lab) bool { return r.members[[2]int64{l.ID, userID}] }), nil
}

// posts

type fakePostRepo struct{ *memStore }

func (r fakePostRepo) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = r.id()
	post.LikeCount = 0
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	c := *post
	r.posts[post.ID] = &c
	return nil
}

func (r fakePostRepo) GetByID(_ context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, apperrors.ErrPostNotFound
}

func (r fakePostRepo) newestFirst(match func(*models.Post) bool) []*models.Post {
	out := []*models.Post{}
	for _, p := range r.posts {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r fakePostRepo) List(_ context.Context, offset uint64, limit int) ([]*models.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.newestFirst(func(*models.Post) bool { return true })
	return window(all, offset, limit), int64(len(all)), nil
}

func (r fakePostRepo) ListByAuthor(_ context.Context, author models.Ref, offset uint64, limit int) ([]*models.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.newestFirst(func(p *models.Post) bool { return p.Author == author })
	return window(all, offset, limit), int64(len(all)), nil
}

func (r fakePostRepo) ListByAuthors(_ context.Context, userIDs, labIDs []int64, offset uint64, limit int) ([]*models.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedQueries++
	in := func(ids []int64, id int64) bool {
		for _, x := range ids {
			if x == id {
				return true
			}
		}
		return false
	}
	all := r.newestFirst(func(p *models.Post) bool {
		if p.Author.IsUser() {
			return in(userIDs, p.Author.ID)
		}
		return in(labIDs, p.Author.ID)
	})
	return window(all, offset, limit), int64(len(all)), nil
}

func (r fakePostRepo) TopLiked(_ context.Context, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.newestFirst(func(*models.Post) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].LikeCount != all[j].LikeCount {
			return all[i].LikeCount > all[j].LikeCount
		}
		return all[i].ID < all[j].ID
	})
	return window(all, 0, limit), nil
}

// likes

type fakeLikeRepo struct{ *memStore }

func (r fakeLikeRepo) mutate(postID, userID int64, like bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return 0, apperrors.ErrPostNotFound
	}
	key := [2]int64{postID, userID}
	if like {
		r.likes[key] = true
	} else {
		delete(r.likes, key)
	}
	var count int64
	for k := range r.likes {
		if k[0] == postID {
			count++
		}
	}
	p.LikeCount = count
	return count, nil
}

func (r fakeLikeRepo) Like(_ context.Context, postID, userID int64) (int64, error) {
	return r.mutate(postID, userID, true)
}

func (r fakeLikeRepo) Unlike(_ context.Context, postID, userID int64) (int64, error) {
	return r.mutate(postID, userID, false)
}

func (r fakeLikeRepo) HasLiked(_ context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[[2]int64{postID, userID}], nil
}

// subscriptions

type fakeSubRepo struct{ *memStore }

func (r fakeSubRepo) Create(_ context.Context, followerID int64, followee models.Ref) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if followee.IsUser() && followee.ID == followerID {
		return false, apperrors.NewConflictError("you cannot follow yourself")
	}
	key := subKey{followerID, followee}
	if _, ok := r.subs[key]; ok {
		return false, nil
	}
	r.subs[key] = time.Now()
	return true, nil
}

func (r fakeSubRepo) Delete(_ context.Context, followerID int64, followee models.Ref) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := subKey{followerID, followee}
	if _, ok := r.subs[key]; !ok {
		return false, nil
	}
	delete(r.subs, key)
	return true, nil
}

func (r fakeSubRepo) Exists(_ context.Context, followerID int64, followee models.Ref) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[subKey{followerID, followee}]
	return ok, nil
}

func (r fakeSubRepo) FolloweeIDs(_ context.Context, followerID int64, kind models.RefKind) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followeeReads++
	var ids []int64
	for key := range r.subs {
		if key.follower == followerID && key.followee.Kind == kind {
			ids = append(ids, key.followee.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r fakeSubRepo) FollowerIDs(_ context.Context, followee models.Ref) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for key := range r.subs {
		if key.followee == followee {
			ids = append(ids, key.follower)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r fakeSubRepo) Followers(ctx context.Context, followee models.Ref) ([]*models.User, error) {
	ids, _ := r.FollowerIDs(ctx, followee)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedUsers(ids), nil
}

func (r fakeSubRepo) FollowedUsers(ctx context.Context, followerID int64) ([]*models.User, error) {
	ids, _ := r.FolloweeIDs(ctx, followerID, models.RefKindUser)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedUsers(ids), nil
}

func (r fakeSubRepo) FollowedLabs(ctx context.Context, followerID int64) ([]*models.Lab, error) {
	ids, _ := r.FolloweeIDs(ctx, followerID, models.RefKindLab)
	out := []*models.Lab{}
	for _, id := range ids {
		if l, err := (fakeLabRepo{r.memStore}).GetByID(ctx, id); err == nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r fakeSubRepo) CountFollowers(ctx context.Context, followee models.Ref) (int64, error) {
	ids, err := r.FollowerIDs(ctx, followee)
	return int64(len(ids)), err
}

func (r fakeSubRepo) TopFollowedUsers(_ context.Context, limit int) ([]*models.UserFollowers, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[int64]int64{}
	for key := range r.subs {
		if key.followee.IsUser() {
			counts[key.followee.ID]++
		}
	}
	out := []*models.UserFollowers{}
	for id, n := range counts {
		if u, ok := r.users[id]; ok {
			out = append(out, &models.UserFollowers{User: copyUser(u), Followers: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Followers != out[j].Followers {
			return out[i].Followers > out[j].Followers
		}
		return out[i].User.ID < out[j].User.ID
	})
	return window(out, 0, limit), nil
}

// approvals

type fakeApprovalRepo struct{ *memStore }

func (r fakeApprovalRepo) Create(_ context.Context, profID, studentID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{profID, studentID}
	if _, ok := r.approvals[key]; ok {
		return false, nil
	}
	r.approvals[key] = &models.PendingApproval{ProfID: profID, StudentID: studentID, CreatedAt: time.Now()}
	return true, nil
}

func (r fakeApprovalRepo) Exists(_ context.Context, profID, studentID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.approvals[[2]int64{profID, studentID}]
	return ok, nil
}

func (r fakeApprovalRepo) ListForProfessor(_ context.Context, profID int64) ([]*models.PendingApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.PendingApproval{}
	for key, a := range r.approvals {
		if key[0] == profID {
			c := *a
			c.Student = copyUser(r.users[a.StudentID])
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (r fakeApprovalRepo) Accept(_ context.Context, profID, studentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{profID, studentID}
	if _, ok := r.approvals[key]; !ok {
		return apperrors.ErrApprovalNotFound
	}
	delete(r.approvals, key)
	student, ok := r.users[studentID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	student.ProfID = &profID
	return nil
}

func (r fakeApprovalRepo) Delete(_ context.Context, profID, studentID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{profID, studentID}
	if _, ok := r.approvals[key]; !ok {
		return false, nil
	}
	delete(r.approvals, key)
	return true, nil
}

// interests

type fakeInterestRepo struct{ *memStore }

func (r fakeInterestRepo) sorted(ids []int64) []*models.Interest {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []*models.Interest{}
	for _, id := range ids {
		if in, ok := r.interests[id]; ok {
			c := *in
			out = append(out, &c)
		}
	}
	return out
}

func (r fakeInterestRepo) List(_ context.Context) ([]*models.Interest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.interests))
	for id := range r.interests {
		ids = append(ids, id)
	}
	return r.sorted(ids), nil
}

func (r fakeInterestRepo) GetByIDs(_ context.Context, ids []int64) ([]*models.Interest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(append([]int64(nil), ids...)), nil
}

func (r fakeInterestRepo) ListForUser(_ context.Context, userID int64) ([]*models.Interest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(append([]int64(nil), r.userInts[userID]...)), nil
}

func (r fakeInterestRepo) ReplaceForUser(_ context.Context, userID int64, interestIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userInts[userID] = append([]int64(nil), interestIDs...)
	return nil
}

func (r fakeInterestRepo) UsersByInterestName(_ context.Context, query string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for userID, interestIDs := range r.userInts {
		for _, id := range interestIDs {
			if in, ok := r.interests[id]; ok && strings.Contains(in.Name, query) && !seen[userID] {
				seen[userID] = true
				ids = append(ids, userID)
			}
		}
	}
	return r.sortedUsers(ids), nil
}

func (r fakeInterestRepo) EnsureNames(_ context.Context, names []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var added int64
	for _, name := range names {
		exists := false
		for _, in := range r.interests {
			if in.Name == name {
				exists = true
				break
			}
		}
		if !exists {
			id := r.id()
			r.interests[id] = &models.Interest{ID: id, Name: name}
			added++
		}
	}
	return added, nil
}

// tokens

type fakeTokenRepo struct{ *memStore }

func (r fakeTokenRepo) CreateToken(_ context.Context, token string, userID int64, expiryDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{ID: r.id(), Token: token, UserID: userID, ExpiryDate: expiryDate, CreatedAt: time.Now()}
	return nil
}

func (r fakeTokenRepo) GetTokenByValue(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	c := *t
	return &c, nil
}

func (r fakeTokenRepo) RevokeToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.IsRevoked = true
	return nil
}

func (r fakeTokenRepo) RevokeAllUserTokens(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.IsRevoked = true
		}
	}
	return nil
}

func window[T any](items []T, offset uint64, limit int) []T {
	if offset >= uint64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// collaborators

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) record(m sentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) SendVerificationEmail(toEmail, _, token string) error {
	return f.record(sentMail{kind: "verify", to: toEmail, token: token})
}

func (f *fakeMailer) SendWelcomeEmail(toEmail, _ string) error {
	return f.record(sentMail{kind: "welcome", to: toEmail})
}

func (f *fakeMailer) SendSupervisionRequestEmail(toEmail, _, _ string) error {
	return f.record(sentMail{kind: "supervision", to: toEmail})
}

func (f *fakeMailer) last(kind string) (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == kind {
			return f.sent[i], true
		}
	}
	return sentMail{}, false
}

type publishedPost struct {
	recipients []int64
	post       *models.Post
}

type recordingNotifier struct {
	mu        sync.Mutex
	published []publishedPost
}

func (n *recordingNotifier) PostPublished(recipientIDs []int64, post *models.Post) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, publishedPost{recipients: recipientIDs, post: post})
}
