package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/labsphere/internal/app/auth"
	"github.com/yigit/labsphere/internal/app/models"
	pkgauth "github.com/yigit/labsphere/internal/pkg/auth"
)

type testEnv struct {
	store    *memStore
	users    fakeUserRepo
	labs     fakeLabRepo
	posts    fakePostRepo
	subs     fakeSubRepo
	mailer   *fakeMailer
	notifier *recordingNotifier
	jwt      *pkgauth.JWTService

	social  SocialService
	content ContentService
	lab     LabService
	account AccountService
	auth    *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	env := &testEnv{
		store:    store,
		users:    fakeUserRepo{store},
		labs:     fakeLabRepo{store},
		posts:    fakePostRepo{store},
		subs:     fakeSubRepo{store},
		mailer:   &fakeMailer{},
		notifier: &recordingNotifier{},
		jwt: pkgauth.NewJWTService(pkgauth.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenExp:  time.Hour,
			RefreshTokenExp: 24 * time.Hour,
			EmailTokenExp:   time.Hour,
			TokenIssuer:     "labsphere.test",
		}),
	}

	log := zerolog.Nop()
	authz := appauth.NewAuthorizationService(env.users, env.labs)
	approvals := fakeApprovalRepo{store}
	interests := fakeInterestRepo{store}

	env.social = NewSocialService(env.users, env.labs, env.subs, approvals, authz, env.mailer, log)
	env.content = NewContentService(env.posts, fakeLikeRepo{store}, env.subs, env.users, env.labs, interests,
		authz, env.notifier, ContentConfig{PageSize: 10, TrendingLimit: 5}, log)
	env.lab = NewLabService(env.labs, env.subs, env.posts, log)
	env.auth = NewAuthService(env.users, fakeTokenRepo{store}, env.jwt, env.mailer, log)
	env.account = NewAccountService(env.users, interests, env.posts, env.social, env.lab, env.auth, log)
	return env
}

var testPasswordHash = sync.OnceValues(func() (string, error) {
	return pkgauth.HashPassword("password123")
})

func (e *testEnv) addUser(t *testing.T, name string, userType models.UserType) *models.User {
	t.Helper()
	hash, err := testPasswordHash()
	require.NoError(t, err)
	u := &models.User{
		Name:       name,
		Username:   name,
		Email:      name + "@uni.edu",
		Password:   hash,
		ProfilePic: models.DefaultProfilePic,
		UserType:   userType,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) addPost(t *testing.T, author models.Ref, title string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: title + " body", Author: author, CreatedAt: at}
	require.NoError(t, e.posts.Create(context.Background(), p))
	return p
}
