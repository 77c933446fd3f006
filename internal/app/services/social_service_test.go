package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
)

func TestFollowTwiceIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addUser(t, "alice", models.UserTypeStudent)
	b := env.addUser(t, "bob", models.UserTypeStudent)

	require.NoError(t, env.social.Follow(ctx, a.ID, models.UserRef(b.ID)))

	err := env.social.Follow(ctx, a.ID, models.UserRef(b.ID))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	followers, err := env.social.Followers(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)
}

func TestFollowSelfIsConflict(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "alice", models.UserTypeStudent)

	err := env.social.Follow(context.Background(), a.ID, models.UserRef(a.ID))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Empty(t, env.store.subs)
}

func TestFollowUnknownFollowee(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "alice", models.UserTypeStudent)

	err := env.social.Follow(context.Background(), a.ID, models.LabRef(404))
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	err = env.social.Follow(context.Background(), a.ID, models.UserRef(404))
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestFollowLabAndUserAreDistinctEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addUser(t, "alice", models.UserTypeStudent)
	b := env.addUser(t, "bob", models.UserTypeStudent)
	lab := &models.Lab{Name: "Vision", CreatedBy: b.ID}
	require.NoError(t, env.labs.Create(ctx, lab))

	require.NoError(t, env.social.Follow(ctx, a.ID, models.UserRef(b.ID)))
	require.NoError(t, env.social.Follow(ctx, a.ID, models.LabRef(lab.ID)))

	following, err := env.social.Following(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, following.Users, 1)
	assert.Len(t, following.Labs, 1)
}

func TestUnfollowMissingIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addUser(t, "alice", models.UserTypeStudent)
	b := env.addUser(t, "bob", models.UserTypeStudent)
	c := env.addUser(t, "carol", models.UserTypeStudent)
	require.NoError(t, env.social.Follow(ctx, a.ID, models.UserRef(c.ID)))

	err := env.social.Unfollow(ctx, a.ID, models.UserRef(b.ID))
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.Len(t, env.store.subs, 1)

	require.NoError(t, env.social.Unfollow(ctx, a.ID, models.UserRef(c.ID)))
	following, err := env.social.IsFollowing(ctx, a.ID, models.UserRef(c.ID))
	require.NoError(t, err)
	assert.False(t, following)
}

func TestRequestSupervisionCreatesSinglePendingApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.addUser(t, "sam", models.UserTypeStudent)
	p := env.addUser(t, "prof", models.UserTypeProfessor)

	res, err := env.social.RequestSupervision(ctx, s.ID, p.Email)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Empty(t, res.Warning)

	res, err = env.social.RequestSupervision(ctx, s.ID, p.Email)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.NotEmpty(t, res.Warning)

	pending, err := env.social.PendingApprovals(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, s.ID, pending[0].StudentID)
	assert.False(t, pending[0].Relation)
	assert.Equal(t, "sam", pending[0].Student.Username)

	_, ok := env.mailer.last("supervision")
	assert.True(t, ok)
}

func TestRequestSupervisionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.addUser(t, "sam", models.UserTypeStudent)
	other := env.addUser(t, "olga", models.UserTypeStudent)

	_, err := env.social.RequestSupervision(ctx, s.ID, "nobody@uni.edu")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = env.social.RequestSupervision(ctx, s.ID, other.Email)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.social.RequestSupervision(ctx, s.ID, s.Email)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, env.store.approvals)
}

func TestResolveSupervisionAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.addUser(t, "sam", models.UserTypeStudent)
	p := env.addUser(t, "prof", models.UserTypeProfessor)

	_, err := env.social.RequestSupervision(ctx, s.ID, p.Email)
	require.NoError(t, err)
	require.NoError(t, env.social.ResolveSupervision(ctx, p.ID, s.ID, DecisionAccept))

	students, err := env.social.Students(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, s.ID, students[0].ID)
	assert.Empty(t, env.store.approvals)

	// already supervised: nothing new is created
	res, err := env.social.RequestSupervision(ctx, s.ID, p.Email)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Empty(t, env.store.approvals)
}

func TestResolveSupervisionReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.addUser(t, "sam", models.UserTypeStudent)
	p := env.addUser(t, "prof", models.UserTypeProfessor)

	_, err := env.social.RequestSupervision(ctx, s.ID, p.Email)
	require.NoError(t, err)
	require.NoError(t, env.social.ResolveSupervision(ctx, p.ID, s.ID, DecisionReject))

	student, err := env.users.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, student.ProfID)
	assert.Empty(t, env.store.approvals)
}

func TestResolveSupervisionWithoutPendingRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.addUser(t, "sam", models.UserTypeStudent)
	p := env.addUser(t, "prof", models.UserTypeProfessor)

	assert.ErrorIs(t, env.social.ResolveSupervision(ctx, p.ID, s.ID, DecisionAccept), apperrors.ErrResourceNotFound)
	assert.ErrorIs(t, env.social.ResolveSupervision(ctx, p.ID, s.ID, DecisionReject), apperrors.ErrResourceNotFound)
}

func TestResolveSupervisionRequiresProfessor(t *testing.T) {
	env := newTestEnv(t)
	s := env.addUser(t, "sam", models.UserTypeStudent)
	other := env.addUser(t, "olga", models.UserTypeStudent)

	err := env.social.ResolveSupervision(context.Background(), other.ID, s.ID, DecisionAccept)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestParseSupervisionDecision(t *testing.T) {
	d, err := ParseSupervisionDecision("delete")
	require.NoError(t, err)
	assert.Equal(t, DecisionReject, d)

	d, err = ParseSupervisionDecision("accept")
	require.NoError(t, err)
	assert.Equal(t, DecisionAccept, d)

	_, err = ParseSupervisionDecision("maybe")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
