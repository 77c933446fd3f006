package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
)

func TestCreateLabMakesCreatorMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", models.UserTypeProfessor)

	lab, err := env.lab.CreateLab(ctx, owner.ID, "  Vision Lab ", "pixels", "")
	require.NoError(t, err)
	assert.Equal(t, "Vision Lab", lab.Name)
	assert.Equal(t, models.DefaultLabImage, lab.Image)

	labs, err := env.lab.LabsOf(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, labs, 1)
	assert.Equal(t, lab.ID, labs[0].ID)
}

func TestCreateLabNameLength(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "owner", models.UserTypeProfessor)

	_, err := env.lab.CreateLab(context.Background(), owner.ID, "V", "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.lab.CreateLab(context.Background(), owner.ID, "This lab name is far too long to fit", "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestJoinAndLeaveLab(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", models.UserTypeProfessor)
	student := env.addUser(t, "sam", models.UserTypeStudent)
	lab, err := env.lab.CreateLab(ctx, owner.ID, "Vision", "", "")
	require.NoError(t, err)

	require.NoError(t, env.lab.JoinLab(ctx, lab.ID, student.ID))
	assert.ErrorIs(t, env.lab.JoinLab(ctx, lab.ID, student.ID), apperrors.ErrConflict)

	require.NoError(t, env.lab.LeaveLab(ctx, lab.ID, student.ID))
	assert.ErrorIs(t, env.lab.LeaveLab(ctx, lab.ID, student.ID), apperrors.ErrResourceNotFound)

	assert.ErrorIs(t, env.lab.JoinLab(ctx, 999, student.ID), apperrors.ErrResourceNotFound)
	assert.ErrorIs(t, env.lab.LeaveLab(ctx, 999, student.ID), apperrors.ErrResourceNotFound)
}

func TestGetLabDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", models.UserTypeProfessor)
	viewer := env.addUser(t, "viewer", models.UserTypeStudent)
	lab, err := env.lab.CreateLab(ctx, owner.ID, "Vision", "", "")
	require.NoError(t, err)

	require.NoError(t, env.social.Follow(ctx, viewer.ID, models.LabRef(lab.ID)))
	env.addPost(t, models.LabRef(lab.ID), "news", time.Now())

	detail, err := env.lab.GetLab(ctx, lab.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.MemberCount)
	assert.Equal(t, int64(1), detail.FollowerCount)
	assert.True(t, detail.IsFollowing)
	assert.False(t, detail.IsMember)
	assert.Equal(t, []string{"news"}, titles(detail.Posts))

	anon, err := env.lab.GetLab(ctx, lab.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)

	_, err = env.lab.GetLab(ctx, 999, 0)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestListLabsPaginates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", models.UserTypeProfessor)
	for _, name := range []string{"Lab A", "Lab B", "Lab C"} {
		_, err := env.lab.CreateLab(ctx, owner.ID, name, "", "")
		require.NoError(t, err)
	}

	page, err := env.lab.ListLabs(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Labs, 1)
	assert.Equal(t, "Lab C", page.Labs[0].Name)
}
