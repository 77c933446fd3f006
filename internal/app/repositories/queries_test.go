package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/labsphere/internal/app/models"
)

func TestFeedFilterEmpty(t *testing.T) {
	assert.Nil(t, feedFilter(nil, nil))
	assert.Nil(t, feedFilter([]int64{}, []int64{}))
}

func TestPagedFeedQuery(t *testing.T) {
	sql, args, err := pagedPostsQuery(feedFilter([]int64{2, 3}, []int64{9}), 10, 10).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM posts")
	assert.Contains(t, sql, "author_id IN ($1,$2) AND author_type = $3")
	assert.Contains(t, sql, "author_type = $4 AND lab_id IN ($5)")
	assert.Contains(t, sql, " OR ")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")
	assert.Equal(t, []interface{}{int64(2), int64(3), "user", "lab", int64(9)}, args)
}

func TestFeedQueryUsersOnly(t *testing.T) {
	sql, args, err := pagedPostsQuery(feedFilter([]int64{4}, nil), 0, 5).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "lab_id IN")
	assert.Equal(t, []interface{}{int64(4), "user"}, args)
}

func TestTopLikedPostsQuery(t *testing.T) {
	sql, _, err := topLikedPostsQuery(5).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY like_count DESC, id ASC LIMIT 5")
}

func TestTopFollowedUsersQuery(t *testing.T) {
	sql, args, err := topFollowedUsersQuery(5).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM subscriptions s JOIN users u ON u.id = s.followee_id WHERE s.followee_type = $1")
	assert.NotContains(t, sql, "LEFT JOIN")
	assert.Equal(t, []interface{}{"user"}, args)
	assert.Contains(t, sql, "GROUP BY u.id")
	assert.Contains(t, sql, "ORDER BY followers DESC, u.id ASC LIMIT 5")
}

func TestSearchUsersQueryEscapesWildcards(t *testing.T) {
	sql, args, err := searchUsersQuery(models.UserTypeProfessor, "50%_off").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "name LIKE $2")
	assert.Equal(t, []interface{}{models.UserTypeProfessor, `%50\%\_off%`}, args)
}

func TestUsersByInterestQueryIsDistinct(t *testing.T) {
	sql, args, err := usersByInterestQuery("Robot").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT DISTINCT u.id")
	assert.Contains(t, sql, "i.name LIKE $1")
	assert.Equal(t, []interface{}{"%Robot%"}, args)
}

func TestAuthorFilter(t *testing.T) {
	sql, args, err := authorFilter(models.LabRef(7)).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "author_type = $1 AND lab_id = $2", sql)
	assert.Equal(t, []interface{}{"lab", int64(7)}, args)
}

func TestLikeCountUpdate(t *testing.T) {
	sql, args, err := likeCountUpdate(psql, 3).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE posts SET like_count = (SELECT COUNT(*) FROM likes WHERE post_id = $1) WHERE id = $2 RETURNING like_count", sql)
	assert.Equal(t, []interface{}{int64(3), int64(3)}, args)
}

func TestUserColumnsAlias(t *testing.T) {
	cols := userColumns("u")
	assert.Equal(t, "u.id", cols[0])
	assert.Len(t, cols, len(userColumns("")))
}
