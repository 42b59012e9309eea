package seed

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"
	"inkwell/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixtures(t *testing.T) {
	f, err := DefaultFixtures()
	require.NoError(t, err)
	assert.NotEmpty(t, f.Users)
	assert.NotEmpty(t, f.Sites)
	assert.NotEmpty(t, f.Posts)

	for _, s := range f.Sites {
		assert.True(t, validation.IsSlug(s.Subdirectory), s.Subdirectory)
		assert.False(t, validation.IsReservedSubdirectory(s.Subdirectory), s.Subdirectory)
	}
	for _, p := range f.Posts {
		assert.True(t, validation.IsSlug(p.Slug), p.Slug)
	}
}

func TestLoadFixtures_RejectsDanglingReferences(t *testing.T) {
	_, err := LoadFixtures([]byte(`
users: []
sites:
  - owner: kp_ghost
    subdirectory: haunted
`))
	assert.ErrorContains(t, err, "unknown owner")

	_, err = LoadFixtures([]byte(`
posts:
  - site: nowhere
    slug: lost
`))
	assert.ErrorContains(t, err, "unknown site")

	_, err = LoadFixtures([]byte("users: [::"))
	assert.Error(t, err)
}

func TestApplyFixtures_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	f, err := DefaultFixtures()
	require.NoError(t, err)

	s := NewSeeder(db)
	require.NoError(t, s.ApplyFixtures(ctx, f))
	require.NoError(t, s.ApplyFixtures(ctx, f))

	var users, sites, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Site{}).Count(&sites).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(len(f.Users)), users)
	assert.Equal(t, int64(len(f.Sites)), sites)
	assert.Equal(t, int64(len(f.Posts)), posts)

	var post models.Post
	require.NoError(t, db.First(&post, "slug = ?", f.Posts[0].Slug).Error)
	doc, err := post.Document()
	require.NoError(t, err)
	assert.Equal(t, "doc", doc.Type)
	assert.Len(t, doc.Content, len(f.Posts[0].Paragraphs))

	require.NoError(t, s.ClearAll(ctx))
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestFactory_GeneratesValidContent(t *testing.T) {
	f := NewFactory(42)
	user := f.BuildUser()
	seen := map[string]bool{}

	for i := 0; i < 25; i++ {
		site := f.BuildSite(user.ID)
		assert.True(t, validation.IsSlug(site.Subdirectory), site.Subdirectory)
		assert.LessOrEqual(t, len(site.Subdirectory), validation.MaxSubdirectoryLength)
		assert.LessOrEqual(t, len(site.Name), validation.MaxSiteNameLength)
		assert.False(t, seen[site.Subdirectory], "duplicate subdirectory %s", site.Subdirectory)
		seen[site.Subdirectory] = true

		post, err := f.BuildPost(site)
		require.NoError(t, err)
		assert.True(t, validation.IsSlug(post.Slug), post.Slug)
		assert.LessOrEqual(t, len(post.Title), validation.MaxTitleLength)
		_, err = post.Document()
		assert.NoError(t, err)
	}
}

func TestSeeder_Generate(t *testing.T) {
	db := testutil.NewTestDB(t)
	users, err := NewSeeder(db).Generate(context.Background(), NewFactory(7), Options{Users: 3, PostsPerSite: 2})
	require.NoError(t, err)
	assert.Len(t, users, 3)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(6), posts)
}
