package service

import (
	"context"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBlog(t *testing.T, flags string) (*BlogService, *cache.Store, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := cache.NewStore(client)
	svc := NewBlogService(
		repository.NewSiteRepository(db),
		repository.NewPostRepository(db),
		store,
		featureflags.NewManager(flags),
	)
	return svc, store, db, mr
}

func TestBlogService_GetBlog(t *testing.T) {
	svc, _, db, _ := setupBlog(t, "blog_cache=off")
	testutil.CreateUser(t, db, "kp_1")
	site := testutil.CreateSite(t, db, "kp_1", "my-blog")
	testutil.CreatePost(t, db, "kp_1", site.ID, "first")

	blog, err := svc.GetBlog(context.Background(), "my-blog")
	require.NoError(t, err)
	assert.Equal(t, "Site my-blog", blog.Name)
	require.Len(t, blog.Posts, 1)
	assert.Equal(t, "/blog/my-blog/first", blog.Posts[0].Link)

	_, err = svc.GetBlog(context.Background(), "nobody")
	assert.True(t, models.IsNotFound(err))
}

func TestBlogService_GetArticle(t *testing.T) {
	svc, _, db, _ := setupBlog(t, "blog_cache=off")
	testutil.CreateUser(t, db, "kp_1")
	site := testutil.CreateSite(t, db, "kp_1", "my-blog")
	testutil.CreatePost(t, db, "kp_1", site.ID, "first")

	a, err := svc.GetArticle(context.Background(), "my-blog", "first")
	require.NoError(t, err)
	assert.Equal(t, "Site my-blog", a.SiteName)
	assert.JSONEq(t, testutil.SampleArticle, string(a.Content))

	_, err = svc.GetArticle(context.Background(), "my-blog", "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestBlogService_CachesWhenFlagOn(t *testing.T) {
	svc, store, db, mr := setupBlog(t, "blog_cache=on")
	ctx := context.Background()
	testutil.CreateUser(t, db, "kp_1")
	site := testutil.CreateSite(t, db, "kp_1", "my-blog")
	post := testutil.CreatePost(t, db, "kp_1", site.ID, "first")

	_, err := svc.GetBlog(ctx, "my-blog")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.BlogKey("my-blog")))

	require.NoError(t, db.Delete(&models.Post{}, "id = ?", post.ID).Error)

	blog, err := svc.GetBlog(ctx, "my-blog")
	require.NoError(t, err)
	assert.Len(t, blog.Posts, 1, "served from cache")

	require.NoError(t, store.InvalidateBlog(ctx, "my-blog"))
	blog, err = svc.GetBlog(ctx, "my-blog")
	require.NoError(t, err)
	assert.Empty(t, blog.Posts)
}

func TestBlogService_BypassesCacheWhenFlagOff(t *testing.T) {
	svc, _, db, mr := setupBlog(t, "blog_cache=off")
	testutil.CreateUser(t, db, "kp_1")
	testutil.CreateSite(t, db, "kp_1", "my-blog")

	_, err := svc.GetBlog(context.Background(), "my-blog")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.BlogKey("my-blog")))
}

func TestDashboardService(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	sites := repository.NewSiteRepository(db)
	posts := repository.NewPostRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	svc := NewDashboardService(sites, posts, NewEntitlementChecker(subs, sites), "price_123")

	testutil.CreateUser(t, db, "kp_1")
	testutil.CreateUser(t, db, "kp_2")
	site := testutil.CreateSite(t, db, "kp_1", "mine")
	testutil.CreatePost(t, db, "kp_1", site.ID, "a")
	other := testutil.CreateSite(t, db, "kp_2", "theirs")
	testutil.CreatePost(t, db, "kp_2", other.ID, "b")

	ov, err := svc.Overview(ctx, "kp_1")
	require.NoError(t, err)
	require.Len(t, ov.Sites, 1)
	assert.Equal(t, "mine", ov.Sites[0].Subdirectory)
	require.Len(t, ov.Posts, 1)
	assert.Equal(t, "a", ov.Posts[0].Slug)

	p, err := svc.Pricing(ctx, "kp_1")
	require.NoError(t, err)
	assert.Equal(t, "price_123", p.PriceID)
	assert.False(t, p.Entitlement.SubscriptionActive)
	assert.Equal(t, int64(1), p.Entitlement.SiteCount)
	assert.False(t, p.CanCreateSite)

	require.NoError(t, subs.Upsert(ctx, &models.Subscription{
		StripeSubscriptionID: "sub_1", UserID: "kp_1", Status: models.SubscriptionStatusActive,
	}))
	p, err = svc.Pricing(ctx, "kp_1")
	require.NoError(t, err)
	assert.True(t, p.CanCreateSite)
}
