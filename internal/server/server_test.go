package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"inkwell/internal/billing"
	"inkwell/internal/config"
	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-session-secret"

// gatewayStub is a stub for billing.Gateway.
type gatewayStub struct {
	createCustomerFn func(context.Context, billing.CustomerRequest) (string, error)
	createCheckoutFn func(context.Context, billing.CheckoutRequest) (*billing.CheckoutSession, error)
	parseWebhookFn   func([]byte, string) (*billing.Event, error)
}

func (g *gatewayStub) CreateCustomer(ctx context.Context, req billing.CustomerRequest) (string, error) {
	return g.createCustomerFn(ctx, req)
}
func (g *gatewayStub) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	return g.createCheckoutFn(ctx, req)
}
func (g *gatewayStub) GetSubscription(context.Context, string) (*billing.Subscription, error) {
	return nil, errors.New("not stubbed")
}
func (g *gatewayStub) ParseWebhook(payload []byte, sig string) (*billing.Event, error) {
	return g.parseWebhookFn(payload, sig)
}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	tokens  *identity.HMACVerifier
	gateway *gatewayStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		Port:          "0",
		Env:           "test",
		BaseURL:       "http://inkwell.test",
		FeatureFlags:  "blog_cache=on",
		AuthLoginURL:  "https://auth.test/login",
		AuthLogoutURL: "https://auth.test/logout",
		SessionSecret: testSecret,
		StripePriceID: "price_123",
	}
	verifier := identity.NewHMACVerifier(testSecret, "", "")
	gw := &gatewayStub{}
	srv := NewServer(cfg, db, nil, verifier, gw)
	return &testEnv{app: srv.App(), db: db, tokens: verifier, gateway: gw}
}

func (e *testEnv) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := e.tokens.Issue(identity.Session{Subject: subject, Email: subject + "@example.com", GivenName: "Test"}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) postForm(t *testing.T, path, token string, values url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func siteValues(sub string) url.Values {
	return url.Values{"name": {"My Blog"}, "description": {"Notes"}, "subdirectory": {sub}}
}

func articleValues(siteID string) url.Values {
	return url.Values{
		"title":            {"Hello"},
		"smallDescription": {"First post"},
		"slug":             {"hello"},
		"articleContent":   {testutil.SampleArticle},
		"coverImage":       {"https://img.example.com/c.png"},
		"siteId":           {siteID},
	}
}

func countSites(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Site{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/health/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Dashboard redirects to login", func(t *testing.T) {
		resp := env.get(t, "/dashboard/sites", "")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/api/auth/login", resp.Header.Get("Location"))
	})

	t.Run("API answers 401", func(t *testing.T) {
		resp := env.get(t, "/api/me", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Forged token is rejected", func(t *testing.T) {
		other := identity.NewHMACVerifier("another-secret", "", "")
		tok, err := other.Issue(identity.Session{Subject: "kp_1"}, time.Hour)
		require.NoError(t, err)
		resp := env.get(t, "/api/me", tok)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Bearer token provisions the user", func(t *testing.T) {
		resp := env.get(t, "/api/me", env.token(t, "kp_new"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var user models.User
		decode(t, resp, &user)
		assert.Equal(t, "kp_new", user.ID)
		assert.Equal(t, "kp_new@example.com", user.Email)
	})

	t.Run("Session cookie is accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/sites", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: env.token(t, "kp_cookie")})
		resp := env.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAuthRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/auth/login", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://auth.test/login", resp.Header.Get("Location"))

	resp = env.get(t, "/api/auth/logout", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://auth.test/logout", resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), sessionCookie+"=")

	resp = env.get(t, "/api/auth/callback?token="+url.QueryEscape(env.token(t, "kp_cb")), "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), sessionCookie+"=")
	assert.Contains(t, strings.ToLower(resp.Header.Get("Set-Cookie")), "httponly")

	resp = env.get(t, "/api/auth/callback?token=garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// A free user may create one site; the second attempt is sent to pricing.
func TestCreateSite_Quota(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "kp_free")

	resp := env.postForm(t, "/dashboard/sites", tok, siteValues("my-blog"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/sites", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countSites(t, env.db, "kp_free"))

	resp = env.postForm(t, "/dashboard/sites", tok, siteValues("my-blog-2"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/pricing", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countSites(t, env.db, "kp_free"))
}

// A subdirectory owned by someone else is reported against the field.
func TestCreateSite_SubdirectoryTaken(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	testutil.CreateSite(t, env.db, "kp_owner", "my-blog")

	resp := env.postForm(t, "/dashboard/sites", env.token(t, "kp_other"), siteValues("my-blog"))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body validationResponse
	decode(t, resp, &body)
	assert.Equal(t, "error", body.Status)
	assert.NotEmpty(t, body.Error["subdirectory"])
	assert.Equal(t, "my-blog", body.InitialValue["subdirectory"])
	assert.Equal(t, int64(0), countSites(t, env.db, "kp_other"))
}

// Editing someone else's article redirects but changes nothing.
func TestEditArticle_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	site := testutil.CreateSite(t, env.db, "kp_owner", "owned")
	post := testutil.CreatePost(t, env.db, "kp_owner", site.ID, "original")

	values := articleValues(site.ID.String())
	values.Set("articleId", post.ID.String())
	values.Set("title", "Hijacked")

	resp := env.postForm(t, "/dashboard/articles/edit", env.token(t, "kp_intruder"), values)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/sites/"+site.ID.String(), resp.Header.Get("Location"))

	var stored models.Post
	require.NoError(t, env.db.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, post.Title, stored.Title)
}

func TestArticleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	site := testutil.CreateSite(t, env.db, "kp_owner", "owned")
	tok := env.token(t, "kp_owner")
	back := "/dashboard/sites/" + site.ID.String()

	resp := env.postForm(t, "/dashboard/articles", tok, articleValues(site.ID.String()))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, back, resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, env.db.First(&post, "site_id = ? AND slug = ?", site.ID, "hello").Error)

	resp = env.get(t, back+"/articles/"+post.ID.String(), tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	values := articleValues(site.ID.String())
	values.Set("articleId", post.ID.String())
	values.Set("title", "Hello again")
	resp = env.postForm(t, "/dashboard/articles/edit", tok, values)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NoError(t, env.db.First(&post, "id = ?", post.ID).Error)
	assert.Equal(t, "Hello again", post.Title)

	resp = env.postForm(t, "/dashboard/articles/delete", tok, url.Values{
		"siteId": {site.ID.String()}, "articleId": {post.ID.String()},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, back, resp.Header.Get("Location"))
	assert.ErrorIs(t, env.db.First(&models.Post{}, "id = ?", post.ID).Error, gorm.ErrRecordNotFound)
}

func TestCreateArticle_ForeignSiteDenied(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	site := testutil.CreateSite(t, env.db, "kp_owner", "owned")

	resp := env.postForm(t, "/dashboard/articles", env.token(t, "kp_intruder"), articleValues(site.ID.String()))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/sites", resp.Header.Get("Location"))

	var n int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateArticle_InvalidContent(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	site := testutil.CreateSite(t, env.db, "kp_owner", "owned")

	values := articleValues(site.ID.String())
	values.Set("articleContent", "not json")
	resp := env.postForm(t, "/dashboard/articles", env.token(t, "kp_owner"), values)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body validationResponse
	decode(t, resp, &body)
	assert.NotEmpty(t, body.Error["articleContent"])
	assert.Equal(t, "not json", body.InitialValue["articleContent"])
}

func TestSiteRoutes(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	site := testutil.CreateSite(t, env.db, "kp_owner", "owned")
	testutil.CreatePost(t, env.db, "kp_owner", site.ID, "first")
	tok := env.token(t, "kp_owner")

	resp := env.get(t, "/dashboard/sites/"+site.ID.String(), tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Site  models.Site   `json:"site"`
		Posts []models.Post `json:"posts"`
	}
	decode(t, resp, &view)
	assert.Equal(t, "owned", view.Site.Subdirectory)
	assert.Len(t, view.Posts, 1)

	resp = env.get(t, "/dashboard/sites/"+site.ID.String(), env.token(t, "kp_intruder"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.get(t, "/dashboard/sites/not-a-uuid", tok)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.postForm(t, "/dashboard/sites/image", tok, url.Values{
		"siteId": {site.ID.String()}, "imageUrl": {"https://img.example.com/site.png"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	var stored models.Site
	require.NoError(t, env.db.First(&stored, "id = ?", site.ID).Error)
	require.NotNil(t, stored.ImageURL)
	assert.Equal(t, "https://img.example.com/site.png", *stored.ImageURL)

	resp = env.postForm(t, "/dashboard/sites/delete", env.token(t, "kp_intruder"), url.Values{"siteId": {site.ID.String()}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, int64(1), countSites(t, env.db, "kp_owner"))

	resp = env.postForm(t, "/dashboard/sites/delete", tok, url.Values{"siteId": {site.ID.String()}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/sites", resp.Header.Get("Location"))
	assert.Equal(t, int64(0), countSites(t, env.db, "kp_owner"))
}

func TestDashboardReads(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "kp_reader")

	resp := env.get(t, "/dashboard", tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/dashboard/pricing", tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pricing struct {
		PriceID       string `json:"price_id"`
		CanCreateSite bool   `json:"can_create_site"`
	}
	decode(t, resp, &pricing)
	assert.Equal(t, "price_123", pricing.PriceID)
	assert.True(t, pricing.CanCreateSite)

	resp = env.get(t, "/dashboard/slug?title="+url.QueryEscape("Hello, World!"), tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slug map[string]string
	decode(t, resp, &slug)
	assert.Equal(t, "hello-world", slug["slug"])
}

func TestPublicBlog(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_owner")
	site := testutil.CreateSite(t, env.db, "kp_owner", "my-blog")
	testutil.CreatePost(t, env.db, "kp_owner", site.ID, "first")

	resp := env.get(t, "/blog/my-blog", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var blog struct {
		Name  string `json:"name"`
		Posts []struct {
			Link string `json:"link"`
		} `json:"posts"`
	}
	decode(t, resp, &blog)
	assert.Equal(t, "Site my-blog", blog.Name)
	require.Len(t, blog.Posts, 1)
	assert.Equal(t, "/blog/my-blog/first", blog.Posts[0].Link)

	resp = env.get(t, "/blog/my-blog/first", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/blog/nobody", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartCheckout(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.createCustomerFn = func(_ context.Context, req billing.CustomerRequest) (string, error) {
		return "cus_" + req.UserID, nil
	}
	env.gateway.createCheckoutFn = func(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
		assert.Equal(t, "price_123", req.PriceID)
		assert.Equal(t, "http://inkwell.test/dashboard/payment/success", req.SuccessURL)
		return &billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.test/cs_1"}, nil
	}

	resp := env.postForm(t, "/dashboard/billing/checkout", env.token(t, "kp_buyer"), url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://checkout.test/cs_1", resp.Header.Get("Location"))

	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", "kp_buyer").Error)
	require.NotNil(t, user.CustomerID)
	assert.Equal(t, "cus_kp_buyer", *user.CustomerID)
}

func TestStartCheckout_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.createCustomerFn = func(context.Context, billing.CustomerRequest) (string, error) {
		return "", errors.New("provider down")
	}

	resp := env.postForm(t, "/dashboard/billing/checkout", env.token(t, "kp_buyer"), url.Values{})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestStripeWebhook(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "kp_sub")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", "kp_sub").Update("customer_id", "cus_1").Error)

	env.gateway.parseWebhookFn = func(_ []byte, sig string) (*billing.Event, error) {
		if sig != "good" {
			return nil, errors.New("bad signature")
		}
		return &billing.Event{ID: "evt_1", Type: "customer.subscription.created", Subscription: &billing.Subscription{
			ID: "sub_1", CustomerID: "cus_1", Status: "active", PriceID: "price_123", Interval: "month",
		}}, nil
	}

	send := func(sig string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		req.Header.Set("Stripe-Signature", sig)
		return env.do(t, req)
	}

	assert.Equal(t, http.StatusUnprocessableEntity, send("bad").StatusCode)

	assert.Equal(t, http.StatusOK, send("good").StatusCode)
	var sub models.Subscription
	require.NoError(t, env.db.First(&sub, "user_id = ?", "kp_sub").Error)
	assert.True(t, sub.IsActive())

	// A subscriber is no longer limited to one site.
	tok := env.token(t, "kp_sub")
	for _, name := range []string{"first-site", "second-site"} {
		resp := env.postForm(t, "/dashboard/sites", tok, siteValues(name))
		assert.Equal(t, "/dashboard/sites", resp.Header.Get("Location"))
	}
	assert.Equal(t, int64(2), countSites(t, env.db, "kp_sub"))
}
