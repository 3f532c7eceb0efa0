package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"echoboard/internal/board"
	"echoboard/internal/codename"
	"echoboard/internal/config"
	"echoboard/internal/events"
	"echoboard/internal/models"
	"echoboard/internal/purify"
)

const testAdminToken = "test-admin-token"

// newAPIServer wires the handlers against an in-memory database. Routes
// are registered without the rate limiter so tests can hammer the write
// endpoints; the limiter has its own test via SetupRoutes.
func newAPIServer(t *testing.T) (*httptest.Server, *board.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.Post{}, &models.PostStats{}, &models.Vote{},
		&models.Report{}, &models.Ban{}, &models.AdminLog{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	hub := events.NewHub()
	svc := board.NewService(db, hub, purify.Thresholds{MinVotes: 10, PurifyRatio: 0.6, MeterRatio: 0.4})
	env := &Env{Board: svc, Hub: hub, Cfg: config.Config{AdminToken: testAdminToken}}

	router := gin.New()
	api := router.Group("/api")
	api.GET("/posts", env.GetPosts)
	api.GET("/trending", env.GetTrendingPosts)
	api.GET("/posts/:id", env.GetPost)
	api.GET("/codename", env.GetCodename)
	api.POST("/posts", env.CreatePost)
	api.POST("/posts/:id/vote", env.VoteOnPost)
	api.POST("/posts/:id/report", env.ReportPost)
	admin := api.Group("", AdminAuthMiddleware(testAdminToken))
	admin.DELETE("/posts/:id", env.DeletePost)
	admin.GET("/reports", env.ListReports)
	admin.POST("/bans", env.CreateBan)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreatePostEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts",
		gin.H{"content": "late night thought"},
		map[string]string{"X-Fingerprint": "fp-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var post models.Post
	decode(t, resp, &post)
	if post.ID == 0 || *post.Content != "late night thought" {
		t.Errorf("created post = %+v", post)
	}
}

func TestCreatePostWithoutFingerprint(t *testing.T) {
	srv, _ := newAPIServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts", gin.H{"content": "anon?"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestVoteEndpointGoneMapping(t *testing.T) {
	srv, _ := newAPIServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts/999/vote",
		gin.H{"value": 1},
		map[string]string{"X-Fingerprint": "fp-1"})
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("status = %d, want 410", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["error"] != "This echo has faded" {
		t.Errorf("error message = %q", body["error"])
	}
}

func TestVoteEndpointReturnsStats(t *testing.T) {
	srv, svc := newAPIServer(t)
	post := createTestPost(t, svc)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts/"+itoa(post.ID)+"/vote",
		gin.H{"value": -1},
		map[string]string{"X-Fingerprint": "fp-voter"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result board.VoteResult
	decode(t, resp, &result)
	if result.Stats.Downvotes != 1 || result.Purified {
		t.Errorf("result = %+v, want one downvote, not purified", result)
	}
}

func TestVoteEndpointBannedMapping(t *testing.T) {
	srv, svc := newAPIServer(t)
	post := createTestPost(t, svc)
	if err := svc.BanFingerprint(t.Context(), "fp-banned", "spam", nil); err != nil {
		t.Fatalf("ban: %v", err)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts/"+itoa(post.ID)+"/vote",
		gin.H{"value": 1},
		map[string]string{"X-Fingerprint": "fp-banned"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminDeleteRequiresToken(t *testing.T) {
	srv, svc := newAPIServer(t)
	post := createTestPost(t, svc)
	url := srv.URL + "/api/posts/" + itoa(post.ID)

	if resp := doJSON(t, http.MethodDelete, url, nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}
	wrong := map[string]string{"X-Admin-Token": "nope"}
	if resp := doJSON(t, http.MethodDelete, url, nil, wrong); resp.StatusCode != http.StatusForbidden {
		t.Errorf("bad token: status = %d, want 403", resp.StatusCode)
	}
	right := map[string]string{"X-Admin-Token": testAdminToken}
	if resp := doJSON(t, http.MethodDelete, url, nil, right); resp.StatusCode != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", resp.StatusCode)
	}
}

func TestCodenameEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/codename", nil,
		map[string]string{"X-Fingerprint": "fp-stable"})
	var body map[string]string
	decode(t, resp, &body)
	if want := codename.FromFingerprint("fp-stable"); body["codename"] != want {
		t.Errorf("codename = %q, want %q", body["codename"], want)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/codename", nil, nil)
	decode(t, resp, &body)
	if body["codename"] != codename.Sentinel {
		t.Errorf("codename without fingerprint = %q, want sentinel", body["codename"])
	}
}

// TestWriteRateLimit goes through SetupRoutes, which applies the 1-per-3s
// write limiter the other tests deliberately bypass.
func TestWriteRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.Post{}, &models.PostStats{}, &models.Vote{},
		&models.Report{}, &models.Ban{}, &models.AdminLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := events.NewHub()
	router := gin.New()
	SetupRoutes(router, board.NewService(db, hub, purify.DefaultThresholds), hub, config.Config{CORSOrigin: "*"})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	headers := map[string]string{"X-Fingerprint": "fp-spammer"}
	first := doJSON(t, http.MethodPost, srv.URL+"/api/posts", gin.H{"content": "one"}, headers)
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first post status = %d, want 201", first.StatusCode)
	}
	second := doJSON(t, http.MethodPost, srv.URL+"/api/posts", gin.H{"content": "two"}, headers)
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second rapid post status = %d, want 429", second.StatusCode)
	}
}

func createTestPost(t *testing.T, svc *board.Service) models.Post {
	t.Helper()
	post, err := svc.CreatePost(t.Context(), "endpoint test echo", "author-fp", nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
