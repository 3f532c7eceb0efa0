package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"echoboard/internal/board"
	"echoboard/internal/codename"
	"echoboard/internal/config"
	"echoboard/internal/events"
)

// --- Configuration Constants ---
const (
	rateLimitRPS   = 1.0 / 3.0 // 1 write every 3 seconds per IP
	rateLimitBurst = 1
	trendingLimit  = 20
)

// --- Structs for request binding ---
type CreatePostInput struct {
	Content  string `json:"content" binding:"required,min=1,max=1000"`
	ParentID *uint  `json:"parentId"`
}

type VoteInput struct {
	Value int `json:"value" binding:"required,oneof=-1 1"` // Must be 1 or -1
}

type ReportInput struct {
	Reason string `json:"reason" binding:"max=500"`
}

type BanInput struct {
	Fingerprint string     `json:"fingerprint" binding:"required"`
	Reason      string     `json:"reason" binding:"max=500"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// --- Handlers ---
type Env struct {
	Board *board.Service
	Hub   *events.Hub
	Cfg   config.Config
}

// fingerprint pulls the opaque client identity from the request. It is the
// sole vote-dedup and ban key; nothing here ties it to a person.
func fingerprint(c *gin.Context) string {
	return c.GetHeader("X-Fingerprint")
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return 0, false
	}
	return uint(id), true
}

// renderBoardError maps the domain error taxonomy onto HTTP statuses.
func renderBoardError(c *gin.Context, err error) {
	var banned *board.BannedError
	switch {
	case errors.Is(err, board.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, board.ErrGone):
		c.JSON(http.StatusGone, gin.H{"error": "This echo has faded"})
	case errors.As(err, &banned):
		resp := gin.H{"error": "You are banned from the board"}
		if banned.ExpiresAt != nil {
			resp["bannedUntil"] = banned.ExpiresAt
		}
		c.JSON(http.StatusForbidden, resp)
	case errors.Is(err, board.ErrInvalidVote),
		errors.Is(err, board.ErrEmptyContent),
		errors.Is(err, board.ErrContentTooLong),
		errors.Is(err, board.ErrMissingFingerprint):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("unexpected board error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func (e *Env) GetPosts(c *gin.Context) {
	posts, err := e.Board.ListPosts(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (e *Env) GetTrendingPosts(c *gin.Context) {
	posts, err := e.Board.ListTrending(c.Request.Context(), trendingLimit)
	if err != nil {
		log.Printf("Error fetching trending posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (e *Env) GetPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, replies, err := e.Board.GetPost(c.Request.Context(), id)
	if err != nil {
		renderBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "replies": replies})
}

func (e *Env) CreatePost(c *gin.Context) {
	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	post, err := e.Board.CreatePost(c.Request.Context(), input.Content, fingerprint(c), input.ParentID)
	if err != nil {
		renderBoardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (e *Env) VoteOnPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	result, err := e.Board.ApplyVote(c.Request.Context(), id, fingerprint(c), input.Value)
	if err != nil {
		renderBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (e *Env) ReportPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var input ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := e.Board.ReportPost(c.Request.Context(), id, fingerprint(c), input.Reason); err != nil {
		renderBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report received"})
}

// GetPolicy publishes the purification thresholds so clients can render
// the warning meter with the same numbers the server enforces.
func (e *Env) GetPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"minVotes":       e.Cfg.PurifyMinVotes,
		"purifyRatio":    e.Cfg.PurifyRatio,
		"meterThreshold": e.Cfg.MeterThreshold,
		"survivalHours":  e.Cfg.SurvivalHours,
	})
}

// GetCodename echoes the caller's derived alias so the client can label
// its own activity.
func (e *Env) GetCodename(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"codename": codename.FromFingerprint(fingerprint(c))})
}

func (e *Env) DeletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := e.Board.ModeratorDelete(c.Request.Context(), id, "moderator removal"); err != nil {
		renderBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (e *Env) ListReports(c *gin.Context) {
	reports, err := e.Board.ListReports(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (e *Env) CreateBan(c *gin.Context) {
	var input BanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := e.Board.BanFingerprint(c.Request.Context(), input.Fingerprint, input.Reason, input.ExpiresAt); err != nil {
		renderBoardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Ban recorded"})
}
