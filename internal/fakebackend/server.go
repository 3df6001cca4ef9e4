// Package fakebackend is an in-memory stand-in for the event-management
// registration backend. It answers the four endpoints with the same error
// shapes the real service uses, which makes it useful for end-to-end tests
// and for driving the CLI without network access.
package fakebackend

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mahadevaaya/registration-flow/internal/models"
)

// DefaultCode is the verification code every new registration gets. Tests
// rely on it being stable.
const DefaultCode = "123456"

// Server is the fake registration backend.
type Server struct {
	store  *accountStore
	engine *gin.Engine

	// Code is assigned to every registration and resend.
	Code string
}

// NewServer builds the fake backend with CORS and per-IP rate limiting
// matching the real deployment's behavior.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		store: newAccountStore(),
		Code:  DefaultCode,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(newRateLimiter(rate.Limit(50), 100).middleware())

	api := engine.Group("/api")
	{
		api.POST("/reg-user/", s.handleRegister)
		api.POST("/verify-email/", s.handleVerify)
		api.POST("/resend-email-otp/", s.handleResend)
		api.GET("/get-userid/", s.handleUserID)
	}

	s.engine = engine
	return s
}

// Handler returns the http.Handler for httptest servers.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on the given address until the process exits.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

// Seed registers an account directly, bypassing the endpoints.
func (s *Server) Seed(email, phone string, verified bool) {
	s.store.create(email, phone, s.Code)
	if verified {
		s.store.verify(email, s.Code)
	}
}

func (s *Server) handleRegister(c *gin.Context) {
	email := c.PostForm(models.FieldEmail)
	phone := c.PostForm(models.FieldPhone)

	// The real backend validates server side too; missing basics come back
	// in the errors-map shape.
	fieldErrors := gin.H{}
	if email == "" {
		fieldErrors[models.FieldEmail] = []string{"This field is required."}
	}
	if c.PostForm(models.FieldFullName) == "" {
		fieldErrors[models.FieldFullName] = []string{"This field is required."}
	}
	if c.PostForm(models.FieldPassword) == "" {
		fieldErrors[models.FieldPassword] = []string{"This field is required."}
	}
	if userType := c.PostForm(models.FieldUserType); userType != string(models.UserTypeIndividual) && userType != string(models.UserTypeTeam) {
		fieldErrors[models.FieldUserType] = []string{"Select a valid choice."}
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors})
		return
	}

	if acc := s.store.lookup(email); acc != nil {
		if acc.Verified {
			c.JSON(http.StatusBadRequest, gin.H{"message": models.MsgEmailRegistered})
			return
		}
		s.store.rotateCode(email, s.Code)
		c.JSON(http.StatusBadRequest, gin.H{"message": models.MsgEmailNotVerified})
		return
	}

	if owner := s.store.phoneOwner(phone); owner != "" && owner != email {
		c.JSON(http.StatusBadRequest, gin.H{"message": models.MsgPhoneInUse})
		return
	}

	s.store.create(email, phone, s.Code)
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Please verify your email."})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req models.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	if s.store.lookup(req.Email) == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No registration found for this email."})
		return
	}

	acc, ok := s.store.verify(req.Email, req.Code)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully.", "user_id": acc.UserID})
}

func (s *Server) handleResend(c *gin.Context) {
	var req models.ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	acc := s.store.lookup(req.Email)
	if acc == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No registration found for this email."})
		return
	}
	if acc.Verified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is already verified."})
		return
	}

	s.store.rotateCode(req.Email, s.Code)
	c.JSON(http.StatusOK, gin.H{"message": "Verification code resent."})
}

func (s *Server) handleUserID(c *gin.Context) {
	email := c.Query("email")
	acc := s.store.lookup(email)
	if acc == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found."})
		return
	}
	c.JSON(http.StatusOK, models.UserIDResponse{UserID: acc.UserID, Verified: acc.Verified})
}

// rateLimiter is a per-IP token bucket.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func newRateLimiter(r rate.Limit, b int) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (rl *rateLimiter) visitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.visitors[ip] = limiter
	}
	return limiter
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.visitor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
