// Package server exposes complaint intake and the admin listing over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"grievance/internal"
	"grievance/internal/config"
	"grievance/internal/intake"
)

const (
	sessionKey     = "session"
	sessionTTL     = 24 * time.Hour
	maxUploadBytes = 25 << 20
)

type Store interface {
	GetOrCreateUser(name, mobile string) (internal.User, error)
	ListComplaintsWithUsers() ([]internal.ComplaintListing, error)
}

type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission) (intake.Result, error)
}

type Server struct {
	cfg      config.Config
	store    Store
	intake   Submitter
	sessions *SessionStore
	log      *slog.Logger
}

func New(cfg config.Config, store Store, submitter Submitter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, store: store, intake: submitter, sessions: NewSessionStore(sessionTTL), log: log}
}

type predictResponse struct {
	ID           int64  `json:"id"`
	Complaint    string `json:"complaint"`
	Department   string `json:"department"`
	Standardized string `json:"standardized"`
	Source       string `json:"source"`
	CreatedAt    string `json:"createdAt"`
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = maxUploadBytes

	router.GET("/healthz", s.handleHealth)
	router.POST("/login", s.handleLogin)
	router.POST("/logout", s.handleLogout)
	router.POST("/predict", s.requireRole(internal.RoleUser), s.handlePredict)

	admin := router.Group("/admin", s.requireRole(internal.RoleAdmin))
	admin.GET("/complaints", s.handleListComplaints)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLogin(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	mobile := strings.TrimSpace(c.PostForm("mobile"))
	password := strings.TrimSpace(c.PostForm("password"))

	if name == s.cfg.AdminUsername && password != "" && password == s.cfg.AdminPassword {
		sess := s.sessions.Create(Session{Name: "Admin", Role: internal.RoleAdmin})
		s.setCookie(c, sess.ID)
		s.log.Info("admin logged in")
		c.JSON(http.StatusOK, gin.H{"role": internal.RoleAdmin, "name": sess.Name})
		return
	}

	if name == "" || mobile == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and mobile are required"})
		return
	}
	user, err := s.store.GetOrCreateUser(name, mobile)
	if err != nil {
		s.log.Error("login failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}
	sess := s.sessions.Create(Session{UserID: user.ID, Name: user.Name, Mobile: user.Mobile, Role: internal.RoleUser})
	s.setCookie(c, sess.ID)
	c.JSON(http.StatusOK, gin.H{"role": internal.RoleUser, "name": user.Name, "userId": user.ID})
}

func (s *Server) handleLogout(c *gin.Context) {
	if id, err := c.Cookie(s.cfg.SessionCookie); err == nil {
		s.sessions.Delete(id)
	}
	c.SetCookie(s.cfg.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handlePredict(c *gin.Context) {
	sess := c.MustGet(sessionKey).(Session)

	image, err := formAttachment(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image upload"})
		return
	}
	audio, err := formAttachment(c, "audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audio upload"})
		return
	}

	userID := sess.UserID
	res, err := s.intake.Submit(c.Request.Context(), intake.Submission{
		UserID:   &userID,
		FullName: c.PostForm("full_name"),
		Mobile:   sess.Mobile,
		Village:  c.PostForm("village"),
		Pincode:  c.PostForm("pincode"),
		Aadhar:   c.PostForm("aadhar"),
		Text:     c.PostForm("complaint"),
		Image:    image,
		Audio:    audio,
	})
	if err != nil {
		s.log.Error("predict failed", "user", sess.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process complaint"})
		return
	}

	cm := res.Complaint
	c.JSON(http.StatusOK, predictResponse{
		ID:           cm.ID,
		Complaint:    cm.ComplaintText,
		Department:   cm.Department,
		Standardized: cm.Standardized,
		Source:       string(cm.Source),
		CreatedAt:    cm.CreatedAt,
	})
}

func (s *Server) handleListComplaints(c *gin.Context) {
	rows, err := s.store.ListComplaintsWithUsers()
	if err != nil {
		s.log.Error("list complaints failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list complaints"})
		return
	}
	if rows == nil {
		rows = []internal.ComplaintListing{}
	}
	c.JSON(http.StatusOK, gin.H{"complaints": rows, "total": len(rows)})
}

func (s *Server) requireRole(role internal.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(s.cfg.SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		sess, ok := s.sessions.Get(id)
		if !ok || sess.Role != role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.SessionCookie, id, int(sessionTTL.Seconds()), "/", "", false, true)
}

func formAttachment(c *gin.Context, field string) (*intake.Attachment, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if fh.Filename == "" {
		return nil, nil
	}
	return readFileHeader(fh)
}

func readFileHeader(fh *multipart.FileHeader) (*intake.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &intake.Attachment{Name: fh.Filename, Data: data}, nil
}
