package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/filters"
	"github.com/profilehub/profilehub/internal/httperr"
	"github.com/profilehub/profilehub/internal/identity"
	"github.com/profilehub/profilehub/internal/profiles"
	"github.com/profilehub/profilehub/internal/storage"
	"github.com/profilehub/profilehub/pkg/logger"
	"github.com/profilehub/profilehub/pkg/middleware"
	"github.com/profilehub/profilehub/pkg/respond"
)

// ProfileHandler serves the profile-matching routes. It never writes error
// responses itself beyond local 400s: failures are attached to the context
// and aborted, so the shielding middleware owns the envelope.
type ProfileHandler struct {
	svc     *profiles.Service
	avatars *storage.AvatarStore // optional
	f       respond.Factory
	exec    respond.Executor
}

func NewProfileHandler(svc *profiles.Service, avatars *storage.AvatarStore, f respond.Factory) *ProfileHandler {
	return &ProfileHandler{svc: svc, avatars: avatars, f: f}
}

// Register mounts the profile routes. Guards (e.g. the HTTPS requirement)
// run before every action.
func (h *ProfileHandler) Register(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	g := rg.Group("/profiles", guards...)
	g.GET("", h.Search)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.GET("/:id/avatar", h.DownloadAvatar)
	g.POST("/:id/avatar", h.UploadAvatar)
	rg.GET("/filters", append(append([]gin.HandlerFunc{}, guards...), h.Filters)...)
	rg.GET("/me", append(append([]gin.HandlerFunc{}, guards...), h.Me)...)
}

// Filters lists the category groups a search query can bind against.
func (h *ProfileHandler) Filters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": filters.GroupNames()})
}

type profileView struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"displayName"`
	Bio         string              `json:"bio,omitempty"`
	Categories  map[string][]string `json:"categories"`
	AvatarURL   string              `json:"avatarUrl,omitempty"`
}

func (h *ProfileHandler) view(c *gin.Context, p *profiles.Profile) profileView {
	v := profileView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		Categories:  p.Categories,
	}
	if h.avatars != nil && p.AvatarKey != "" {
		if u, err := h.avatars.PresignedURL(c.Request.Context(), p.AvatarKey, 15*time.Minute); err == nil {
			v.AvatarURL = u
		} else {
			logger.Warnf("presign avatar %s: %v", p.AvatarKey, err)
		}
	}
	return v
}

// Search binds the request's query into typed filters and returns every
// matching profile. Unknown query keys are ignored; the binder never fails
// on user input.
func (h *ProfileHandler) Search(c *gin.Context) {
	fl := filters.BindRequest(c)
	found, err := h.svc.Search(c.Request.Context(), fl)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	out := make([]profileView, 0, len(found))
	for _, p := range found {
		out = append(out, h.view(c, p))
	}
	c.JSON(http.StatusOK, gin.H{"profiles": out, "filterCount": len(fl)})
}

func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, h.view(c, p))
}

type createProfileRequest struct {
	DisplayName string              `json:"displayName" binding:"required"`
	Bio         string              `json:"bio"`
	Categories  map[string][]string `json:"categories"`
}

// Create stores a profile for the resolved account. A request whose
// identity has no resolved profile-id claim has no matching account and is
// answered with the domain not-found failure.
func (h *ProfileHandler) Create(c *gin.Context) {
	ownerID := middleware.IdentityFromContext(c).ClaimValue(identity.ClaimProfileID)
	if ownerID == "" {
		_ = c.Error(httperr.NotFound("no matching account for this identity"))
		c.Abort()
		return
	}
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// an oversized body is the transport's failure, not a malformed
		// payload; hand it to the shield for the canonical envelope
		var mbe *http.MaxBytesError
		var ptl *httperr.PayloadTooLarge
		if errors.As(err, &mbe) || errors.As(err, &ptl) {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Abort()
		_ = h.exec.Execute(c, h.f.Message(http.StatusBadRequest, "invalid profile payload"))
		return
	}
	p := &profiles.Profile{
		OwnerID:     ownerID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Categories:  req.Categories,
	}
	id, err := h.svc.Create(c.Request.Context(), p)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UploadAvatar reads the (size-limited) request body into the avatar store.
// An oversized body surfaces as a typed MaxBytesError from the reader and
// is converted by the shield; nothing here inspects error text.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	ownerID := middleware.IdentityFromContext(c).ClaimValue(identity.ClaimProfileID)
	if ownerID == "" {
		_ = c.Error(httperr.NotFound("no matching account for this identity"))
		c.Abort()
		return
	}
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if p.OwnerID != ownerID {
		_ = c.Error(httperr.NotFoundf("profile %s does not exist", p.ID))
		c.Abort()
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if h.avatars == nil {
		c.Abort()
		_ = h.exec.Execute(c, h.f.Message(http.StatusBadRequest, "avatar storage is not configured"))
		return
	}
	key := "avatars/" + p.ID
	ct := c.ContentType()
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := h.avatars.Put(c.Request.Context(), key, bytes.NewReader(body), int64(len(body)), ct); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if err := h.svc.SetAvatarKey(c.Request.Context(), p.ID, key); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarKey": key})
}

// DownloadAvatar streams the stored avatar bytes back to the caller.
func (h *ProfileHandler) DownloadAvatar(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if h.avatars == nil || p.AvatarKey == "" {
		_ = c.Error(httperr.NotFoundf("profile %s has no avatar", p.ID))
		c.Abort()
		return
	}
	obj, err := h.avatars.Get(c.Request.Context(), p.AvatarKey)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	defer obj.Close()
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		// response already streaming, nothing left to write
		logger.Warnf("stream avatar %s: %v", p.AvatarKey, err)
	}
}

// Me returns the caller's own profile; the resolved profile-id claim is the
// documented signal that identity resolution succeeded.
func (h *ProfileHandler) Me(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	ownerID := id.ClaimValue(identity.ClaimProfileID)
	if ownerID == "" {
		_ = c.Error(httperr.NotFound("no matching profile"))
		c.Abort()
		return
	}
	p, err := h.svc.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": h.view(c, p),
		"roles":   id.Claims(identity.ClaimRole),
	})
}
