package servehttp

import (
	"net/http"

	"prodflow/bizerror"
	"prodflow/idgen"
	"prodflow/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sony/sonyflake"
)

var identityIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

type SessionCreation struct {
	Name     string `json:"name" validate:"required"`
	Nickname string `json:"nickname"`
}

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/sessions", middleWares...)

	handler := &sessionHandler{validator: validator.New()}

	g.POST("", handler.handleCreateSession)
	g.DELETE("", handler.handleDeleteSession)
	g.GET("current", session.SimpleAuthFilter(), handler.handleCurrentSession)
}

type sessionHandler struct {
	validator *validator.Validate
}

func (h *sessionHandler) handleCreateSession(c *gin.Context) {
	creation := SessionCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.Sign(session.Identity{
		ID:       idgen.NextID(identityIdWorker),
		Name:     creation.Name,
		Nickname: creation.Nickname,
	})
	c.SetCookie(session.KeySecToken, s.Token, int(session.TokenExpiration.Seconds()), "/", "", false, true)
	c.JSON(http.StatusCreated, s)
}

func (h *sessionHandler) handleDeleteSession(c *gin.Context) {
	token, err := c.Cookie(session.KeySecToken)
	if err == nil && token != "" {
		session.Revoke(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *sessionHandler) handleCurrentSession(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if s.Token == "" {
		panic(bizerror.ErrUnauthenticated)
	}
	c.JSON(http.StatusOK, s)
}
