package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/blogapi/blog-service/internal/api/metrics"
	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /posts safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set on responses served from an earlier request.
const HeaderIdempotentReplay = "Idempotent-Replayed"

// PostHandler handles HTTP requests for blog posts.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type postRequest struct {
	Title     string `json:"title" validate:"notblank,max=255"`
	Content   string `json:"content" validate:"notblank,min=10,max=5000"`
	ImagePath string `json:"image_path" validate:"max=255"`
}

func (r postRequest) draft() domain.PostDraft {
	return domain.PostDraft{Title: r.Title, Content: r.Content, ImagePath: r.ImagePath}
}

// List handles GET /posts.
//
// @Summary      List posts
// @Description  Newest first. Anonymous callers receive posts without content.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Post
// @Failure      503  {object}  map[string]string
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.service.List(c.Request().Context(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// Get handles GET /posts/:id.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.Post
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	post, err := h.service.Get(c.Request().Context(), caller(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Create handles POST /posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string       false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      postRequest  true   "Post"
// @Success      201              {object}  domain.Post
// @Failure      400              {object}  map[string]any
// @Failure      401              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var req postRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key := c.Request().Header.Get(HeaderIdempotencyKey)
	post, replayed, err := h.service.Create(c.Request().Context(), caller(c), req.draft(), key)
	if err != nil {
		return err
	}

	if replayed {
		metrics.IdempotentReplaysTotal.Inc()
	} else {
		metrics.PostMutationsTotal.WithLabelValues("create").Inc()
	}
	c.Response().Header().Set(HeaderIdempotentReplay, strconv.FormatBool(replayed))
	return c.JSON(http.StatusCreated, post)
}

// Update handles PUT /posts/:id.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Post ID"
// @Param        body  body      postRequest  true  "Post"
// @Success      200   {object}  domain.Post
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	var req postRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.service.Update(c.Request().Context(), caller(c), c.Param("id"), req.draft())
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /posts/:id.
//
// @Summary      Delete a post
// @Tags         posts
// @Security     BearerAuth
// @Param        id   path  string  true  "Post ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), caller(c), c.Param("id")); err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}
