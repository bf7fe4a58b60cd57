package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// PostHandler 封装车间公告帖子相关的 HTTP 处理逻辑。
type PostHandler struct {
	postService *service.PostService
}

// NewPostHandler 创建 PostHandler 实例
func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// CreatePostRequest 定义发帖请求的结构体
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,max=191"`
	Content string `json:"content" binding:"required"`
}

// Create 处理发帖请求 (POST /api/posts)
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreatePost: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), userID, req.Title, req.Content)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, post)
}

// Get 处理帖子详情请求 (GET /api/posts/:id)
func (h *PostHandler) Get(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, likes, err := h.postService.GetPost(c.Request.Context(), postID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"post": post, "likes": likes})
}

// List 处理帖子列表请求 (GET /api/posts?limit=&offset=)
func (h *PostHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	posts, err := h.postService.ListPosts(c.Request.Context(), limit, offset)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"posts": posts})
}

// Like 处理点赞请求 (POST /api/posts/:id/like)
func (h *PostHandler) Like(c *gin.Context) {
	h.toggle(c, h.postService.LikePost, "Post liked")
}

// Unlike 处理取消点赞请求 (DELETE /api/posts/:id/like)
func (h *PostHandler) Unlike(c *gin.Context) {
	h.toggle(c, h.postService.UnlikePost, "Post unliked")
}

// Save 处理收藏请求 (POST /api/posts/:id/save)
func (h *PostHandler) Save(c *gin.Context) {
	h.toggle(c, h.postService.SavePost, "Post saved")
}

// Unsave 处理取消收藏请求 (DELETE /api/posts/:id/save)
func (h *PostHandler) Unsave(c *gin.Context) {
	h.toggle(c, h.postService.UnsavePost, "Post unsaved")
}

// ListSaved 处理收藏列表请求 (GET /api/posts/saved)
func (h *PostHandler) ListSaved(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	posts, err := h.postService.ListSavedPosts(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"posts": posts})
}

// toggle 是点赞/收藏四个端点的共用骨架。
func (h *PostHandler) toggle(c *gin.Context, op func(ctx context.Context, userID, postID uint) error, message string) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), userID, postID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": message})
}
