package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
)

// CreateTagRequest is the JSON payload for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" binding:"required,max=64" example:"billing"`
}

// CreateTag godoc
// @ID          createTag
// @Summary     Create a tag
// @Description Tag names are unique; a duplicate is reported with a fixed message.
// @Tags        Tags
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateTagRequest  true  "Tag"
// @Success     201  {object} respond.SuccessEnvelope{data=domain.Tag}
// @Failure     400  {object} respond.ErrorEnvelope "Validation failed"
// @Failure     500  {object} respond.ErrorEnvelope "Duplicate name or internal error"
// @Router      /tags [post]
func (h *Handlers) CreateTag(c *gin.Context) (any, error) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperr.FromBindError(err)
	}
	t, err := h.tags.Create(c.Request.Context(), req.Name)
	if err != nil {
		return nil, apiError(err)
	}
	c.Status(http.StatusCreated)
	return t, nil
}

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Tags
// @Produce     json
// @Success     200  {object} respond.SuccessEnvelope{data=[]domain.Tag}
// @Failure     500  {object} respond.ErrorEnvelope "Internal error"
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) (any, error) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		return nil, apiError(err)
	}
	return tags, nil
}
