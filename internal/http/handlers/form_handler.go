// Public form routes. They live outside the API base path; failures on them
// are rendered as HTML pages by the dispatcher when a page rule matches.
package handlers

import (
	"github.com/gin-gonic/gin"
)

// OpenForm godoc
// @ID          openForm
// @Summary     Open a published form
// @Tags        Forms
// @Produce     json
// @Produce     html
// @Param       path  path  string  true  "Form path"
// @Success     200  {object} respond.SuccessEnvelope{data=services.FormView}
// @Failure     404  {string} string "Problem loading form page"
// @Router      /form/{path} [get]
func (h *Handlers) OpenForm(c *gin.Context) (any, error) {
	return h.openForm(c, false)
}

// OpenTestForm serves the editor's test URL for a form.
// @ID          openTestForm
// @Summary     Open a form in test mode
// @Tags        Forms
// @Produce     json
// @Produce     html
// @Param       path  path  string  true  "Form path"
// @Success     200  {object} respond.SuccessEnvelope{data=services.FormView}
// @Failure     404  {string} string "Problem loading form page"
// @Router      /form-test/{path} [get]
func (h *Handlers) OpenTestForm(c *gin.Context) (any, error) {
	return h.openForm(c, true)
}

func (h *Handlers) openForm(c *gin.Context, test bool) (any, error) {
	v, err := h.forms.Open(c.Request.Context(), c.Param("path"), test)
	if err != nil {
		return nil, apiError(err)
	}
	return v, nil
}

// FormWaiting godoc
// @ID          formWaiting
// @Summary     Check a form-waiting execution
// @Tags        Forms
// @Produce     json
// @Produce     html
// @Param       id  path  string  true  "Execution ID"
// @Success     200  {object} respond.SuccessEnvelope{data=domain.Execution}
// @Failure     404  {string} string "Problem loading form page"
// @Failure     409  {string} string "Form submission not possible page"
// @Router      /form-waiting/{id} [get]
func (h *Handlers) FormWaiting(c *gin.Context) (any, error) {
	ex, err := h.forms.Waiting(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, apiError(err)
	}
	return ex, nil
}

// SubmitForm godoc
// @ID          submitForm
// @Summary     Submit a form for a waiting execution
// @Tags        Forms
// @Produce     json
// @Produce     html
// @Param       id  path  string  true  "Execution ID"
// @Success     200  {object} respond.SuccessEnvelope{data=domain.Execution}
// @Failure     409  {string} string "Form submission not possible page"
// @Router      /form-waiting/{id} [post]
func (h *Handlers) SubmitForm(c *gin.Context) (any, error) {
	ex, err := h.forms.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, apiError(err)
	}
	return ex, nil
}
