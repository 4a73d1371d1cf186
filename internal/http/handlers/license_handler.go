package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
)

// ActivateLicenseRequest is the JSON payload for license activation.
type ActivateLicenseRequest struct {
	LicenseKey   string `json:"licenseKey" binding:"required" example:"ABCD-1234-EFGH-5678"`
	EULAAccepted bool   `json:"eulaAccepted" example:"true"`
}

// ActivateLicense godoc
// @ID          activateLicense
// @Summary     Activate a license
// @Description Activation requires accepting the EULA. Without it the error meta carries eulaUrl.
// @Tags        License
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ActivateLicenseRequest  true  "License"
// @Success     200  {object} respond.SuccessEnvelope{data=services.Activation}
// @Failure     400  {object} respond.ErrorEnvelope "EULA not accepted or invalid key"
// @Router      /license/activate [post]
func (h *Handlers) ActivateLicense(c *gin.Context) (any, error) {
	var req ActivateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperr.FromBindError(err)
	}
	a, err := h.license.Activate(c.Request.Context(), req.LicenseKey, req.EULAAccepted)
	if err != nil {
		return nil, apiError(err)
	}
	return a, nil
}
