package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
)

// EULARequiredMessage is returned when a license is activated without
// accepting the end-user license agreement.
const EULARequiredMessage = "License activation requires EULA acceptance"

var licenseKeyRE = regexp.MustCompile(`^[A-Z0-9]{4}(-[A-Z0-9]{4}){3}$`)

// Activation is the result of a successful license activation.
type Activation struct {
	Key         string    `json:"key" example:"ABCD-****-****-WXYZ"`
	ActivatedAt time.Time `json:"activatedAt"`
}

// LicenseService activates instance licenses.
type LicenseService struct {
	// EULAURL is linked from the EULA-required error.
	EULAURL string

	now func() time.Time
}

// NewLicenseService constructs a LicenseService.
func NewLicenseService(eulaURL string) *LicenseService {
	return &LicenseService{EULAURL: eulaURL, now: time.Now}
}

// Activate validates key and returns its masked form with the activation
// time. Nothing is persisted. Activation without EULA acceptance fails with a
// 400 domain error whose meta carries the agreement URL.
func (s *LicenseService) Activate(_ context.Context, key string, eulaAccepted bool) (*Activation, error) {
	if !eulaAccepted {
		return nil, apperr.BadRequest(EULARequiredMessage,
			apperr.WithMeta(map[string]any{"eulaUrl": s.EULAURL}))
	}
	key = strings.ToUpper(strings.TrimSpace(key))
	if !licenseKeyRE.MatchString(key) {
		return nil, ErrInvalidLicenseKey
	}
	return &Activation{Key: maskKey(key), ActivatedAt: s.now().UTC()}, nil
}

func maskKey(k string) string {
	return k[:4] + "-****-****-" + k[len(k)-4:]
}
