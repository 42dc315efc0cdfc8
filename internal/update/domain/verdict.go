package domain

import (
	versiondomain "update-tracker/internal/version/domain"

	"github.com/hashicorp/go-multierror"
)

// Verdict is the outcome of comparing a device's installed version against
// its platform's policy. It is computed on every evaluation and never stored.
type Verdict struct {
	DeviceID        string                      `json:"device_id"`
	UserID          string                      `json:"user_id"`
	UpdateAvailable bool                        `json:"update_available"`
	CurrentVersion  string                      `json:"current_version"`
	TargetVersion   string                      `json:"target_version"`
	Urgency         versiondomain.UpdateUrgency `json:"urgency"`
}

// ScanReport is the result of a fleet scan. Devices that are gone or run an
// unregistered version are counted in Failed and described by Err.
type ScanReport struct {
	Verdicts  []*Verdict
	Evaluated int
	Failed    int
	Err       *multierror.Error
	// Cancelled is set when the scan stopped early and Verdicts is partial
	Cancelled bool
}

// Failures returns the accumulated per-device errors, or nil
func (r *ScanReport) Failures() error {
	return r.Err.ErrorOrNil()
}
