package quota

import (
	"fmt"

	"github.com/ManuelReschke/CertFox/internal/pkg/metrics"
)

// Limit tags carried by LimitError.
const (
	LimitTrainings               = "trainings"
	LimitCertificatesPerTraining = "certificates_per_training"
	LimitDesigns                 = "designs"
	LimitAssets                  = "assets"
	LimitStorage                 = "storage"
)

// LimitError rejects a resource creation. The guarded write must not happen.
type LimitError struct {
	Limit   string `json:"limit_reached"`
	Message string `json:"message"`
}

func (e *LimitError) Error() string {
	return e.Message
}

func reject(limit, format string, args ...interface{}) *LimitError {
	metrics.QuotaRejected(limit)
	return &LimitError{Limit: limit, Message: fmt.Sprintf(format, args...)}
}

// Gate compares attempted usage against the resolved plan. It has no side effects
// besides counting rejections.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// CheckNewTraining guards issuance into a group the tenant never used.
func (g *Gate) CheckNewTraining(s *Snapshot) error {
	if s.Plan.Limits.Trainings.Reached(s.Usage.Trainings) {
		return reject(LimitTrainings,
			"Your %s plan allows %s trainings. Upgrade to start a new training.",
			s.Plan.Name, s.Plan.Limits.Trainings)
	}
	return nil
}

// CheckCertificateInTraining guards one more certificate under group.
func (g *Gate) CheckCertificateInTraining(s *Snapshot, group string) error {
	if s.Plan.Limits.CertificatesPerTraining.Reached(s.Usage.CertificatesPerTraining[group]) {
		return reject(LimitCertificatesPerTraining,
			"Your %s plan allows %s certificates per training. Upgrade to issue more for %q.",
			s.Plan.Name, s.Plan.Limits.CertificatesPerTraining, group)
	}
	return nil
}

// CheckCertificate applies the new-training check when group is unused, then the
// per-training cap.
func (g *Gate) CheckCertificate(s *Snapshot, group string) error {
	if !s.HasTraining(group) {
		if err := g.CheckNewTraining(s); err != nil {
			return err
		}
	}
	return g.CheckCertificateInTraining(s, group)
}

// CheckDesign guards a non-template design.
func (g *Gate) CheckDesign(s *Snapshot) error {
	if s.Plan.Limits.Designs.Reached(s.Usage.Designs) {
		return reject(LimitDesigns,
			"Your %s plan allows %s designs. Upgrade to save more designs.",
			s.Plan.Name, s.Plan.Limits.Designs)
	}
	return nil
}

// CheckAsset guards an attributed asset of sizeBytes. Storage is compared in bytes so
// that many small uploads cannot slip under the cap through rounding.
func (g *Gate) CheckAsset(s *Snapshot, sizeBytes int64) error {
	if s.Plan.Limits.Assets.Reached(s.Usage.Assets) {
		return reject(LimitAssets,
			"Your %s plan allows %s assets. Upgrade to upload more.",
			s.Plan.Name, s.Plan.Limits.Assets)
	}
	if maxMB, bounded := s.Plan.Limits.StorageMB.Max(); bounded {
		if s.Usage.StorageBytes+sizeBytes > maxMB*bytesPerMB {
			return reject(LimitStorage,
				"Your %s plan allows %d MB of storage. Upgrade for more space.",
				s.Plan.Name, maxMB)
		}
	}
	return nil
}
