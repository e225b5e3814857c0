package billing

import (
	"regexp"

	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
)

const (
	DirectionUpgrade   = "upgrade"
	DirectionDowngrade = "downgrade"
	DirectionSame      = "same"
)

var planIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,49}$`)

// planRank orders tiers by their catalog position.
func planRank(p entitlements.Plan) int {
	return p.SortOrder
}

func direction(from, to entitlements.Plan) string {
	switch {
	case from.ID == to.ID:
		return DirectionSame
	case planRank(to) > planRank(from):
		return DirectionUpgrade
	default:
		return DirectionDowngrade
	}
}
