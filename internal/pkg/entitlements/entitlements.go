package entitlements

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Limit caps one resource dimension of a plan. The zero value is Bounded(0).
type Limit struct {
	max       int64
	unbounded bool
}

// Bounded returns a limit that allows at most n units.
func Bounded(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{max: n}
}

// Unbounded returns a limit that never rejects.
func Unbounded() Limit {
	return Limit{unbounded: true}
}

// LimitFromPtr maps a nullable column to a limit: nil means unbounded.
func LimitFromPtr(v *int64) Limit {
	if v == nil {
		return Unbounded()
	}
	return Bounded(*v)
}

func (l Limit) IsUnbounded() bool {
	return l.unbounded
}

// Max returns the cap and false for unbounded limits.
func (l Limit) Max() (int64, bool) {
	if l.unbounded {
		return 0, false
	}
	return l.max, true
}

// Ptr is the inverse of LimitFromPtr.
func (l Limit) Ptr() *int64 {
	if l.unbounded {
		return nil
	}
	v := l.max
	return &v
}

// Allows reports whether current+add stays within the limit.
func (l Limit) Allows(current, add int64) bool {
	if l.unbounded {
		return true
	}
	return current+add <= l.max
}

// Reached reports whether current usage leaves no room for another unit.
func (l Limit) Reached(current int64) bool {
	return !l.Allows(current, 1)
}

func (l Limit) String() string {
	if l.unbounded {
		return "unlimited"
	}
	return strconv.FormatInt(l.max, 10)
}

// MarshalJSON encodes unbounded limits as null.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unbounded {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(l.max, 10)), nil
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = Unbounded()
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("limit must be an integer or null: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("limit must not be negative: %d", n)
	}
	*l = Bounded(n)
	return nil
}

// Limits holds the five capped dimensions of a plan.
type Limits struct {
	Trainings               Limit `json:"trainings"`
	CertificatesPerTraining Limit `json:"certificates_per_training"`
	Designs                 Limit `json:"designs"`
	Assets                  Limit `json:"assets"`
	StorageMB               Limit `json:"storage_mb"`
}

type Features struct {
	MandatoryFooter  bool `json:"mandatory_footer"`
	SocialShare      bool `json:"social_share"`
	StatusManagement bool `json:"status_management"`
	WhiteLabel       bool `json:"white_label"`
	APIAccess        bool `json:"api_access"`
}

type BillingType string

const (
	BillingOneTime   BillingType = "one_time"
	BillingRecurring BillingType = "recurring"
)

// NormalizeBillingType maps unknown values to recurring.
func NormalizeBillingType(v string) BillingType {
	switch BillingType(strings.ToLower(strings.TrimSpace(v))) {
	case BillingOneTime:
		return BillingOneTime
	default:
		return BillingRecurring
	}
}

// Price is either a fixed amount in minor units or negotiated per contract.
type Price struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Negotiated  bool   `json:"negotiated"`
}

// Plan is the runtime view of a subscription tier.
type Plan struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Price       Price       `json:"price"`
	BillingType BillingType `json:"billing_type"`
	SortOrder   int         `json:"sort_order"`
	Active      bool        `json:"active"`
	Limits      Limits      `json:"limits"`
	Features    Features    `json:"features"`
}
