package entitlements

import "github.com/ManuelReschke/CertFox/app/models"

// FromModel converts a plan row into its runtime view.
func FromModel(m *models.Plan) Plan {
	price := Price{Currency: m.Currency}
	if m.PriceCents == nil {
		price.Negotiated = true
	} else {
		price.AmountCents = *m.PriceCents
	}
	if price.Currency == "" {
		price.Currency = "EUR"
	}

	return Plan{
		ID:          NormalizePlanID(m.ID),
		Name:        m.Name,
		Price:       price,
		BillingType: NormalizeBillingType(m.BillingType),
		SortOrder:   m.SortOrder,
		Active:      m.IsActive,
		Limits: Limits{
			Trainings:               LimitFromPtr(m.LimitTrainings),
			CertificatesPerTraining: LimitFromPtr(m.LimitCertificatesPerTraining),
			Designs:                 LimitFromPtr(m.LimitDesigns),
			Assets:                  LimitFromPtr(m.LimitAssets),
			StorageMB:               LimitFromPtr(m.LimitStorageMB),
		},
		Features: Features{
			MandatoryFooter:  m.FeatureMandatoryFooter,
			SocialShare:      m.FeatureSocialShare,
			StatusManagement: m.FeatureStatusManagement,
			WhiteLabel:       m.FeatureWhiteLabel,
			APIAccess:        m.FeatureAPIAccess,
		},
	}
}

// ToModel converts a runtime plan into a row.
func ToModel(p Plan) *models.Plan {
	m := &models.Plan{
		ID:          NormalizePlanID(p.ID),
		Name:        p.Name,
		Currency:    p.Price.Currency,
		BillingType: string(p.BillingType),
		SortOrder:   p.SortOrder,
		IsActive:    p.Active,

		LimitTrainings:               p.Limits.Trainings.Ptr(),
		LimitCertificatesPerTraining: p.Limits.CertificatesPerTraining.Ptr(),
		LimitDesigns:                 p.Limits.Designs.Ptr(),
		LimitAssets:                  p.Limits.Assets.Ptr(),
		LimitStorageMB:               p.Limits.StorageMB.Ptr(),

		FeatureMandatoryFooter:  p.Features.MandatoryFooter,
		FeatureSocialShare:      p.Features.SocialShare,
		FeatureStatusManagement: p.Features.StatusManagement,
		FeatureWhiteLabel:       p.Features.WhiteLabel,
		FeatureAPIAccess:        p.Features.APIAccess,
	}
	if !p.Price.Negotiated {
		amount := p.Price.AmountCents
		m.PriceCents = &amount
	}
	if m.Currency == "" {
		m.Currency = "EUR"
	}
	if m.BillingType == "" {
		m.BillingType = string(BillingRecurring)
	}
	return m
}
