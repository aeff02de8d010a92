package distribution

// ShareReport is the bottom-50 / middle-40 / top-10 / top-1 income-share
// banding used in the Piketty-Saez-Zucman framework. Shares are percentages
// of total weighted value.
type ShareReport struct {
	Bottom50 float64 `json:"bottom_50_share"`
	Middle40 float64 `json:"middle_40_share"`
	Top10    float64 `json:"top_10_share"`
	Top1     float64 `json:"top_1_share"`
	Total    float64 `json:"total"` // weighted value sum the shares are taken over
}

// Shares computes the standard banding from the ranked distribution.
func (r *Ranked) Shares() (*ShareReport, error) {
	b50, err := r.ShareBelow(0.50)
	if err != nil {
		return nil, err
	}
	m40, err := r.ShareBetween(0.50, 0.90)
	if err != nil {
		return nil, err
	}
	t10, err := r.ShareBetween(0.90, 1.0)
	if err != nil {
		return nil, err
	}
	t1, err := r.ShareBetween(0.99, 1.0)
	if err != nil {
		return nil, err
	}
	return &ShareReport{
		Bottom50: b50,
		Middle40: m40,
		Top10:    t10,
		Top1:     t1,
		Total:    r.totalValue,
	}, nil
}
