// Package calc implements the domain-agnostic rate-tier, quality-factor and
// EMI calculator consumed by the domain bridge's "competitors" view and by
// goal completion tools.
package calc

import "math"

// RateTier is one interest-rate band.
// MaxAmount is the inclusive upper bound; a nil MaxAmount means open-ended.
type RateTier struct {
	MaxAmount *float64
	RatePct   float64
	Label     string
}

// QualityFactor scales an asset's unit price (e.g. gold purity karat).
type QualityFactor struct {
	ID          string
	DisplayName string
	Factor      float64
}

// Calculator is a config-driven domain calculator: it knows nothing about
// "gold loans" or any other domain, only tiers, percentages and factors.
type Calculator struct {
	rateTiers      []RateTier
	qualityFactors map[string]QualityFactor
	ltvPercent     float64
	assetUnitPrice float64
	baseRatePct    float64
	minLoanAmount  float64
	maxLoanAmount  float64
	processingFee  float64
	foreclosureFee float64
}

// New constructs a Calculator from config-loaded values.
func New(rateTiers []RateTier, qualityFactors []QualityFactor, ltvPercent, assetUnitPrice, baseRatePct, minLoanAmount, maxLoanAmount, processingFeePct, foreclosureFeePct float64) *Calculator {
	qf := make(map[string]QualityFactor, len(qualityFactors))
	for _, q := range qualityFactors {
		qf[q.ID] = q
	}
	return &Calculator{
		rateTiers:      rateTiers,
		qualityFactors: qf,
		ltvPercent:     ltvPercent,
		assetUnitPrice: assetUnitPrice,
		baseRatePct:    baseRatePct,
		minLoanAmount:  minLoanAmount,
		maxLoanAmount:  maxLoanAmount,
		processingFee:  processingFeePct,
		foreclosureFee: foreclosureFeePct,
	}
}

// EMI computes the Equated Monthly Installment via the standard amortization
// formula. A zero or negative monthly rate falls back to principal/tenure
// A zero annual rate degenerates to principal / tenureMonths.
func (c *Calculator) EMI(principal, annualRatePct float64, tenureMonths int) float64 {
	monthlyRate := annualRatePct / 100.0 / 12.0
	if monthlyRate <= 0 {
		return principal / float64(tenureMonths)
	}
	factor := math.Pow(1+monthlyRate, float64(tenureMonths))
	return principal * monthlyRate * factor / (factor - 1)
}

// TotalInterest = (EMI * tenureMonths) - principal.
func (c *Calculator) TotalInterest(principal, annualRatePct float64, tenureMonths int) float64 {
	emi := c.EMI(principal, annualRatePct, tenureMonths)
	return emi*float64(tenureMonths) - principal
}

// AssetValue = quantity * unitPrice * qualityFactor.
func (c *Calculator) AssetValue(quantity, unitPrice, qualityFactor float64) float64 {
	return quantity * unitPrice * qualityFactor
}

// MaxLoan = assetValue * (ltvPercent / 100).
func (c *Calculator) MaxLoan(assetValue float64) float64 {
	return assetValue * (c.ltvPercent / 100.0)
}

// RateForAmount looks up the tiered rate for amount. Tiers are scanned in
// order; a tier's MaxAmount is an inclusive upper bound: an amount
// exactly equal to it selects that tier.
func (c *Calculator) RateForAmount(amount float64) float64 {
	for _, t := range c.rateTiers {
		if t.MaxAmount == nil || amount <= *t.MaxAmount {
			return t.RatePct
		}
	}
	return c.baseRatePct
}

// RateTierLabel returns the label of the tier that RateForAmount would pick.
func (c *Calculator) RateTierLabel(amount float64) string {
	for _, t := range c.rateTiers {
		if t.MaxAmount == nil || amount <= *t.MaxAmount {
			return t.Label
		}
	}
	return "Standard"
}

// QualityFactorFor returns the grade's factor, or false if the grade is
// unknown.
func (c *Calculator) QualityFactorFor(grade string) (float64, bool) {
	q, ok := c.qualityFactors[grade]
	if !ok {
		return 0, false
	}
	return q.Factor, true
}

func (c *Calculator) QualityGrades() []QualityFactor {
	out := make([]QualityFactor, 0, len(c.qualityFactors))
	for _, q := range c.qualityFactors {
		out = append(out, q)
	}
	return out
}

func (c *Calculator) RateTiers() []RateTier          { return c.rateTiers }
func (c *Calculator) LTVPercent() float64            { return c.ltvPercent }
func (c *Calculator) AssetUnitPrice() float64        { return c.assetUnitPrice }
func (c *Calculator) BaseRate() float64              { return c.baseRatePct }
func (c *Calculator) MinLoanAmount() float64         { return c.minLoanAmount }
func (c *Calculator) MaxLoanAmount() float64         { return c.maxLoanAmount }
func (c *Calculator) ProcessingFeePercent() float64  { return c.processingFee }
func (c *Calculator) ForeclosureFeePercent() float64 { return c.foreclosureFee }

// MonthlyInterest = principal * (annualRatePct / 100 / 12).
func (c *Calculator) MonthlyInterest(principal, annualRatePct float64) float64 {
	return principal * (annualRatePct / 100.0 / 12.0)
}

// Savings is the result of comparing our tiered rate against a competitor's
// flat rate for the same loan amount and tenure.
type Savings struct {
	MonthlyInterestSavings float64
	MonthlyEMISavings      float64
	TotalInterestSavings   float64
	TotalEMISavings        float64
	OurRate                float64
	ComparisonRate         float64
	TenureMonths           int
}

// CalculateSavings compares our rate (looked up for loanAmount) against
// currentRate over tenureMonths.
func (c *Calculator) CalculateSavings(loanAmount, currentRate float64, tenureMonths int) Savings {
	ourRate := c.RateForAmount(loanAmount)

	currentMonthlyInterest := c.MonthlyInterest(loanAmount, currentRate)
	ourMonthlyInterest := c.MonthlyInterest(loanAmount, ourRate)

	currentEMI := c.EMI(loanAmount, currentRate, tenureMonths)
	ourEMI := c.EMI(loanAmount, ourRate, tenureMonths)
	monthlyEMISavings := currentEMI - ourEMI

	currentTotalInterest := c.TotalInterest(loanAmount, currentRate, tenureMonths)
	ourTotalInterest := c.TotalInterest(loanAmount, ourRate, tenureMonths)

	return Savings{
		MonthlyInterestSavings: currentMonthlyInterest - ourMonthlyInterest,
		MonthlyEMISavings:      monthlyEMISavings,
		TotalInterestSavings:   currentTotalInterest - ourTotalInterest,
		TotalEMISavings:        monthlyEMISavings * float64(tenureMonths),
		OurRate:                ourRate,
		ComparisonRate:         currentRate,
		TenureMonths:           tenureMonths,
	}
}

// ScoreBands are the strictly-increasing qualification thresholds
// (cold < warm < hot < qualified) validated at domain-config startup.
type ScoreBands struct {
	Cold      float64
	Warm      float64
	Hot       float64
	Qualified float64
}

// Valid reports whether the bands are strictly increasing.
func (b ScoreBands) Valid() bool {
	return b.Cold < b.Warm && b.Warm < b.Hot && b.Hot < b.Qualified
}

// Classify returns the qualification label for a lead score.
func (b ScoreBands) Classify(score float64) string {
	switch {
	case score >= b.Qualified:
		return "qualified"
	case score >= b.Hot:
		return "hot"
	case score >= b.Warm:
		return "warm"
	case score >= b.Cold:
		return "cold"
	default:
		return "unqualified"
	}
}
