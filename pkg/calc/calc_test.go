package calc

import "testing"

func f64(v float64) *float64 { return &v }

func testCalculator() *Calculator {
	return New(
		[]RateTier{
			{MaxAmount: f64(100_000), RatePct: 11.5, Label: "Standard"},
			{MaxAmount: f64(500_000), RatePct: 10.5, Label: "Premium"},
			{MaxAmount: nil, RatePct: 9.5, Label: "Elite"},
		},
		[]QualityFactor{
			{ID: "K24", DisplayName: "24 Karat", Factor: 1.0},
			{ID: "K22", DisplayName: "22 Karat", Factor: 0.916},
			{ID: "K18", DisplayName: "18 Karat", Factor: 0.75},
			{ID: "K14", DisplayName: "14 Karat", Factor: 0.585},
		},
		75.0, 7500.0, 10.5, 10_000, 25_000_000, 1.0, 0.0,
	)
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < tol
}

func TestEMIScalarScenario(t *testing.T) {
	c := testCalculator()
	emi := c.EMI(100_000, 12.0, 12)
	if !approxEqual(emi, 8884.88, 0.01) {
		t.Fatalf("EMI = %v, want ~8884.88", emi)
	}
	total := c.TotalInterest(100_000, 12.0, 12)
	if !approxEqual(total, 6618.58, 0.1) {
		t.Fatalf("TotalInterest = %v, want ~6618.58", total)
	}
}

func TestEMIZeroRate(t *testing.T) {
	c := testCalculator()
	emi := c.EMI(12_000, 0, 12)
	if emi != 1000.0 {
		t.Fatalf("EMI with zero rate = %v, want 1000", emi)
	}
}

func TestAssetValue(t *testing.T) {
	c := testCalculator()
	v := c.AssetValue(100, 7500, 0.916)
	if v != 687_000 {
		t.Fatalf("AssetValue = %v, want 687000", v)
	}
}

func TestMaxLoan(t *testing.T) {
	c := testCalculator()
	v := c.MaxLoan(687_000)
	if v != 515_250 {
		t.Fatalf("MaxLoan = %v, want 515250", v)
	}
}

func TestRateTierSelectionScenario(t *testing.T) {
	c := testCalculator()
	cases := []struct {
		amount float64
		want   float64
	}{
		{50_000, 11.5},
		{100_000, 11.5},
		{100_001, 10.5},
		{500_000, 10.5},
		{500_001, 9.5},
		{600_000, 9.5},
		{1_000_000, 9.5},
	}
	for _, c2 := range cases {
		if got := c.RateForAmount(c2.amount); got != c2.want {
			t.Errorf("RateForAmount(%v) = %v, want %v", c2.amount, got, c2.want)
		}
	}
}

func TestQualityFactors(t *testing.T) {
	c := testCalculator()
	for grade, want := range map[string]float64{"K24": 1.0, "K22": 0.916, "K18": 0.75, "K14": 0.585} {
		got, ok := c.QualityFactorFor(grade)
		if !ok || got != want {
			t.Errorf("QualityFactorFor(%s) = %v,%v want %v,true", grade, got, ok, want)
		}
	}
	if _, ok := c.QualityFactorFor("unknown"); ok {
		t.Fatal("QualityFactorFor(unknown) should report no match")
	}
}

func TestSavingsCalculation(t *testing.T) {
	c := testCalculator()
	s := c.CalculateSavings(500_000, 18.0, 12)
	if s.OurRate != 10.5 {
		t.Fatalf("OurRate = %v, want 10.5", s.OurRate)
	}
	if s.ComparisonRate != 18.0 {
		t.Fatalf("ComparisonRate = %v, want 18.0", s.ComparisonRate)
	}
	if s.MonthlyInterestSavings <= 0 || s.TotalInterestSavings <= 0 {
		t.Fatalf("expected positive savings, got %+v", s)
	}
}

func TestScoreBandsValidAndClassify(t *testing.T) {
	b := ScoreBands{Cold: 20, Warm: 40, Hot: 60, Qualified: 80}
	if !b.Valid() {
		t.Fatal("expected strictly-increasing bands to be valid")
	}
	bad := ScoreBands{Cold: 40, Warm: 40, Hot: 60, Qualified: 80}
	if bad.Valid() {
		t.Fatal("expected equal cold/warm bands to be invalid")
	}
	cases := []struct {
		score float64
		want  string
	}{
		{10, "unqualified"},
		{20, "cold"},
		{40, "warm"},
		{60, "hot"},
		{80, "qualified"},
		{99, "qualified"},
	}
	for _, c2 := range cases {
		if got := b.Classify(c2.score); got != c2.want {
			t.Errorf("Classify(%v) = %v, want %v", c2.score, got, c2.want)
		}
	}
}
