package domain

import (
	"testing"
)

// configRoot points at the repo's checked-in sample domain under
// config/domains/goldloan, exercising the real directory layout end to
// end rather than a synthetic testdata fixture.
const configRoot = "../../config"

func TestLoadGoldloanDomain(t *testing.T) {
	cfg, report, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.HasCriticals() {
		t.Fatalf("unexpected criticals: %v", report.Criticals)
	}
	if cfg.Meta.ID != "goldloan" {
		t.Errorf("Meta.ID = %q, want goldloan", cfg.Meta.ID)
	}
	if _, ok := cfg.Slot("gold_weight"); !ok {
		t.Error("expected slot gold_weight to be loaded")
	}
	if _, ok := cfg.Goal("apply_for_loan"); !ok {
		t.Error("expected goal apply_for_loan to be loaded")
	}
	if _, ok := cfg.Stage("Greeting"); !ok {
		t.Error("expected stage Greeting to be loaded")
	}
	// entities.yaml merges an additional segment on top of segments.yaml.
	if _, ok := cfg.Segment("priority_customer"); !ok {
		t.Error("expected segment priority_customer merged from entities.yaml")
	}
	if _, ok := cfg.Segment("retail_customer"); !ok {
		t.Error("expected segment retail_customer from segments.yaml")
	}
}

func TestLoadMissingDomainIDIsFatal(t *testing.T) {
	if _, _, err := Load(configRoot, "does-not-exist"); err == nil {
		t.Fatal("expected error for unknown domain id")
	}
}

func TestRenderFeatureSubstitution(t *testing.T) {
	cfg, _, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, ok := cfg.RenderFeature("instant_disbursal", map[string]string{"minutes": "30"})
	if !ok {
		t.Fatal("expected instant_disbursal feature to render")
	}
	if out != "Get your loan disbursed in as little as 30 minutes." {
		t.Errorf("RenderFeature = %q", out)
	}
}

func TestRateForAmountInclusiveUpperBound(t *testing.T) {
	cfg, _, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	muthoot, ok := cfg.Competitor("muthoot")
	if !ok {
		t.Fatal("expected competitor muthoot")
	}
	rate, ok := muthoot.RateForAmount(100000)
	if !ok || rate != 11.5 {
		t.Errorf("RateForAmount(100000) = %v, %v; want 11.5, true", rate, ok)
	}
	rate, ok = muthoot.RateForAmount(100001)
	if !ok || rate != 10.5 {
		t.Errorf("RateForAmount(100001) = %v, %v; want 10.5, true", rate, ok)
	}
}

func TestDetectObjection(t *testing.T) {
	cfg, _, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	obj, ok := cfg.DetectObjection("Honestly this feels too high compared to others", "en")
	if !ok || obj.ID != "rate_too_high" {
		t.Errorf("DetectObjection = %v, %v; want rate_too_high, true", obj.ID, ok)
	}
	if _, ok := cfg.DetectObjection("What time do you close today?", "en"); ok {
		t.Error("expected no objection match for unrelated text")
	}
}

func TestResolveToolWithFallback(t *testing.T) {
	cfg, _, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tool, ok := cfg.ResolveTool("apply_loan", map[string]bool{
		"customer_name": true, "phone_number": true, "gold_weight": true, "loan_amount": true,
	})
	if !ok || tool.Name != "create_loan_application" {
		t.Errorf("ResolveTool fully filled = %v, %v", tool.Name, ok)
	}

	tool, ok = cfg.ResolveTool("apply_loan", map[string]bool{"gold_weight": true, "loan_amount": true})
	if !ok || tool.Name != "calculate_emi" {
		t.Errorf("ResolveTool fallback = %v, %v; want calculate_emi, true", tool.Name, ok)
	}
}

func TestQualificationThresholdsStrictlyIncreasing(t *testing.T) {
	cfg, _, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	th := cfg.QualificationThresholds()
	if !(th.Cold < th.Warm && th.Warm < th.Hot && th.Hot < th.Qualified) {
		t.Errorf("thresholds not strictly increasing: %+v", th)
	}
}

func TestMatchesRule(t *testing.T) {
	cfg, _, err := Load(configRoot, "goldloan")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rules := cfg.LeadClassifierRules()
	var qualified LeadClassifierRule
	for _, r := range rules {
		if r.ID == "qualified_lead" {
			qualified = r
		}
	}
	if qualified.ID == "" {
		t.Fatal("expected qualified_lead rule")
	}
	flags := map[string]bool{"has_gold": true, "has_valid_phone": true, "wants_instant_disbursal": true}
	values := map[string]float64{"gold_weight": 12}
	if !qualified.MatchesRule(flags, values) {
		t.Error("expected rule to match")
	}
	values["gold_weight"] = 2
	if qualified.MatchesRule(flags, values) {
		t.Error("expected rule not to match below numeric threshold")
	}
}
