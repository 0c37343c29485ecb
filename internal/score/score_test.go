package score

import "testing"

func TestCalculate_WeightedMix(t *testing.T) {
	// 3 SLOs: [critical, warning, critical] with verdicts [true, false, true]
	// under default weights critical=2, warning=1:
	// 100 * (2+2) / (2+1+2) = 80
	severities := map[string]string{
		"a": "critical",
		"b": "warning",
		"c": "critical",
	}
	results := map[string]bool{
		"a": true,
		"b": false,
		"c": true,
	}

	s, breakdown := Calculate(severities, results, nil, nil)

	if s != 80 {
		t.Errorf("expected score 80, got %d", s)
	}
	if breakdown.Passed != 2 || breakdown.Failed != 1 {
		t.Errorf("expected breakdown {2,1}, got %+v", breakdown)
	}
}

func TestCalculate_ZeroScoredChecks(t *testing.T) {
	s, breakdown := Calculate(nil, nil, nil, nil)

	if s != 100 {
		t.Errorf("expected degenerate score 100, got %d", s)
	}
	if breakdown.Passed != 0 || breakdown.Failed != 0 {
		t.Errorf("expected empty breakdown, got %+v", breakdown)
	}
}

func TestCalculate_HealthChecks(t *testing.T) {
	severities := map[string]string{"a": "warning"}
	sloResults := map[string]bool{"a": true}
	healthResults := map[string]bool{"api": false}

	// warning SLO passes (1), critical-weighted health check fails (2):
	// 100 * 1 / 3 = 33
	s, breakdown := Calculate(severities, sloResults, healthResults, nil)

	if s != 33 {
		t.Errorf("expected score 33, got %d", s)
	}
	if breakdown.Passed != 1 || breakdown.Failed != 1 {
		t.Errorf("expected breakdown {1,1}, got %+v", breakdown)
	}
}

func TestCalculate_Overrides(t *testing.T) {
	severities := map[string]string{"a": "critical", "b": "warning"}
	results := map[string]bool{"a": false, "b": true}

	// Override critical=4, default warning=1: 100 * 1 / 5 = 20
	s, _ := Calculate(severities, results, nil, Weights{"critical": 4})
	if s != 20 {
		t.Errorf("expected score 20 with override, got %d", s)
	}

	// Without the override: 100 * 1 / 3 = 33
	s, _ = Calculate(severities, results, nil, nil)
	if s != 33 {
		t.Errorf("expected score 33 without override, got %d", s)
	}
}

func TestCalculate_UnknownSeverityGetsFloorWeight(t *testing.T) {
	severities := map[string]string{"a": "bizarre", "b": "critical"}
	results := map[string]bool{"a": true, "b": false}

	// floor(1) passing over floor(1)+critical(2): 100 * 1 / 3 = 33
	s, _ := Calculate(severities, results, nil, nil)
	if s != 33 {
		t.Errorf("expected score 33, got %d", s)
	}
}

func TestCalculate_Bounds(t *testing.T) {
	severities := map[string]string{"a": "critical", "b": "warning", "c": "info"}

	allPass := map[string]bool{"a": true, "b": true, "c": true}
	if s, _ := Calculate(severities, allPass, nil, nil); s != 100 {
		t.Errorf("expected 100 for all passing, got %d", s)
	}

	allFail := map[string]bool{"a": false, "b": false, "c": false}
	if s, _ := Calculate(severities, allFail, nil, nil); s != 0 {
		t.Errorf("expected 0 for all failing, got %d", s)
	}
}

func TestCalculate_Monotonic(t *testing.T) {
	severities := map[string]string{
		"a": "critical",
		"b": "warning",
		"c": "critical",
		"d": "warning",
	}
	base := map[string]bool{"a": true, "b": false}

	baseScore, _ := Calculate(severities, base, nil, nil)

	// Adding a passing check never decreases the score.
	withPass := map[string]bool{"a": true, "b": false, "c": true}
	if s, _ := Calculate(severities, withPass, nil, nil); s < baseScore {
		t.Errorf("adding a passing check decreased score: %d -> %d", baseScore, s)
	}

	// Adding a failing check never increases the score.
	withFail := map[string]bool{"a": true, "b": false, "d": false}
	if s, _ := Calculate(severities, withFail, nil, nil); s > baseScore {
		t.Errorf("adding a failing check increased score: %d -> %d", baseScore, s)
	}
}

func TestCalculate_AlwaysInRange(t *testing.T) {
	severities := map[string]string{"a": "critical", "b": "warning"}
	cases := []map[string]bool{
		nil,
		{"a": true},
		{"a": false},
		{"a": true, "b": false},
		{"a": false, "b": false},
	}

	for _, results := range cases {
		s, _ := Calculate(severities, results, nil, Weights{"critical": 100})
		if s < 0 || s > 100 {
			t.Errorf("score out of range for %v: %d", results, s)
		}
	}
}
