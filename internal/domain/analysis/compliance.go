package analysis

import (
	"fmt"
	"math"

	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// Status buckets a compliance percentage
type Status string

const (
	StatusLow     Status = "bajo"
	StatusOptimal Status = "optimo"
	StatusHigh    Status = "alto"
)

// ComplianceConfig holds the compliance bands in percent and the
// coefficient of variation above which daily intake is flagged as erratic.
type ComplianceConfig struct {
	LowPct            float64
	HighPct           float64
	HighVariabilityCV float64
}

// DefaultComplianceConfig is the ±10% band with a 25% CV alert
func DefaultComplianceConfig() ComplianceConfig {
	return ComplianceConfig{LowPct: 90, HighPct: 110, HighVariabilityCV: 25}
}

// Classify buckets a percentage; both band edges are optimal
func (c ComplianceConfig) Classify(pct float64) Status {
	switch {
	case pct < c.LowPct:
		return StatusLow
	case pct > c.HighPct:
		return StatusHigh
	default:
		return StatusOptimal
	}
}

// Compliance compares one nutrient's daily average with its objective
type Compliance struct {
	Target  float64 `json:"objetivo"`
	Actual  float64 `json:"actual"`
	Percent float64 `json:"porcentaje_cumplimiento"`
	Status  Status  `json:"estado"`
}

// Comparison is the result of CompareToTargets
type Comparison struct {
	Compliance      map[nutrition.Nutrient]Compliance `json:"cumplimiento"`
	Recommendations []string                          `json:"recomendaciones"`
	OverallScore    float64                           `json:"score_general"`
}

var nutrientNames = map[nutrition.Nutrient]string{
	nutrition.Calories:     "calorías",
	nutrition.Protein:      "proteínas",
	nutrition.Carbohydrate: "carbohidratos",
	nutrition.Fat:          "grasas",
	nutrition.Fiber:        "fibra",
	nutrition.Sugar:        "azúcar",
	nutrition.Sodium:       "sodio",
	nutrition.Potassium:    "potasio",
	nutrition.Calcium:      "calcio",
	nutrition.Iron:         "hierro",
	nutrition.VitaminA:     "vitamina A",
	nutrition.VitaminC:     "vitamina C",
}

// CompareToTargets evaluates the daily average of each targeted nutrient.
// The overall score is the mean of per-nutrient compliance clipped to
// [0, 100].
func CompareToTargets(a PlanAnalysis, targets nutrition.Targets, cfg ComplianceConfig) Comparison {
	out := Comparison{
		Compliance:      make(map[nutrition.Nutrient]Compliance),
		Recommendations: []string{},
	}

	tracked := targets.Tracked()
	sum := 0.0
	for _, n := range tracked {
		target := targets[n]
		actual := a.DailyAverage.Get(n)
		pct := actual / target * 100
		status := cfg.Classify(pct)
		out.Compliance[n] = Compliance{Target: target, Actual: actual, Percent: pct, Status: status}
		sum += math.Min(math.Max(pct, 0), 100)

		switch status {
		case StatusLow:
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("Aumentar el consumo de %s: %.0f%% del objetivo diario", nutrientNames[n], pct))
		case StatusHigh:
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("Reducir el consumo de %s: %.0f%% del objetivo diario", nutrientNames[n], pct))
		}
	}
	if len(tracked) > 0 {
		out.OverallScore = sum / float64(len(tracked))
	}

	if cfg.HighVariabilityCV > 0 && a.DayCount > 1 {
		if cv := a.Variability[nutrition.Calories].CV; cv > cfg.HighVariabilityCV {
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("Alta variabilidad diaria de calorías (CV %.0f%%): equilibrar los días del plan", cv))
		}
	}
	if len(tracked) > 0 && len(out.Recommendations) == 0 {
		out.Recommendations = append(out.Recommendations, "El plan cumple con los objetivos nutricionales")
	}
	return out
}
