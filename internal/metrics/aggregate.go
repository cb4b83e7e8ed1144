package metrics

import (
	"sort"
	"time"
)

// SetupRecord pairs a setup event with its derived metrics, repeat flag
// already applied.
type SetupRecord struct {
	Input   SetupInput
	Metrics SetupMetrics
}

// SetterSummary aggregates one setter's setups over a date range.
// Lower efficiency score is better; Rank is 1 for the best setter.
type SetterSummary struct {
	SetterID                string   `json:"setter_id"`
	SetterName              string   `json:"setter_name"`
	TotalSetups             int      `json:"total_setups"`
	AvgSetupDurationMinutes *float64 `json:"avg_setup_duration_minutes"`
	MinSetupDurationMinutes *float64 `json:"min_setup_duration_minutes"`
	MaxSetupDurationMinutes *float64 `json:"max_setup_duration_minutes"`
	AvgApprovalDelayMinutes *float64 `json:"avg_approval_delay_minutes"`
	MaxApprovalDelayMinutes *float64 `json:"max_approval_delay_minutes"`
	RepeatSetupCount        int      `json:"repeat_setup_count"`
	EfficiencyScore         float64  `json:"efficiency_score"`
	Rank                    int      `json:"rank"`

	// Sample counts kept for the overall fold; setups with unknown duration
	// or delay are excluded from the averages, not treated as zero.
	durationSamples int
	delaySamples    int
	durationSum     float64
	delaySum        float64
}

// OverallSummary folds per-setter summaries across all setters.
type OverallSummary struct {
	TotalSetups             int      `json:"total_setups"`
	TotalSetters            int      `json:"total_setters"`
	AvgSetupDurationMinutes *float64 `json:"avg_setup_duration_minutes"`
	AvgApprovalDelayMinutes *float64 `json:"avg_approval_delay_minutes"`
	TotalRepeatSetups       int      `json:"total_repeat_setups"`
	BestPerformerID         string   `json:"best_performer_id"`
	BestPerformerName       string   `json:"best_performer_name"`
}

// Aggregate groups records by setter over [from, to] inclusive and returns
// summaries sorted by efficiency score ascending, ties broken by setter id.
//
// Efficiency score = avg setup duration + 0.5×avg approval delay
// + 10×(repeat setups / total setups × 100). The formula is surfaced verbatim
// to end users; changing it here changes what the UI discloses.
func Aggregate(records []SetupRecord, from, to time.Time) []SetterSummary {
	bySetter := make(map[string]*SetterSummary)
	for _, rec := range records {
		start := rec.Input.Start
		if start.Before(from) || start.After(to) {
			continue
		}
		s := bySetter[rec.Input.SetterID]
		if s == nil {
			s = &SetterSummary{SetterID: rec.Input.SetterID, SetterName: rec.Input.SetterName}
			bySetter[rec.Input.SetterID] = s
		}
		s.TotalSetups++
		if rec.Metrics.IsRepeat {
			s.RepeatSetupCount++
		}
		if d := rec.Metrics.DurationMinutes; d != nil {
			s.durationSum += *d
			s.durationSamples++
			if s.MinSetupDurationMinutes == nil || *d < *s.MinSetupDurationMinutes {
				v := *d
				s.MinSetupDurationMinutes = &v
			}
			if s.MaxSetupDurationMinutes == nil || *d > *s.MaxSetupDurationMinutes {
				v := *d
				s.MaxSetupDurationMinutes = &v
			}
		}
		if d := rec.Metrics.ApprovalDelayMinutes; d != nil {
			s.delaySum += *d
			s.delaySamples++
			if s.MaxApprovalDelayMinutes == nil || *d > *s.MaxApprovalDelayMinutes {
				v := *d
				s.MaxApprovalDelayMinutes = &v
			}
		}
	}

	summaries := make([]SetterSummary, 0, len(bySetter))
	for _, s := range bySetter {
		var avgDur, avgDelay float64
		if s.durationSamples > 0 {
			avgDur = s.durationSum / float64(s.durationSamples)
			v := avgDur
			s.AvgSetupDurationMinutes = &v
		}
		if s.delaySamples > 0 {
			avgDelay = s.delaySum / float64(s.delaySamples)
			v := avgDelay
			s.AvgApprovalDelayMinutes = &v
		}
		repeatPct := float64(s.RepeatSetupCount) / float64(s.TotalSetups) * 100
		s.EfficiencyScore = round2(avgDur + 0.5*avgDelay + 10*repeatPct)
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].EfficiencyScore != summaries[j].EfficiencyScore {
			return summaries[i].EfficiencyScore < summaries[j].EfficiencyScore
		}
		return summaries[i].SetterID < summaries[j].SetterID
	})
	for i := range summaries {
		summaries[i].Rank = i + 1
	}
	return summaries
}

// Overall folds per-setter summaries into one plant-wide view. Averages are
// weighted by each setter's sample counts so the fold equals aggregating the
// raw records directly.
func Overall(summaries []SetterSummary) OverallSummary {
	var o OverallSummary
	var durSum, delaySum float64
	var durN, delayN int

	for _, s := range summaries {
		o.TotalSetups += s.TotalSetups
		o.TotalRepeatSetups += s.RepeatSetupCount
		o.TotalSetters++
		durSum += s.durationSum
		durN += s.durationSamples
		delaySum += s.delaySum
		delayN += s.delaySamples
		if s.TotalSetups > 0 && o.BestPerformerID == "" {
			// Summaries arrive sorted ascending by score.
			o.BestPerformerID = s.SetterID
			o.BestPerformerName = s.SetterName
		}
	}
	if durN > 0 {
		v := durSum / float64(durN)
		o.AvgSetupDurationMinutes = &v
	}
	if delayN > 0 {
		v := delaySum / float64(delayN)
		o.AvgApprovalDelayMinutes = &v
	}
	return o
}
