// Package mood maps tank readings to a bounded score per parameter and,
// via override rules, to the animation category. Evaluate is a pure
// function: same params and clock in, same result out.
package mood

import (
	"fmt"
	"strings"
	"time"

	"aquariumd/pkg/types"
)

// Threshold tables below are care policy, not tuning knobs. They mirror the
// printed test-kit guidance the device shipped with; change them only when
// the policy changes.

func scoreAmmonia(ppm float64) int {
	switch {
	case ppm <= 0:
		return 2
	case ppm < 0.25:
		return 0
	case ppm < 0.5:
		return -1
	default:
		return -2
	}
}

func scoreNitrite(ppm float64) int {
	switch {
	case ppm <= 0:
		return 2
	case ppm < 0.25:
		return 0
	case ppm < 0.5:
		return -1
	default:
		return -2
	}
}

func scoreNitrate(ppm float64) int {
	switch {
	case ppm < 20:
		return 2
	case ppm < 40:
		return 1
	case ppm < 80:
		return -1
	default:
		return -2
	}
}

func scorePH(ph float64) int {
	switch {
	case ph >= 6.5 && ph <= 7.5:
		return 2
	case ph >= 6.0 && ph <= 8.0:
		return 1
	case ph < 5.5 || ph > 8.5:
		return -2
	default:
		return -1
	}
}

func scoreFeed(sinceSec, intervalSec int64) int {
	since, interval := float64(sinceSec), float64(intervalSec)
	switch {
	case since <= interval:
		return 2
	case since <= 1.5*interval:
		return 1
	case since <= 2.0*interval:
		return -1
	default:
		return -2
	}
}

func scoreClean(sinceSec, intervalDays int64) int {
	since := float64(sinceSec)
	interval := float64(intervalDays) * 86400
	switch {
	case since <= interval:
		return 2
	case since <= 1.2*interval:
		return 1
	case since <= 1.5*interval:
		return -1
	default:
		return -2
	}
}

// Evaluate computes the six sub-scores, the total, and the category for the
// given parameter snapshot at the given time. A single critical reading
// forces ANGRY no matter how good the rest look: a dangerous spike must
// never be averaged away by an otherwise healthy total.
func Evaluate(p types.Params, now time.Time) types.MoodResult {
	sinceFeed := now.Unix() - p.LastFeedUnix
	if sinceFeed < 0 {
		sinceFeed = 0
	}
	sinceClean := now.Unix() - p.LastCleanUnix
	if sinceClean < 0 {
		sinceClean = 0
	}

	r := types.MoodResult{
		AmmoniaScore: scoreAmmonia(p.AmmoniaPPM),
		NitriteScore: scoreNitrite(p.NitritePPM),
		NitrateScore: scoreNitrate(p.NitratePPM),
		PHScore:      scorePH(p.PH),
		FeedScore:    scoreFeed(sinceFeed, p.FeedIntervalSec),
		CleanScore:   scoreClean(sinceClean, p.CleanIntervalDays),
	}
	r.Total = r.AmmoniaScore + r.NitriteScore + r.NitrateScore +
		r.PHScore + r.FeedScore + r.CleanScore

	feedHours := float64(sinceFeed) / 3600
	cleanDays := float64(sinceClean) / 86400

	// Override rule 1: any critical score forces ANGRY. Tested in fixed
	// priority order so the reason names the most urgent parameter.
	switch {
	case r.AmmoniaScore <= -2:
		r.Category = types.CategoryAngry
		r.Reason = fmt.Sprintf("Ammonia critical: %.2f ppm", p.AmmoniaPPM)
		return r
	case r.NitriteScore <= -2:
		r.Category = types.CategoryAngry
		r.Reason = fmt.Sprintf("Nitrite critical: %.2f ppm", p.NitritePPM)
		return r
	case r.PHScore <= -2:
		r.Category = types.CategoryAngry
		r.Reason = fmt.Sprintf("pH critical: %.1f", p.PH)
		return r
	case r.NitrateScore <= -2:
		r.Category = types.CategoryAngry
		r.Reason = fmt.Sprintf("Nitrate critical: %.0f ppm", p.NitratePPM)
		return r
	case r.FeedScore <= -2:
		r.Category = types.CategoryAngry
		r.Reason = fmt.Sprintf("Feeding overdue: %.1f h since last feed", feedHours)
		return r
	case r.CleanScore <= -2:
		r.Category = types.CategoryAngry
		r.Reason = fmt.Sprintf("Water change overdue: %.1f days since last clean", cleanDays)
		return r
	}

	// Override rule 2: one or more warnings cap the mood at SAD even when
	// the total would otherwise read HAPPY.
	var warnings []string
	if r.AmmoniaScore <= -1 {
		warnings = append(warnings, fmt.Sprintf("Ammonia elevated: %.2f ppm", p.AmmoniaPPM))
	}
	if r.NitriteScore <= -1 {
		warnings = append(warnings, fmt.Sprintf("Nitrite elevated: %.2f ppm", p.NitritePPM))
	}
	if r.PHScore <= -1 {
		warnings = append(warnings, fmt.Sprintf("pH off target: %.1f", p.PH))
	}
	if r.NitrateScore <= -1 {
		warnings = append(warnings, fmt.Sprintf("Nitrate elevated: %.0f ppm", p.NitratePPM))
	}
	if r.FeedScore <= -1 {
		warnings = append(warnings, fmt.Sprintf("Feeding late: %.1f h since last feed", feedHours))
	}
	if r.CleanScore <= -1 {
		warnings = append(warnings, fmt.Sprintf("Water change due: %.1f days since last clean", cleanDays))
	}
	if len(warnings) > 0 {
		if r.Total >= 0 {
			r.Category = types.CategorySad
		} else {
			r.Category = types.CategoryAngry
		}
		r.Reason = strings.Join(warnings, "; ")
		return r
	}

	// No negative score anywhere: category follows the total alone.
	switch {
	case r.Total >= 6:
		r.Category = types.CategoryHappy
		r.Reason = "All parameters in a healthy range"
	case r.Total >= 0:
		r.Category = types.CategorySad
		r.Reason = "Parameters acceptable but not ideal"
	default:
		r.Category = types.CategoryAngry
		r.Reason = "Parameters poor overall"
	}
	return r
}
