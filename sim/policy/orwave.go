package policy

import (
	"math"
	"sort"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/calendar"
)

// Admission waves within a day, as hours after 08:00, and the fraction of the
// daily quota each wave receives. Front-loading mornings keeps beds turning
// over before the evening staffing cut.
var (
	waveOffsets   = []float64{0, 2, 4, 6, 8, 12}
	waveFractions = []float64{0.36, 0.22, 0.16, 0.12, 0.08, 0.06}
)

// quota bounds per day
const (
	quotaFloor     = 50
	quotaFloorWarm = 56
	quotaCap       = 64
	quotaCapHigh   = 72
	warmDays       = 14
	backlogHigh    = 150
)

// waveKey identifies one admission hour bucket for quota accounting.
type waveKey struct {
	week int
	day  int
	hour int
}

// WavePlanner admits patients in fixed daily waves sized from the staffing
// capacity, draining the backlog day by day. It never moves an admission once
// planned, trading a little waiting time for zero nervousness.
type WavePlanner struct {
	Reporting

	// capacity holds the staffing level per resource type and day of week
	// (0 = Monday) that Schedule commits to.
	capacity map[sim.ResourceType][7]int

	used map[waveKey]int
}

// NewWavePlanner returns a wave planner running all resource types at their
// maxima every day.
func NewWavePlanner() *WavePlanner {
	capacity := make(map[sim.ResourceType][7]int, len(sim.AllResourceTypes))
	for _, rt := range sim.AllResourceTypes {
		var week [7]int
		for d := range week {
			week[d] = sim.MaxResources[rt]
		}
		capacity[rt] = week
	}
	return &WavePlanner{
		capacity: capacity,
		used:     make(map[waveKey]int),
	}
}

// dailyQuota derives how many admissions a day can absorb from its staffing:
// an intake takes about 14 patients through, an ER practitioner 6, and beds
// bound the total. Operating rooms deliberately do not cap the quota.
func (p *WavePlanner) dailyQuota(day int) int {
	intake := p.capacity[sim.ResourceIntake][day]
	er := p.capacity[sim.ResourceERPractitioner][day]
	beds := p.capacity[sim.ResourceABed][day] + p.capacity[sim.ResourceBBed][day]
	q := min3(14*intake, 6*er, beds)
	if q < 48 {
		q = 48
	}
	if q > quotaCap {
		q = quotaCap
	}
	return q
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// splitQuota turns a day quota into integer per-wave quotas that sum to the
// total, assigning rounding leftovers to the largest fractional parts.
func splitQuota(total int, fractions []float64) []int {
	raw := make([]float64, len(fractions))
	parts := make([]int, len(fractions))
	sum := 0
	for i, f := range fractions {
		raw[i] = f * float64(total)
		parts[i] = int(raw[i])
		sum += parts[i]
	}
	leftover := total - sum
	if leftover > 0 {
		order := make([]int, len(raw))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return raw[order[a]]-float64(parts[order[a]]) > raw[order[b]]-float64(parts[order[b]])
		})
		for _, i := range order[:leftover] {
			parts[i]++
		}
	}
	return parts
}

// adjustedQuota applies the backlog boost and the warm-start floor for the
// first two weeks of a run.
func (p *WavePlanner) adjustedQuota(day int, daysSinceEpoch, backlog int) int {
	quota := p.dailyQuota(day)
	boost := backlog / 6
	if boost > quota/2 {
		boost = quota / 2
	}
	warm := daysSinceEpoch < warmDays
	floor := quotaFloor
	capMax := quotaCap
	if warm {
		floor = quotaFloorWarm
	}
	if warm || backlog > backlogHigh {
		capMax = quotaCapHigh
	}
	quota += boost
	if quota < floor {
		quota = floor
	}
	if quota > capMax {
		quota = capMax
	}
	return quota
}

// Plan spreads all new cases over admission waves starting the next morning,
// filling each day completely before spilling into the next. Replannable
// cases are intentionally left alone.
func (p *WavePlanner) Plan(toPlan, toReplan []int, now float64) []sim.PlannedAdmission {
	if len(toPlan) == 0 {
		return nil
	}
	pending := make([]int, len(toPlan))
	copy(pending, toPlan)

	out := make([]sim.PlannedAdmission, 0, len(pending))
	base := calendar.NextMorning(now + 24)

	for dayOffset := 0; len(pending) > 0; dayOffset++ {
		dayStart := base + float64(dayOffset*calendar.HoursPerDay)
		day := calendar.DayOfWeek(dayStart)
		week := int(dayStart) / calendar.HoursPerWeek
		daysSinceEpoch := int(base)/calendar.HoursPerDay + dayOffset

		backlog := len(pending) + len(toReplan)
		quota := p.adjustedQuota(day, daysSinceEpoch, backlog)
		parts := splitQuota(quota, waveFractions)

		for i, offset := range waveOffsets {
			if len(pending) == 0 {
				break
			}
			slot := dayStart + offset
			key := waveKey{week: week, day: day, hour: int(math.Mod(slot, calendar.HoursPerDay))}
			room := parts[i] - p.used[key]
			if room <= 0 {
				continue
			}
			k := room
			if k > len(pending) {
				k = len(pending)
			}
			for j := 0; j < k; j++ {
				id := pending[len(pending)-1]
				pending = pending[:len(pending)-1]
				out = append(out, sim.PlannedAdmission{CaseID: id, Hour: slot})
			}
			p.used[key] += k
		}
	}
	return out
}

// Schedule commits next week's staffing: full capacity from the morning, with
// one operating room trimmed from the evening.
func (p *WavePlanner) Schedule(now float64) []sim.ResourceAdjustment {
	base := math.Floor(now)
	morning := base + 158
	evening := base + 168
	day := calendar.DayOfWeek(morning)

	out := make([]sim.ResourceAdjustment, 0, 2*len(sim.AllResourceTypes))
	for _, rt := range sim.AllResourceTypes {
		out = append(out, sim.ResourceAdjustment{Type: rt, Hour: morning, Level: p.capacity[rt][day]})
	}
	for _, rt := range sim.AllResourceTypes {
		level := p.capacity[rt][day]
		if rt == sim.ResourceOR {
			level--
			if level < 4 {
				level = 4
			}
		}
		out = append(out, sim.ResourceAdjustment{Type: rt, Hour: evening, Level: level})
	}
	return out
}
