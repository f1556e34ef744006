package policy

import (
	"math/rand"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/calendar"
)

// banditState is the discretized context the staffing bandit conditions on.
type banditState struct {
	weekday  int
	backlog  int // pending surgery demand, binned 0..3
	overtime int
}

// orLevels are the operating-room staffing actions the bandit chooses from.
var orLevels = []int{2, 3, 4, 5}

// scheduledKey deduplicates staffing adjustments per target hour.
type scheduledKey struct {
	rtype sim.ResourceType
	hour  float64
}

// BanditPlanner learns tomorrow's operating-room level with an epsilon-greedy
// contextual bandit. The context is (weekday, surgery backlog bin, overtime
// flag); the nightly reward penalizes the day's waiting, replanning and cost
// proxies accumulated from the event stream. Admissions themselves follow a
// small fixed-capacity rule so the learning signal stays attributable to
// staffing.
type BanditPlanner struct {
	Reporting

	epsilon float64
	rng     *rand.Rand

	q map[banditState]map[int]float64
	n map[banditState]map[int]int

	lastState  *banditState
	lastAction int

	// per-day reward proxies, reset every 18:00 decision
	admitWait  float64
	inHospWait float64
	nerv       float64
	cost       float64
	overtime   bool

	readyOR   int
	lastLevel int
	scheduled map[scheduledKey]int
}

// NewBanditPlanner returns a bandit with the given exploration rate, drawing
// exploration decisions from rng.
func NewBanditPlanner(epsilon float64, rng *rand.Rand) *BanditPlanner {
	return &BanditPlanner{
		epsilon:   epsilon,
		rng:       rng,
		q:         make(map[banditState]map[int]float64),
		n:         make(map[banditState]map[int]int),
		lastLevel: sim.MaxResources[sim.ResourceOR],
		scheduled: make(map[scheduledKey]int),
	}
}

// Plan admits a handful of cases at the next two mornings: six on weekdays,
// two on weekends, with half that as overflow on the second day.
func (p *BanditPlanner) Plan(toPlan, toReplan []int, now float64) []sim.PlannedAdmission {
	slot1 := calendar.NextDayAt(now, 1, 8)
	if slot1 < now+24 {
		slot1 = calendar.NextDayAt(now, 2, 8)
	}
	slot2 := calendar.NextDayAt(now, 2, 8)

	cap1 := 6
	if calendar.IsWeekend(now) {
		cap1 = 2
	}
	cap2 := cap1 / 2
	if cap2 < 1 {
		cap2 = 1
	}

	out := make([]sim.PlannedAdmission, 0, cap1+cap2)
	for _, id := range toPlan {
		switch {
		case cap1 > 0:
			out = append(out, sim.PlannedAdmission{CaseID: id, Hour: slot1})
			cap1--
		case cap2 > 0:
			out = append(out, sim.PlannedAdmission{CaseID: id, Hour: slot2})
			cap2--
		default:
			return out
		}
	}
	return out
}

// Schedule runs the nightly learning step: credit yesterday's action with the
// accumulated reward, pick tomorrow's operating-room level epsilon-greedily,
// and emit an increase-safe staffing adjustment plus a week-ahead anchor.
func (p *BanditPlanner) Schedule(now float64) []sim.ResourceAdjustment {
	if int(calendar.HourOfDay(now)) != 18 {
		return nil
	}

	state := banditState{
		weekday:  calendar.DayOfWeek(now),
		backlog:  minInt(3, p.readyOR/5),
		overtime: boolToInt(p.overtime),
	}

	if p.lastState != nil {
		reward := -(p.admitWait + p.inHospWait + p.nerv + 3*p.cost)
		p.update(*p.lastState, p.lastAction, reward)
	}

	var action int
	if p.rng.Float64() < p.epsilon {
		action = orLevels[p.rng.Intn(len(orLevels))]
	} else {
		action = p.bestAction(state)
	}

	p.admitWait, p.inHospWait, p.nerv, p.cost = 0, 0, 0, 0
	p.overtime = false

	start := calendar.NextDayAt(now, 1, 8)
	if start < now+14 {
		start = now + 14
	}
	chosen := minInt(sim.MaxResources[sim.ResourceOR], maxInt(2, action))

	// Near-term adjustments may only increase, so never go below what is
	// already committed for that hour.
	near := maxInt(maxInt(p.lastLevel, chosen), p.scheduledAt(start, p.lastLevel))
	p.lastLevel = near

	var out []sim.ResourceAdjustment
	if p.scheduledAt(start, -1) != near {
		out = append(out, sim.ResourceAdjustment{Type: sim.ResourceOR, Hour: start, Level: near})
		p.scheduled[scheduledKey{sim.ResourceOR, start}] = near
	}
	weekAhead := start + calendar.HoursPerWeek
	if p.scheduledAt(weekAhead, -1) != chosen {
		out = append(out, sim.ResourceAdjustment{Type: sim.ResourceOR, Hour: weekAhead, Level: chosen})
		p.scheduled[scheduledKey{sim.ResourceOR, weekAhead}] = chosen
	}

	p.lastState = &state
	p.lastAction = action
	return out
}

// Report accumulates the day's reward proxies from the event stream.
func (p *BanditPlanner) Report(caseID int, el *sim.Element, hour float64, res *sim.Resource, kind sim.EventKind, data sim.ReportData) {
	p.Forward(caseID, el, hour, res, kind, data)

	switch kind {
	case sim.EventActivateEvent:
		if el != nil && el.Label == sim.ActivityAdmission {
			p.admitWait++
		}
	case sim.EventActivateTask:
		p.inHospWait += 0.2
		if el != nil && el.Label == sim.ActivitySurgery {
			p.readyOR++
		}
	case sim.EventReplan:
		p.nerv++
	case sim.EventStartTask:
		if res != nil && res.Type == sim.ResourceOR {
			p.readyOR = maxInt(0, p.readyOR-1)
		}
	case sim.EventScheduleResources:
		if data != nil && data[sim.DataOvertime] > 0 {
			p.cost += 3
			p.overtime = true
		}
	}
}

func (p *BanditPlanner) update(s banditState, a int, reward float64) {
	if p.n[s] == nil {
		p.n[s] = make(map[int]int)
		p.q[s] = make(map[int]float64)
	}
	p.n[s][a]++
	n := float64(p.n[s][a])
	p.q[s][a] += (reward - p.q[s][a]) / n
}

// bestAction returns the highest-valued level for the state, preferring
// larger levels on ties so an untrained bandit starts near full staffing.
func (p *BanditPlanner) bestAction(s banditState) int {
	best := orLevels[0]
	bestQ := p.q[s][best]
	for _, a := range orLevels[1:] {
		if q := p.q[s][a]; q >= bestQ {
			best, bestQ = a, q
		}
	}
	return best
}

func (p *BanditPlanner) scheduledAt(hour float64, fallback int) int {
	if v, ok := p.scheduled[scheduledKey{sim.ResourceOR, hour}]; ok {
		return v
	}
	return fallback
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
