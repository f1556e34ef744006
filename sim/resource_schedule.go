// Implements the staffing schedule: how many resources of each type are
// available from which hour onward, and the hourly personnel cost model.

package sim

import "sort"

// plannedAheadWindow is the number of hourly look-ahead slots the cost model
// keeps. Staffing planned at least this far out counts as planned a week
// ahead (168h minus the 10h between the 18:00 planning moment and the next
// morning).
const plannedAheadWindow = 158

// ResourceSchedule tracks, per resource type, the piecewise-constant number
// of resources available over time. The level at hour h is the one set at the
// latest scheduling moment m <= h. Initially all resources are available.
//
// For the personnel cost KPI it also keeps:
//   - plannedAhead: for each of the next plannedAheadWindow hours, the levels
//     that were on the schedule one week in advance
//   - costMeasurements: the cost recorded at every simulation hour
type ResourceSchedule struct {
	resourceCounts map[ResourceType]int

	moments map[ResourceType][]float64
	levels  map[ResourceType]map[float64]int

	plannedAhead     []map[ResourceType]int
	costMeasurements []int
}

// NewResourceSchedule creates an empty schedule. Call Init before use.
func NewResourceSchedule() *ResourceSchedule {
	return &ResourceSchedule{
		resourceCounts: make(map[ResourceType]int),
		moments:        make(map[ResourceType][]float64),
		levels:         make(map[ResourceType]map[float64]int),
	}
}

// Init sets every resource type to its maximum level from hour 0 and fills
// the planned-ahead window accordingly.
func (rs *ResourceSchedule) Init(resources []*Resource) {
	for _, r := range resources {
		rs.resourceCounts[r.Type]++
	}
	for rt, n := range rs.resourceCounts {
		rs.moments[rt] = []float64{0}
		rs.levels[rt] = map[float64]int{0: n}
	}
	rs.plannedAhead = make([]map[ResourceType]int, plannedAheadWindow)
	for i := range rs.plannedAhead {
		counts := make(map[ResourceType]int, len(rs.resourceCounts))
		for rt, n := range rs.resourceCounts {
			counts[rt] = n
		}
		rs.plannedAhead[i] = counts
	}
}

// ResourceCounts returns the total number of resources per type.
func (rs *ResourceSchedule) ResourceCounts() map[ResourceType]int {
	counts := make(map[ResourceType]int, len(rs.resourceCounts))
	for rt, n := range rs.resourceCounts {
		counts[rt] = n
	}
	return counts
}

// Level returns the number of resources of the given type scheduled at the
// given hour. The hour must be >= 0 and the type must be known.
func (rs *ResourceSchedule) Level(rt ResourceType, hour float64) int {
	moments := rs.moments[rt]
	idx := sort.Search(len(moments), func(i int) bool { return moments[i] > hour }) - 1
	return rs.levels[rt][moments[idx]]
}

// Levels returns the scheduled number of resources of every type at the
// given hour.
func (rs *ResourceSchedule) Levels(hour float64) map[ResourceType]int {
	levels := make(map[ResourceType]int, len(rs.moments))
	for rt := range rs.moments {
		levels[rt] = rs.Level(rt, hour)
	}
	return levels
}

// SetLevel adds a scheduling moment for the given resource type. If the
// moment already exists its level is overwritten.
func (rs *ResourceSchedule) SetLevel(rt ResourceType, hour float64, level int) {
	moments := rs.moments[rt]
	idx := sort.Search(len(moments), func(i int) bool { return moments[i] > hour }) - 1
	if idx >= 0 && moments[idx] == hour {
		rs.levels[rt][hour] = level
		return
	}
	insertAt := idx + 1
	rs.moments[rt] = append(moments, 0)
	copy(rs.moments[rt][insertAt+1:], rs.moments[rt][insertAt:])
	rs.moments[rt][insertAt] = hour
	rs.levels[rt][hour] = level
}

// AddCostMeasurement records the personnel cost of the current hour. It must
// be called exactly once per simulation hour. The cost of the hour is:
//   - 1 per resource that was on the schedule for this hour a week ago
//   - 2 extra per resource scheduled now beyond the week-ago plan
//   - 3 extra per busy resource beyond the current schedule (overtime)
//
// Afterwards the planned-ahead window rotates: the slot for this hour drops
// off and the schedule at hour+plannedAheadWindow is appended.
func (rs *ResourceSchedule) AddCostMeasurement(hour float64, busy []*Resource) {
	planned := rs.plannedAhead[0]
	cost := 0
	for _, n := range planned {
		cost += n
	}

	current := rs.Levels(hour)
	for rt, n := range current {
		cost += 2 * (n - planned[rt])
	}

	busyCounts := make(map[ResourceType]int)
	for _, r := range busy {
		busyCounts[r.Type]++
	}
	for rt, n := range busyCounts {
		if over := n - current[rt]; over > 0 {
			cost += 3 * over
		}
	}

	rs.costMeasurements = append(rs.costMeasurements, cost)

	rs.plannedAhead = append(rs.plannedAhead[1:], rs.Levels(hour+plannedAheadWindow))
}

// TotalCost returns the sum of all recorded hourly cost measurements.
func (rs *ResourceSchedule) TotalCost() int {
	total := 0
	for _, c := range rs.costMeasurements {
		total += c
	}
	return total
}

// Measurements returns the number of recorded hourly cost measurements.
func (rs *ResourceSchedule) Measurements() int {
	return len(rs.costMeasurements)
}
