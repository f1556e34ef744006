// Package sim provides the core discrete-event simulation engine for the
// hospital admission process.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - element.go: process elements (tasks and admission events) and cases
//   - event.go: simulation event types (arrival, start/complete, planning)
//   - simulator.go: the event loop, resource pool and planner callbacks
//   - problem.go: the healthcare process itself (flows, durations, KPIs)
//
// # Architecture
//
// The sim package defines the engine and its interfaces; implementations live
// in sub-packages:
//   - sim/policy/: admission planners (naive, wave-based, bandit, fixed)
//   - sim/workload/: patient arrival models
//   - sim/eventlog/: CSV event log and resource occupancy reporting
//   - sim/calendar/: simulation-hour to wall-clock mapping
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Problem: the process being simulated (case generation, routing, KPIs)
//   - Planner: decides admission times and future staffing levels
package sim
