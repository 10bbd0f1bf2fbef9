/*
Package metrics provides Prometheus metrics collection and exposition for
the orchestrator: mission lifecycle counters, dispatch buffer depth,
finding vault and archival relay throughput, the resurrection
autoscaler's zombie counts, operational nexus state gauges, and the
worker-side hot-loop effort counter.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Categories               │          │
	│  │                                              │          │
	│  │  Mission lifecycle: assign/complete/requeue │          │
	│  │  Dispatch buffer: depth, hydration cycles   │          │
	│  │  Finding vault / archival: flush, drift     │          │
	│  │  Resurrection: zombies found, expansion     │          │
	│  │  Operational nexus: mode, integrity          │          │
	│  │  Census filter: query verdicts              │          │
	│  │  API: request count, duration               │          │
	│  │  Strategy engines: effort by strategy kind  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint                │          │
	│  │  - Handler: metrics.Handler()                 │          │
	│  │  - Format: Prometheus text exposition         │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Mission lifecycle:
  - MissionsTotal: gauge by status (queued/active/completed/...)
  - MissionsAssignedTotal, MissionsCompletedTotal, MissionsRequeuedTotal:
    monotonic counters incremented by pkg/mission
  - AssignDuration: histogram of pkg/mission.Engine.Assign latency

Dispatch buffer:
  - DispatchBufferDepth: current pre-allocated queue depth
  - HydrationCyclesTotal, HydrationVolumeTotal: hydrator daemon activity

Finding vault / archival relay:
  - FindingsDepositedTotal, FindingsFlushedTotal: vault throughput
  - ArchivalLagSeconds: age of the oldest un-archived completed mission
  - ArchivalDriftTotal: parity-audit drift events (§4.5)
  - ArchivalRelayDuration: per-stream (missions/findings) drain latency

Resurrection / autoscaler:
  - ZombieSweepFoundTotal: abandoned missions detected
  - ExpansionSignalsTotal: external capacity signals, by outcome

Operational nexus:
  - NexusMode, NexusIntegrity: current state, encoded as small integers
    matching the ordinal position of each enum value (see pkg/nexus)

Census filter:
  - FilterQueriesTotal: membership query verdicts (hit/miss), by label

API:
  - APIRequestsTotal, APIRequestDuration: per method/path/status

Strategy engines:
  - EffortTotal: candidates evaluated, labeled by strategy kind; this is
    the Prometheus-visible counterpart of the in-process effort_counter
    each engine reconciles per §4.1

# Usage

Registering is automatic (package init); instrumenting a call site:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.AssignDuration)
	// ... do the work ...

Exposing the endpoint:

	mux.Handle("/metrics", metrics.Handler())

# Design Patterns

Package-level metric variables: every metric is a package-level var,
registered once in init(); callers reference the variable directly
rather than looking metrics up by name, which is a compile-time check
against typos in metric names.

Timer helper: Timer wraps time.Now() and exposes ObserveDuration /
ObserveDurationVec so call sites don't repeat time.Since(start).Seconds()
boilerplate; used by pkg/mission and pkg/archival.

Status-as-gauge, transition-as-counter: a mission's current distribution
across states is a gauge (MissionsTotal), but the rate of a specific
transition (assign, complete, requeue) is always a separate counter —
an operator reading "requeued" as a rate tells them something a
snapshot gauge alone cannot.

# See Also

  - pkg/mission, pkg/dispatch, pkg/vault, pkg/archival, pkg/resurrection,
    pkg/nexus for the daemons and operations these metrics instrument
  - https://prometheus.io/docs/practices/naming/ for naming conventions
*/
package metrics
