/*
Package events implements a small buffered pub/sub broker that decouples
the Certification Authority from the request handlers and daemons that
produce the events it reacts to
(see design notes §9, "Cyclic back-references between services and
state").

# Architecture

	┌──────────────────── EVENT BROKER ──────────────────────┐
	│                                                          │
	│  Publishers                    Broker                   │
	│  ┌────────────────┐      ┌─────────────────────┐       │
	│  │ pkg/api         │─────▶│ eventCh (buffered)   │       │
	│  │ pkg/archival    │─────▶│        │             │       │
	│  │ pkg/nexus       │─────▶│        ▼             │       │
	│  │                 │      │   broadcast loop      │       │
	│  └────────────────┘      │        │             │       │
	│                           │   ┌────┴────┐        │       │
	│                           │   ▼         ▼        │       │
	│                           │ sub1       sub2 ...   │       │
	│                           └─────────────────────┘       │
	│                                 │                         │
	│                                 ▼                         │
	│                 pkg/nexus.CertificationAuthority          │
	└──────────────────────────────────────────────────────────┘

# Event Types

  - EventMissionArchived: published by pkg/archival when a completed
    mission is archived
  - EventFindingReported: published by pkg/api's finding handler; this
    is what the Certification Authority watches for the golden vector
  - EventFindingArchived: published by pkg/archival
  - EventArchivalDrift: emitted by the parity auditor when
    tactical-strategic counts disagree (§4.5); human investigation only,
    no automatic reaction
  - EventNexusCertified: published by pkg/nexus.CertificationAuthority
    when the handshake completes
  - EventMissionCompleted, EventMissionRequeued, EventNexusCompromised,
    EventCapacityRequested: defined here, but no package in this
    repository publishes them

# Core Components

Broker:
  - A single internal buffered channel (eventCh, capacity 100) serializes
    all Publish calls into one broadcast loop
  - Each Subscriber is its own buffered channel (capacity 50); a slow or
    stalled subscriber drops events rather than blocking the broadcast
    loop or the publisher (see broadcast's non-blocking select)
  - Start/Stop run and tear down the broadcast goroutine

Subscriber:
  - A plain `chan *Event`; Subscribe returns one, Unsubscribe closes it
  - pkg/nexus.CertificationAuthority holds exactly one Subscriber and
    nothing else from the orchestrator's state bundle — the narrow
    read-only projection design notes §9 calls for to break the cycle
    between the authority and the nexus it mutates

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(&events.Event{
		Type:    events.EventFindingReported,
		Message: "finding reported by worker-7",
		Metadata: map[string]string{"address": addr},
	})

	for ev := range sub {
		// react to ev.Type
	}

# Design Patterns

At-most-once delivery per subscriber: Publish never blocks on a full
subscriber channel (broadcast's select has a default case), trading
guaranteed delivery for the guarantee that one stalled subscriber never
backs up mission completion or finding deposit. This is acceptable
because the only consumer here (certification) is a
monitoring/control-plane concern, not part of any correctness invariant
in §3 — a dropped EventArchivalDrift, the sole purely-informational one,
costs a delayed notice, never data loss.

Single broadcast goroutine: all publishers funnel through one eventCh,
so fan-out to N subscribers happens off the publisher's call stack,
keeping Publish itself O(1) and non-blocking except when eventCh itself
is full (backpressure onto bursty publishers, not onto slow readers).

# See Also

  - pkg/nexus for the Certification Authority, the only Subscriber
  - pkg/archival for the parity auditor, which publishes
    EventArchivalDrift
  - spec section 9 for the cyclic-ownership design note this package
    resolves
*/
package events
