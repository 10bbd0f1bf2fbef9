/*
Package api implements the External Interfaces a Worker calls over plain
bearer-token JSON HTTP: job acquisition, mission keepalive and
completion, finding reports, fleet telemetry, and the static resource
server the sealed census artifact is served from.

# Routes

	GET  /health                 liveness, no auth
	GET  /metrics                Prometheus exposition, no auth
	POST /swarm/heartbeat        worker telemetry report
	GET  /swarm/status           current fleet telemetry snapshot
	POST /swarm/job/acquire      claim the next eligible queued mission
	POST /swarm/job/keepalive    refresh a mission's lease
	POST /swarm/job/complete     report a mission's audit report
	POST /swarm/finding          report a recovered private key
	GET  /resources/*            census manifest and filter shards

Every /swarm and /resources route requires a Bearer token matching the
orchestrator's configured worker auth token. Acquire and keepalive are
additionally gated on the Operational Nexus: neither is served while the
nexus reports anything other than full execution with a certified or
pending census (see pkg/nexus).
*/
package api
