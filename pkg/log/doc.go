/*
Package log provides structured logging for the orchestrator and worker
using zerolog.

The log package wraps github.com/rs/zerolog to provide JSON-structured
(or human-readable console) logging, with component-scoped child loggers
and a small set of field-scoped helpers (WithMissionID, WithWorkerID,
WithScenarioID) that every daemon and request handler in this repository
uses instead of building ad hoc zerolog contexts inline.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              log.Init(cfg)                   │          │
	│  │  - Sets zerolog.SetGlobalLevel               │          │
	│  │  - JSONOutput: JSON writer for production     │          │
	│  │  - !JSONOutput: ConsoleWriter for local dev    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            log.Logger (global)                │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│       ┌─────────────┼─────────────┬───────────────┐       │
	│       ▼              ▼              ▼               ▼       │
	│  WithComponent   WithMissionID   WithWorkerID  WithScenarioID│
	│  ("mission")     (mission.ID)    (worker.ID)   (scenario.ID) │
	└────────────────────────────────────────────────────────────┘

# Core Components

Config / Init:
  - Level: debug/info/warn/error, mapped to zerolog's global level
  - JSONOutput: true for the orchestrator and worker's production
    output; false selects zerolog.ConsoleWriter for a human-readable
    local-dev format
  - Output: defaults to os.Stdout; tests may pass an io.Writer such as
    a bytes.Buffer to capture output

Child loggers:
  - WithComponent(name): the standard per-package logger, e.g.
    log.WithComponent("mission") used throughout pkg/mission
  - WithMissionID, WithWorkerID, WithScenarioID: attach the
    corresponding id as a structured field, so every zombie sweep,
    assignment, and completion log line carries the id an operator
    needs to grep for without string-matching a formatted message

Package-level helpers:
  - Info, Debug, Warn, Error, Errorf, Fatal: convenience wrappers over
    the global Logger for call sites that don't need a scoped child
    logger (mostly cmd/ startup code)

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("mission")
	logger.Info().
		Str("mission_id", m.ID).
		Str("worker_id", workerID).
		Msg("mission assigned")

	log.WithMissionID(m.ID).Warn().Msg("zombie detected, requeueing")

# Design Patterns

Structured fields over formatted strings: every call site attaches
fields (mission_id, worker_id, scenario_id, strategy) rather than
interpolating them into the message text, so a JSON log line can be
filtered/aggregated by an operator without parsing prose.

Component scoping: every package that logs does so through
log.WithComponent("<name>") once, typically as a package-level variable
or inline at the call site, rather than logging through the bare global
Logger — this is what lets an operator filter the tactical store's
transaction log from the strategy engines' telemetry log by a single
field.

Level and format are orthogonal: JSONOutput toggles the writer
independently of Level, so a developer can run with
JSONOutput: false, Level: DebugLevel locally and get human-readable
debug output, while production always runs JSONOutput: true regardless
of level.

# See Also

  - github.com/rs/zerolog for the underlying logging library
  - pkg/mission, pkg/dispatch, pkg/vault, pkg/archival,
    pkg/resurrection, pkg/workerengine for the heaviest users of the
    component/id-scoped child loggers
*/
package log
