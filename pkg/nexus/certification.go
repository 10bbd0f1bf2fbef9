package nexus

import (
	"github.com/nullshard/prospector/pkg/events"
	"github.com/nullshard/prospector/pkg/log"
)

// CertificationAuthority listens on the finding stream and certifies the
// Nexus the first time a reported address matches the golden vector — a
// known address with a known, deliberately weak private key, planted in
// the census so a hit proves the filter and strategy engines are wired
// correctly end to end before real missions are trusted.
//
// Grounded on
// original_source/apps/orchestrator/src/services/certification_authority.rs.
type CertificationAuthority struct {
	nexus         *Nexus
	broker        *events.Broker
	goldenVector  string
}

// NewCertificationAuthority constructs a certification authority bound to
// nexus and broker, watching for goldenVector.
func NewCertificationAuthority(nx *Nexus, broker *events.Broker, goldenVector string) *CertificationAuthority {
	return &CertificationAuthority{nexus: nx, broker: broker, goldenVector: goldenVector}
}

// Run subscribes to the finding stream and blocks until sub is closed by
// the broker stopping. Intended to be launched with `go`. The orchestrator
// moves integrity from AwaitingCertification to CertificationInProgress at
// boot, once the census artifact is verified (see cmd/orchestrator); this
// authority only ever performs the CertificationInProgress -> Certified
// transition.
func (c *CertificationAuthority) Run() {
	logger := log.WithComponent("certification-authority")
	sub := c.broker.Subscribe()
	defer c.broker.Unsubscribe(sub)

	for ev := range sub {
		if ev.Type != events.EventFindingReported {
			continue
		}
		if c.nexus.Integrity() != CertificationInProgress {
			continue
		}
		addr := ev.Metadata["address"]
		if addr == "" || addr != c.goldenVector {
			continue
		}
		c.nexus.SetIntegrity(CertifiedOperational)
		logger.Info().Str("address", addr).Msg("golden vector matched, nexus certified operational")
		c.broker.Publish(&events.Event{
			Type:    events.EventNexusCertified,
			Message: "golden vector address located",
		})
	}
}
