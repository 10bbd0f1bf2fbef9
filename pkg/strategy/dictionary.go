package strategy

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/nullshard/prospector/pkg/address"
	"github.com/nullshard/prospector/pkg/curve"
	"github.com/nullshard/prospector/pkg/types"
)

// Dictionary hashes candidate brainwallet phrases fetched from a line-
// delimited source into private scalars and tests the resulting address.
//
// Grounded on
// original_source/libs/domain/mining-strategy/src/engines/dictionary_engine.rs
// (EntropyDictionaryEngine::execute_dictionary_audit).
type Dictionary struct {
	Params *types.DictionaryParams
	// Fetch defaults to http.Get; overridable in tests.
	Fetch func(url string) (*http.Response, error)
}

// Run implements Engine.
func (d *Dictionary) Run(filter Filter, stop <-chan struct{}, effort *atomic.Uint64, sink FindingSink) (string, error) {
	phrases, err := d.fetchPhrases()
	if err != nil {
		return "", fmt.Errorf("strategy: dictionary: %w", err)
	}

	lastIndex := -1
	var sinceTelemetry uint64

	for i, phrase := range phrases {
		select {
		case <-stop:
			effort.Add(sinceTelemetry)
			return fmt.Sprintf("dictionary_checkpoint_index_%d", lastIndex), nil
		default:
		}

		sk := sha256.Sum256([]byte(phrase))
		p, err := curve.BootstrapScalarMul(fmt.Sprintf("%x", sk))
		if err != nil {
			lastIndex = i
			continue
		}
		x, y, ok := curve.ToAffine(p)
		if ok {
			addr := address.FromXY(x, y, false)
			if filter.Query([]byte(addr)) {
				sink(addr, fmt.Sprintf("%x", sk), fmt.Sprintf("brainwallet_vector:%s", phrase))
			}
		}

		lastIndex = i
		sinceTelemetry++
		if sinceTelemetry >= telemetryBatch {
			effort.Add(sinceTelemetry)
			sinceTelemetry = 0
		}
	}

	effort.Add(sinceTelemetry)
	return fmt.Sprintf("dictionary_checkpoint_index_%d", lastIndex), nil
}

func (d *Dictionary) fetchPhrases() ([]string, error) {
	fetch := d.Fetch
	if fetch == nil {
		fetch = http.Get
	}

	resp, err := fetch(d.Params.SourceURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var phrases []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if d.Params.Limit > 0 && len(phrases) >= d.Params.Limit {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		phrases = append(phrases, line)
	}
	return phrases, scanner.Err()
}
