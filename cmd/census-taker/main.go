// Command census-taker builds and seals a sharded-filter census artifact
// from a CSV of historical addresses, for the orchestrator to load at
// boot. Supplemented from original_source/apps/census-taker.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nullshard/prospector/pkg/census"
	"github.com/spf13/cobra"
)

var (
	inputPath string
	outputDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "census-taker: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "census-taker",
	Short: "Partition a historical address set into sealed filter strata",
	Long: `census-taker reads a CSV of address,block_timestamp rows, partitions
them into chronological strata (satoshi_era, vulnerable_legacy,
standard_legacy), builds a sharded Bloom filter per stratum, and seals
the result to --output as filter shard files plus a manifest the
orchestrator verifies at boot.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "CSV file of address,block_timestamp rows (required)")
	rootCmd.Flags().StringVar(&outputDir, "output", "./census", "Directory to seal the census artifact into")
	_ = rootCmd.MarkFlagRequired("input")
}

func run(cmd *cobra.Command, args []string) error {
	records, err := readRecords(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Printf("Read %d address records from %s\n", len(records), inputPath)

	c, err := census.Partition(records)
	if err != nil {
		return fmt.Errorf("partitioning: %w", err)
	}
	for _, s := range c.Strata {
		fmt.Printf("  stratum %-20s %d shards\n", s.Name, s.Filter.ShardCount())
	}

	if err := c.Seal(outputDir); err != nil {
		return fmt.Errorf("sealing: %w", err)
	}

	fmt.Printf("Sealed census to %s\n", outputDir)
	fmt.Printf("Audit token: %s\n", c.Manifest.AuditToken)
	return nil
}

// readRecords parses a CSV with a header row: address,block_timestamp.
// block_timestamp is RFC3339.
func readRecords(path string) ([]census.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	// skip header
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty input file")
		}
		return nil, err
	}

	var records []census.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, row[1])
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", row[1], err)
		}
		records = append(records, census.Record{Address: row[0], BlockTimestamp: ts})
	}
	return records, nil
}
