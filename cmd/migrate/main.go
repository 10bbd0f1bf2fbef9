// Command migrate performs one-off schema backfills against an existing
// tactical store database, outside the orchestrator's own
// CreateBucketIfNotExists bootstrap (pkg/storage.Open). Grounded on
// a flag-driven, dry-run-first tool shape.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/nullshard/prospector/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	dataDir    = flag.String("data-dir", "./data", "Tactical store data directory")
	dryRun     = flag.Bool("dry-run", false, "Show what would change without writing")
	backupPath = flag.String("backup", "", "Backup path before migrating (default: <db>.backup)")
)

const defaultLeaseSeconds = 900

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("prospector tactical store migration")
	log.Println("====================================")

	dbPath := filepath.Join(*dataDir, "prospector.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("database not found at %s", dbPath)
	}
	log.Printf("database: %s", dbPath)
	log.Printf("dry run: %v", *dryRun)

	if !*dryRun {
		backup := *backupPath
		if backup == "" {
			backup = dbPath + ".backup"
		}
		if err := copyFile(dbPath, backup); err != nil {
			log.Fatalf("backup failed: %v", err)
		}
		log.Printf("✓ backed up to %s", backup)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := backfillLeaseSeconds(db, *dryRun); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if *dryRun {
		log.Println("dry run complete, no changes made")
	} else {
		log.Println("✓ migration complete")
	}
}

// backfillLeaseSeconds sets LeaseSeconds to defaultLeaseSeconds on any
// mission record persisted before that field existed (zero value).
func backfillLeaseSeconds(db *bolt.DB, dryRun bool) error {
	var scanned, needsFix int

	err := db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("jobs"))
		if b == nil {
			log.Println("no jobs bucket found, nothing to migrate")
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			scanned++
			var m types.Mission
			if err := json.Unmarshal(v, &m); err != nil {
				log.Printf("⚠ skipping unparseable record %s: %v", k, err)
				return nil
			}
			if m.LeaseSeconds != 0 {
				return nil
			}
			needsFix++
			if dryRun {
				return nil
			}
			m.LeaseSeconds = defaultLeaseSeconds
			data, err := json.Marshal(&m)
			if err != nil {
				return err
			}
			return b.Put(k, data)
		})
	})
	if err != nil {
		return err
	}

	log.Printf("scanned %d missions, %d needed a lease_seconds backfill", scanned, needsFix)
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0600)
}
