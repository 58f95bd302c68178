package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/config"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	ucAppointment "github.com/Danx101/AIL-APP-sub003/internal/usecase/appointment"
)

// One-shot auto-completion sweep, for cron jobs and operators.
func main() {

	studioFlag := flag.Uint("studio", 0, "limit the sweep to one studio id")
	flag.Parse()

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	auditDispatcher := audit.NewDispatcher(audit.New(db))

	sweepUC := ucAppointment.NewSweep(
		db,
		ledger.NewService(),
		nil,
		auditDispatcher,
	)

	var studioID *uint
	if *studioFlag != 0 {
		id := uint(*studioFlag)
		studioID = &id
	}

	result, err := sweepUC.Execute(context.Background(), studioID, time.Now())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}
