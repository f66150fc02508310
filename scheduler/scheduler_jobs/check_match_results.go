package scheduler_jobs

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/correlationService"
)

// CheckMatchResults runs one reconciliation cycle. A panic or error in
// one cycle is contained here so the schedule keeps running.
func CheckMatchResults(engine *correlationService.Engine) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in CheckMatchResults", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in CheckMatchResults: %v", r)
		}
	}()

	return engine.Reconcile()
}
