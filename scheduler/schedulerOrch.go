package scheduler

import (
	"fmt"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/scheduler/scheduler_jobs"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/correlationService"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func SetupCron(engine *correlationService.Engine, db *gorm.DB, log zerolog.Logger) {
	cronService := cron.New(cron.WithSeconds())

	_, err := cronService.AddFunc("0 */5 * * * *", func() {
		// Every 5 minutes
		err := scheduler_jobs.CheckMatchResults(engine)
		if err != nil {
			log.Error().Err(err).Msg("match reconciliation cycle failed")
			db.Create(&models.ErrorLog{
				GuildID: "RECONCILE ERR",
				Message: fmt.Sprintf("%v", err),
			})
		}
	})

	if err != nil {
		errLog := models.ErrorLog{
			GuildID: "CRON ERR",
			Message: fmt.Sprintf("%v", err),
		}
		db.Create(&errLog)
	}

	cronService.Start()
}
