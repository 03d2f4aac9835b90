package main

import (
	"github.com/mindhavenhq/mindhaven/config"
	"github.com/mindhavenhq/mindhaven/gamification"
	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/routes"
	"github.com/mindhavenhq/mindhaven/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.Patient{},
		&models.ActivityEvent{},
		&models.PointTransaction{},
		&models.DailyCheckIn{},
		&models.Badge{},
		&models.PatientBadge{},
	)

	// Seed the badge catalog before the engine loads it
	if err := gamification.SeedBadges(db); err != nil {
		utils.Sugar.Fatalf("badge seeding failed: %v", err)
	}

	engine, err := gamification.NewEngine(db)
	if err != nil {
		utils.Sugar.Fatalf("engine init failed: %v", err)
	}

	r := routes.SetupRouter(db, engine)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
