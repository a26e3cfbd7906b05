package main

import (
	"time"

	"github.com/cppla/jobboard/config"
	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/routes"
	"github.com/cppla/jobboard/services"
	"github.com/cppla/jobboard/storage"
	"github.com/cppla/jobboard/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	files, err := storage.NewLocalStore(cfg.UploadDir, int64(cfg.UploadMaxSizeMB)<<20)
	if err != nil {
		utils.Sugar.Fatalf("cv store: %v", err)
	}

	r := routes.SetupRouter(routes.Services{
		Accounts:     services.NewAccountService(db, time.Duration(cfg.TokenTTLHours)*time.Hour),
		Jobs:         services.NewJobService(db, files),
		Applications: services.NewApplicationService(db, files, cfg.UploadAllowedExts),
	})

	utils.Sugar.Infof("Starting %s on port %s (graceful)", cfg.AppName, cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r)
	utils.CloseRedis()
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
