package cmd

import (
	"database/sql"
	"log"
	"stakeregistry/domain/config"
	"stakeregistry/infrastructure/dbhandler"
	"stakeregistry/interface/exporter"
	"stakeregistry/interface/repository"
	"stakeregistry/usecase"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func newLogger() *zap.Logger {
	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(config.GetLogLevel())
	logConfig.Encoding = "console"
	logger, err := logConfig.Build()
	if err != nil {
		log.Fatalf("Unable to create logger - %v\n", err.Error())
	}
	return logger
}

func defaultDependencyInject() {
	var err error

	logger = newLogger()

	dbURI := config.GetDbUri()
	dbPool, err = sql.Open("postgres", dbURI)
	if err != nil {
		logger.Fatal("🔴 unable to open database", zap.Error(err))
	}
	dbPool.SetMaxOpenConns(20)
	dbPool.SetMaxIdleConns(5)
	dbPool.SetConnMaxIdleTime(1 * time.Minute)
	dbPool.SetConnMaxLifetime(4 * time.Hour)

	dbHandler := dbhandler.DBHandler{
		DB:       dbPool,
		Log:      logger.Named("db"),
		MaxRetry: config.GetMaxCommitRetry(),
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	exporter.Init(registry)

	settings := usecase.Settings{
		MaxCommitRetry: config.GetMaxCommitRetry(),
		TestNet:        config.IsTestNet(),
	}
	locker := usecase.NewRegistrarLocker()

	registrarRepository := repository.NewRegistrarRepository(dbHandler)
	voterRepository := repository.NewVoterRepository(dbHandler)
	eventRepository := repository.NewEventRepository(dbHandler)
	memoRepository := repository.NewMemoRepository(dbHandler)

	memoInteractor = usecase.NewMemoInteractor(memoRepository)
	registrarInteractor = usecase.NewRegistrarInteractor(logger.Named("registrar"), registrarRepository, locker, settings)
	voterInteractor = usecase.NewVoterInteractor(logger.Named("voter"), registrarRepository, voterRepository, locker, settings)
	eventInteractor = usecase.NewEventInteractor(eventRepository, settings)
}

var dbPool *sql.DB
var logger *zap.Logger
var registry *prometheus.Registry
var memoInteractor *usecase.MemoInteractor
var registrarInteractor *usecase.RegistrarInteractor
var voterInteractor *usecase.VoterInteractor
var eventInteractor *usecase.EventInteractor
