package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	logsvc "github.com/matkerbino/murim/services/logger"
	sheetsvc "github.com/matkerbino/murim/services/sheets"
	"github.com/matkerbino/murim/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	api.InitValidators(validate, translator)

	exporter, err := sheetsvc.NewExporter(conf, appLogger)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		svc:        api.NewServices(api.NewClient(conf.APIURL, conf.APITimeout)),
		exporter:   exporter,
		validate:   validate,
		translator: translator,
		openDB: func() (*sql.DB, error) {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", core.TranslateValidation(err, translator))
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
