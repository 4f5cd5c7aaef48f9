package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"prodflow/bizerror"
	"prodflow/client/es"
	"prodflow/domain"
	"prodflow/event"
	"prodflow/indices"
	"prodflow/infra/tracing"
	"prodflow/persistence"
	"prodflow/servehttp"
	"prodflow/session"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(
		&domain.Production{},
		&domain.ProductionWorkflow{},
		&domain.WorkflowTransition{},
		&event.EventRecord{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	tracerCloser, err := tracing.InitTracerFromEnv()
	if err != nil {
		log.Fatalf("tracer initialization failed %v\n", err)
	}
	defer tracerCloser.Close()

	if os.Getenv("ELASTICSEARCH_URL") != "" {
		es.CreateClientFromEnv()
		event.EventHandlers = append(event.EventHandlers, indices.IndexWorkflowEventHandle)
	}

	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()
	go event.SyncRoutine(syncCtx)

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "prodflow")
	})

	// everything except session signing requires an authenticated caller:
	// commands record the requester identity from the session
	authFilter := session.SimpleAuthFilter()
	servehttp.RegisterSessionHandler(engine)
	servehttp.RegisterProductionHandler(engine, authFilter)
	servehttp.RegisterDashboardHandler(engine, authFilter)
	indices.RegisterIndicesRestAPI(engine, authFilter)

	servehttp.StartHTTPServer(engine)
}
