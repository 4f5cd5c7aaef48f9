package servehttp

import (
	"net/http"

	"prodflow/domain"
	"prodflow/domain/production"
	"prodflow/indices/search"
	"prodflow/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterDashboardHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1", middleWares...)

	g.GET("/wip-dashboard", handleWipDashboard)
	g.GET("/active-productions", handleActiveProductions)
	g.GET("/overdue-productions", handleOverdueProductions)
	g.GET("/employee-workloads", handleEmployeeWorkloads)
	g.GET("/workflow-search", handleWorkflowSearch)
}

func handleWipDashboard(c *gin.Context) {
	dashboard, err := production.GetWipDashboardFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, dashboard)
}

func handleActiveProductions(c *gin.Context) {
	summaries, err := production.GetActiveProductionsFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, summaries)
}

func handleOverdueProductions(c *gin.Context) {
	summaries, err := production.GetOverdueProductionsFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, summaries)
}

func handleEmployeeWorkloads(c *gin.Context) {
	workloads, err := production.GetEmployeeWorkloadFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, workloads)
}

// handleWorkflowSearch serves from the search index, which may lag the
// database briefly.
func handleWorkflowSearch(c *gin.Context) {
	query := domain.ProductionWorkflowQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	workflows, err := search.SearchWorkflowsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, workflows)
}
