package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bodelab/bodesweep/internal/api/handlers"
	"github.com/bodelab/bodesweep/internal/repository"
	"github.com/bodelab/bodesweep/internal/sweep"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, tracker *sweep.Tracker, repo repository.SweepRepository) {
	sweepHandler := handlers.NewSweepHandler(tracker, repo)

	huma.Register(api, huma.Operation{
		OperationID: "getLatestSweep",
		Method:      http.MethodGet,
		Path:        "/api/sweeps/latest",
		Summary:     "Get latest sweep",
		Description: "Returns the in-flight or most recently finished sweep session",
		Tags:        []string{"Sweeps"},
	}, sweepHandler.GetLatestSweep)

	huma.Register(api, huma.Operation{
		OperationID: "getSweepStatus",
		Method:      http.MethodGet,
		Path:        "/api/sweeps/{id}/status",
		Summary:     "Get sweep status",
		Description: "Returns the current status and progress of a sweep",
		Tags:        []string{"Sweeps"},
	}, sweepHandler.GetSweepStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getSweepRecords",
		Method:      http.MethodGet,
		Path:        "/api/sweeps/{id}/records",
		Summary:     "Get sweep records",
		Description: "Returns the accepted measurement records of a sweep in capture order",
		Tags:        []string{"Sweeps"},
	}, sweepHandler.GetSweepRecords)

	huma.Register(api, huma.Operation{
		OperationID: "listSweeps",
		Method:      http.MethodGet,
		Path:        "/api/sweeps",
		Summary:     "List archived sweeps",
		Description: "Returns archived sweep sessions, newest first",
		Tags:        []string{"Sweeps"},
	}, sweepHandler.ListSweeps)
}
