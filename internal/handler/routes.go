package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/demand-desk-api/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Demand   *DemandHandler
	Admin    *AdminDemandHandler
	Catalog  *CatalogHandler
	Realtime *RealtimeHandler
}

// RegisterRoutes mounts the API on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, auth middleware.Authenticator) {
	requireAuth := middleware.JWT(auth)

	demands := group.Group("/demands")
	{
		demands.POST("", requireAuth, middleware.RequireUser(), h.Demand.Create)
		demands.GET("/my", requireAuth, middleware.RequireUser(), h.Demand.ListMine)
		demands.GET("/:id", requireAuth, middleware.RequireUser(), h.Demand.Get)
		demands.PUT("/:id/status", requireAuth, middleware.RequireOperator(), h.Demand.UpdateStatus)
	}

	admin := group.Group("/admin", requireAuth, middleware.RequireOperator())
	{
		admin.GET("/demands", h.Admin.List)
		admin.PUT("/demands/:id/status", h.Demand.UpdateStatus)
		admin.GET("/demands/:id/history", h.Admin.History)
	}

	if h.Catalog != nil {
		group.GET("/subjects", h.Catalog.Subjects)
		group.GET("/subjects/grades", h.Catalog.Grades)
	}

	if h.Realtime != nil {
		group.GET("/ws", h.Realtime.Connect)
	}
}
