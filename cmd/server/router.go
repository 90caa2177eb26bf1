package main

import (
	"literature-manager/internal/annotation"
	"literature-manager/internal/app"
	"literature-manager/internal/auth"
	"literature-manager/internal/author"
	"literature-manager/internal/journal"
	"literature-manager/internal/middleware"
	"literature-manager/internal/project"
	"literature-manager/internal/publication"
	"literature-manager/internal/tag"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func corsConfig(environment string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
	}

	if environment == "development" {
		// Allow all origins in development
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

func setupRouter(a *app.App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(a.Config.Environment)))

	api := router.Group("/")
	if a.Config.AuthEnabled() {
		authHandler := auth.NewHandler(a.Auth)
		router.POST("/login", authHandler.Login)

		guard := &middleware.Auth{Tokens: a.Tokens}
		api.Use(guard.AuthMiddleWare())
	}

	authorHandler := author.NewHandler(a.Authors)
	api.GET("/authors", authorHandler.List)
	api.POST("/authors", authorHandler.Create)
	api.GET("/authors/duplicates", authorHandler.Duplicates)
	api.POST("/authors/merge", authorHandler.Merge)
	api.GET("/authors/:id", authorHandler.Show)
	api.PUT("/authors/:id", authorHandler.Update)
	api.DELETE("/authors/:id", authorHandler.Delete)

	journalHandler := journal.NewHandler(a.Journals)
	api.GET("/journals", journalHandler.List)
	api.POST("/journals", journalHandler.Create)
	api.GET("/journals/:id", journalHandler.Show)
	api.PUT("/journals/:id", journalHandler.Update)

	tagHandler := tag.NewHandler(a.Tags)
	api.GET("/tags", tagHandler.List)
	api.POST("/tags", tagHandler.Create)
	api.GET("/tags/:id", tagHandler.Show)
	api.PUT("/tags/:id", tagHandler.Update)

	projectHandler := project.NewHandler(a.Projects)
	api.GET("/projects", projectHandler.List)
	api.POST("/projects", projectHandler.Create)
	api.GET("/projects/:id", projectHandler.Show)
	api.PUT("/projects/:id", projectHandler.Update)
	api.GET("/projects/:id/biblatex", projectHandler.BibLaTeX)

	pubHandler := publication.NewHandler(a.Publications)
	api.GET("/publications", pubHandler.List)
	api.POST("/publications", pubHandler.Create)
	api.POST("/publications/doi", pubHandler.ImportDOI)
	api.GET("/publications/:id", pubHandler.Show)
	api.PUT("/publications/:id", pubHandler.Update)
	api.DELETE("/publications/:id", pubHandler.Delete)
	api.PUT("/publications/:id/authors", pubHandler.SetAuthors)
	api.GET("/publications/:id/doi", pubHandler.PreviewDOI)
	api.POST("/publications/:id/doi", pubHandler.UpdateFromDOI)
	api.POST("/publications/:id/file", pubHandler.AttachFile)
	api.GET("/publications/:id/biblatex", pubHandler.BibLaTeX)

	annotationHandler := annotation.NewHandler(a.Annotations)
	api.GET("/publications/:id/annotations", annotationHandler.List)
	api.POST("/publications/:id/annotations", annotationHandler.Create)
	api.PATCH("/publications/:id/annotations/:annotationId", annotationHandler.Update)
	api.DELETE("/publications/:id/annotations/:annotationId", annotationHandler.Delete)

	return router
}
