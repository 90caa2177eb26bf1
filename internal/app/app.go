// Package app wires repositories and services on top of one database and
// cache. The HTTP server and the CLI both build on it.
package app

import (
	"literature-manager/internal/annotation"
	"literature-manager/internal/attachment"
	"literature-manager/internal/auth"
	"literature-manager/internal/author"
	"literature-manager/internal/config"
	"literature-manager/internal/crossref"
	"literature-manager/internal/journal"
	"literature-manager/internal/project"
	"literature-manager/internal/publication"
	"literature-manager/internal/tag"
	"literature-manager/redis"

	"gorm.io/gorm"
)

type App struct {
	Config       config.Config
	Tokens       *auth.TokenIssuer
	Auth         auth.Service
	Publications publication.Service
	Authors      author.Service
	Journals     journal.Service
	Tags         tag.Service
	Projects     project.Service
	Annotations  annotation.Service
}

func New(cfg config.Config, db *gorm.DB, cache *redis.Cache) *App {
	resolver := crossref.NewClient(cfg.CrossrefURL,
		crossref.WithMailto(cfg.CrossrefMailto),
		crossref.WithTimeout(cfg.CrossrefTimeout),
	)
	files := attachment.NewStore(cfg.MediaRoot)

	publications := publication.NewService(publication.NewRepository(db), resolver, files, cache)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	return &App{
		Config:       cfg,
		Tokens:       tokens,
		Auth:         auth.NewService(cfg.AuthPasswordHash, tokens),
		Publications: publications,
		Authors:      author.NewService(author.NewRepository(db), publications, cache),
		Journals:     journal.NewService(journal.NewRepository(db), publications, cache),
		Tags:         tag.NewService(tag.NewRepository(db), publications),
		Projects:     project.NewService(project.NewRepository(db), publications, cache),
		Annotations:  annotation.NewService(annotation.NewRepository(db)),
	}
}
