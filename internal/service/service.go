package service

import "github.com/strrl/copycat/internal/api"

// Set bundles every service built on one client
type Set struct {
	Auth     *Auth
	User     *User
	Projects *Projects
	Analysis *Analysis
	Crawler  *Crawler
	Batch    *Batch
	Settings *Settings
}

// NewSet builds all services on c
func NewSet(c *api.Client) *Set {
	return &Set{
		Auth:     NewAuth(c),
		User:     NewUser(c),
		Projects: NewProjects(c),
		Analysis: NewAnalysis(c),
		Crawler:  NewCrawler(c),
		Batch:    NewBatch(c),
		Settings: NewSettings(c),
	}
}
