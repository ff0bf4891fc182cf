package usecase

import (
	"context"
	"sync"

	"article-search/domain"
	"article-search/port"
)

// CheckHealthUsecase probes both backing dependencies. Probes run without
// retries: health reports the state right now, not the state after a
// recovery window.
type CheckHealthUsecase struct {
	articleRepo  port.ArticleRepository
	searchEngine port.SearchEngine
}

func NewCheckHealthUsecase(articleRepo port.ArticleRepository, searchEngine port.SearchEngine) *CheckHealthUsecase {
	return &CheckHealthUsecase{
		articleRepo:  articleRepo,
		searchEngine: searchEngine,
	}
}

func (u *CheckHealthUsecase) Execute(ctx context.Context) domain.HealthReport {
	var report domain.HealthReport

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Repository = probeOutcome(u.articleRepo.Ping(ctx))
	}()
	go func() {
		defer wg.Done()
		report.Index = probeOutcome(u.searchEngine.Ping(ctx))
	}()
	wg.Wait()

	return report
}

func probeOutcome(err error) domain.DependencyHealth {
	if err != nil {
		return domain.DependencyHealth{Healthy: false, Reason: err.Error()}
	}
	return domain.DependencyHealth{Healthy: true}
}
