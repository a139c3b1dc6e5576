package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// ResumeService produces resume summaries and multi-repository portfolios.
type ResumeService struct {
	Gen domain.ResumeGenerator
}

func NewResumeService(gen domain.ResumeGenerator) *ResumeService {
	return &ResumeService{Gen: gen}
}

// Summary generates a position-tailored resume summary.
func (s *ResumeService) Summary(ctx domain.Context, req domain.ResumeSummaryRequest) (domain.ResumeSummary, error) {
	if strings.TrimSpace(req.Position) == "" {
		return domain.ResumeSummary{}, fmt.Errorf("op=resume.summary: %w: empty position", domain.ErrInvalidArgument)
	}
	if len(req.Projects) == 0 && len(req.Careers) == 0 {
		return domain.ResumeSummary{}, fmt.Errorf("op=resume.summary: %w: no projects or careers", domain.ErrInvalidArgument)
	}
	return s.Gen.Summary(ctx, req)
}

// Portfolio analyzes each repository and composes the results into one
// portfolio. Individual repository failures are tracked and skipped; the
// composition needs at least one successful analysis.
func (s *ResumeService) Portfolio(ctx domain.Context, repositories []string) (domain.PortfolioData, error) {
	if len(repositories) == 0 {
		return domain.PortfolioData{}, fmt.Errorf("op=resume.portfolio: %w: no repositories", domain.ErrInvalidArgument)
	}

	tracker := NewProgressTracker(len(repositories), 25, "portfolio analysis progress", nil)
	analyses := make([]domain.RepoAnalysis, 0, len(repositories))
	var lastErr error
	for _, repo := range repositories {
		if ctx.Err() != nil {
			return domain.PortfolioData{}, fmt.Errorf("op=resume.portfolio: %w", ctx.Err())
		}
		analysis, err := s.Gen.AnalyzeRepository(ctx, repo)
		if err != nil {
			slog.Warn("repository analysis failed, skipping",
				slog.String("repository", repo), slog.Any("error", err))
			tracker.Update(ProgressFailed, map[string]any{"last_failed": repo})
			lastErr = err
			continue
		}
		analyses = append(analyses, analysis)
		tracker.Update(ProgressSuccess, nil)
	}

	if len(analyses) == 0 {
		return domain.PortfolioData{}, fmt.Errorf("op=resume.portfolio: every repository analysis failed: %w", lastErr)
	}
	snap := tracker.Snapshot()
	slog.Info("portfolio analyses done",
		slog.Int("succeeded", snap.Success),
		slog.Int("failed", snap.Failed))
	return s.Gen.ComposePortfolio(ctx, analyses)
}
