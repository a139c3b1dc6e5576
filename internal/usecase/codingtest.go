package usecase

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

var knownCaseTypes = map[string]struct{}{
	"basic":    {},
	"boundary": {},
	"special":  {},
	"large":    {},
}

// CodingTestService synthesizes test cases for coding problems, optionally
// packaged as a judge-ready zip archive.
type CodingTestService struct {
	Gen domain.TestCaseGenerator
}

func NewCodingTestService(gen domain.TestCaseGenerator) *CodingTestService {
	return &CodingTestService{Gen: gen}
}

// TestCases validates the request and generates cases.
func (s *CodingTestService) TestCases(ctx domain.Context, req domain.TestCaseRequest) ([]domain.TestCase, error) {
	if strings.TrimSpace(req.ProblemDescription) == "" {
		return nil, fmt.Errorf("op=codingtest.generate: %w: empty problem description", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.SolutionCode) == "" {
		return nil, fmt.Errorf("op=codingtest.generate: %w: empty solution code", domain.ErrInvalidArgument)
	}
	for _, ct := range req.TestCaseTypes {
		if _, ok := knownCaseTypes[ct]; !ok {
			return nil, fmt.Errorf("op=codingtest.generate: %w: unknown case type %q", domain.ErrInvalidArgument, ct)
		}
	}
	if len(req.TestCaseTypes) == 0 {
		req.TestCaseTypes = []string{"basic", "boundary"}
	}
	return s.Gen.TestCases(ctx, req)
}

// TestCaseZip generates cases and packages them as N.in / N.out pairs,
// numbered from 1, the layout judge systems import directly.
func (s *CodingTestService) TestCaseZip(ctx domain.Context, req domain.TestCaseRequest) ([]byte, error) {
	cases, err := s.TestCases(ctx, req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, tc := range cases {
		in, err := zw.Create(fmt.Sprintf("%d.in", i+1))
		if err != nil {
			return nil, fmt.Errorf("op=codingtest.zip: %w", err)
		}
		if _, err := in.Write([]byte(tc.Input)); err != nil {
			return nil, fmt.Errorf("op=codingtest.zip: %w", err)
		}
		out, err := zw.Create(fmt.Sprintf("%d.out", i+1))
		if err != nil {
			return nil, fmt.Errorf("op=codingtest.zip: %w", err)
		}
		if _, err := out.Write([]byte(tc.Output)); err != nil {
			return nil, fmt.Errorf("op=codingtest.zip: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("op=codingtest.zip close: %w", err)
	}
	return buf.Bytes(), nil
}
