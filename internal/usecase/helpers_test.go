package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// fakeGrader scores deterministically and can fail the first failFirst
// calls per task.
type fakeGrader struct {
	mu        sync.Mutex
	calls     map[string]int
	failFirst int
	delay     time.Duration

	inFlight    int
	maxInFlight int
}

func newFakeGrader() *fakeGrader {
	return &fakeGrader{calls: map[string]int{}}
}

func (g *fakeGrader) Grade(ctx domain.Context, problem, ref, cand string) (domain.Evaluation, error) {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	key := problem + "|" + cand
	g.calls[key]++
	n := g.calls[key]
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	defer func() {
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return domain.Evaluation{}, err
	}
	if n <= g.failFirst {
		return domain.Evaluation{}, fmt.Errorf("transient: %w", domain.ErrUpstreamTimeout)
	}
	return domain.Evaluation{Score: 80, Feedback: "graded " + cand}, nil
}

func (g *fakeGrader) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// fakeAnswers records persisted updates; batchErr fails PersistScores and
// itemErr fails PersistScore for matching participant ids.
type fakeAnswers struct {
	mu       sync.Mutex
	batch    [][]domain.ScoreUpdate
	items    []domain.ScoreUpdate
	batchErr error
	itemErr  map[int64]error
}

func newFakeAnswers() *fakeAnswers {
	return &fakeAnswers{itemErr: map[int64]error{}}
}

func (a *fakeAnswers) PersistScore(_ domain.Context, u domain.ScoreUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.itemErr[u.ParticipantID]; ok {
		return err
	}
	a.items = append(a.items, u)
	return nil
}

func (a *fakeAnswers) PersistScores(_ domain.Context, updates []domain.ScoreUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.batchErr != nil {
		return a.batchErr
	}
	a.batch = append(a.batch, updates)
	return nil
}

func (a *fakeAnswers) persisted() []domain.ScoreUpdate {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.ScoreUpdate
	for _, b := range a.batch {
		out = append(out, b...)
	}
	out = append(out, a.items...)
	return out
}

// fakeContests serves a fixed problem set and records status transitions.
type fakeContests struct {
	mu       sync.Mutex
	contest  domain.Contest
	problems []domain.ProblemWithAnswers
	statuses []domain.ContestStatus
	fetchErr error
}

func (c *fakeContests) Get(_ domain.Context, id int64) (domain.Contest, error) {
	if id != c.contest.ID {
		return domain.Contest{}, domain.ErrNotFound
	}
	return c.contest, nil
}

func (c *fakeContests) GetInSpace(_ domain.Context, spaceID, id int64) (domain.Contest, error) {
	if id != c.contest.ID || spaceID != c.contest.SpaceID {
		return domain.Contest{}, domain.ErrNotFound
	}
	return c.contest, nil
}

func (c *fakeContests) SetStatus(_ domain.Context, _ int64, status domain.ContestStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, status)
	return nil
}

func (c *fakeContests) ProblemsData(_ domain.Context, _ int64) ([]domain.ProblemWithAnswers, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.problems, nil
}

func (c *fakeContests) lastStatus() (domain.ContestStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.statuses) == 0 {
		return 0, false
	}
	return c.statuses[len(c.statuses)-1], true
}

// fakeRunStore keeps run states in a map.
type fakeRunStore struct {
	mu     sync.Mutex
	states map[string]domain.RunState
	ttls   map[string]time.Duration
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{states: map[string]domain.RunState{}, ttls: map[string]time.Duration{}}
}

func (s *fakeRunStore) Save(_ domain.Context, state domain.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.RunID] = state
	return nil
}

func (s *fakeRunStore) Get(_ domain.Context, runID string) (domain.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[runID]
	if !ok {
		return domain.RunState{}, domain.ErrNotFound
	}
	return state, nil
}

func (s *fakeRunStore) Finish(_ domain.Context, state domain.RunState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.RunID] = state
	s.ttls[state.RunID] = ttl
	return nil
}

// fakeQueue records enqueued payloads.
type fakeQueue struct {
	mu       sync.Mutex
	payloads []domain.EvaluateJobPayload
	err      error
}

func (q *fakeQueue) EnqueueEvaluate(_ domain.Context, payload domain.EvaluateJobPayload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, payload)
	return payload.RunID, nil
}

// twoProblemsThreeAnswers is the canonical small contest used across tests.
func twoProblemsThreeAnswers() []domain.ProblemWithAnswers {
	return []domain.ProblemWithAnswers{
		{
			Problem: domain.Problem{ID: 1, ContestID: 7, Question: "q1", ReferenceAnswer: "ref1"},
			Answers: []domain.ParticipantAnswer{
				{AnswerID: 10, ParticipantID: 100, Nickname: "alice", Text: "a1"},
				{AnswerID: 11, ParticipantID: 101, Nickname: "bob", Text: "b1"},
				{AnswerID: 12, ParticipantID: 102, Nickname: "carol", Text: "c1"},
			},
		},
		{
			Problem: domain.Problem{ID: 2, ContestID: 7, Question: "q2", ReferenceAnswer: "ref2"},
			Answers: []domain.ParticipantAnswer{
				{AnswerID: 20, ParticipantID: 100, Nickname: "alice", Text: "a2"},
				{AnswerID: 21, ParticipantID: 101, Nickname: "bob", Text: "b2"},
				{AnswerID: 22, ParticipantID: 102, Nickname: "carol", Text: "c2"},
			},
		},
	}
}

func fastRetry(maxRetries int) domain.RetryConfig {
	return domain.RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}
