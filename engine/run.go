package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/councilmesh/core"
	"github.com/hupe1980/councilmesh/logging"
	"github.com/hupe1980/councilmesh/retry"
)

// run holds the private state of one deliberation: the transcript, the round
// counter and the call budget. Nothing here is shared across runs.
type run struct {
	engine  *Engine
	runID   string
	inquiry string
	limiter *core.CallLimiter
	logger  logging.Logger

	// council is non-nil when the configured logger is a CouncilLogger,
	// already scoped to this run. It carries the domain helpers.
	council *logging.CouncilLogger
}

// execute drives the state machine from independent analysis to a final
// response.
func (r *run) execute(ctx context.Context) (*Result, error) {
	if r.council != nil {
		defer r.council.StartTimer("deliberation")()
	}

	r.logPhase("independent_analysis", 0)
	r.emit(core.EventAnalysisStarted, core.PhaseData{Phase: "independent_analysis"})

	envelope, err := r.analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("independent analysis failed: %w", err)
	}

	transcript := core.NewTranscript(envelope)
	r.logPhase("envelope_assembly", 0)
	r.emit(core.EventEnvelopeAssembled, core.PhaseData{Phase: "envelope_assembly"})

	for round := 1; round <= r.engine.maxRounds; round++ {
		outcome, err := r.adjudicate(ctx, transcript)
		if err != nil {
			return nil, fmt.Errorf("consensus check in round %d failed: %w", round, err)
		}

		if outcome.Agreed() {
			r.logPhase("consensus", round)

			res := &Result{
				RunID:      r.runID,
				Response:   outcome.Recommendation(),
				Consensus:  true,
				Rounds:     transcript.Rounds(),
				AgentCalls: r.limiter.Count(),
			}

			r.emit(core.EventConsensusReached, core.CompletionData{
				Response:  res.Response,
				Consensus: true,
				Rounds:    res.Rounds,
			})
			r.complete(res)

			return res, nil
		}

		if err := r.debate(ctx, transcript, round); err != nil {
			return nil, fmt.Errorf("debate round %d failed: %w", round, err)
		}
	}

	r.logPhase("impasse", 0)

	summary, err := r.summarize(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("impasse summary failed: %w", err)
	}

	r.emit(core.EventImpasseDeclared, core.PhaseData{Phase: "impasse"})

	res := &Result{
		RunID:      r.runID,
		Response:   summary,
		Consensus:  false,
		Rounds:     transcript.Rounds(),
		AgentCalls: r.limiter.Count(),
	}
	r.complete(res)

	return res, nil
}

// analyze fans out one thesis call per participant and waits for all of them
// to settle. Failure of any one (after retries) fails the whole phase; no
// partial envelope is ever assembled.
func (r *run) analyze(ctx context.Context) (*core.Envelope, error) {
	participants := core.DefaultParticipants()

	var (
		mu     sync.Mutex
		theses = make(map[core.Participant]string, len(participants))
		wg     sync.WaitGroup
	)

	errCh := make(chan error, len(participants))

	for _, p := range participants {
		wg.Add(1)
		go func(p core.Participant) {
			defer wg.Done()

			text, err := r.callAgent(ctx, p, thesisPrompt(r.inquiry))
			if err != nil {
				errCh <- fmt.Errorf("thesis call for %s: %w", p, err)
				return
			}

			mu.Lock()
			theses[p] = text
			mu.Unlock()

			r.emit(core.EventThesisRecorded, core.ThesisData{Participant: p})
		}(p)
	}

	wg.Wait()
	close(errCh)

	if len(errCh) > 0 {
		return nil, <-errCh
	}

	return core.NewEnvelope(theses)
}

// debate runs one round of strictly sequential turns in a freshly drawn
// random speaking order. Each turn's prompt carries the full transcript plus
// all earlier arguments of the same round. The round is appended to the
// transcript only once every turn completed.
func (r *run) debate(ctx context.Context, transcript *core.Transcript, number int) error {
	round := core.Round{Number: number, Order: r.engine.perm()}

	r.logPhase("debate", number)
	r.emit(core.EventRoundStarted, core.RoundData{Round: number, Order: round.Order})

	for _, p := range round.Order {
		text, err := r.callAgent(ctx, p, debatePrompt(r.inquiry, transcript, round))
		if err != nil {
			return fmt.Errorf("turn for %s: %w", p, err)
		}

		round.Arguments = append(round.Arguments, core.Argument{Participant: p, Round: number, Text: text})

		r.emit(core.EventTurnCompleted, core.TurnData{Participant: p, Round: number, Text: text})
		r.publishTurn(p, number, text)
	}

	return transcript.AppendRound(round)
}

// adjudicate asks the synthesizer whether the deliberation has converged.
// The raw response is mapped to a ConsensusOutcome at this boundary: the
// reserved sentinel (trimmed, case-insensitive) means no agreement, anything
// else is the recommendation. An empty response is malformed.
func (r *run) adjudicate(ctx context.Context, transcript *core.Transcript) (core.ConsensusOutcome, error) {
	text, err := r.callAgent(ctx, core.Synthesizer, consensusPrompt(r.inquiry, transcript, r.engine.sentinel))
	if err != nil {
		return core.NoConsensus(), err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return core.NoConsensus(), errors.New("empty adjudication response")
	}

	// A genuine recommendation that coincidentally equals the sentinel is
	// indistinguishable from impasse; the protocol carries no escaping
	// scheme for that collision.
	if strings.EqualFold(trimmed, r.engine.sentinel) {
		return core.NoConsensus(), nil
	}

	return core.NewRecommendation(trimmed), nil
}

// summarize asks the synthesizer for an impartial summary of all final
// positions. Its text is returned verbatim as the final response.
func (r *run) summarize(ctx context.Context, transcript *core.Transcript) (string, error) {
	text, err := r.callAgent(ctx, core.Synthesizer, impassePrompt(r.inquiry, transcript))
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty summary response")
	}

	return text, nil
}

// callAgent issues one retry-wrapped call to a participant's client. The
// limiter counts logical calls, not attempts.
func (r *run) callAgent(ctx context.Context, p core.Participant, userPrompt string) (string, error) {
	if err := r.limiter.Increment(); err != nil {
		return "", err
	}

	systemPrompt, err := r.engine.personas.SystemPrompt(p)
	if err != nil {
		return "", err
	}

	cl := r.engine.clients[p]
	start := time.Now()
	attempts := 0

	text, err := retry.DoValue(ctx, func(ctx context.Context) (string, error) {
		attempts++
		return cl.Send(ctx, p, systemPrompt, userPrompt, r.engine.callOpts)
	}, func(o *retry.Options) { *o = r.engine.retryOpts })

	if r.council != nil {
		r.council.LogAgentCall(p.String(), attempts, time.Since(start), err == nil, err)
	} else if err != nil {
		r.logger.Error("agent call exhausted retries", "run_id", r.runID, "participant", p.String(), "duration", time.Since(start), "error", err)
	} else {
		r.logger.Debug("agent call completed", "run_id", r.runID, "participant", p.String(), "duration", time.Since(start))
	}

	return text, err
}

// logPhase records a phase transition on the council logger, if one is wired.
func (r *run) logPhase(phase string, round int) {
	if r.council != nil {
		r.council.LogPhase(phase, round)
	}
}

// emit fans a progress event out to observers. Side effect only; the run
// never blocks on observers.
func (r *run) emit(eventType string, payload any) {
	if r.engine.broadcaster == nil {
		return
	}

	r.engine.broadcaster.Emit(core.NewEvent(r.runID, eventType, payload))
}

// publishTurn mirrors a completed turn onto the bus for message-oriented
// collaborators.
func (r *run) publishTurn(p core.Participant, round int, text string) {
	if r.engine.bus == nil {
		return
	}

	frame, err := core.NewFrame(core.EventTurnCompleted, core.TurnData{Participant: p, Round: round, Text: text})
	if err != nil {
		return
	}

	if _, err := r.engine.bus.Publish(p, core.All, core.KindNotification, frame); err != nil {
		r.logger.Warn("publishing turn failed", "run_id", r.runID, "participant", p.String(), "error", err)
	}
}

// complete emits the completion event and notifies the user identity on the
// bus with the final response.
func (r *run) complete(res *Result) {
	data := core.CompletionData{Response: res.Response, Consensus: res.Consensus, Rounds: res.Rounds}

	r.emit(core.EventCompleted, data)

	if r.engine.bus == nil {
		return
	}

	frame, err := core.NewFrame(core.EventCompleted, data)
	if err != nil {
		return
	}

	if _, err := r.engine.bus.Publish(core.Synthesizer, core.User, core.KindNotification, frame); err != nil {
		r.logger.Warn("publishing completion failed", "run_id", r.runID, "error", err)
	}
}
