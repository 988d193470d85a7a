// Package chat runs the retrieval-augmented conversation loop.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fkoller/threatfeed/internal/llm"
	"github.com/fkoller/threatfeed/internal/metrics"
	"github.com/fkoller/threatfeed/internal/models"
	"github.com/fkoller/threatfeed/internal/retrieval"
)

// ErrCompletion indicates the completion API call failed. The user and
// context turns appended before the failure stay in the session, so the
// next Ask resends the unanswered turn as part of history.
var ErrCompletion = errors.New("completion failed")

// Retriever finds stored tweets similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) (retrieval.Result, error)
}

// Completer sends a full conversation history and returns the reply.
type Completer interface {
	Complete(ctx context.Context, turns []models.Turn) (string, llm.Usage, error)
}

const (
	contextHeader = "Relevant recent tweets:"

	noMatchNote   = "No similar tweets were found for this question."
	degradedNote  = "Retrieval is currently unavailable; answer from the conversation so far."
	docSeparator  = "\n---\n"
)

// Orchestrator appends each user query and its retrieved context to the
// session, then asks the completion API for a reply. One Ask issues at most
// one embedding call, one vector-search call and exactly one completion call.
type Orchestrator struct {
	retriever Retriever
	completer Completer
	topK      int
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates an Orchestrator. collector may be nil.
func New(retriever Retriever, completer Completer, topK int, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		completer: completer,
		topK:      topK,
		collector: collector,
		logger:    logger,
	}
}

// Ask runs one conversation turn. userText is treated as ordinary text;
// loop sentinels like "quit" belong to the CLI, not to this layer.
//
// On retrieval failure the turn degrades to no context instead of
// aborting. On completion failure the session keeps the dangling user and
// context turns and the error wraps ErrCompletion.
func (o *Orchestrator) Ask(ctx context.Context, session *models.Session, userText string) (string, error) {
	session.Append(models.RoleUser, userText)

	result, err := o.retriever.Search(ctx, userText, o.topK)
	if err != nil {
		o.logger.Warn("retrieval failed, continuing without context", "error", err)
		if o.collector != nil {
			o.collector.Add(metrics.CounterDegradedTurns, 1)
		}
		session.Append(models.RoleContext, degradedNote)
	} else {
		session.Append(models.RoleContext, formatContext(result))
	}

	start := time.Now()
	reply, usage, err := o.completer.Complete(ctx, session.Turns())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCompletion, err)
	}
	if o.collector != nil {
		o.collector.RecordCompletion(time.Since(start), usage.InputTokens, usage.OutputTokens)
	}

	session.Append(models.RoleAssistant, reply)
	return reply, nil
}

// formatContext serializes retrieved documents for the prompt. Only the
// texts go in; scores stay out to keep the payload minimal.
func formatContext(result retrieval.Result) string {
	if len(result) == 0 {
		return noMatchNote
	}
	return contextHeader + "\n\n" + strings.Join(result.Texts(), docSeparator)
}
