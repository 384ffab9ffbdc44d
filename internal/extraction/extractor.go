package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/models"
)

// maxNameLen matches the width of the field and concept name columns.
const maxNameLen = 255

// Extractor turns article text into fields of study, a concept graph and a
// diagram. Every reply is validated; anything that does not match the expected
// JSON shape fails with models.ErrExtractionFailed.
type Extractor struct {
	chat ChatClient
	log  *logrus.Logger
}

// NewExtractor creates an Extractor on top of chat.
func NewExtractor(chat ChatClient, log *logrus.Logger) *Extractor {
	return &Extractor{chat: chat, log: log}
}

type fieldsReply struct {
	FieldsOfStudy []string `json:"fieldsOfStudy"`
}

type conceptsReply struct {
	ConceptRelationship models.ConceptGraph `json:"conceptRelationship"`
}

type diagramReply struct {
	MermaidCode *string `json:"mermaidCode"`
}

// ExtractFields returns up to five distinct, trimmed field-of-study names.
func (e *Extractor) ExtractFields(ctx context.Context, content string) ([]string, error) {
	reply, err := ask[fieldsReply](ctx, e, fieldsPrompt, content)
	if err != nil {
		return nil, err
	}

	if reply.FieldsOfStudy == nil {
		return nil, missingKey(fieldsPrompt, "fieldsOfStudy")
	}

	seen := make(map[string]struct{}, len(reply.FieldsOfStudy))
	fields := make([]string, 0, len(reply.FieldsOfStudy))

	for _, raw := range reply.FieldsOfStudy {
		name, err := cleanName(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field of study: %w", models.ErrExtractionFailed, err)
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		fields = append(fields, name)
	}

	return capItems(e, fieldsPrompt, fields), nil
}

// ExtractConcepts returns up to five distinct concept relationships. An
// article yielding no concepts at all is treated as a failed extraction.
func (e *Extractor) ExtractConcepts(ctx context.Context, content string) (models.ConceptGraph, error) {
	reply, err := ask[conceptsReply](ctx, e, conceptsPrompt, content)
	if err != nil {
		return nil, err
	}

	if reply.ConceptRelationship == nil {
		return nil, missingKey(conceptsPrompt, "conceptRelationship")
	}

	graph := make(models.ConceptGraph, 0, len(reply.ConceptRelationship))

	for i, edge := range reply.ConceptRelationship {
		a, err := cleanName(edge.ConceptA)
		if err != nil {
			return nil, fmt.Errorf("%w: relationship %d conceptA: %w", models.ErrExtractionFailed, i, err)
		}

		b, err := cleanName(edge.ConceptB)
		if err != nil {
			return nil, fmt.Errorf("%w: relationship %d conceptB: %w", models.ErrExtractionFailed, i, err)
		}

		graph = append(graph, models.ConceptEdge{
			ConceptA:    a,
			ConceptB:    b,
			Description: strings.TrimSpace(edge.Description),
		})
	}

	graph = graph.Dedup()
	if len(graph) == 0 {
		return nil, fmt.Errorf("%w: no concept relationships in reply", models.ErrExtractionFailed)
	}

	return capItems(e, conceptsPrompt, graph), nil
}

// RenderDiagram asks for a Mermaid flowchart of graph and returns its source.
func (e *Extractor) RenderDiagram(ctx context.Context, graph models.ConceptGraph) (string, error) {
	if len(graph) == 0 {
		return "", fmt.Errorf("%w: no concepts to render", models.ErrExtractionFailed)
	}

	payload, err := json.Marshal(conceptsReply{ConceptRelationship: graph})
	if err != nil {
		return "", fmt.Errorf("marshaling concept graph: %w", err)
	}

	reply, err := ask[diagramReply](ctx, e, diagramPrompt, string(payload))
	if err != nil {
		return "", err
	}

	if reply.MermaidCode == nil {
		return "", missingKey(diagramPrompt, "mermaidCode")
	}

	code := strings.TrimSpace(*reply.MermaidCode)
	if code == "" {
		return "", fmt.Errorf("%w: empty mermaidCode", models.ErrExtractionFailed)
	}

	return code, nil
}

// ask runs one prompt exchange and decodes the reply into T.
func ask[T any](ctx context.Context, e *Extractor, p prompt, user string) (T, error) {
	var zero T

	raw, err := e.chat.Chat(ctx, p.messages(user))
	if err != nil {
		return zero, fmt.Errorf("extracting %s: %w", p.task, err)
	}

	reply, err := decodeReply[T](raw)
	if err != nil {
		e.log.WithError(err).WithField("task", p.task).Warn("unparseable extraction reply")

		return zero, fmt.Errorf("extracting %s: %w", p.task, err)
	}

	return reply, nil
}

// codeBlockRe strips markdown code fences from model output.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// decodeReply finds the JSON object in a model reply, tolerating code fences
// and surrounding prose, and unmarshals it into T.
func decodeReply[T any](raw string) (T, error) {
	var out T

	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start < 0 || end <= start {
		return out, fmt.Errorf("%w: no JSON object in reply", models.ErrExtractionFailed)
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("%w: decoding reply: %w", models.ErrExtractionFailed, err)
	}

	return out, nil
}

func missingKey(p prompt, key string) error {
	return fmt.Errorf("%w: %s reply has no %q key", models.ErrExtractionFailed, p.task, key)
}

func cleanName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("empty name")
	}

	if len(name) > maxNameLen {
		return "", models.ErrFieldTooLong("name", maxNameLen)
	}

	return name, nil
}

// capItems truncates items to maxItems, logging when the service ignored the cap.
func capItems[S ~[]E, E any](e *Extractor, p prompt, items S) S {
	if len(items) <= maxItems {
		return items
	}

	e.log.WithFields(logrus.Fields{
		"task":     p.task,
		"returned": len(items),
		"kept":     maxItems,
	}).Warn("extraction reply exceeded item cap, truncating")

	return items[:maxItems]
}
