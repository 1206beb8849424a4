package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mstolt/recall/internal/model"
)

const entitySystem = "You extract entities as JSON arrays. Return ONLY valid JSON, no explanations."

// TrackEntities asks the completion service for the named entities in text
// and upserts them into the entity table. The model tends to wrap its JSON
// in prose, so the reply is trimmed to the outermost brackets before
// parsing. Service failures and unparseable replies alike yield an empty
// result, never an error.
func (s *Store) TrackEntities(ctx context.Context, text string) []model.Entity {
	prompt := `Extract named entities from this text. Return ONLY valid JSON array like: [{"name":"John","type":"person"}] Text: ` + text
	reply, err := s.llm.Complete(ctx, []model.Message{
		{Role: "system", Content: entitySystem},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.log.Warn("entity extraction skipped, completion unavailable", "error", err)
		return nil
	}

	cleaned := strings.TrimSpace(reply)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end <= start {
		s.log.Warn("entity extraction returned no JSON array")
		return nil
	}
	cleaned = cleaned[start : end+1]

	var raw []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		s.log.Warn("entity extraction returned malformed JSON", "error", err)
		return nil
	}

	now := time.Now()
	var entities []model.Entity
	for _, r := range raw {
		if r.Name == "" {
			continue
		}
		ent := model.Entity{
			ID:            uuid.NewString(),
			Name:          r.Name,
			Type:          r.Type,
			LastMentioned: now,
		}
		if existing, err := s.db.EntityByName(ctx, r.Name); err == nil && existing != nil {
			ent.ID = existing.ID
			ent.Relationship = existing.Relationship
			ent.Description = existing.Description
		}
		if err := s.db.UpsertEntity(ctx, ent); err != nil {
			s.log.Error("upsert entity failed", "name", ent.Name, "error", err)
			continue
		}
		entities = append(entities, ent)
	}
	return entities
}

// RecordTurn appends one exchange to the durable conversation log.
// Failures are logged; the log is an audit trail, not state.
func (s *Store) RecordTurn(ctx context.Context, role, content string) {
	if err := s.db.AppendLog(ctx, role, content); err != nil {
		s.log.Error("append conversation log failed", "error", err)
	}
}

// DB exposes the persistence handle for the auxiliary tables (profile,
// entities, conversation log, emotion state).
func (s *Store) DB() *DB {
	return s.db
}
