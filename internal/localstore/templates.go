package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// TemplatesKey holds every saved template as one JSON array.
const TemplatesKey = "seatingTemplates"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateName     = errors.New("template name is required")
)

// ListTemplates returns the stored templates in insertion order.  A
// corrupt array reads as empty.
func (s *Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	bs, ok, err := s.Get(ctx, TemplatesKey)
	if err != nil {
		return nil, err
	}
	var out []model.Template
	if !ok || json.Unmarshal(bs, &out) != nil {
		return []model.Template{}, nil
	}
	return out, nil
}

// GetTemplate returns a single template by id.
func (s *Store) GetTemplate(ctx context.Context, id string) (model.Template, error) {
	all, err := s.ListTemplates(ctx)
	if err != nil {
		return model.Template{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Template{}, fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
}

// CreateTemplate assigns an id and timestamps and appends the template.
func (s *Store) CreateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return model.Template{}, ErrTemplateName
	}
	s.tmu.Lock()
	defer s.tmu.Unlock()
	all, err := s.ListTemplates(ctx)
	if err != nil {
		return model.Template{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Tables == nil {
		t.Tables = []model.TemplateTable{}
	}
	all = append(all, t)
	return t, s.saveTemplates(ctx, all)
}

// UpdateTemplate replaces name, description and tables of an existing
// template.  An empty name keeps the old one; nil tables keep the old
// layout.
func (s *Store) UpdateTemplate(ctx context.Context, id string, patch model.Template) (model.Template, error) {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	all, err := s.ListTemplates(ctx)
	if err != nil {
		return model.Template{}, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if name := strings.TrimSpace(patch.Name); name != "" {
			all[i].Name = name
		}
		all[i].Description = patch.Description
		if patch.Tables != nil {
			all[i].Tables = patch.Tables
		}
		all[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		return all[i], s.saveTemplates(ctx, all)
	}
	return model.Template{}, fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	all, err := s.ListTemplates(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return s.saveTemplates(ctx, all)
		}
	}
	return fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
}

// CloneTemplate copies a template under a new name.
func (s *Store) CloneTemplate(ctx context.Context, id, newName string) (model.Template, error) {
	src, err := s.GetTemplate(ctx, id)
	if err != nil {
		return model.Template{}, err
	}
	cp := src
	cp.Name = newName
	cp.Tables = append([]model.TemplateTable(nil), src.Tables...)
	return s.CreateTemplate(ctx, cp)
}

func (s *Store) saveTemplates(ctx context.Context, all []model.Template) error {
	bs, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return s.Put(ctx, TemplatesKey, bs)
}
