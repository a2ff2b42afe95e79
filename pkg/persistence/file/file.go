// Package file provides file-based persistence for development and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/persistence"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

const dirPermissions = 0o755
const filePermissions = 0o644

// Persistence stores templates and archived reports as JSON files under a
// root directory:
//
//	<root>/templates/<id>.json
//	<root>/templates/<id>.draft.json
//	<root>/instances/<instance_id>.json
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence layer rooted at the given path.
// A "file://" prefix on the path is tolerated.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

func (fp *Persistence) templatePath(id string, draft bool) string {
	name := id + ".json"
	if draft {
		name = id + ".draft.json"
	}

	return filepath.Join(fp.root, "templates", name)
}

func (fp *Persistence) instancePath(instanceID string) string {
	return filepath.Join(fp.root, "instances", instanceID+".json")
}

func (fp *Persistence) TemplateByID(_ context.Context, id string, draft bool) (*models.WorkflowTemplate, error) {
	payload, err := os.ReadFile(fp.templatePath(id, draft))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewStorageError("TemplateByID", id, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return nil, persistence.NewStorageError("TemplateByID", id, err)
	}

	var template models.WorkflowTemplate

	err = json.Unmarshal(payload, &template)
	if err != nil {
		return nil, persistence.NewStorageError("TemplateByID", id, fmt.Errorf("failed to decode template: %w", err))
	}

	return &template, nil
}

func (fp *Persistence) SaveTemplate(_ context.Context, template *models.WorkflowTemplate) error {
	err := os.MkdirAll(filepath.Join(fp.root, "templates"), dirPermissions)
	if err != nil {
		return persistence.NewStorageError("SaveTemplate", template.ID, err)
	}

	payload, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return persistence.NewStorageError("SaveTemplate", template.ID, err)
	}

	err = os.WriteFile(fp.templatePath(template.ID, template.Draft), payload, filePermissions)
	if err != nil {
		return persistence.NewStorageError("SaveTemplate", template.ID, err)
	}

	return nil
}

func (fp *Persistence) Templates(_ context.Context) ([]*models.WorkflowTemplate, error) {
	root := os.DirFS(filepath.Join(fp.root, "templates"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewStorageError("Templates", "", err)
	}

	templates := make([]*models.WorkflowTemplate, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		if strings.HasSuffix(file, ".draft.json") {
			continue
		}

		payload, err := fs.ReadFile(root, file)
		if err != nil {
			return nil, persistence.NewStorageError("Templates", file, err)
		}

		var template models.WorkflowTemplate

		err = json.Unmarshal(payload, &template)
		if err != nil {
			return nil, persistence.NewStorageError("Templates", file, fmt.Errorf("failed to decode template: %w", err))
		}

		templates = append(templates, &template)
	}

	return templates, nil
}

func (fp *Persistence) InsertFinishedInstance(_ context.Context, rep *report.Report) error {
	instanceID := rep.InstanceID()

	err := os.MkdirAll(filepath.Join(fp.root, "instances"), dirPermissions)
	if err != nil {
		return persistence.NewStorageError("InsertFinishedInstance", instanceID, err)
	}

	path := fp.instancePath(instanceID)

	// Insert-only: a second terminal event for the same instance is a no-op.
	_, err = os.Stat(path)
	if err == nil {
		return nil
	}

	payload, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return persistence.NewStorageError("InsertFinishedInstance", instanceID, err)
	}

	err = os.WriteFile(path, payload, filePermissions)
	if err != nil {
		return persistence.NewStorageError("InsertFinishedInstance", instanceID, err)
	}

	return nil
}

func (fp *Persistence) FinishedInstanceByID(_ context.Context, instanceID string) (*report.Report, error) {
	payload, err := os.ReadFile(fp.instancePath(instanceID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewStorageError("FinishedInstanceByID", instanceID, persistence.ErrFinishedInstanceNotFound)
	}

	if err != nil {
		return nil, persistence.NewStorageError("FinishedInstanceByID", instanceID, err)
	}

	var rep report.Report

	err = json.Unmarshal(payload, &rep)
	if err != nil {
		return nil, persistence.NewStorageError("FinishedInstanceByID", instanceID, fmt.Errorf("failed to decode report: %w", err))
	}

	return &rep, nil
}

func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
