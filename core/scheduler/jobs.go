package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/model"
)

// JobSpec is one entry of a job file. Catalogue holds a partial catalogue
// document that is applied on top of the configured catalogue.
type JobSpec struct {
	Name      string          `json:"name"`
	Mode      string          `json:"mode"`
	Objective string          `json:"objective"`
	Catalogue json.RawMessage `json:"catalogue,omitempty"`
}

// JobFile lists the jobs of a batch.
type JobFile struct {
	Jobs []JobSpec `json:"jobs"`
}

// LoadJobs loads a JobFile from a JSON or YAML file.
func LoadJobs(path string) (JobFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return JobFile{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeJobs(f, ext)
}

// DecodeJobs reads a JobFile from r. YAML documents use the same keys as
// JSON ones.
func DecodeJobs(r io.Reader, format string) (JobFile, error) {
	var jf JobFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		var doc any
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return jf, err
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return jf, err
		}
		if err := json.Unmarshal(b, &jf); err != nil {
			return jf, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&jf); err != nil {
			return jf, err
		}
	default:
		return jf, fmt.Errorf("unsupported format: %s", format)
	}
	return jf, nil
}

// Resolve turns the specs into jobs against base and the shared input data.
// Catalogue overrides only replace the fields they name.
func (jf JobFile) Resolve(base catalogue.Catalogue, grid model.TimeGrid, series model.ResourceSeries) ([]Job, error) {
	jobs := make([]Job, 0, len(jf.Jobs))
	for i, spec := range jf.Jobs {
		mode, err := model.ParseMode(spec.Mode)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		obj, err := model.ParseObjective(spec.Objective)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		name := spec.Name
		if name == "" {
			name = mode.String() + "/" + obj.String()
		}
		job := Job{Name: name, Mode: mode, Objective: obj, Grid: grid, Series: series}
		if len(spec.Catalogue) > 0 {
			cat := base
			if err := json.Unmarshal(spec.Catalogue, &cat); err != nil {
				return nil, fmt.Errorf("job %d catalogue: %w", i, err)
			}
			job.Catalogue = &cat
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
