// Package export writes solved schedules and comparisons to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/vpp/core/analysis"
)

// CSVHeader is the column layout of WriteCSV.
var CSVHeader = []string{"timestamp", "resource", "value"}

// WriteJSON writes the full report to w in JSON format.
func WriteJSON(w io.Writer, r *analysis.Report) error {
	if r == nil {
		return errors.New("export: nil report")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV writes the schedule of r to w, one row per period and resource.
func WriteCSV(w io.Writer, r *analysis.Report) error {
	if r == nil {
		return errors.New("export: nil report")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	cols := r.Schedule.Columns()
	for i, ts := range r.Schedule.Times() {
		stamp := ts.Format(time.RFC3339)
		for _, c := range cols {
			if i >= len(c.Values) {
				continue
			}
			rec := []string{stamp, c.Name, strconv.FormatFloat(c.Values[i], 'f', -1, 64)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type yamlRun struct {
	Rank                 int    `yaml:"rank,omitempty"`
	Mode                 string `yaml:"mode"`
	Objective            string `yaml:"objective"`
	ObjectiveValue       string `yaml:"objective_value"`
	TotalCost            string `yaml:"total_cost_yuan"`
	TotalRevenue         string `yaml:"total_revenue_yuan"`
	AncillaryRevenue     string `yaml:"ancillary_services_revenue_yuan"`
	NetCost              string `yaml:"net_cost_yuan"`
	AverageCostPerMWh    string `yaml:"average_cost_yuan_per_mwh"`
	RenewablePenetration string `yaml:"renewable_penetration_ratio"`
	SelfSufficiency      string `yaml:"self_sufficiency_ratio"`
}

type yamlFailure struct {
	Mode      string `yaml:"mode"`
	Objective string `yaml:"objective"`
	Class     string `yaml:"error_class"`
	Message   string `yaml:"error"`
}

type yamlDoc struct {
	Generated time.Time     `yaml:"generated"`
	Runs      []yamlRun     `yaml:"runs"`
	Failed    []yamlFailure `yaml:"failed,omitempty"`
}

// now is replaced in tests.
var now = time.Now

// WriteYAML writes a summary of c to w. Amounts keep their rounding.
func WriteYAML(w io.Writer, c analysis.Comparison) error {
	doc := yamlDoc{Generated: now().UTC().Truncate(time.Second), Runs: []yamlRun{}}
	for _, s := range c.Ranked {
		doc.Runs = append(doc.Runs, yamlRun{
			Rank:                 s.Rank,
			Mode:                 s.Mode,
			Objective:            s.Objective,
			ObjectiveValue:       s.ObjectiveValue.StringFixed(2),
			TotalCost:            s.TotalCost.StringFixed(2),
			TotalRevenue:         s.TotalRevenue.StringFixed(2),
			AncillaryRevenue:     s.AncillaryRevenue.StringFixed(2),
			NetCost:              s.NetCost.StringFixed(2),
			AverageCostPerMWh:    s.AverageCostPerMWh.StringFixed(2),
			RenewablePenetration: s.RenewablePenetration.String(),
			SelfSufficiency:      s.SelfSufficiency.String(),
		})
	}
	for _, f := range c.Failed {
		doc.Failed = append(doc.Failed, yamlFailure(f))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Run is one named report to export.
type Run struct {
	Name   string
	Report *analysis.Report
}

// WriteDir writes <name>.json and <name>.csv for every run with a report,
// plus summary.yaml for c, into dir. It returns the written paths.
func WriteDir(dir string, runs []Run, c analysis.Comparison) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}
	for _, r := range runs {
		if r.Report == nil {
			continue
		}
		if err := write(r.Name+".json", func(w io.Writer) error { return WriteJSON(w, r.Report) }); err != nil {
			return paths, err
		}
		if err := write(r.Name+".csv", func(w io.Writer) error { return WriteCSV(w, r.Report) }); err != nil {
			return paths, err
		}
	}
	if err := write("summary.yaml", func(w io.Writer) error { return WriteYAML(w, c) }); err != nil {
		return paths, err
	}
	return paths, nil
}
