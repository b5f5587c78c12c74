package datagen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/vpp/core/model"
)

// Header is the column layout of a dataset file.
var Header = []string{
	"timestamp",
	"load_demand_mw",
	"pv_generation_mw",
	"wind_generation_mw",
	"electricity_price_yuan_mwh",
}

// WriteCSV writes d to w, one row per period.
func WriteCSV(w io.Writer, d Dataset) error {
	if err := d.Series.Validate(d.Grid); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	s := d.Series
	for i, ts := range d.Grid.Times() {
		rec := []string{
			ts.Format(time.RFC3339),
			formatFloat(s.Load[i]),
			formatFloat(s.PV[i]),
			formatFloat(s.Wind[i]),
			formatFloat(s.Price[i]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes d to path.
func SaveCSV(path string, d Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a dataset written by WriteCSV. Columns are matched by
// name; the step is taken from the first two timestamps and a single-row
// file is read as one hour.
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	head, err := cr.Read()
	if err != nil {
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(head))
	for i, h := range head {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, h := range Header {
		if _, ok := idx[h]; !ok {
			return Dataset{}, fmt.Errorf("missing column %q", h)
		}
	}

	var (
		times []time.Time
		s     model.ResourceSeries
	)
	cols := []*[]float64{&s.Load, &s.PV, &s.Wind, &s.Price}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := time.Parse(time.RFC3339, rec[idx[Header[0]]])
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		times = append(times, ts)
		for c, dst := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[Header[c+1]]]), 64)
			if err != nil {
				return Dataset{}, fmt.Errorf("line %d %s: %w", line, Header[c+1], err)
			}
			*dst = append(*dst, v)
		}
	}
	if len(times) == 0 {
		return Dataset{}, errors.New("dataset has no rows")
	}

	step := time.Hour
	if len(times) > 1 {
		step = times[1].Sub(times[0])
		for i := 2; i < len(times); i++ {
			if times[i].Sub(times[i-1]) != step {
				return Dataset{}, fmt.Errorf("irregular timestamps at row %d", i+1)
			}
		}
	}
	grid, err := model.NewTimeGrid(times[0], len(times), step)
	if err != nil {
		return Dataset{}, err
	}
	if err := s.Validate(grid); err != nil {
		return Dataset{}, err
	}
	return Dataset{Grid: grid, Series: s}, nil
}

// LoadCSV reads a dataset from path.
func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
