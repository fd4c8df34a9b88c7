package apply

import (
	"errors"
	"slices"

	"github.com/bastiangx/dicoserve/pkg/dictionary"
)

// Step is one pass of a batch run.
type Step struct {
	Path     string
	Kind     string
	Priority int
}

// Plan orders command line inputs into passes: grouped by the priority of
// their name, in argument order within a priority. Inputs that are neither
// dictionaries nor match lists are returned as skipped.
func Plan(paths []string) (steps []Step, skipped []string) {
	for _, path := range paths {
		var kind string
		switch dictionary.DetectFileFormat(path) {
		case dictionary.FormatBin:
			kind = KindDictionary
		case dictionary.FormatMatchList:
			kind = KindMerge
		default:
			skipped = append(skipped, path)
			continue
		}
		steps = append(steps, Step{Path: path, Kind: kind, Priority: dictionary.PriorityFromName(path)})
	}
	slices.SortStableFunc(steps, func(a, b Step) int { return a.Priority - b.Priority })
	return steps, skipped
}

// Run executes steps in order. Inputs that cannot be opened, and match
// lists that do not load, are logged and skipped; any other error stops
// the run.
func (s *Session) Run(steps []Step) ([]PassReport, error) {
	var reports []PassReport
	for _, step := range steps {
		var (
			r   PassReport
			err error
		)
		switch step.Kind {
		case KindDictionary:
			r, err = s.ApplyDictionary(step.Path, step.Priority)
		case KindMerge:
			r, err = s.MergeLocate(step.Path, step.Priority)
		}
		if errors.Is(err, ErrFileOpen) {
			s.log.Error("Skipping input", "path", step.Path, "err", err)
			continue
		}
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
