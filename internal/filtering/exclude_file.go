package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/offers"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes offers listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, v *offers.Offers) (*offers.Offers, Step, error) {
	initial := v.Len()
	if f.path == "" {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded, err := offers.GetExcludedOffersFromFile(f.path)
	if err != nil {
		return v, Step{}, fmt.Errorf("getting excluded offers from file: %w", err)
	}

	removed := v.Exclude(excluded.IDs())
	if len(removed) > 0 {
		deps.Logger.Info("excluding offers based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_offers", removed),
			zap.Int("offers_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(removed), Left: v.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
