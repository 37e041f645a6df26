package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Compare runs prog on one fresh processor per configuration, all at the
// same time, and returns their snapshots in configuration order. With no
// configurations it runs all four. The first failure cancels the others.
//
// Hooks passed in opts are shared by every processor and must be safe for
// concurrent use.
func Compare(
	ctx context.Context,
	prog Program,
	configs []Config,
	opts ...ProcessorOption,
) ([]Snapshot, error) {
	if len(configs) == 0 {
		configs = AllConfigs()
	}

	results := make([]Snapshot, len(configs))
	g, ctx := errgroup.WithContext(ctx)

	for i, config := range configs {
		g.Go(func() error {
			p, err := NewProcessor(config, opts...)
			if err != nil {
				return err
			}

			if err := p.Load(prog); err != nil {
				return fmt.Errorf("%s: %w", config, err)
			}

			if err := p.Run(ctx, RunFull, 0); err != nil {
				return fmt.Errorf("%s: %w", config, err)
			}

			results[i] = p.Snapshot()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
