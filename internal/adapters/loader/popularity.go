package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/pkg/logger"
)

// Popularity file names tried in order. yaml.v3 also reads JSON.
var popularityFiles = []string{"popularity.yaml", "popularity.yml", "popularity.json"}

// PopularityProvider reads <dir>/<league>/popularity.yaml, a flat mapping of
// song ID to popularity. Results are memoised per league and concurrent
// loads of one league share a single read.
type PopularityProvider struct {
	dir string
	log logger.Logger

	mu    sync.RWMutex
	cache map[string]model.Popularity
	group singleflight.Group
}

// NewPopularityProvider returns a provider rooted at dir.
func NewPopularityProvider(dir string, log logger.Logger) *PopularityProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &PopularityProvider{dir: dir, log: log, cache: make(map[string]model.Popularity)}
}

// Get returns the popularity mapping of league. A league without a
// popularity file has an empty mapping. Values outside [0,100] are dropped
// and therefore unknown.
func (p *PopularityProvider) Get(ctx context.Context, league string) (model.Popularity, error) {
	p.mu.RLock()
	if cached, ok := p.cache[league]; ok {
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	v, err, _ := p.group.Do(league, func() (any, error) {
		p.mu.RLock()
		if cached, ok := p.cache[league]; ok {
			p.mu.RUnlock()
			return cached, nil
		}
		p.mu.RUnlock()

		pop, err := p.read(ctx, league)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[league] = pop
		p.mu.Unlock()
		return pop, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Popularity), nil
}

// Forget drops the memoised mapping of league.
func (p *PopularityProvider) Forget(league string) {
	p.mu.Lock()
	delete(p.cache, league)
	p.mu.Unlock()
}

func (p *PopularityProvider) read(ctx context.Context, league string) (model.Popularity, error) {
	for _, name := range popularityFiles {
		path := filepath.Join(p.dir, league, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var raw map[string]int
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadRow, path, err)
		}
		pop := make(model.Popularity, len(raw))
		dropped := 0
		for id, v := range raw {
			if !model.ValidPopularity(v) {
				dropped++
				continue
			}
			pop[id] = v
		}
		if dropped > 0 {
			p.log.Warn(ctx, "popularity values out of range",
				logger.String("league", league),
				logger.Int("dropped", dropped),
			)
		}
		return pop, nil
	}
	return model.Popularity{}, nil
}

// WritePopularity stores pop as <dir>/<league>/popularity.yaml.
func WritePopularity(dir, league string, pop model.Popularity) error {
	data, err := yaml.Marshal(map[string]int(pop))
	if err != nil {
		return fmt.Errorf("encode popularity: %w", err)
	}
	path := filepath.Join(dir, league, popularityFiles[0])
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
