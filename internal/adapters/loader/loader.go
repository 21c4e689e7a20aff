// Package loader reads league exports from disk into dataset snapshots and
// writes them back out.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/pkg/logger"
	"github.com/okian/songleague/pkg/metrics"
)

// Loader reads <dir>/<league>/*.csv.
type Loader struct {
	dir        string
	filter     *VoteFilter
	popularity *PopularityProvider
	log        logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithVoteFilter drops votes for which f evaluates to false.
func WithVoteFilter(f *VoteFilter) Option {
	return func(l *Loader) { l.filter = f }
}

// WithPopularity overrides the popularity provider.
func WithPopularity(p *PopularityProvider) Option {
	return func(l *Loader) {
		if p != nil {
			l.popularity = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// New returns a Loader rooted at dir.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	if l.popularity == nil {
		l.popularity = NewPopularityProvider(dir, l.log)
	}
	return l
}

// Dir returns the data directory.
func (l *Loader) Dir() string { return l.dir }

// LeagueDir returns the directory holding a league's export.
func (l *Loader) LeagueDir(league string) string { return filepath.Join(l.dir, league) }

// Leagues lists every sub-directory of the data directory that contains a
// votes export, sorted by name.
func (l *Loader) Leagues() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.dir, e.Name(), votesFile)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load reads one league. Missing export files are treated as empty; a
// missing league directory is ErrLeagueNotFound.
func (l *Loader) Load(ctx context.Context, league string) (*dataset.Snapshot, error) {
	snap, err := l.load(ctx, league)
	if err != nil {
		l.log.Error(ctx, "load league failed", logger.String("league", league), logger.Error(err))
	}
	return snap, err
}

func (l *Loader) load(ctx context.Context, league string) (*dataset.Snapshot, error) {
	dir := l.LeagueDir(league)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			metrics.RecordLoaderError("league")
			return nil, fmt.Errorf("%w: %s", ErrLeagueNotFound, league)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}

	var d dataset.Data
	var err error
	if d.Rounds, err = readRounds(filepath.Join(dir, roundsFile)); err != nil {
		metrics.RecordLoaderError("rounds")
		return nil, err
	}
	if d.Competitors, err = readCompetitors(filepath.Join(dir, competitorsFile)); err != nil {
		metrics.RecordLoaderError("competitors")
		return nil, err
	}
	if d.Submissions, err = readSubmissions(filepath.Join(dir, submissionsFile)); err != nil {
		metrics.RecordLoaderError("submissions")
		return nil, err
	}
	if d.Votes, err = readVotes(filepath.Join(dir, votesFile)); err != nil {
		metrics.RecordLoaderError("votes")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.filter != nil {
		before := len(d.Votes)
		if d.Votes, err = l.filter.Apply(d.Votes); err != nil {
			metrics.RecordLoaderError("filter")
			return nil, err
		}
		l.log.Debug(ctx, "vote filter applied",
			logger.String("league", league),
			logger.Int("kept", len(d.Votes)),
			logger.Int("dropped", before-len(d.Votes)),
		)
	}

	if d.Popularity, err = l.popularity.Get(ctx, league); err != nil {
		metrics.RecordLoaderError("popularity")
		return nil, err
	}

	snap, err := dataset.New(league, d)
	if err != nil {
		metrics.RecordLoaderError("validate")
		return nil, fmt.Errorf("league %s: %w", league, err)
	}
	l.log.Debug(ctx, "league loaded",
		logger.String("league", league),
		logger.Int("rounds", len(d.Rounds)),
		logger.Int("submissions", len(d.Submissions)),
		logger.Int("votes", len(d.Votes)),
	)
	return snap, nil
}

// Invalidate forgets memoised popularity for league so the next Load rereads it.
func (l *Loader) Invalidate(league string) {
	l.popularity.Forget(league)
}

func readRounds(path string) ([]model.Round, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colID); err != nil {
		return nil, err
	}
	out := make([]model.Round, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, model.Round{ID: t.get(row, colID), Name: t.get(row, colName)})
	}
	return out, nil
}

func readCompetitors(path string) ([]model.Competitor, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colID, colName); err != nil {
		return nil, err
	}
	out := make([]model.Competitor, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, model.Competitor{ID: t.get(row, colID), Name: t.get(row, colName)})
	}
	return out, nil
}

func readSubmissions(path string) ([]model.Submission, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colRoundID, colSubmitter, colURI); err != nil {
		return nil, err
	}
	out := make([]model.Submission, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, model.Submission{
			RoundID:     t.get(row, colRoundID),
			SubmitterID: t.get(row, colSubmitter),
			SongID:      t.get(row, colURI),
			Title:       t.get(row, colTitle),
			Artist:      t.get(row, colArtist),
			Comment:     t.get(row, colComment),
		})
	}
	return out, nil
}

func readVotes(path string) ([]model.Vote, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colRoundID, colVoter, colURI, colPoints); err != nil {
		return nil, err
	}
	out := make([]model.Vote, 0, len(t.rows))
	for i, row := range t.rows {
		raw := t.get(row, colPoints)
		points, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: points %q", ErrBadRow, path, i+2, raw)
		}
		out = append(out, model.Vote{
			RoundID: t.get(row, colRoundID),
			VoterID: t.get(row, colVoter),
			SongID:  t.get(row, colURI),
			Points:  points,
			Comment: t.get(row, colComment),
		})
	}
	return out, nil
}
