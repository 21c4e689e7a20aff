package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/songleague/internal/domain/dataset"
)

// Write stores d as a league export under <dir>/<league>, in the same layout
// Load reads.
func Write(dir, league string, d dataset.Data) error {
	root := filepath.Join(dir, league)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create league dir: %w", err)
	}

	rounds := [][]string{{colID, colName}}
	for _, r := range d.Rounds {
		rounds = append(rounds, []string{r.ID, r.Name})
	}
	competitors := [][]string{{colID, colName}}
	for _, c := range d.Competitors {
		competitors = append(competitors, []string{c.ID, c.Name})
	}
	submissions := [][]string{{colURI, colTitle, colArtist, colSubmitter, colComment, colRoundID}}
	for _, s := range d.Submissions {
		submissions = append(submissions, []string{s.SongID, s.Title, s.Artist, s.SubmitterID, s.Comment, s.RoundID})
	}
	votes := [][]string{{colURI, colVoter, colPoints, colComment, colRoundID}}
	for _, v := range d.Votes {
		votes = append(votes, []string{v.SongID, v.VoterID, strconv.Itoa(v.Points), v.Comment, v.RoundID})
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{roundsFile, rounds},
		{competitorsFile, competitors},
		{submissionsFile, submissions},
		{votesFile, votes},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(root, f.name), f.rows); err != nil {
			return err
		}
	}
	if len(d.Popularity) > 0 {
		return WritePopularity(dir, league, d.Popularity)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
