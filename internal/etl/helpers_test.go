package etl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/songplays/internal/testutil"
	"github.com/leapstack-labs/songplays/pkg/adapters/duckdb"
	"github.com/leapstack-labs/songplays/pkg/core"
	"github.com/stretchr/testify/require"
)

// Muse play: 2018-11-12 02:37:38.796 UTC, a Monday in ISO week 46.
const museTS int64 = 1541990258796

func newTestAdapter(t *testing.T) *duckdb.Adapter {
	t.Helper()
	adp := duckdb.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

// writeRecords writes newline-delimited JSON records to root/rel.
func writeRecords(t *testing.T, root, rel string, records ...map[string]any) {
	t.Helper()
	lines := make([]string, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		lines = append(lines, string(data))
	}
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
}

func song(id, title, artistID, artistName any, year int, duration float64) map[string]any {
	return map[string]any{
		"num_songs":        1,
		"song_id":          id,
		"title":            title,
		"artist_id":        artistID,
		"artist_name":      artistName,
		"artist_location":  "",
		"artist_latitude":  nil,
		"artist_longitude": nil,
		"year":             year,
		"duration":         duration,
	}
}

func event(page string, ts any, userID, level, artist, songTitle string) map[string]any {
	return map[string]any{
		"artist":        artist,
		"auth":          "Logged In",
		"firstName":     "Ryan",
		"gender":        "M",
		"itemInSession": 0,
		"lastName":      "Smith",
		"length":        209.5,
		"level":         level,
		"location":      "San Jose-Sunnyvale-Santa Clara, CA",
		"method":        "PUT",
		"page":          page,
		"registration":  1541016707796.0,
		"sessionId":     583,
		"song":          songTitle,
		"status":        200,
		"ts":            ts,
		"userAgent":     "Mozilla/5.0",
		"userId":        userID,
	}
}

// writeSongFixtures writes a catalog with a duplicated song, a record
// without song_id and a record without artist_id.
func writeSongFixtures(t *testing.T, input string) {
	t.Helper()
	muse := song("SOMUSE1", "Supermassive Black Hole", "ARMUSE", "Muse", 2006, 209.5)
	muse["artist_location"] = "Teignmouth, Devon"
	muse["artist_latitude"] = 50.5
	muse["artist_longitude"] = -3.5

	writeRecords(t, input, "song_data/A/A/A/TRAAAMUSE.json", muse)
	writeRecords(t, input, "song_data/A/A/B/TRAABMUSE.json", muse)
	writeRecords(t, input, "song_data/A/B/A/TRABAOTHER.json", song("SOOTHER", "Other Song", "AROTHER", "Other Artist", 0, 100))
	writeRecords(t, input, "song_data/B/A/A/TRBAAORPHAN.json", song(nil, "Orphan", "ARORPHAN", "Orphan Artist", 1999, 90))
	writeRecords(t, input, "song_data/B/B/A/TRBBANOART.json", song("SONOART", "No Artist", nil, nil, 2001, 120))
}

// writeLogFixtures writes four play events and one navigation event.
func writeLogFixtures(t *testing.T, input string) {
	t.Helper()
	loggedOut := event("NextSong", int64(1542000000000), "", "free", "Nobody", "Nothing")
	loggedOut["sessionId"] = 9

	writeRecords(t, input, "log_data/2018/11/2018-11-12-events.json",
		event("NextSong", museTS, "26", "paid", "Muse", "Supermassive Black Hole"),
		event("NextSong", museTS+100000, "26", "free", "Nobody", "Nothing"),
		event("Home", museTS+200000, "99", "paid", "", ""),
		loggedOut,
		event("NextSong", nil, "10", "free", "Muse", "Supermassive Black Hole"),
	)
}

func queryInt(t *testing.T, adp core.Adapter, query string) int64 {
	t.Helper()
	rows, err := adp.Query(context.Background(), query)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next(), "query returned no rows: %s", query)
	var v int64
	require.NoError(t, rows.Scan(&v))
	return v
}

func queryStrings(t *testing.T, adp core.Adapter, query string) []string {
	t.Helper()
	rows, err := adp.Query(context.Background(), query)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v *string
		require.NoError(t, rows.Scan(&v))
		if v == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, *v)
	}
	require.NoError(t, rows.Err())
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}
