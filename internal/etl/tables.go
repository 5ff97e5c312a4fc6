// Package etl derives the songplays star schema from raw song and event-log
// JSON. Extractors register their steps with a Pipeline, which runs them in
// dependency order, writes every table through a Writer and publishes the
// staged output tree once all steps succeed.
package etl

import "github.com/leapstack-labs/songplays/pkg/core"

// Staging relation names inside the engine session.
const (
	stageSongs = "stage_songs"
	stageLogs  = "stage_logs"
	stagePlays = "stage_plays"

	lookupSongs   = "lookup_songs"
	lookupArtists = "lookup_artists"
)

// SongSourceColumns is the declared schema of a song-catalog record.
var SongSourceColumns = []core.Column{
	{Name: "num_songs", Type: "BIGINT"},
	{Name: "artist_id", Type: "VARCHAR"},
	{Name: "artist_latitude", Type: "DOUBLE"},
	{Name: "artist_longitude", Type: "DOUBLE"},
	{Name: "artist_location", Type: "VARCHAR"},
	{Name: "artist_name", Type: "VARCHAR"},
	{Name: "song_id", Type: "VARCHAR"},
	{Name: "title", Type: "VARCHAR"},
	{Name: "duration", Type: "DOUBLE"},
	{Name: "year", Type: "INTEGER"},
}

// LogSourceColumns is the declared schema of an event-log record.
// userId is kept as text: logged-out events carry an empty string.
var LogSourceColumns = []core.Column{
	{Name: "artist", Type: "VARCHAR"},
	{Name: "auth", Type: "VARCHAR"},
	{Name: "firstName", Type: "VARCHAR"},
	{Name: "gender", Type: "VARCHAR"},
	{Name: "itemInSession", Type: "BIGINT"},
	{Name: "lastName", Type: "VARCHAR"},
	{Name: "length", Type: "DOUBLE"},
	{Name: "level", Type: "VARCHAR"},
	{Name: "location", Type: "VARCHAR"},
	{Name: "method", Type: "VARCHAR"},
	{Name: "page", Type: "VARCHAR"},
	{Name: "registration", Type: "DOUBLE"},
	{Name: "sessionId", Type: "BIGINT"},
	{Name: "song", Type: "VARCHAR"},
	{Name: "status", Type: "BIGINT"},
	{Name: "ts", Type: "BIGINT"},
	{Name: "userAgent", Type: "VARCHAR"},
	{Name: "userId", Type: "VARCHAR"},
}

// SongsTable is the song dimension.
var SongsTable = core.Table{
	Name: "dim_songs",
	Dir:  "dim_songs",
	Columns: []core.Column{
		{Name: "song_id", Type: "VARCHAR", PrimaryKey: true},
		{Name: "title", Type: "VARCHAR", Nullable: true},
		{Name: "artist_id", Type: "VARCHAR", Nullable: true},
		{Name: "year", Type: "INTEGER", Nullable: true},
		{Name: "duration", Type: "DOUBLE", Nullable: true},
	},
	PartitionBy: []string{"year", "artist_id"},
	OrderBy:     []string{"song_id"},
}

// ArtistsTable is the artist dimension.
var ArtistsTable = core.Table{
	Name: "dim_artists",
	Dir:  "dim_artists",
	Columns: []core.Column{
		{Name: "artist_id", Type: "VARCHAR", PrimaryKey: true},
		{Name: "name", Type: "VARCHAR", Nullable: true},
		{Name: "location", Type: "VARCHAR", Nullable: true},
		{Name: "latitude", Type: "DOUBLE", Nullable: true},
		{Name: "longitude", Type: "DOUBLE", Nullable: true},
	},
	OrderBy: []string{"artist_id"},
}

// UsersTable is the user dimension.
var UsersTable = core.Table{
	Name: "dim_users",
	Dir:  "dim_users",
	Columns: []core.Column{
		{Name: "user_id", Type: "INTEGER", PrimaryKey: true},
		{Name: "first_name", Type: "VARCHAR", Nullable: true},
		{Name: "last_name", Type: "VARCHAR", Nullable: true},
		{Name: "gender", Type: "VARCHAR", Nullable: true},
		{Name: "level", Type: "VARCHAR", Nullable: true},
	},
	OrderBy: []string{"user_id"},
}

// TimeTable is the time dimension.
var TimeTable = core.Table{
	Name: "dim_time",
	Dir:  "dim_time",
	Columns: []core.Column{
		{Name: "start_time", Type: "TIMESTAMP", PrimaryKey: true},
		{Name: "hour", Type: "INTEGER"},
		{Name: "day", Type: "INTEGER"},
		{Name: "week", Type: "INTEGER"},
		{Name: "weekday", Type: "INTEGER"},
		{Name: "year", Type: "INTEGER"},
		{Name: "month", Type: "INTEGER"},
	},
	PartitionBy: []string{"year", "month"},
	OrderBy:     []string{"start_time"},
}

// SongplaysTable is the songplay fact table.
var SongplaysTable = core.Table{
	Name: "fact_songplays_table",
	Dir:  "fact_songplays_table",
	Columns: []core.Column{
		{Name: "songplay_id", Type: "BIGINT", PrimaryKey: true},
		{Name: "start_time", Type: "TIMESTAMP", Nullable: true},
		{Name: "user_id", Type: "INTEGER", Nullable: true},
		{Name: "level", Type: "VARCHAR", Nullable: true},
		{Name: "song_id", Type: "VARCHAR", Nullable: true},
		{Name: "artist_id", Type: "VARCHAR", Nullable: true},
		{Name: "session_id", Type: "BIGINT", Nullable: true},
		{Name: "location", Type: "VARCHAR", Nullable: true},
		{Name: "user_agent", Type: "VARCHAR", Nullable: true},
		{Name: "year", Type: "INTEGER", Nullable: true},
		{Name: "month", Type: "INTEGER", Nullable: true},
	},
	PartitionBy: []string{"year", "month"},
	OrderBy:     []string{"songplay_id"},
}

// Tables lists every output table in publication order.
func Tables() []core.Table {
	return []core.Table{SongsTable, ArtistsTable, UsersTable, TimeTable, SongplaysTable}
}
