package etl

// Queries deriving the star schema from the staged relations. Each one
// replaces a relation of the same name as its output table.

// songsSQL keeps one row per song_id. Conflicting rows resolve to the
// smallest (title, artist_id, year, duration).
const songsSQL = `
CREATE OR REPLACE TABLE dim_songs AS
SELECT
    song_id,
    title,
    artist_id,
    year,
    duration
FROM stage_songs
WHERE song_id IS NOT NULL
QUALIFY row_number() OVER (
    PARTITION BY song_id
    ORDER BY title NULLS LAST, artist_id NULLS LAST, year NULLS LAST, duration NULLS LAST
) = 1`

// artistsSQL keeps one row per artist_id, preferring rows that carry a
// name and a location.
const artistsSQL = `
CREATE OR REPLACE TABLE dim_artists AS
SELECT
    artist_id,
    artist_name AS name,
    artist_location AS location,
    artist_latitude AS latitude,
    artist_longitude AS longitude
FROM stage_songs
WHERE artist_id IS NOT NULL
QUALIFY row_number() OVER (
    PARTITION BY artist_id
    ORDER BY
        artist_name IS NULL,
        artist_location IS NULL,
        artist_name NULLS LAST,
        artist_location NULLS LAST,
        artist_latitude NULLS LAST,
        artist_longitude NULLS LAST
) = 1`

// playsSQL filters the raw events to plays and derives start_time (UTC).
const playsSQL = `
CREATE OR REPLACE TABLE stage_plays AS
SELECT
    *,
    epoch_ms(ts) AS start_time,
    TRY_CAST(userId AS INTEGER) AS user_id
FROM stage_logs
WHERE page = 'NextSong'`

// usersSQL keeps each user's attributes from their most recent play.
const usersSQL = `
CREATE OR REPLACE TABLE dim_users AS
SELECT
    user_id,
    firstName AS first_name,
    lastName AS last_name,
    gender,
    level
FROM stage_plays
WHERE user_id IS NOT NULL
QUALIFY row_number() OVER (
    PARTITION BY user_id
    ORDER BY ts DESC NULLS LAST, level NULLS LAST, firstName NULLS LAST, lastName NULLS LAST, gender NULLS LAST
) = 1`

// timeSQL decomposes every distinct start_time. weekday counts from
// 1 = Sunday and week is the ISO week.
const timeSQL = `
CREATE OR REPLACE TABLE dim_time AS
SELECT DISTINCT
    start_time,
    CAST(hour(start_time) AS INTEGER) AS hour,
    CAST(day(start_time) AS INTEGER) AS day,
    CAST(weekofyear(start_time) AS INTEGER) AS week,
    CAST(dayofweek(start_time) + 1 AS INTEGER) AS weekday,
    CAST(year(start_time) AS INTEGER) AS year,
    CAST(month(start_time) AS INTEGER) AS month
FROM stage_plays
WHERE start_time IS NOT NULL`

// songplaysSQL numbers plays over a total order and resolves artist and
// song ids by exact name and title. The smallest matching artist_id wins;
// among songs with the title, one by the resolved artist wins, then the
// smallest song_id. Every play yields exactly one row.
const songplaysSQL = `
CREATE OR REPLACE TABLE fact_songplays_table AS
WITH plays AS (
    SELECT
        row_number() OVER (
            ORDER BY
                start_time NULLS LAST,
                user_id NULLS LAST,
                sessionId NULLS LAST,
                itemInSession NULLS LAST,
                level NULLS LAST,
                location NULLS LAST,
                userAgent NULLS LAST,
                song NULLS LAST,
                artist NULLS LAST
        ) AS songplay_id,
        *
    FROM stage_plays
),
artist_match AS (
    SELECT p.songplay_id, min(a.artist_id) AS artist_id
    FROM plays p
    JOIN lookup_artists a ON a.name = p.artist
    GROUP BY p.songplay_id
),
song_match AS (
    SELECT p.songplay_id, s.song_id
    FROM plays p
    LEFT JOIN artist_match am ON am.songplay_id = p.songplay_id
    JOIN lookup_songs s ON s.title = p.song
    QUALIFY row_number() OVER (
        PARTITION BY p.songplay_id
        ORDER BY coalesce(s.artist_id = am.artist_id, false) DESC, s.song_id NULLS LAST
    ) = 1
)
SELECT
    p.songplay_id,
    p.start_time,
    p.user_id,
    p.level,
    sm.song_id,
    am.artist_id,
    p.sessionId AS session_id,
    p.location,
    p.userAgent AS user_agent,
    CAST(year(p.start_time) AS INTEGER) AS year,
    CAST(month(p.start_time) AS INTEGER) AS month
FROM plays p
LEFT JOIN artist_match am ON am.songplay_id = p.songplay_id
LEFT JOIN song_match sm ON sm.songplay_id = p.songplay_id`
