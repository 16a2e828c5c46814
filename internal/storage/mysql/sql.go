package mysql

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n  (source_id, seq, raw_date, `text`, fields)\nVALUES "

// Use VALUES(col) for broad compatibility; COALESCE keeps old value if new is NULL.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  seq        = VALUES(seq),\n" +
	"  raw_date   = COALESCE(VALUES(raw_date), reviews.raw_date),\n" +
	"  `text`     = COALESCE(VALUES(`text`), reviews.`text`),\n" +
	"  fields     = VALUES(fields)\n"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Source order is seq; id breaks ties between re-ingested files.
const listReviewsSQL = "SELECT source_id, raw_date, `text`, fields FROM reviews ORDER BY seq, id"

const countReviewsSQL = `SELECT COUNT(*) FROM reviews`
