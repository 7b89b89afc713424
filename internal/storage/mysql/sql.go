package mysql

// Snapshots are replaced wholesale inside one transaction; position keeps
// the backend's ordering.

const deleteFAQsSQL = `DELETE FROM faq_snapshots`

const insertFAQsPrefix = "INSERT INTO faq_snapshots\n  (position, source_id, question, answer)\nVALUES "

const deleteTestimonialsSQL = `DELETE FROM testimonial_snapshots`

const insertTestimonialsPrefix = "INSERT INTO testimonial_snapshots\n  (position, source_id, name, role, quote, rating, avatar_url)\nVALUES "

const insertMissSQL = `
INSERT INTO content_sync_misses (kind, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  reason  = VALUES(reason),
  seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listFAQsSQL = `
SELECT source_id, question, answer
FROM faq_snapshots
ORDER BY position ASC
`

const listTestimonialsSQL = `
SELECT source_id, name, role, quote, rating, avatar_url
FROM testimonial_snapshots
ORDER BY position ASC
`
