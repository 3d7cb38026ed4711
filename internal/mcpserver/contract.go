package mcpserver

// SnapshotFormatContract describes the canonical JSON snapshot format that
// exports produce and imports accept.
const SnapshotFormatContract = `# Ryana Snapshot Format Contract

Exports produce and imports accept a single JSON document with this shape.

## Structure

` + "```" + `json
{
  "version": 1,
  "exportedAt": 1735689600000,
  "exportType": "selected",
  "subject": "Algorithms",
  "snippets": [ ... ],
  "subjects": [ ... ],
  "settings": { ... },
  "tags": [ ... ]
}
` + "```" + `

## Rules

1. **` + "`" + `version` + "`" + ` and ` + "`" + `exportedAt` + "`" + ` are required.** Version is the schema
   version (currently 1); exportedAt is milliseconds since the Unix epoch.
   All timestamps in the snapshot use the same millisecond representation.
2. **` + "`" + `snippets` + "`" + ` is required**, possibly empty. Every snippet needs a
   non-empty ` + "`" + `id` + "`" + `, ` + "`" + `title` + "`" + `, and ` + "`" + `code` + "`" + `.
3. **` + "`" + `exportType` + "`" + `** is omitted for full exports, ` + "`" + `"selected"` + "`" + ` for
   hand-picked snippets, ` + "`" + `"subject"` + "`" + ` for per-subject exports (which also
   carry the subject name in ` + "`" + `subject` + "`" + `).
4. **Partial exports omit ` + "`" + `settings` + "`" + ` and ` + "`" + `tags` + "`" + `.** Tag aggregates are
   rebuilt from snippet tag lists during import; never hand-author counts.
5. **Snippet ids are preserved on import.** Records are reconciled by id
   under the chosen policy (merge, replace, or add).
6. **Subjects are only ever added.** A subject whose name already exists in
   the target vault is skipped, never overwritten.

## Snippet fields

` + "```" + `json
{
  "id": "uuid",
  "title": "Binary search",
  "description": "Classic iterative version",
  "language": "go",
  "subject": "Algorithms",
  "tags": ["search", "arrays"],
  "code": "func Search(...) { ... }",
  "type": "code",
  "errors": [{"message": "...", "solution": "..."}],
  "favourite": false,
  "createdAt": 1735689600000,
  "updatedAt": 1735689600000
}
` + "```" + `

` + "`" + `type` + "`" + ` is ` + "`" + `"code"` + "`" + ` or ` + "`" + `"error"` + "`" + `. Analytics, usage, versions, and
sync blocks are optional and round-trip unchanged.
`
