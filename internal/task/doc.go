// Package task defines the task record exchanged with the task API.
//
// A task list payload looks like:
//
//	[
//	  {
//	    "id": 1,
//	    "title": "Buy milk",
//	    "description": "",
//	    "completed": false,
//	    "created_at": "2024-05-01T10:00:00.123456"
//	  }
//	]
//
// # Validation
//
// List payloads are checked against an embedded JSON Schema (draft 2020-12)
// before they are decoded, so a payload with the wrong shape is reported as
// malformed instead of silently producing zero-valued tasks.
//
// # Timestamps
//
// Servers differ in how they format created_at/updated_at. Timestamp accepts
// RFC 3339 as well as ISO-8601 local times without a zone offset and always
// writes RFC 3339.
package task
