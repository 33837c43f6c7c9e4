// Package io reads and writes family documents.
//
// # Formats
//
// Two JSON shapes are accepted on import. The genealogy document is the
// canonical one and is also what [WritePersons] produces:
//
//	{
//	  "rootId": 1,
//	  "persons": [
//	    {"id": 1, "name": "Jan Kowalski", "gender": "M",
//	     "birthDate": {"year": 1850}, "deathDate": {"year": 1910},
//	     "spouseIds": [2], "protocolKey": "P-7", "houseNumber": "12"},
//	    {"id": 3, "name": "Adam Kowalski", "fatherId": 1, "motherId": 2}
//	  ]
//	}
//
// Ids may be JSON numbers or strings. The node/edge document produced by
// network viewers is also accepted:
//
//	{
//	  "nodes": [{"id": 1, "label": "Jan Kowalski", "shape": "box"}],
//	  "edges": [{"from": 1, "to": 2, "dashes": true}]
//	}
//
// A dashed or purple (#9b59b6) edge is a marriage. Any other edge runs from
// a parent to a child; the parent's gender decides whether it fills the
// child's father or mother slot. Box and square shapes are men, ellipses,
// circles and dots are women.
//
// # Validation
//
// Import never rejects a document for bad records, since the layout engine
// degrades around them. [Validate] reports every record-level problem as a
// combined error that callers may log or treat as fatal.
package io
