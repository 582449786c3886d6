// Package writers turns run results into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (text tables, JSON, JSONL).
//   - Engine stays domain-only; pipeline stays orchestration-only.
//   - JSON/JSONL go through pkg/api (v1) for a stable wire format.
//   - Files are replaced atomically so readers never see partial records.
package writers
