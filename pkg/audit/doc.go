// Package audit records per-recipient delivery outcomes and run lifecycle
// events to pluggable sinks: the structured log, a JSONL file, or a Kafka
// topic for downstream compliance tooling.
package audit
