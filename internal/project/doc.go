// Package project persists projects as JSON documents, one per project, with
// a cross-process file lock serializing writers. Loading upgrades legacy
// single-video documents into the multi-video shape.
package project
