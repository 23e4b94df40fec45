// Package tracker is the HTTP client for the upstream task tracker API. The
// upstream payloads are inconsistent across deployments, so decoding is
// tolerant: task lists may arrive bare or wrapped in Data/tasks/tasksList
// envelopes, category fields carry two generations of names, and follow-up
// comments appear under several field names. The client normalizes all of
// that into domain types.
package tracker
