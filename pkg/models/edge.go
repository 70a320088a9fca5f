package models

// Edge connects two nodes in the workflow graph. SourceHandle disambiguates
// multiple outgoing branches from one node (e.g. "true"/"false" on a
// condition node, case labels on a switch node); it is empty for plain edges.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	Target       string `json:"target" validate:"required"`
}
