// Package record assembles the metadata document stored with every checkpoint.
package record

import (
	"encoding/json"
)

// Section names of the record document.
const (
	SectionModelParameters   = "Model Parameters"
	SectionHyperparameters   = "Model Hyperparameters"
	SectionArchitecture      = "Model Architecture"
	SectionSystemInformation = "System Information"
)

// Record is the assembled metadata for one checkpoint. Every value it holds
// encodes as JSON.
type Record struct {
	Hyperparameters   map[string]any
	Architecture      map[string]any
	Parameters        map[string]any // free-form keys, script, user, timestamp
	SystemInformation map[string]any

	// Omitted lists the variables dropped because no encoding succeeded.
	Omitted []string
}

func newRecord() *Record {
	return &Record{
		Hyperparameters:   map[string]any{},
		Architecture:      map[string]any{},
		Parameters:        map[string]any{},
		SystemInformation: map[string]any{},
	}
}

// Map returns the record as the nested document sent to the data service:
//
//	{"Model Parameters": {"Model Hyperparameters": {...}, "Model Architecture": {...}, ...},
//	 "System Information": {...}}
func (r *Record) Map() map[string]any {
	params := make(map[string]any, len(r.Parameters)+2)
	for k, v := range r.Parameters {
		params[k] = v
	}
	params[SectionHyperparameters] = r.Hyperparameters
	params[SectionArchitecture] = r.Architecture

	return map[string]any{
		SectionModelParameters:   params,
		SectionSystemInformation: r.SystemInformation,
	}
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
