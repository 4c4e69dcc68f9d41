package audio

// Levels is the current loudness measurement for the status panel.
type Levels struct {
	// Energy is the energy of the most recent chunk.
	Energy float64 `json:"energy"`
	// EnergyDB is Energy in dB.
	EnergyDB float64 `json:"energy_db"`
	// PeakDB is the held peak energy in dB.
	PeakDB float64 `json:"peak_db"`
	// Loud reports whether the most recent chunk exceeded the threshold.
	Loud bool `json:"loud"`
	// Chunks is the number of chunks processed.
	Chunks uint64 `json:"chunks"`
}

// Device represents an available audio input device.
type Device struct {
	// ID is the device identifier.
	ID string `json:"id"`
	// Name is the device display name.
	Name string `json:"name"`
	// Default marks the device opened when none is configured.
	Default bool `json:"default,omitzero"`
}
