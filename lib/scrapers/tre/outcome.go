package tre

import "votolocal-backend/lib/textutil"

// Subject identifies one person to look up, in record-store form.
type Subject struct {
	Name       string
	BirthDate  string // DD/MM/YYYY
	MotherName string
}

// Key returns the subject's composite cache identity.
func (s Subject) Key() string {
	return textutil.LookupKey(s.Name, s.BirthDate, s.MotherName)
}

// VoterLocation is the enrichment payload of one successful lookup.
// Immutable once produced.
type VoterLocation struct {
	Enrollment   string `json:"enrollment"`
	Zone         string `json:"zone"`
	Section      string `json:"section"`
	PollingPlace string `json:"polling_place"`
	Address      string `json:"address"`
	Municipality string `json:"municipality"`
	Neighborhood string `json:"neighborhood"`
	Country      string `json:"country"`
	Biometrics   bool   `json:"biometrics"`
}

type Status int

const (
	// StatusFound carries a VoterLocation.
	StatusFound Status = iota
	// StatusNotFound means the subject legitimately has no record.
	// Terminal, not a fault.
	StatusNotFound
	// StatusTransient covers timeouts, retrying may help.
	StatusTransient
	// StatusFatal covers structural failures (missing field, control or
	// extraction data), retrying won't help without a site change.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusTransient:
		return "transient_error"
	case StatusFatal:
		return "fatal_error"
	}
	return "unknown"
}

// Outcome is the classified result of one lookup.
type Outcome struct {
	Status Status
	Record *VoterLocation
	Reason string
	Err    error
}

func Found(record *VoterLocation) Outcome {
	return Outcome{Status: StatusFound, Record: record}
}

func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

func Transient(reason string, err error) Outcome {
	return Outcome{Status: StatusTransient, Reason: reason, Err: err}
}

func Fatal(reason string, err error) Outcome {
	return Outcome{Status: StatusFatal, Reason: reason, Err: err}
}
