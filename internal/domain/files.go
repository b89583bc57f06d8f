package domain

import "fmt"

// Kind tags which of the two paired sequences a file belongs to.
type Kind int

const (
	// KindGli is a glider navigation file (K1).
	KindGli Kind = iota
	// KindPld is a science payload file (K2).
	KindPld
)

// String returns the filename token of the kind.
func (k Kind) String() string {
	switch k {
	case KindGli:
		return "gli"
	case KindPld:
		return "pld"
	default:
		return "unknown"
	}
}

// DataKind selects which payload files a run processes.
type DataKind string

const (
	// DataKindRaw selects the full-resolution payload files recovered after a mission.
	DataKindRaw DataKind = "raw"
	// DataKindSub selects the subsampled payload files sent in near real time.
	DataKindSub DataKind = "sub"
)

// ParseDataKind validates a data kind name.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(s) {
	case DataKindRaw, DataKindSub:
		return DataKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown data kind %q (want raw or sub)", ErrInvalidConfig, s)
	}
}

// FileRecord is one input file and the acquisition segment it belongs to.
type FileRecord struct {
	Path    string
	Kind    Kind
	Segment int
}

// AlignedFileSet holds the paired inputs of a mission.
// Gli[i] and Pld[i] always describe the same segment.
type AlignedFileSet struct {
	Gli []FileRecord
	Pld []FileRecord
}

// Len returns the number of aligned pairs.
func (s AlignedFileSet) Len() int {
	return len(s.Gli)
}

// Slice returns the pairs in r.
func (s AlignedFileSet) Slice(r Range) AlignedFileSet {
	return AlignedFileSet{Gli: s.Gli[r.Start:r.End], Pld: s.Pld[r.Start:r.End]}
}

// Paths returns every file path in r, gli files first.
func (s AlignedFileSet) Paths(r Range) []string {
	sub := s.Slice(r)
	out := make([]string, 0, 2*sub.Len())
	for _, f := range sub.Gli {
		out = append(out, f.Path)
	}
	for _, f := range sub.Pld {
		out = append(out, f.Path)
	}
	return out
}

// Validate checks the alignment invariant.
func (s AlignedFileSet) Validate() error {
	if len(s.Gli) != len(s.Pld) {
		return fmt.Errorf("aligned set length mismatch: %d gli, %d pld", len(s.Gli), len(s.Pld))
	}
	if len(s.Gli) == 0 {
		return fmt.Errorf("aligned set is empty")
	}
	for i := range s.Gli {
		if s.Gli[i].Segment != s.Pld[i].Segment {
			return fmt.Errorf("pair %d misaligned: gli segment %d, pld segment %d",
				i, s.Gli[i].Segment, s.Pld[i].Segment)
		}
	}
	return nil
}
