package lockers

import "fmt"

// SeedEntry pre-assigns the locker at table position Index.
type SeedEntry struct {
	Index       int
	StudentID   string
	StudentName string
}

const (
	SeedNameEmpty = "empty"
	SeedNameDemo  = "demo"
)

// SeedEmpty starts every locker free.
var SeedEmpty []SeedEntry

// SeedDemo fills a few lockers for demonstrations. Position 2 stays free on
// purpose so the free list starts with a gap.
var SeedDemo = []SeedEntry{
	{Index: 0, StudentID: "2403001", StudentName: "Saitama Taro"},
	{Index: 1, StudentID: "2403002", StudentName: "Urawa Hanako"},
	{Index: 3, StudentID: "2403004", StudentName: "Omiya Jiro"},
}

// SeedByName resolves a configured seed name. An empty name selects SeedEmpty.
func SeedByName(name string) ([]SeedEntry, error) {
	switch name {
	case "", SeedNameEmpty:
		return SeedEmpty, nil
	case SeedNameDemo:
		return SeedDemo, nil
	}
	return nil, fmt.Errorf("unknown locker seed %q", name)
}
