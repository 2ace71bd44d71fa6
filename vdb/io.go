package vdb

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// File layout, all little-endian:
//
//	fileHeader
//	per grid:
//	  gridHeader, name bytes
//	  per leaf: leafHeader, float32 value for every active voxel (mask order)
const (
	Magic   = "SPRSVOL\x00"
	Version = uint32(1)

	MaxNameSize = 256
	// guards allocation against corrupted counts
	maxGridCount = 1 << 16
)

type fileHeader struct {
	Magic     [8]byte
	Version   uint32
	GridCount uint32
}

type gridHeader struct {
	NameLen      uint16
	_            uint16
	Background   float32
	IndexToWorld [16]float32
	LeafCount    uint32
}

type leafHeader struct {
	Origin [3]int32
	Mask   [leafMaskWords]uint64
}

// ParseError reports a malformed grid file.
type ParseError struct {
	Path    string // empty when reading from a stream
	Grid    int    // index of the grid being read, -1 for the file header
	Section string
	Err     error
}

func (e *ParseError) Error() string {
	where := "header"
	if e.Grid >= 0 {
		where = fmt.Sprintf("grid #%d", e.Grid)
	}
	msg := fmt.Sprintf("parse %s %s: %v", where, e.Section, e.Err)
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads every grid stored in the file at path.
func Load(path string) ([]*Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	grids, err := Read(file)
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Path = path
	}
	return grids, err
}

// Read decodes grids from r. Malformed input is reported as *ParseError.
func Read(r io.Reader) ([]*Grid, error) {
	br := bufio.NewReader(r)

	var fh fileHeader
	if err := readFull(br, &fh); err != nil {
		return nil, &ParseError{Grid: -1, Section: "file header", Err: err}
	}
	if string(fh.Magic[:]) != Magic {
		return nil, &ParseError{Grid: -1, Section: "magic", Err: fmt.Errorf("unexpected magic %q", fh.Magic[:])}
	}
	if fh.Version != Version {
		return nil, &ParseError{Grid: -1, Section: "version", Err: fmt.Errorf("unsupported version %d", fh.Version)}
	}
	if fh.GridCount > maxGridCount {
		return nil, &ParseError{Grid: -1, Section: "grid count", Err: fmt.Errorf("%d grids exceeds limit", fh.GridCount)}
	}

	grids := make([]*Grid, 0, fh.GridCount)
	for i := 0; i < int(fh.GridCount); i++ {
		g, err := readGrid(br)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Grid = i
			}
			return nil, err
		}
		grids = append(grids, g)
	}
	return grids, nil
}

func readGrid(r io.Reader) (*Grid, error) {
	var gh gridHeader
	if err := readFull(r, &gh); err != nil {
		return nil, &ParseError{Section: "grid header", Err: err}
	}
	if gh.NameLen > MaxNameSize {
		return nil, &ParseError{Section: "grid name", Err: fmt.Errorf("name length %d exceeds %d", gh.NameLen, MaxNameSize)}
	}
	name := make([]byte, gh.NameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, &ParseError{Section: "grid name", Err: eof(err)}
	}

	xform, err := NewTransform(mgl.Mat4(gh.IndexToWorld))
	if err != nil {
		return nil, &ParseError{Section: "transform", Err: err}
	}

	g := NewGrid(string(name), xform)
	g.background = gh.Background

	for i := 0; i < int(gh.LeafCount); i++ {
		var lh leafHeader
		if err := readFull(r, &lh); err != nil {
			return nil, &ParseError{Section: fmt.Sprintf("leaf #%d", i), Err: err}
		}
		origin := Coord{lh.Origin[0], lh.Origin[1], lh.Origin[2]}
		if leafOrigin(origin) != origin {
			return nil, &ParseError{Section: fmt.Sprintf("leaf #%d", i), Err: fmt.Errorf("origin %v is not aligned to %d", origin, LeafDim)}
		}
		if _, dup := g.leaves[origin]; dup {
			return nil, &ParseError{Section: fmt.Sprintf("leaf #%d", i), Err: fmt.Errorf("duplicate leaf at %v", origin)}
		}

		l := &leaf{mask: lh.Mask}
		for j := range l.values {
			l.values[j] = g.background
		}
		active := make([]float32, l.activeCount())
		if err := readFull(r, active); err != nil {
			return nil, &ParseError{Section: fmt.Sprintf("leaf #%d values", i), Err: err}
		}
		k := 0
		for j := 0; j < LeafVoxels; j++ {
			if l.isOn(j) {
				l.values[j] = active[k]
				k++
			}
		}
		g.leaves[origin] = l
	}
	return g, nil
}

// Write encodes grids to w in the format understood by Read.
// Leaves are written in ascending (z, y, x) origin order so output is deterministic.
func Write(w io.Writer, grids ...*Grid) error {
	bw := bufio.NewWriter(w)

	fh := fileHeader{Version: Version, GridCount: uint32(len(grids))}
	copy(fh.Magic[:], Magic)
	if err := binary.Write(bw, binary.LittleEndian, &fh); err != nil {
		return err
	}

	for _, g := range grids {
		if len(g.name) > MaxNameSize {
			return fmt.Errorf("grid %q: name longer than %d bytes", g.name, MaxNameSize)
		}
		gh := gridHeader{
			NameLen:      uint16(len(g.name)),
			Background:   g.background,
			IndexToWorld: [16]float32(g.xform.Matrix()),
			LeafCount:    uint32(len(g.leaves)),
		}
		if err := binary.Write(bw, binary.LittleEndian, &gh); err != nil {
			return err
		}
		if _, err := bw.WriteString(g.name); err != nil {
			return err
		}

		for _, origin := range g.sortedOrigins() {
			l := g.leaves[origin]
			lh := leafHeader{Origin: [3]int32{origin.X, origin.Y, origin.Z}, Mask: l.mask}
			if err := binary.Write(bw, binary.LittleEndian, &lh); err != nil {
				return err
			}
			active := make([]float32, 0, l.activeCount())
			for j := 0; j < LeafVoxels; j++ {
				if l.isOn(j) {
					active = append(active, l.values[j])
				}
			}
			if err := binary.Write(bw, binary.LittleEndian, active); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Save writes grids to a new file at path.
func Save(path string, grids ...*Grid) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, grids...); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (g *Grid) sortedOrigins() []Coord {
	origins := make([]Coord, 0, len(g.leaves))
	for origin := range g.leaves {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool {
		a, b := origins[i], origins[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return origins
}

func readFull(r io.Reader, data interface{}) error {
	return eof(binary.Read(r, binary.LittleEndian, data))
}

// a clean EOF in the middle of a file is still a truncation
func eof(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
