package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes   = "CAMPUSRT"
	version      = uint32(1)
	maxWaypoints = 10_000_000
	maxLinks     = 50_000_000
	maxNameLen   = 1 << 16
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	NumWaypoints uint32
	NumFloors    uint32
	NumBuildings uint32
	NumLinks     uint32
}

// WriteBinary serializes a Map snapshot to a binary file.
// Uses unsafe.Slice for fast zero-copy I/O.
func WriteBinary(path string, m *Map) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	// Write header.
	hdr := fileHeader{
		Version:      version,
		NumWaypoints: uint32(len(m.waypoints)),
		NumFloors:    uint32(len(m.floors)),
		NumBuildings: uint32(len(m.buildings)),
		NumLinks:     uint32(len(m.links)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Waypoints, column by column.
	xs := make([]int32, len(m.waypoints))
	ys := make([]int32, len(m.waypoints))
	wBuilding := make([]uint32, len(m.waypoints))
	wFloor := make([]uint32, len(m.waypoints))
	for i, wp := range m.waypoints {
		xs[i] = int32(wp.X)
		ys[i] = int32(wp.Y)
		wBuilding[i] = uint32(wp.Building)
		wFloor[i] = uint32(wp.Floor)
	}
	if err := writeInt32Slice(w, xs); err != nil {
		return fmt.Errorf("write waypoint X: %w", err)
	}
	if err := writeInt32Slice(w, ys); err != nil {
		return fmt.Errorf("write waypoint Y: %w", err)
	}
	if err := writeUint32Slice(w, wBuilding); err != nil {
		return fmt.Errorf("write waypoint building: %w", err)
	}
	if err := writeUint32Slice(w, wFloor); err != nil {
		return fmt.Errorf("write waypoint floor: %w", err)
	}

	// Floors.
	fBuilding := make([]uint32, len(m.floors))
	fPosition := make([]uint32, len(m.floors))
	for i, fl := range m.floors {
		fBuilding[i] = uint32(fl.Building)
		fPosition[i] = uint32(fl.Position)
	}
	if err := writeUint32Slice(w, fBuilding); err != nil {
		return fmt.Errorf("write floor building: %w", err)
	}
	if err := writeUint32Slice(w, fPosition); err != nil {
		return fmt.Errorf("write floor position: %w", err)
	}
	for _, fl := range m.floors {
		if err := writeString(w, fl.Name); err != nil {
			return fmt.Errorf("write floor name: %w", err)
		}
	}

	// Buildings.
	bMain := make([]uint32, len(m.buildings))
	for i, b := range m.buildings {
		bMain[i] = uint32(b.MainFloor)
	}
	if err := writeUint32Slice(w, bMain); err != nil {
		return fmt.Errorf("write main floors: %w", err)
	}
	for _, b := range m.buildings {
		if err := writeString(w, b.Name); err != nil {
			return fmt.Errorf("write building name: %w", err)
		}
	}

	// Links in insertion order.
	la := make([]uint32, len(m.links))
	lb := make([]uint32, len(m.links))
	lw := make([]float64, len(m.links))
	for i, l := range m.links {
		la[i] = uint32(l.a)
		lb[i] = uint32(l.b)
		lw[i] = l.weight
	}
	if err := writeUint32Slice(w, la); err != nil {
		return fmt.Errorf("write link A: %w", err)
	}
	if err := writeUint32Slice(w, lb); err != nil {
		return fmt.Errorf("write link B: %w", err)
	}
	if err := writeFloat64Slice(w, lw); err != nil {
		return fmt.Errorf("write link weight: %w", err)
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a Map snapshot. The result is validated the same
// way as freshly loaded map data.
func ReadBinary(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumWaypoints > maxWaypoints || hdr.NumFloors > maxWaypoints || hdr.NumBuildings > maxWaypoints {
		return nil, fmt.Errorf("node count exceeds limit %d", maxWaypoints)
	}
	if hdr.NumLinks > maxLinks {
		return nil, fmt.Errorf("edge count exceeds limit %d", maxLinks)
	}

	nw, nf, nb, nl := int(hdr.NumWaypoints), int(hdr.NumFloors), int(hdr.NumBuildings), int(hdr.NumLinks)

	// Waypoints.
	xs, err := readInt32Slice(r, nw)
	if err != nil {
		return nil, fmt.Errorf("read waypoint X: %w", err)
	}
	ys, err := readInt32Slice(r, nw)
	if err != nil {
		return nil, fmt.Errorf("read waypoint Y: %w", err)
	}
	wBuilding, err := readUint32Slice(r, nw)
	if err != nil {
		return nil, fmt.Errorf("read waypoint building: %w", err)
	}
	wFloor, err := readUint32Slice(r, nw)
	if err != nil {
		return nil, fmt.Errorf("read waypoint floor: %w", err)
	}

	// Floors.
	fBuilding, err := readUint32Slice(r, nf)
	if err != nil {
		return nil, fmt.Errorf("read floor building: %w", err)
	}
	fPosition, err := readUint32Slice(r, nf)
	if err != nil {
		return nil, fmt.Errorf("read floor position: %w", err)
	}
	floorNames := make([]string, nf)
	for i := range floorNames {
		if floorNames[i], err = readString(r); err != nil {
			return nil, fmt.Errorf("read floor name: %w", err)
		}
	}

	// Buildings.
	bMain, err := readUint32Slice(r, nb)
	if err != nil {
		return nil, fmt.Errorf("read main floors: %w", err)
	}
	buildingNames := make([]string, nb)
	for i := range buildingNames {
		if buildingNames[i], err = readString(r); err != nil {
			return nil, fmt.Errorf("read building name: %w", err)
		}
	}

	// Links.
	la, err := readUint32Slice(r, nl)
	if err != nil {
		return nil, fmt.Errorf("read link A: %w", err)
	}
	lb, err := readUint32Slice(r, nl)
	if err != nil {
		return nil, fmt.Errorf("read link B: %w", err)
	}
	lw, err := readFloat64Slice(r, nl)
	if err != nil {
		return nil, fmt.Errorf("read link weight: %w", err)
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	a := arena{
		waypoints: make([]Waypoint, nw),
		floors:    make([]Floor, nf),
		buildings: make([]Building, nb),
		links:     make([]link, nl),
	}
	for i := range a.waypoints {
		a.waypoints[i] = Waypoint{
			ID:       WaypointID(i),
			X:        int(xs[i]),
			Y:        int(ys[i]),
			Building: BuildingID(wBuilding[i]),
			Floor:    FloorID(wFloor[i]),
		}
	}
	for i := range a.floors {
		a.floors[i] = Floor{
			ID:       FloorID(i),
			Name:     floorNames[i],
			Building: BuildingID(fBuilding[i]),
			Position: WaypointID(fPosition[i]),
		}
	}
	for i := range a.buildings {
		a.buildings[i] = Building{ID: BuildingID(i), Name: buildingNames[i], MainFloor: FloorID(bMain[i])}
	}
	for i := range a.links {
		a.links[i] = link{a: WaypointID(la[i]), b: WaypointID(lb[i]), weight: lw[i]}
	}

	m, err := a.finish()
	if err != nil {
		return nil, fmt.Errorf("snapshot invalid: %w", err)
	}
	return m, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxNameLen {
		return "", fmt.Errorf("name length %d exceeds limit %d", n, maxNameLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt32Slice(w io.Writer, s []int32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
