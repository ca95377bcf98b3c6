package sandbox

import (
	"encoding/binary"
	"fmt"

	"github.com/vovakirdan/retrobridge/internal/core"
)

const stateVersion = 1

var stateMagic = [4]byte{'R', 'B', 'S', 'S'}

// snapshot is the save-state layout. Every field is fixed size so the
// encoded length is constant.
type snapshot struct {
	Magic   [4]byte
	Version uint16
	Speed   uint8
	Trail   bool
	Disk    uint16
	Frame   uint64
	RNG     uint64
	Seed    uint64
	Sparkle uint16
	Ports   [Ports]port
	Pointer pointer
	SRAM    [SRAMSize]byte
}

var stateSize = binary.Size(snapshot{})

func (c *Core) SerializeState() (core.SaveBlob, error) {
	if c.image.Data == nil {
		return nil, errNoGame
	}
	s := snapshot{
		Magic:   stateMagic,
		Version: stateVersion,
		Speed:   uint8(c.speed),
		Trail:   c.trail,
		Disk:    uint16(c.disk),
		Frame:   c.frame,
		RNG:     c.rng,
		Seed:    c.seed,
		Sparkle: c.sparkle,
		Ports:   c.ports,
		Pointer: c.pointer,
		SRAM:    c.sram,
	}
	blob, err := binary.Append(make([]byte, 0, stateSize), binary.LittleEndian, &s)
	if err != nil {
		return nil, fmt.Errorf("sandbox: encode state: %w", err)
	}
	return blob, nil
}

// UnserializeState restores a blob produced by SerializeState. Blobs of the
// wrong size, magic or version are rejected and leave the machine untouched.
func (c *Core) UnserializeState(blob core.SaveBlob) bool {
	if c.image.Data == nil || len(blob) != stateSize {
		return false
	}
	var s snapshot
	if _, err := binary.Decode(blob, binary.LittleEndian, &s); err != nil {
		return false
	}
	if s.Magic != stateMagic || s.Version != stateVersion {
		return false
	}
	if s.Speed < 1 || s.Speed > 4 || int(s.Disk) >= len(c.disks) {
		return false
	}
	if int(s.Disk) != c.disk {
		img, err := c.loader.Load(c.disks[s.Disk])
		if err != nil {
			return false
		}
		c.image = img
		c.disk = int(s.Disk)
	}

	c.speed = int(s.Speed)
	c.trail = s.Trail
	c.frame = s.Frame
	c.rng = s.RNG
	c.seed = s.Seed
	c.sparkle = s.Sparkle
	c.ports = s.Ports
	c.pointer = s.Pointer
	c.sram = s.SRAM
	return true
}
