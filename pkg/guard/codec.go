package guard

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MaxLabelLength is the maximum byte length of a group label.
const MaxLabelLength = 6

// featuresSize is the size of the feature bitmask heading each guard area.
const featuresSize = 8

// SetSize returns the serialized size of one guard area: the feature
// bitmask plus every kind's fixed slot. Slots are always present, so a
// kind's absolute offset within the area never depends on which guards are
// enabled.
func SetSize() int {
	return featuresSize + totalSlotSize
}

// Group is a labeled override of the default guard set.
type Group struct {
	// Label identifies the group. 1 to MaxLabelLength bytes, unique
	// within a Data.
	Label string

	// Guards are the overriding configs.
	Guards *Set
}

// Data is the full guard configuration of one mint pool: a default set and
// zero or more labeled groups.
type Data struct {
	// Default applies when no group overrides a guard.
	Default *Set

	// Groups are evaluated by label; a mint request against a Data with
	// groups must name one.
	Groups []Group
}

// Marshal serializes the configuration:
//
//	default guard area | u32 group count | groups
//
// where each group is a MaxLabelLength-byte zero-padded label followed by
// its guard area. Fails with ErrExceededLength on an invalid label and
// ErrDuplicatedGroupLabel on a repeated one.
func (d *Data) Marshal() ([]byte, error) {
	if err := validateLabels(d.Groups); err != nil {
		return nil, err
	}

	areaSize := SetSize()
	buf := make([]byte, areaSize+4+len(d.Groups)*(MaxLabelLength+areaSize))
	encodeSet(buf[0:areaSize], d.Default)
	binary.LittleEndian.PutUint32(buf[areaSize:areaSize+4], uint32(len(d.Groups)))

	cursor := areaSize + 4
	for _, group := range d.Groups {
		copy(buf[cursor:cursor+MaxLabelLength], []byte(group.Label))
		encodeSet(buf[cursor+MaxLabelLength:cursor+MaxLabelLength+areaSize], group.Guards)
		cursor += MaxLabelLength + areaSize
	}
	return buf, nil
}

// Unmarshal deserializes a configuration buffer.
func Unmarshal(data []byte) (*Data, error) {
	areaSize := SetSize()
	if len(data) < areaSize+4 {
		return nil, fmt.Errorf("%w: buffer too short (%d bytes)", ErrDeserialization, len(data))
	}

	defaultSet, err := decodeSet(data[0:areaSize])
	if err != nil {
		return nil, err
	}
	count := int(binary.LittleEndian.Uint32(data[areaSize : areaSize+4]))
	if len(data) != areaSize+4+count*(MaxLabelLength+areaSize) {
		return nil, fmt.Errorf("%w: buffer length %d does not match %d groups", ErrDeserialization, len(data), count)
	}

	d := &Data{Default: defaultSet}
	cursor := areaSize + 4
	for i := 0; i < count; i++ {
		label := decodeLabel(data[cursor : cursor+MaxLabelLength])
		set, err := decodeSet(data[cursor+MaxLabelLength : cursor+MaxLabelLength+areaSize])
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", label, err)
		}
		d.Groups = append(d.Groups, Group{Label: label, Guards: set})
		cursor += MaxLabelLength + areaSize
	}
	if err := validateLabels(d.Groups); err != nil {
		return nil, err
	}
	return d, nil
}

// Resolve returns the effective guard set for label without decoding the
// groups it skips: non-matching groups advance the cursor by their fixed
// encoded size and only their label bytes are inspected.
//
// A buffer with groups requires a label (ErrRequiredGroupLabel); a label
// against a buffer whose groups do not include it is ErrGroupNotFound.
func Resolve(data []byte, label string) (*Set, error) {
	areaSize := SetSize()
	if len(data) < areaSize+4 {
		return nil, fmt.Errorf("%w: buffer too short (%d bytes)", ErrDeserialization, len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[areaSize : areaSize+4]))
	if len(data) != areaSize+4+count*(MaxLabelLength+areaSize) {
		return nil, fmt.Errorf("%w: buffer length %d does not match %d groups", ErrDeserialization, len(data), count)
	}

	if label == "" {
		if count > 0 {
			return nil, ErrRequiredGroupLabel
		}
		return decodeSet(data[0:areaSize])
	}
	if len(label) > MaxLabelLength {
		return nil, fmt.Errorf("%w: label %q", ErrExceededLength, label)
	}

	var want [MaxLabelLength]byte
	copy(want[:], label)

	cursor := areaSize + 4
	for i := 0; i < count; i++ {
		if bytes.Equal(data[cursor:cursor+MaxLabelLength], want[:]) {
			defaultSet, err := decodeSet(data[0:areaSize])
			if err != nil {
				return nil, err
			}
			group, err := decodeSet(data[cursor+MaxLabelLength : cursor+MaxLabelLength+areaSize])
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", label, err)
			}
			return defaultSet.Merge(group), nil
		}
		cursor += MaxLabelLength + areaSize
	}
	return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, label)
}

// Features reads the default set's feature bitmask from a serialized
// buffer without decoding anything else.
func Features(data []byte) (uint64, error) {
	if len(data) < featuresSize {
		return 0, fmt.Errorf("%w: buffer too short (%d bytes)", ErrDeserialization, len(data))
	}
	return binary.LittleEndian.Uint64(data[0:featuresSize]), nil
}

func encodeSet(buf []byte, s *Set) {
	if s == nil {
		s = &Set{}
	}
	binary.LittleEndian.PutUint64(buf[0:featuresSize], s.Features())
	for k := Kind(0); k < KindCount; k++ {
		if g := slots[k].get(s); g != nil {
			start := featuresSize + k.Offset()
			g.marshal(buf[start : start+k.Size()])
		}
	}
}

func decodeSet(buf []byte) (*Set, error) {
	features := binary.LittleEndian.Uint64(buf[0:featuresSize])
	if features>>uint(KindCount) != 0 {
		return nil, fmt.Errorf("%w: unknown feature bits %#x", ErrDeserialization, features)
	}

	s := &Set{}
	for k := Kind(0); k < KindCount; k++ {
		if features&k.Mask() == 0 {
			continue
		}
		start := featuresSize + k.Offset()
		g, err := slots[k].decode(buf[start : start+k.Size()])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		slots[k].assign(s, g)
	}
	return s, nil
}

func validateLabels(groups []Group) error {
	seen := make(map[string]bool, len(groups))
	for _, group := range groups {
		if group.Label == "" || len(group.Label) > MaxLabelLength {
			return fmt.Errorf("%w: label %q", ErrExceededLength, group.Label)
		}
		if seen[group.Label] {
			return fmt.Errorf("%w: %q", ErrDuplicatedGroupLabel, group.Label)
		}
		seen[group.Label] = true
	}
	return nil
}

func decodeLabel(buf []byte) string {
	return string(bytes.TrimRight(buf, "\x00"))
}
