// Package secdescriptor decodes a Windows SECURITY_DESCRIPTOR
// (self-relative form): the fixed header plus owner/group SIDs and
// DACL/SACL access-control lists it points into. Grounded on the
// registry package's cell-offset-chasing style (§4.2.4) applied to
// MS-DTYP's security descriptor layout, since security descriptors
// are what a registry SK cell or an NTFS $SECURITY stream ultimately
// points to.
package secdescriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrTooShort     = errors.New("secdescriptor: buffer too short")
	ErrBadRevision  = errors.New("secdescriptor: unsupported revision")
	ErrBadSIDLength = errors.New("secdescriptor: SID subauthority count out of bounds")
)

// Control bits, per MS-DTYP 2.4.6.
const (
	ControlSelfRelative uint16 = 0x8000
	ControlDaclPresent  uint16 = 0x0004
	ControlSaclPresent  uint16 = 0x0010
)

// SID is a decoded Windows security identifier.
type SID struct {
	Revision       byte
	Authority      uint64
	SubAuthorities []uint32
}

// String renders the canonical "S-1-5-21-..." textual SID form.
func (s SID) String() string {
	out := fmt.Sprintf("S-%d-%d", s.Revision, s.Authority)
	for _, sa := range s.SubAuthorities {
		out += fmt.Sprintf("-%d", sa)
	}
	return out
}

// ACE is one decoded access-control-list entry.
type ACE struct {
	Type  byte
	Flags byte
	Mask  uint32
	SID   SID
}

// ACL is a decoded DACL or SACL.
type ACL struct {
	Revision byte
	Entries  []ACE
}

// SecurityDescriptor is the fully decoded structure.
type SecurityDescriptor struct {
	Revision byte
	Control  uint16
	Owner    *SID
	Group    *SID
	DACL     *ACL
	SACL     *ACL
}

const headerSize = 20

// Parse decodes a self-relative security descriptor.
func Parse(data []byte) (SecurityDescriptor, error) {
	if len(data) < headerSize {
		return SecurityDescriptor{}, ErrTooShort
	}
	sd := SecurityDescriptor{
		Revision: data[0],
		Control:  binary.LittleEndian.Uint16(data[2:4]),
	}
	if sd.Revision != 1 {
		return SecurityDescriptor{}, ErrBadRevision
	}

	ownerOff := binary.LittleEndian.Uint32(data[4:8])
	groupOff := binary.LittleEndian.Uint32(data[8:12])
	saclOff := binary.LittleEndian.Uint32(data[12:16])
	daclOff := binary.LittleEndian.Uint32(data[16:20])

	if ownerOff != 0 {
		if sid, err := ParseSID(sliceFrom(data, ownerOff)); err == nil {
			sd.Owner = &sid
		}
	}
	if groupOff != 0 {
		if sid, err := ParseSID(sliceFrom(data, groupOff)); err == nil {
			sd.Group = &sid
		}
	}
	if sd.Control&ControlDaclPresent != 0 && daclOff != 0 {
		if acl, err := parseACL(sliceFrom(data, daclOff)); err == nil {
			sd.DACL = &acl
		}
	}
	if sd.Control&ControlSaclPresent != 0 && saclOff != 0 {
		if acl, err := parseACL(sliceFrom(data, saclOff)); err == nil {
			sd.SACL = &acl
		}
	}
	return sd, nil
}

func sliceFrom(data []byte, off uint32) []byte {
	if int(off) >= len(data) {
		return nil
	}
	return data[off:]
}

// ParseSID decodes one SID structure: 1-byte revision, 1-byte
// subauthority count, 6-byte big-endian authority, then that many
// little-endian uint32 subauthorities.
func ParseSID(data []byte) (SID, error) {
	if len(data) < 8 {
		return SID{}, ErrTooShort
	}
	rev := data[0]
	count := int(data[1])
	if count > 15 {
		return SID{}, ErrBadSIDLength
	}
	var authBytes [8]byte
	copy(authBytes[2:], data[2:8])
	authority := binary.BigEndian.Uint64(authBytes[:])

	need := 8 + count*4
	if len(data) < need {
		return SID{}, ErrTooShort
	}
	subs := make([]uint32, count)
	for i := 0; i < count; i++ {
		subs[i] = binary.LittleEndian.Uint32(data[8+i*4 : 12+i*4])
	}
	return SID{Revision: rev, Authority: authority, SubAuthorities: subs}, nil
}

const aceHeaderSize = 4

func parseACL(data []byte) (ACL, error) {
	if len(data) < 8 {
		return ACL{}, ErrTooShort
	}
	acl := ACL{Revision: data[0]}
	aceCount := int(binary.LittleEndian.Uint16(data[4:6]))
	off := 8
	for i := 0; i < aceCount; i++ {
		if off+aceHeaderSize > len(data) {
			break
		}
		aceType := data[off]
		aceFlags := data[off+1]
		aceSize := int(binary.LittleEndian.Uint16(data[off+2 : off+4]))
		if aceSize < aceHeaderSize+4 || off+aceSize > len(data) {
			break
		}
		body := data[off+aceHeaderSize : off+aceSize]
		if len(body) < 4 {
			break
		}
		mask := binary.LittleEndian.Uint32(body[0:4])
		sid, err := ParseSID(body[4:])
		if err == nil {
			acl.Entries = append(acl.Entries, ACE{Type: aceType, Flags: aceFlags, Mask: mask, SID: sid})
		}
		off += aceSize
	}
	return acl, nil
}
