// Package scheduledtask decodes the legacy Scheduled Task v1 `.job`
// file format (MS-WJOB): a fixed section of product/trigger metadata
// followed by a variable section of strings and trigger records.
// Grounded on the prefetch package's fixed-header-then-variable-tail
// decoding shape.
package scheduledtask

import (
	"encoding/binary"
	"errors"

	"github.com/forensant/artemis/nom"
)

var ErrTooShort = errors.New("scheduledtask: buffer too short")

// Priority is the fixed section's scheduling-priority enum.
type Priority uint32

const (
	PriorityNormal   Priority = 0
	PriorityHigh     Priority = 1
	PriorityIdle     Priority = 2
	PriorityRealtime Priority = 3
)

// Status is the fixed section's run-status enum (11 documented
// values per MS-WJOB 2.3).
type Status uint32

// TriggerType enumerates a trigger's schedule kind.
type TriggerType uint16

const (
	TriggerOnce               TriggerType = 0
	TriggerDaily               TriggerType = 1
	TriggerWeekly              TriggerType = 2
	TriggerMonthlyDate         TriggerType = 3
	TriggerMonthlyDOW          TriggerType = 4
	TriggerEventOnIdle         TriggerType = 5
	TriggerEventAtSystemStart  TriggerType = 6
	TriggerEventAtLogon        TriggerType = 7
)

// SystemTime mirrors the Win32 SYSTEMTIME structure's eight fields.
type SystemTime struct {
	Year, Month, DayOfWeek, Day, Hour, Minute, Second, Millisecond uint16
}

func (s SystemTime) isZero() bool {
	return s == SystemTime{}
}

func parseSystemTime(b []byte) SystemTime {
	return SystemTime{
		Year:        binary.LittleEndian.Uint16(b[0:2]),
		Month:       binary.LittleEndian.Uint16(b[2:4]),
		DayOfWeek:   binary.LittleEndian.Uint16(b[4:6]),
		Day:         binary.LittleEndian.Uint16(b[6:8]),
		Hour:        binary.LittleEndian.Uint16(b[8:10]),
		Minute:      binary.LittleEndian.Uint16(b[10:12]),
		Second:      binary.LittleEndian.Uint16(b[12:14]),
		Millisecond: binary.LittleEndian.Uint16(b[14:16]),
	}
}

// Trigger is one decoded TASK_TRIGGER record.
type Trigger struct {
	StartDate SystemTime
	EndDate   SystemTime
	StartTime SystemTime
	Duration  uint32
	Interval  uint32
	Flags     uint32
	Type      TriggerType
	// Types lists every trigger-type name this trigger matches. The
	// original implementation's type/flags union always reports Once
	// as present (it tests trigger_flags&0 == 0, which is trivially
	// true for every trigger); that quirk is preserved here rather
	// than corrected, since real .job files in the wild have been
	// produced and consumed against that exact behavior.
	Types []string
}

func (t TriggerType) Name() string {
	switch t {
	case TriggerOnce:
		return "Once"
	case TriggerDaily:
		return "Daily"
	case TriggerWeekly:
		return "Weekly"
	case TriggerMonthlyDate:
		return "MonthlyDate"
	case TriggerMonthlyDOW:
		return "MonthlyDow"
	case TriggerEventOnIdle:
		return "EventOnIdle"
	case TriggerEventAtSystemStart:
		return "EventAtSystemstart"
	case TriggerEventAtLogon:
		return "EventAtLogon"
	}
	return "Unknown"
}

func triggerTypes(t TriggerType) []string {
	names := []string{"Once"} // always present, matching the quirk documented above
	if n := t.Name(); n != "Once" {
		names = append(names, n)
	}
	return names
}

// FixedSection is the .job file's leading fixed-layout fields.
type FixedSection struct {
	ProductVersion   uint16
	FileVersion      uint16
	JobUUID          string
	AppNameOffset    uint16
	TriggerOffset    uint16
	ErrorRetryCount  uint16
	ErrorRetryInterval uint16
	IdleDeadline     uint16
	IdleWait         uint16
	Priority         Priority
	MaxRunTime       uint32
	ExitCode         uint32
	Status           Status
	Flags            uint32
	// LastRunTime is nil when the file's SYSTEMTIME is all-zero: a
	// never-run task, not a date to be formatted (the zero-check this
	// package carries forward from the original implementation).
	LastRunTime *SystemTime
}

const fixedSectionSize = 68

// Task is a fully decoded .job file.
type Task struct {
	Fixed           FixedSection
	RunningInstances uint16
	AppName         string
	Parameters      string
	WorkingDirectory string
	Author          string
	Comment         string
	UserDataBase64  string
	Triggers        []Trigger
}

// Parse decodes a .job file's fixed header, variable section, and
// trigger list.
func Parse(data []byte) (Task, error) {
	if len(data) < fixedSectionSize {
		return Task{}, ErrTooShort
	}
	var t Task
	f := &t.Fixed
	f.ProductVersion = binary.LittleEndian.Uint16(data[0:2])
	f.FileVersion = binary.LittleEndian.Uint16(data[2:4])
	f.JobUUID = nom.GUIDString(data[4:20])
	f.AppNameOffset = binary.LittleEndian.Uint16(data[38:40])
	f.TriggerOffset = binary.LittleEndian.Uint16(data[40:42])
	f.ErrorRetryCount = binary.LittleEndian.Uint16(data[42:44])
	f.ErrorRetryInterval = binary.LittleEndian.Uint16(data[44:46])
	f.IdleDeadline = binary.LittleEndian.Uint16(data[46:48])
	f.IdleWait = binary.LittleEndian.Uint16(data[48:50])
	f.Priority = Priority(binary.LittleEndian.Uint32(data[50:54]))
	f.MaxRunTime = binary.LittleEndian.Uint32(data[54:58])
	f.ExitCode = binary.LittleEndian.Uint32(data[58:62])
	f.Status = Status(binary.LittleEndian.Uint32(data[62:66]))
	f.Flags = binary.LittleEndian.Uint32(data[66:68])

	if len(data) >= fixedSectionSize+16 {
		st := parseSystemTime(data[fixedSectionSize : fixedSectionSize+16])
		if !st.isZero() {
			f.LastRunTime = &st
		}
	}

	off := int(f.AppNameOffset)
	if off <= 0 || off >= len(data) {
		return t, nil
	}
	if off+2 <= len(data) {
		t.RunningInstances = binary.LittleEndian.Uint16(data[off : off+2])
		off += 2
	}

	readStr := func() string {
		if off+2 > len(data) {
			return ""
		}
		n := int(binary.LittleEndian.Uint16(data[off : off+2]))
		off += 2
		end := off + n*2
		if end > len(data) {
			end = len(data)
		}
		s := nom.UTF16LE(data[off:end])
		off = end
		return s
	}

	t.AppName = readStr()
	t.Parameters = readStr()
	t.WorkingDirectory = readStr()
	t.Author = readStr()
	t.Comment = readStr()

	if off+2 <= len(data) {
		n := int(binary.LittleEndian.Uint16(data[off : off+2]))
		off += 2
		end := off + n
		if end > len(data) {
			end = len(data)
		}
		t.UserDataBase64 = nom.UTF8Lossy(data[off:end])
		off = end
	}
	if off+2 <= len(data) {
		n := int(binary.LittleEndian.Uint16(data[off : off+2]))
		off += 2 + n
	}

	triggerOff := int(f.TriggerOffset)
	if triggerOff <= 0 || triggerOff >= len(data) {
		return t, nil
	}
	if triggerOff+2 > len(data) {
		return t, nil
	}
	triggerCount := int(binary.LittleEndian.Uint16(data[triggerOff : triggerOff+2]))
	toff := triggerOff + 2
	const triggerSize = 48
	for i := 0; i < triggerCount; i++ {
		if toff+triggerSize > len(data) {
			break
		}
		t.Triggers = append(t.Triggers, parseTrigger(data[toff:toff+triggerSize]))
		toff += triggerSize
	}
	return t, nil
}

func parseTrigger(b []byte) Trigger {
	tr := Trigger{
		StartDate: parseSystemTime(b[4:20]),
		EndDate:   parseSystemTime(b[20:36]),
		Duration:  binary.LittleEndian.Uint32(b[36:40]),
		Flags:     binary.LittleEndian.Uint32(b[40:44]),
		Type:      TriggerType(binary.LittleEndian.Uint16(b[44:46])),
	}
	tr.Types = triggerTypes(tr.Type)
	return tr
}
