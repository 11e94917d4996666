package provisioning

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Stage is a step of a provisioning run.
type Stage int

const (
	StageIdle Stage = iota
	StagePreparing
	StageFormatting
	StageCopying
	StageFinalizing
	StageCompleted
	StageError
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StagePreparing:
		return "Preparing"
	case StageFormatting:
		return "Formatting"
	case StageCopying:
		return "Copying"
	case StageFinalizing:
		return "Finalizing"
	case StageCompleted:
		return "Completed"
	case StageError:
		return "Error"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Active reports whether the stage belongs to a run in progress.
func (s Stage) Active() bool {
	return s >= StagePreparing && s <= StageFinalizing
}

// MarshalText implements encoding.TextMarshaler
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Stage) UnmarshalText(text []byte) error {
	for st := StageIdle; st <= StageError; st++ {
		if strings.EqualFold(st.String(), string(text)) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// stageThresholds maps the lowest percentage of each stage.
var stageThresholds = []struct {
	percent int
	stage   Stage
}{
	{0, StagePreparing},
	{5, StageFormatting},
	{25, StageCopying},
	{90, StageFinalizing},
	{100, StageCompleted},
}

// StageFor returns the stage of a running job at percent: the last threshold
// not above it. Out-of-range values are clamped to 0..100.
func StageFor(percent int) Stage {
	percent = clamp(percent)
	stage := StagePreparing
	for _, t := range stageThresholds {
		if t.percent <= percent {
			stage = t.stage
		}
	}
	return stage
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// PartitionScheme is the partition table written to the drive.
type PartitionScheme string

// TargetFirmware is the firmware mode the drive boots under.
type TargetFirmware string

// FileSystem is the file system the drive is formatted with.
type FileSystem string

const (
	PartitionGPT PartitionScheme = "GPT"
	PartitionMBR PartitionScheme = "MBR"

	FirmwareUEFI TargetFirmware = "UEFI"
	FirmwareBIOS TargetFirmware = "BIOS"

	FileSystemFAT32 FileSystem = "FAT32"
	FileSystemNTFS  FileSystem = "NTFS"
)

// ParsePartitionScheme parses "gpt" or "mbr" (case-insensitive).
func ParsePartitionScheme(s string) (PartitionScheme, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GPT":
		return PartitionGPT, nil
	case "MBR":
		return PartitionMBR, nil
	}
	return "", fmt.Errorf("%w: partition scheme %q (expected GPT or MBR)", ErrInvalidSettings, s)
}

// ParseTargetFirmware parses "uefi" or "bios" (case-insensitive).
func ParseTargetFirmware(s string) (TargetFirmware, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UEFI":
		return FirmwareUEFI, nil
	case "BIOS", "CSM":
		return FirmwareBIOS, nil
	}
	return "", fmt.Errorf("%w: target system %q (expected UEFI or BIOS)", ErrInvalidSettings, s)
}

// ParseFileSystem parses "fat32" or "ntfs" (case-insensitive).
func ParseFileSystem(s string) (FileSystem, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FAT32":
		return FileSystemFAT32, nil
	case "NTFS":
		return FileSystemNTFS, nil
	}
	return "", fmt.Errorf("%w: file system %q (expected FAT32 or NTFS)", ErrInvalidSettings, s)
}

// Settings are the user-chosen parameters of a run.
type Settings struct {
	DeviceID   string          `json:"deviceId"`
	ImagePath  string          `json:"imagePath"`
	Partition  PartitionScheme `json:"partitionScheme"`
	Firmware   TargetFirmware  `json:"targetSystem"`
	FileSystem FileSystem      `json:"fileSystem"`
}

// DefaultSettings returns the settings a new session starts with.
func DefaultSettings() Settings {
	return Settings{
		DeviceID:   "usb-1",
		Partition:  PartitionGPT,
		Firmware:   FirmwareUEFI,
		FileSystem: FileSystemNTFS,
	}
}

// Validate checks the enumerated fields.
func (s Settings) Validate() error {
	if _, err := ParsePartitionScheme(string(s.Partition)); err != nil {
		return err
	}
	if _, err := ParseTargetFirmware(string(s.Firmware)); err != nil {
		return err
	}
	if _, err := ParseFileSystem(string(s.FileSystem)); err != nil {
		return err
	}
	if strings.TrimSpace(s.DeviceID) == "" {
		return fmt.Errorf("%w: no target device selected", ErrInvalidSettings)
	}
	return nil
}

// imageName keeps only the file name of a chosen image.
func imageName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	// accept Windows separators even when running elsewhere
	path = strings.ReplaceAll(path, `\`, "/")
	return filepath.Base(filepath.FromSlash(path))
}

// Snapshot is the observable state of a simulator.
type Snapshot struct {
	Settings
	Stage   Stage  `json:"stage"`
	Percent int    `json:"progress"`
	Label   string `json:"label"`
	Reason  string `json:"reason,omitempty"`
}

// Active reports whether a run is in progress.
func (s Snapshot) Active() bool {
	return s.Stage.Active()
}

// EventKind distinguishes simulator events.
type EventKind string

const (
	// EventProgress is emitted on every tick
	EventProgress EventKind = "progress"
	// EventTransition is emitted when the stage changes
	EventTransition EventKind = "transition"
	// EventSettings is emitted when Configure changes the settings
	EventSettings EventKind = "settings"
)

// Event is delivered to subscribers.
type Event struct {
	Kind     EventKind `json:"kind"`
	Previous Stage     `json:"previous"`
	Snapshot Snapshot  `json:"snapshot"`
}
