package stateio

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Settings are the persisted partition values. They are written every
// time the protocol handler accepts a partition change and read back
// before hardware init on the next boot.
type Settings struct {
	IoConfig      string `json:"ioConfig,omitempty"`
	OutputsPerMcp uint8  `json:"outputsPerMcp,omitempty"`
}

// Partition resolves the stored values against the defaults.
func (s Settings) Partition() (PartitionConfig, error) {
	partition := DefaultPartition()

	if s.IoConfig != "" {
		outputStart, err := ParseIoConfig(s.IoConfig)
		if err != nil {
			return partition, err
		}
		partition.OutputStart = outputStart
	}

	if s.OutputsPerMcp != 0 {
		partition.OutputsPerDevice = s.OutputsPerMcp
	}

	return partition, partition.Validate()
}

// SettingsStore persists Settings as a small JSON file.
type SettingsStore struct {
	Path string
}

// Load reads the stored settings. A missing file is not an error, it
// just means defaults.
func (ss *SettingsStore) Load() (settings Settings, err error) {
	raw, readErr := os.ReadFile(ss.Path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return
		}
		err = errors.Wrapf(readErr, "failed reading settings file %s", ss.Path)
		return
	}

	err = json.Unmarshal(raw, &settings)
	if err != nil {
		err = errors.Wrapf(err, "failed unmarshalling settings file %s", ss.Path)
	}
	return
}

// Save writes settings through a temp file and rename, so a power cut
// mid-write cannot corrupt the stored values.
func (ss *SettingsStore) Save(settings Settings) error {
	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed marshalling settings")
	}

	tmp := filepath.Join(filepath.Dir(ss.Path), "."+filepath.Base(ss.Path)+".tmp")
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return errors.Wrapf(err, "failed writing settings file %s", tmp)
	}

	if err := os.Rename(tmp, ss.Path); err != nil {
		return errors.Wrapf(err, "failed replacing settings file %s", ss.Path)
	}

	return nil
}
