package stateio

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/openrack/stateio/drivers"
)

// fakeTransport records schema and status deliveries for assertions.
type fakeTransport struct {
	configSchemas  []map[string]any
	commandSchemas []map[string]any
	statuses       [][]byte

	publishErr error
}

func (ft *fakeTransport) SetConfigSchema(doc map[string]any) error {
	ft.configSchemas = append(ft.configSchemas, doc)
	return nil
}

func (ft *fakeTransport) SetCommandSchema(doc map[string]any) error {
	ft.commandSchemas = append(ft.commandSchemas, doc)
	return nil
}

func (ft *fakeTransport) PublishStatus(payload []byte) error {
	if ft.publishErr != nil {
		return ft.publishErr
	}
	ft.statuses = append(ft.statuses, payload)
	return nil
}

type testKit struct {
	sk        *StateIO
	bus       *drivers.MockBus
	transport *fakeTransport
	failover  *bytes.Buffer
}

// newTestKit boots a StateIO against a mock bus with the given
// partition persisted up front, the way a previous provisioning run
// would have left it.
func newTestKit(t *testing.T, partition PartitionConfig, present []uint8) *testKit {
	t.Helper()

	settingsPath := filepath.Join(t.TempDir(), "settings.json")

	ioConfig, err := IoConfigName(partition.OutputStart)
	if err != nil {
		t.Fatalf("bad partition for test: %v", err)
	}
	store := SettingsStore{Path: settingsPath}
	err = store.Save(Settings{IoConfig: ioConfig, OutputsPerMcp: partition.OutputsPerDevice})
	if err != nil {
		t.Fatalf("failed seeding settings: %v", err)
	}

	kit := &testKit{
		sk:        &StateIO{Name: "test", SettingsFile: settingsPath},
		bus:       &drivers.MockBus{Present: present},
		transport: &fakeTransport{},
		failover:  &bytes.Buffer{},
	}

	err = kit.sk.Setup(kit.bus, kit.transport)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	// Capture the failover sink instead of spamming stderr.
	kit.sk.failover = log.New(kit.failover)

	return kit
}

func (kit *testKit) lastStatus(t *testing.T) []byte {
	t.Helper()
	if len(kit.transport.statuses) == 0 {
		t.Fatal("no status published")
	}
	return kit.transport.statuses[len(kit.transport.statuses)-1]
}
