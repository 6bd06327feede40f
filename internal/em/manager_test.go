package em

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/amdem/internal/amdipmi"
	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
	"github.com/sigreer/amdem/internal/ipmi"
	"github.com/sigreer/amdem/internal/platform"
)

const sataController = "/nonexistent/sys/devices/pci0000:00/0000:00:08.1/ata3/host2"

type countingTransport struct {
	calls int
	value byte
	err   error
}

func (c *countingTransport) Send(_ context.Context, req ipmi.Request) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if len(req.Data) == 5 {
		return nil, nil
	}
	return []byte{c.value}, nil
}

type fakeBackend struct {
	enabled bool
	err     error
	writes  []ibpi.Pattern
}

func (f *fakeBackend) Enabled(context.Context, string) bool {
	return f.enabled
}

func (f *fakeBackend) Write(_ context.Context, _ *drive.BlockDevice, pattern ibpi.Pattern) error {
	f.writes = append(f.writes, pattern)
	return f.err
}

type memRecorder struct {
	events []Event
	err    error
}

func (r *memRecorder) Record(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func dmiDir(t *testing.T, product string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "product_name"), []byte(product+"\n"), 0644))
	return dir
}

func ipmiManager(t *testing.T, transport ipmi.Transport, rec Recorder) *Manager {
	t.Helper()
	return NewManager(Options{
		Detector:  platform.NewDetector(dmiDir(t, "ETHANOL-X")),
		Transport: transport,
		SlotsPath: t.TempDir(),
		Recorder:  rec,
	})
}

func TestManagerSelectsIPMIBackend(t *testing.T) {
	transport := &countingTransport{value: 98}
	m := ipmiManager(t, transport, nil)

	assert.Equal(t, platform.EthanolX, m.Platform())
	assert.Equal(t, platform.IPMI, m.Interface())
	assert.Equal(t, "ETHANOL-X", m.ProductName())
	assert.True(t, m.Enabled(context.Background(), sataController))
	assert.Equal(t, 1, transport.calls)
}

func TestManagerUnknownPlatformUsesSGPIO(t *testing.T) {
	sgpio := &fakeBackend{enabled: true}
	transport := &countingTransport{value: 98}
	m := NewManager(Options{
		Detector:  platform.NewDetector(dmiDir(t, "SOME-OTHER-BOARD")),
		Transport: transport,
		SGPIO:     sgpio,
	})

	assert.Equal(t, platform.Unspecified, m.Platform())
	assert.Equal(t, platform.SGPIO, m.Interface())
	assert.True(t, m.Enabled(context.Background(), sataController))

	dev := &drive.BlockDevice{ControllerPath: sataController}
	require.NoError(t, m.Write(context.Background(), dev, ibpi.LocateOn))
	assert.Equal(t, []ibpi.Pattern{ibpi.LocateOn}, sgpio.writes)
	assert.Zero(t, transport.calls)
}

func TestManagerMissingDMIDefaultsToUnavailableSGPIO(t *testing.T) {
	transport := &countingTransport{value: 98}
	m := NewManager(Options{
		Detector:  platform.NewDetector(t.TempDir()),
		Transport: transport,
	})

	assert.Equal(t, platform.SGPIO, m.Interface())
	assert.False(t, m.Enabled(context.Background(), sataController))

	dev := &drive.BlockDevice{ControllerPath: sataController}
	err := m.Write(context.Background(), dev, ibpi.LocateOn)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, ibpi.Unknown, dev.PreviousPattern)
	assert.Zero(t, transport.calls)
}

func TestManagerWriteSuppressesUnchangedPattern(t *testing.T) {
	transport := &countingTransport{}
	rec := &memRecorder{}
	m := ipmiManager(t, transport, rec)

	dev := &drive.BlockDevice{ControllerPath: sataController, PreviousPattern: ibpi.FailedDrive}
	require.NoError(t, m.Write(context.Background(), dev, ibpi.FailedDrive))

	assert.Zero(t, transport.calls)
	assert.Equal(t, ibpi.FailedDrive, dev.PreviousPattern)
	require.Len(t, rec.events, 1)
	assert.True(t, rec.events[0].Suppressed)
	assert.NotEmpty(t, rec.events[0].RequestID)
}

func TestManagerWriteUpdatesPreviousPattern(t *testing.T) {
	transport := &countingTransport{}
	rec := &memRecorder{}
	m := ipmiManager(t, transport, rec)

	dev := &drive.BlockDevice{ControllerPath: sataController, PreviousPattern: ibpi.Normal}
	require.NoError(t, m.Write(context.Background(), dev, ibpi.LocateOn))

	// SMBUS control and locate, each read then written
	assert.Equal(t, 4, transport.calls)
	assert.Equal(t, ibpi.LocateOn, dev.PreviousPattern)

	require.NoError(t, m.Write(context.Background(), dev, ibpi.LocateOn))
	assert.Equal(t, 4, transport.calls)

	require.Len(t, rec.events, 2)
	assert.False(t, rec.events[0].Suppressed)
	assert.Equal(t, ibpi.Normal, rec.events[0].PreviousPattern)
	assert.Equal(t, platform.EthanolX, rec.events[0].Platform)
	assert.Equal(t, platform.IPMI, rec.events[0].Interface)
	assert.NoError(t, rec.events[0].Err)
	assert.NotEqual(t, rec.events[0].RequestID, rec.events[1].RequestID)
}

func TestManagerWriteFailureKeepsPreviousPattern(t *testing.T) {
	busErr := errors.New("bus error")
	transport := &countingTransport{err: busErr}
	rec := &memRecorder{err: errors.New("journal full")}
	m := ipmiManager(t, transport, rec)

	dev := &drive.BlockDevice{ControllerPath: sataController, PreviousPattern: ibpi.Normal}
	err := m.Write(context.Background(), dev, ibpi.Rebuild)

	assert.ErrorIs(t, err, amdipmi.ErrTransport)
	assert.ErrorIs(t, err, busErr)
	assert.Equal(t, ibpi.Normal, dev.PreviousPattern)
	require.Len(t, rec.events, 1)
	assert.Error(t, rec.events[0].Err)
}

func TestManagerWriteUnlocatableDrive(t *testing.T) {
	transport := &countingTransport{}
	m := ipmiManager(t, transport, nil)

	dev := &drive.BlockDevice{ControllerPath: "/nonexistent/sys/devices/platform/host0"}
	err := m.Write(context.Background(), dev, ibpi.LocateOn)

	assert.ErrorIs(t, err, drive.ErrNotFound)
	assert.Zero(t, transport.calls)
	assert.Equal(t, ibpi.Unknown, dev.PreviousPattern)
}

func TestManagerDetectsOnce(t *testing.T) {
	dir := dmiDir(t, "ETHANOL-X")
	m := NewManager(Options{
		Detector:  platform.NewDetector(dir),
		Transport: &countingTransport{},
	})
	assert.Equal(t, platform.IPMI, m.Interface())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "product_name"), []byte("DAYTONA-X\n"), 0644))
	assert.Equal(t, platform.IPMI, m.Interface())
	assert.Equal(t, platform.EthanolX, m.Platform())
}

func TestManagerPath(t *testing.T) {
	root := t.TempDir()
	host := filepath.Join(root, "ata1", "host0")
	require.NoError(t, os.MkdirAll(host, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(host, "em_buffer"), nil, 0644))

	m := NewManager(Options{Detector: platform.NewDetector(t.TempDir())})
	got, err := m.Path(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(host, "em_buffer"), got)
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{Name: "sgpio"}
	assert.False(t, u.Enabled(context.Background(), "/sys/block/sda"))
	err := u.Write(context.Background(), &drive.BlockDevice{}, ibpi.LocateOn)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "sgpio")
}
