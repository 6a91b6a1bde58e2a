package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/executor/process"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
	block chan struct{}
	panic bool
}

func (f *fakeRunner) Run(_ context.Context, cmdline string) (*process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmdline)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.panic {
		panic("runner exploded")
	}
	code := 0
	if f.err != nil {
		code = 1
	}
	return &process.Result{ExitCode: code, Stages: 1}, f.err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeWaiter struct {
	mu    sync.Mutex
	ready bool
	paths []string
}

func (f *fakeWaiter) AwaitReady(_ context.Context, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.ready
}

type uploadCall struct {
	path  string
	token string
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []uploadCall
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, path, token string) (*modelComm.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadCall{path, token})
	if f.err != nil {
		return nil, f.err
	}
	return &modelComm.UploadResult{StatusCode: 200, Size: 1024}, nil
}

type fixture struct {
	runner   *fakeRunner
	waiter   *fakeWaiter
	uploader *fakeUploader
	deps     *Deps
	catalog  *catalog.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.New(&config.Config{
		Master: &config.MasterConfig{Key: "k"},
		Device: &config.DeviceConfig{
			Path:       "/dev/video0",
			StreamIP:   "10.0.0.2",
			StillName:  "still.jpg",
			SnapName:   "snap.mp4",
			RecordTime: 300,
		},
	})
	require.NoError(t, err)

	f := &fixture{
		runner:   &fakeRunner{},
		waiter:   &fakeWaiter{ready: true},
		uploader: &fakeUploader{},
		catalog:  cat,
	}
	f.deps = &Deps{Runner: f.runner, Waiter: f.waiter, Uploader: f.uploader, Tracker: NewTracker()}
	return f
}

func (f *fixture) build(cmd modelComm.Command) *StreamCommand {
	return New(cmd.ID, f.catalog.Resolve(cmd), f.deps)
}

func TestRun_StillImageUploadsOnce(t *testing.T) {
	f := newFixture(t)
	sc := f.build(modelComm.Command{ID: 7, Cmd: int(catalog.StillImage), Params: map[string]interface{}{}})
	require.False(t, sc.Instant)
	require.NotEmpty(t, sc.UploadPath)

	sc.SetToken("tok-7")
	sc.Run(context.Background())

	assert.Equal(t, 1, f.runner.count())
	assert.Equal(t, []string{"still.jpg"}, f.waiter.paths)
	require.Len(t, f.uploader.uploads, 1)
	assert.Equal(t, uploadCall{"still.jpg", "tok-7"}, f.uploader.uploads[0])
}

func TestRun_UploadDespiteProcessFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.err = process.ErrNonZeroExit

	sc := f.build(modelComm.Command{ID: 1, Cmd: int(catalog.StartCamera)})
	sc.SetToken("tok")
	sc.Run(context.Background())

	assert.Len(t, f.uploader.uploads, 1)
}

func TestRun_NotReadySkipsUpload(t *testing.T) {
	f := newFixture(t)
	f.waiter.ready = false

	sc := f.build(modelComm.Command{ID: 1, Cmd: int(catalog.StartCamera)})
	sc.Run(context.Background())

	assert.Len(t, f.waiter.paths, 1)
	assert.Empty(t, f.uploader.uploads)
}

func TestRun_NoUploadPath(t *testing.T) {
	f := newFixture(t)

	sc := f.build(modelComm.Command{ID: 3, Cmd: int(catalog.StartStream)})
	sc.Run(context.Background())

	assert.Equal(t, 1, f.runner.count())
	assert.Empty(t, f.waiter.paths)
	assert.Empty(t, f.uploader.uploads)
}

func TestRun_UploadErrorIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("connection reset")

	sc := f.build(modelComm.Command{ID: 1, Cmd: int(catalog.StillImage)})
	sc.Run(context.Background())

	assert.Len(t, f.uploader.uploads, 1)
}

func TestRunInstant_StopCaptureNeverUploads(t *testing.T) {
	f := newFixture(t)
	sc := f.build(modelComm.Command{ID: 9, Cmd: int(catalog.StopCapture)})
	require.True(t, sc.Instant)

	sc.RunInstant(context.Background())

	assert.Equal(t, []string{"killall ffmpeg"}, f.runner.calls)
	assert.Empty(t, f.waiter.paths)
	assert.Empty(t, f.uploader.uploads)
}

func TestRunInstant_SkipsUploadEvenWithPath(t *testing.T) {
	f := newFixture(t)
	sc := f.build(modelComm.Command{ID: 2, Cmd: int(catalog.StillImage)})

	sc.RunInstant(context.Background())

	assert.Equal(t, 1, f.runner.count())
	assert.Empty(t, f.waiter.paths)
	assert.Empty(t, f.uploader.uploads)
}

func TestRun_InertIsNoop(t *testing.T) {
	f := newFixture(t)
	sc := f.build(modelComm.Command{ID: 4, Cmd: 4242})
	require.True(t, sc.IsInert())

	sc.Run(context.Background())
	sc.RunInstant(context.Background())

	assert.Zero(t, f.runner.count())
	assert.Empty(t, f.waiter.paths)
	assert.Empty(t, f.uploader.uploads)
}

func TestLaunch_DoesNotBlockAndTracks(t *testing.T) {
	f := newFixture(t)
	f.runner.block = make(chan struct{})

	sc := f.build(modelComm.Command{ID: 5, Cmd: int(catalog.StartStream)})
	done := sc.Launch(context.Background())

	assert.Eventually(t, func() bool { return f.deps.Tracker.Len() == 1 }, time.Second, 5*time.Millisecond)
	snap := f.deps.Tracker.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, sc.RunID, snap[0].RunID)
	assert.Equal(t, 5, snap[0].ID)

	close(f.runner.block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("launched command did not finish")
	}
	assert.Zero(t, f.deps.Tracker.Len())
}

func TestLaunch_RecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.runner.panic = true

	sc := f.build(modelComm.Command{ID: 6, Cmd: int(catalog.StartStream)})
	select {
	case <-sc.Launch(context.Background()):
	case <-time.After(time.Second):
		t.Fatal("launched command did not finish")
	}
	assert.Zero(t, f.deps.Tracker.Len())
}

func TestRunInstant_RecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.runner.panic = true

	sc := f.build(modelComm.Command{ID: 7, Cmd: int(catalog.StopCapture)})
	assert.NotPanics(t, func() { sc.RunInstant(context.Background()) })
	assert.Equal(t, 1, f.runner.count())
	assert.Zero(t, f.deps.Tracker.Len())
}

func TestNew_UniqueRunIDs(t *testing.T) {
	f := newFixture(t)
	a := f.build(modelComm.Command{ID: 1, Cmd: int(catalog.Heartbeat)})
	b := f.build(modelComm.Command{ID: 1, Cmd: int(catalog.Heartbeat)})
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, "1 => true", a.String())
}
