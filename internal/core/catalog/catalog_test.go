package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/executor/process"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
)

func testConfig() *config.Config {
	return &config.Config{
		Master: &config.MasterConfig{BaseURL: "http://mothership.local/api/", Key: "k3y"},
		Device: &config.DeviceConfig{
			Path:       "/dev/video0",
			StreamIP:   "10.0.0.2",
			StillName:  "still.jpg",
			SnapName:   "snap.mp4",
			RecordTime: 300,
			WorkDir:    "/var/lib/agent",
		},
	}
}

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(testConfig())
	require.NoError(t, err)
	return c
}

func TestResolve_InstantTable(t *testing.T) {
	c := newCatalog(t)

	cases := []struct {
		code    Code
		instant bool
		upload  bool
	}{
		{StartCamera, false, true},
		{StopCapture, true, false},
		{StartStream, false, false},
		{StillImage, false, true},
		{PerformUpdate, true, false},
		{Shutdown, true, false},
		{Heartbeat, true, false},
	}

	for _, tc := range cases {
		t.Run(c.Name(tc.code), func(t *testing.T) {
			d := c.Resolve(modelComm.Command{ID: 1, Cmd: int(tc.code)})
			assert.True(t, d.ShellCommand.IsSet())
			assert.Equal(t, tc.instant, d.Instant)
			assert.Equal(t, tc.upload, d.UploadPath != "")
		})
	}
}

func TestResolve_UnknownCodeIsInert(t *testing.T) {
	c := newCatalog(t)

	for _, code := range []int{0, -1, 3, 999, 10000} {
		d := c.Resolve(modelComm.Command{ID: 5, Cmd: code, Params: map[string]interface{}{"vf": true}})
		assert.False(t, d.ShellCommand.IsSet(), "code %d", code)
		assert.Empty(t, d.UploadPath)
		assert.False(t, d.Instant)
	}
	assert.Equal(t, "unknown", c.Name(Code(999)))
}

func TestResolve_StillImageScenario(t *testing.T) {
	c := newCatalog(t)

	d := c.Resolve(modelComm.Command{ID: 7, Cmd: int(StillImage), Params: map[string]interface{}{}})

	require.True(t, d.ShellCommand.IsSet())
	assert.False(t, d.Instant)
	assert.Equal(t, "/var/lib/agent/still.jpg", d.UploadPath)

	shell, _ := d.ShellCommand.Get()
	assert.Contains(t, shell, "-i /dev/video0")
	assert.Contains(t, shell, "-t 300")
	assert.True(t, strings.HasSuffix(shell, "-vframes 1 -y still.jpg"))
}

func TestResolve_StreamUsesKeyAndAddress(t *testing.T) {
	c := newCatalog(t)

	d := c.Resolve(modelComm.Command{ID: 2, Cmd: int(StartStream)})
	shell, ok := d.ShellCommand.Get()
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(shell, "rtmp://10.0.0.2/app/k3y"))
}

func TestResolve_StreamKeyKeptLiteral(t *testing.T) {
	for _, key := range []string{"ab$HOME cd", "ab cd", "it's", `a"b\c`, "k3y"} {
		t.Run(key, func(t *testing.T) {
			cfg := testConfig()
			cfg.Master.Key = key
			cfg.Device.Path = "/dev/video 0"
			c, err := New(cfg)
			require.NoError(t, err)

			shell, ok := c.Resolve(modelComm.Command{ID: 2, Cmd: int(StartStream)}).ShellCommand.Get()
			require.True(t, ok)

			stages, err := process.Parse(shell)
			require.NoError(t, err)
			require.Len(t, stages, 1)
			args := stages[0].Args
			assert.Equal(t, "rtmp://10.0.0.2/app/"+key, args[len(args)-1])
			assert.Contains(t, args, "/dev/video 0")
		})
	}
}

func TestResolve_UnquotableValueIsInert(t *testing.T) {
	cfg := testConfig()
	cfg.Master.Key = "k\x00y"
	c, err := New(cfg)
	require.NoError(t, err)

	d := c.Resolve(modelComm.Command{Cmd: int(StartStream)})
	assert.False(t, d.ShellCommand.IsSet())
}

func TestNew_OverrideQuoteFunc(t *testing.T) {
	cfg := testConfig()
	cfg.Commands = map[string]string{"2": "pkill -f {{quote .Params.proc}}"}
	c, err := New(cfg)
	require.NoError(t, err)

	shell, _ := c.Resolve(modelComm.Command{Cmd: int(StopCapture), Params: map[string]interface{}{"proc": "ffmpeg $(reboot)"}}).ShellCommand.Get()
	stages, err := process.Parse(shell)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkill", "-f", "ffmpeg $(reboot)"}, stages[0].Args)

	shell, _ = c.Resolve(modelComm.Command{Cmd: int(StopCapture)}).ShellCommand.Get()
	assert.Equal(t, "pkill -f ''", shell)
}

func TestResolve_AbsoluteUploadPathKept(t *testing.T) {
	cfg := testConfig()
	cfg.Device.SnapName = "/tmp/clip.mp4"
	c, err := New(cfg)
	require.NoError(t, err)

	d := c.Resolve(modelComm.Command{Cmd: int(StartCamera)})
	assert.Equal(t, "/tmp/clip.mp4", d.UploadPath)
}

func TestNew_TemplateOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Commands = map[string]string{
		"502": "echo alive {{.ID}}",
		"2":   "pkill -f {{.Params.proc}}",
	}
	c, err := New(cfg)
	require.NoError(t, err)

	d := c.Resolve(modelComm.Command{ID: 11, Cmd: int(Heartbeat)})
	shell, _ := d.ShellCommand.Get()
	assert.Equal(t, "echo alive 11", shell)
	assert.True(t, d.Instant)

	d = c.Resolve(modelComm.Command{ID: 12, Cmd: int(StopCapture), Params: map[string]interface{}{"proc": "raspivid"}})
	shell, _ = d.ShellCommand.Get()
	assert.Equal(t, "pkill -f raspivid", shell)
}

func TestNew_InvalidTemplate(t *testing.T) {
	cfg := testConfig()
	cfg.Commands = map[string]string{"1": "ffmpeg {{.Device"}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_MissingDevice(t *testing.T) {
	_, err := New(&config.Config{})
	assert.Error(t, err)
}

func TestEntries_Sorted(t *testing.T) {
	entries := newCatalog(t).Entries()
	require.Len(t, entries, 7)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Code, entries[i].Code)
	}
}

func TestBuildFilterArgs(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{"defaults", map[string]interface{}{}, "-t 300"},
		{"flips", map[string]interface{}{"vf": true, "hf": 1}, "-vf vflip -vf hflip -t 300"},
		{"falsy flips", map[string]interface{}{"vf": false, "hf": "0"}, "-t 300"},
		{"duration", map[string]interface{}{"duration": 15.0}, "-t 15"},
		{"duration string", map[string]interface{}{"duration": "42"}, "-t 42"},
		{"duration inf", map[string]interface{}{"duration": "Inf"}, "-t 300"},
		{"duration nan", map[string]interface{}{"duration": "NaN"}, "-t 300"},
		{
			"crop",
			map[string]interface{}{"width": 50.0, "height": 25.0, "x": 10.0, "y": 20.0},
			"-t 300 -vf crop=w=iw*0.5:h=ih*0.25:x=iw*0.1:y=ih*0.2",
		},
		{
			"crop default offsets",
			map[string]interface{}{"width": 100, "height": 100},
			"-t 300 -vf crop=w=iw*1:h=ih*1:x=iw*0:y=ih*0",
		},
		{"crop needs both sides", map[string]interface{}{"width": 50.0}, "-t 300"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildFilterArgs(tc.params, 300))
		})
	}
}

func TestShellCommand(t *testing.T) {
	none := None()
	_, ok := none.Get()
	assert.False(t, ok)
	assert.Equal(t, "<none>", none.String())

	var zero ShellCommand
	assert.Equal(t, none, zero)

	some := Some("true")
	cmd, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "true", cmd)
}
