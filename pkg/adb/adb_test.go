package adb

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/shlex"

	"github.com/zoeyai/droidauto/pkg/config"
)

type fakeCall struct {
	name string
	args []string
	line string
}

// fakeRunner 记录调用，由 handle 决定输出
type fakeRunner struct {
	mu     sync.Mutex
	calls  []fakeCall
	handle func(args []string) (string, string, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{name: name, args: append([]string(nil), args...)})
	f.mu.Unlock()
	return f.dispatch(args)
}

// RunLine 按 POSIX shell 规则拆分命令行，记录的参数即本机 shell 交给 adb 的参数
func (f *fakeRunner) RunLine(_ context.Context, line string) (string, string, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return "", "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{line: line, args: fields[1:]})
	f.mu.Unlock()
	return f.dispatch(fields[1:])
}

func (f *fakeRunner) dispatch(args []string) (string, string, error) {
	if f.handle == nil {
		return "", "", nil
	}
	return f.handle(args)
}

func (f *fakeRunner) argsList() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.args
	}
	return out
}

// stripSerial 去掉 -s 序列号前缀
func stripSerial(args []string) []string {
	if len(args) >= 2 && args[0] == "-s" {
		return args[2:]
	}
	return args
}

func connectedBridge(t *testing.T, runner *fakeRunner, opts ...Option) *Bridge {
	t.Helper()
	prev := runner.handle
	runner.handle = func(args []string) (string, string, error) {
		return "connected to 127.0.0.1:16384", "", nil
	}
	b := New(append([]Option{WithRunner(runner)}, opts...)...)
	if err := b.Connect(context.Background(), "127.0.0.1", 16384); err != nil {
		t.Fatalf("连接失败: %v", err)
	}
	runner.handle = prev
	runner.calls = nil
	return b
}

func TestConnect(t *testing.T) {
	runner := &fakeRunner{handle: func(args []string) (string, string, error) {
		return "connected to 127.0.0.1:16384\n", "", nil
	}}
	b := New(WithRunner(runner))

	if err := b.Connect(context.Background(), "127.0.0.1", 16384); err != nil {
		t.Fatalf("连接失败: %v", err)
	}
	if b.Serial() != "127.0.0.1:16384" || !b.Connected() {
		t.Errorf("序列号错误: %q", b.Serial())
	}
	want := [][]string{{"connect", "127.0.0.1:16384"}}
	if got := runner.argsList(); !reflect.DeepEqual(got, want) {
		t.Errorf("命令错误: %v", got)
	}
}

func TestConnectUnreachable(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"拒绝连接", "failed to connect to '127.0.0.1:16384': Connection refused", errors.New("exit status 1")},
		{"无法连接", "cannot connect to 127.0.0.1:16384: 由于目标计算机积极拒绝，无法连接。", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{handle: func(args []string) (string, string, error) {
				return tt.out, "", tt.err
			}}
			b := New(WithRunner(runner))

			err := b.Connect(context.Background(), "127.0.0.1", 16384)
			if !errors.Is(err, ErrConnectFailed) {
				t.Errorf("应返回 ErrConnectFailed: %v", err)
			}
			if b.Serial() != "" || b.Connected() {
				t.Errorf("连接失败时不应设置序列号: %q", b.Serial())
			}
		})
	}
}

func TestConnectMissingExecutable(t *testing.T) {
	b := New(WithADBPath(filepath.Join(t.TempDir(), "no-such-adb")))

	if err := b.Connect(context.Background(), "127.0.0.1", 16384); err == nil {
		t.Fatal("adb 不存在时应返回错误")
	}
	if b.Serial() != "" {
		t.Errorf("不应设置序列号: %q", b.Serial())
	}
}

func TestConnectDisconnectsFirst(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner)

	runner.handle = func(args []string) (string, string, error) {
		if args[0] == "connect" {
			return "connected to 127.0.0.1:7555", "", nil
		}
		return "", "", nil
	}
	if err := b.Connect(context.Background(), "127.0.0.1", 7555); err != nil {
		t.Fatalf("重新连接失败: %v", err)
	}

	want := [][]string{
		{"disconnect", "127.0.0.1:16384"},
		{"connect", "127.0.0.1:7555"},
	}
	if got := runner.argsList(); !reflect.DeepEqual(got, want) {
		t.Errorf("重连应先断开旧会话: %v", got)
	}
	if b.Serial() != "127.0.0.1:7555" {
		t.Errorf("序列号错误: %q", b.Serial())
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner)

	for i := 0; i < 2; i++ {
		if err := b.Disconnect(context.Background()); err != nil {
			t.Fatalf("第 %d 次断开失败: %v", i+1, err)
		}
	}
	if got := runner.argsList(); len(got) != 1 {
		t.Errorf("重复断开不应再执行命令: %v", got)
	}
	if b.Connected() {
		t.Error("断开后不应存在会话")
	}
}

func TestExecuteCommand(t *testing.T) {
	runner := &fakeRunner{handle: func(args []string) (string, string, error) {
		return "  ok\n", "", nil
	}}
	b := New(WithRunner(runner))

	out, err := b.ExecuteCommand(context.Background(), "shell getprop ro.product.model", true)
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if out != "ok" {
		t.Errorf("输出应去除首尾空白: %q", out)
	}
	// 未连接时不附加 -s
	want := []string{"shell", "getprop", "ro.product.model"}
	if got := runner.argsList()[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("命令错误: %v", got)
	}
}

func TestExecuteCommandQuoted(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{`push "/tmp/my file.png" /sdcard/x.png`, []string{"push", "/tmp/my file.png", "/sdcard/x.png"}},
		{`shell 'echo a  b'`, []string{"shell", "echo a  b"}},
		{`pull /sdcard/a\ b.png out.png`, []string{"pull", "/sdcard/a b.png", "out.png"}},
	}
	for _, tt := range tests {
		runner := &fakeRunner{}
		b := New(WithRunner(runner))
		if _, err := b.ExecuteCommand(context.Background(), tt.command, false); err != nil {
			t.Fatalf("%s: %v", tt.command, err)
		}
		if got := runner.argsList()[0]; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExecuteCommand(%s) 参数 = %q, want %q", tt.command, got, tt.want)
		}
	}
}

func TestExecuteCommandInvalid(t *testing.T) {
	runner := &fakeRunner{}
	b := New(WithRunner(runner))
	for _, command := range []string{"", "   ", `shell "unterminated`} {
		if _, err := b.ExecuteCommand(context.Background(), command, false); err == nil {
			t.Errorf("ExecuteCommand(%q) 应返回错误", command)
		}
	}
	if n := len(runner.argsList()); n != 0 {
		t.Errorf("无效命令不应执行, 实际 %d 次", n)
	}
}

func TestExecuteCommandWithDevice(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner)

	if _, err := b.ExecuteCommand(context.Background(), "shell ls", true); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ExecuteCommand(context.Background(), "devices", false); err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"-s", "127.0.0.1:16384", "shell", "ls"},
		{"devices"},
	}
	if got := runner.argsList(); !reflect.DeepEqual(got, want) {
		t.Errorf("命令错误: %v", got)
	}
}

func TestCommandError(t *testing.T) {
	cause := errors.New("exit status 1")
	runner := &fakeRunner{handle: func(args []string) (string, string, error) {
		return "", "error: no devices/emulators found", cause
	}}
	b := New(WithRunner(runner))

	err := b.KeyEvent(context.Background(), KeyBack)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("应返回 CommandError: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("CommandError 应包装原始错误")
	}
	if !strings.Contains(cmdErr.Output, "no devices") {
		t.Errorf("应包含标准错误输出: %q", cmdErr.Output)
	}
}

func TestShellCommandForm(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner,
		WithCommandForm(config.CommandFormShell),
		WithADBPath("/opt/android sdk/adb"))
	b.quote = quoterFor("linux")

	if err := b.Tap(context.Background(), 10, 20, 0); err != nil {
		t.Fatal(err)
	}

	runner.mu.Lock()
	line := runner.calls[0].line
	runner.mu.Unlock()
	want := `'/opt/android sdk/adb' -s 127.0.0.1:16384 shell input tap 10 20`
	if line != want {
		t.Errorf("命令行错误:\n got %s\nwant %s", line, want)
	}
}

func TestShellCommandFormText(t *testing.T) {
	// 本机 shell 拆分后，设备端收到的参数必须仍是 EscapeText 的结果
	for _, text := range []string{"a;reboot", "it's", "x && rm -rf /sdcard", "$(id)", "hi there"} {
		t.Run(text, func(t *testing.T) {
			runner := &fakeRunner{}
			b := connectedBridge(t, runner, WithCommandForm(config.CommandFormShell))
			b.quote = quoterFor("linux")

			if err := b.Text(context.Background(), text); err != nil {
				t.Fatal(err)
			}
			got := stripSerial(runner.argsList()[0])
			want := []string{"shell", "input", "text", EscapeText(text)}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("参数错误:\n got %q\nwant %q", got, want)
			}
		})
	}
}

func TestShellCommandFormExecute(t *testing.T) {
	runner := &fakeRunner{}
	b := New(WithRunner(runner), WithCommandForm(config.CommandFormShell))
	b.quote = quoterFor("linux")

	if _, err := b.ExecuteCommand(context.Background(), `push "/tmp/my file.png" /sdcard/x.png`, false); err != nil {
		t.Fatal(err)
	}
	want := []string{"push", "/tmp/my file.png", "/sdcard/x.png"}
	if got := runner.argsList()[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("参数错误: %q", got)
	}
}

func TestQuoteCmdArg(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", `""`},
		{"tap", "tap"},
		{`C:\Program Files\adb.exe`, `"C:\Program Files\adb.exe"`},
		{"a&b", `"a&b"`},
		{`say "hi"`, `"say \"hi\""`},
	}
	for _, tt := range tests {
		if got := quoteCmdArg(tt.in); got != tt.want {
			t.Errorf("quoteCmdArg(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestInput(t *testing.T) {
	tests := []struct {
		name string
		do   func(b *Bridge) error
		want []string
	}{
		{"点击", func(b *Bridge) error { return b.Tap(context.Background(), 100, 200, 0) },
			[]string{"shell", "input", "tap", "100", "200"}},
		{"按住", func(b *Bridge) error { return b.Tap(context.Background(), 100, 200, 800) },
			[]string{"shell", "input", "swipe", "100", "200", "100", "200", "800"}},
		{"滑动", func(b *Bridge) error { return b.Swipe(context.Background(), 1, 2, 3, 4, 0) },
			[]string{"shell", "input", "swipe", "1", "2", "3", "4", "300"}},
		{"长按", func(b *Bridge) error { return b.LongPress(context.Background(), 5, 6, 0) },
			[]string{"shell", "input", "swipe", "5", "6", "5", "6", "1000"}},
		{"按键", func(b *Bridge) error { return b.KeyEvent(context.Background(), KeyHome) },
			[]string{"shell", "input", "keyevent", "3"}},
		{"文本", func(b *Bridge) error { return b.Text(context.Background(), "hi there") },
			[]string{"shell", "input", "text", "'hi%sthere'"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			b := connectedBridge(t, runner)
			if err := tt.do(b); err != nil {
				t.Fatal(err)
			}
			got := runner.argsList()
			if len(got) != 1 || !reflect.DeepEqual(stripSerial(got[0]), tt.want) {
				t.Errorf("命令错误: %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestEscapeText(t *testing.T) {
	tests := map[string]string{
		"hello":       "'hello'",
		"hello world": "'hello%sworld'",
		"it's":        `'it'\''s'`,
		"":            "''",
	}
	for in, want := range tests {
		if got := EscapeText(in); got != want {
			t.Errorf("EscapeText(%q) = %s, 期望 %s", in, got, want)
		}
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"home", KeyHome},
		{" BACK ", KeyBack},
		{"recent", KeyAppSwitch},
		{"24", 24},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.input)
		if err != nil || got != tt.want {
			t.Errorf("ParseKey(%q) = %d, %v, 期望 %d", tt.input, got, err, tt.want)
		}
	}
	for _, s := range []string{"volume", "-1", ""} {
		if _, err := ParseKey(s); err == nil {
			t.Errorf("ParseKey(%q) 应返回错误", s)
		}
	}
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 100, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestScreenshot(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner)

	var localTemp string
	runner.handle = func(args []string) (string, string, error) {
		args = stripSerial(args)
		if args[0] == "pull" {
			localTemp = args[2]
			writeTestPNG(t, localTemp, 64, 48)
			return args[1] + ": 1 file pulled.", "", nil
		}
		return "", "", nil
	}

	savePath := filepath.Join(t.TempDir(), "shots", "screen.png")
	img, err := b.Screenshot(context.Background(), savePath)
	if err != nil {
		t.Fatalf("截图失败: %v", err)
	}
	defer img.Close()

	if img.Cols() != 64 || img.Rows() != 48 {
		t.Errorf("截图尺寸错误: %dx%d", img.Cols(), img.Rows())
	}
	if _, err := os.Stat(savePath); err != nil {
		t.Errorf("截图应另存到 %s: %v", savePath, err)
	}
	if _, err := os.Stat(localTemp); !os.IsNotExist(err) {
		t.Errorf("本地临时文件应被删除: %s", localTemp)
	}

	got := runner.argsList()
	want := [][]string{
		{"shell", "screencap", "-p", DefaultRemoteTempPath},
		{"pull", DefaultRemoteTempPath, localTemp},
		{"shell", "rm", DefaultRemoteTempPath},
	}
	if len(got) != len(want) {
		t.Fatalf("命令数量错误: %v", got)
	}
	for i := range want {
		if !reflect.DeepEqual(stripSerial(got[i]), want[i]) {
			t.Errorf("第 %d 条命令 %v, 期望 %v", i, got[i], want[i])
		}
	}
}

func TestScreenshotPullFailure(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner)

	var localTemp string
	var removed bool
	runner.handle = func(args []string) (string, string, error) {
		args = stripSerial(args)
		switch {
		case args[0] == "pull":
			localTemp = args[2]
			return "", "adb: error: remote object does not exist", errors.New("exit status 1")
		case len(args) > 1 && args[1] == "rm":
			removed = true
		}
		return "", "", nil
	}

	if _, err := b.Screenshot(context.Background(), ""); err == nil {
		t.Fatal("拉取失败时应返回错误")
	}
	if !removed {
		t.Error("拉取失败时仍应删除设备端截图")
	}
	if _, err := os.Stat(localTemp); !os.IsNotExist(err) {
		t.Errorf("本地临时文件应被删除: %s", localTemp)
	}
}

func TestTimestampedRemotePath(t *testing.T) {
	b := New(WithTimestampedRemote(true))
	b.now = func() time.Time { return time.Unix(1700000000, 0) }

	if got := b.remotePath(); got != "/sdcard/screencap_1700000000.png" {
		t.Errorf("带时间戳的暂存路径错误: %s", got)
	}

	b = New(WithRemoteTempPath("/data/local/tmp/shot.png"))
	if got := b.remotePath(); got != "/data/local/tmp/shot.png" {
		t.Errorf("固定暂存路径错误: %s", got)
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		out        string
		wantW      int
		wantH      int
		wantFailed bool
	}{
		{"Physical size: 1080x1920", 1080, 1920, false},
		{"Physical size: 1080x1920\nOverride size: 720x1280", 1080, 1920, false},
		{"Override size: 720x1280", 720, 1280, false},
		{"garbage", 0, 0, true},
	}
	for _, tt := range tests {
		runner := &fakeRunner{handle: func(args []string) (string, string, error) {
			return tt.out, "", nil
		}}
		b := New(WithRunner(runner))
		w, h, err := b.Resolution(context.Background())
		if (err != nil) != tt.wantFailed {
			t.Errorf("%q: err = %v", tt.out, err)
			continue
		}
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("%q: 分辨率 %dx%d, 期望 %dx%d", tt.out, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestIsScreenOn(t *testing.T) {
	runner := &fakeRunner{handle: func(args []string) (string, string, error) {
		return "  mHoldingWakeLockSuspendBlocker=false\n  mHoldingDisplaySuspendBlocker=true\n", "", nil
	}}
	on, err := New(WithRunner(runner)).IsScreenOn(context.Background())
	if err != nil || !on {
		t.Errorf("屏幕应为点亮: %v %v", on, err)
	}
}

func TestWakeUp(t *testing.T) {
	runner := &fakeRunner{}
	b := connectedBridge(t, runner)
	var slept time.Duration
	b.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	if err := b.WakeUp(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := runner.argsList()
	if len(got) != 2 || stripSerial(got[0])[3] != "26" || stripSerial(got[1])[3] != "82" {
		t.Errorf("唤醒命令错误: %v", got)
	}
	if slept != 500*time.Millisecond {
		t.Errorf("两次按键间应等待 500ms: %v", slept)
	}
}

func TestParseDevices(t *testing.T) {
	out := "* daemon not running; starting now at tcp:5037\n* daemon started successfully\n" +
		"List of devices attached\n127.0.0.1:16384\tdevice\nemulator-5554\toffline\n\n"
	want := []Device{
		{Serial: "127.0.0.1:16384", State: "device"},
		{Serial: "emulator-5554", State: "offline"},
	}
	if got := parseDevices(out); !reflect.DeepEqual(got, want) {
		t.Errorf("解析设备列表错误: %+v", got)
	}
	if got := parseDevices("List of devices attached\n"); len(got) != 0 {
		t.Errorf("无设备时应为空: %+v", got)
	}
}

func TestParseCurrentFocus(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  mCurrentFocus=Window{5e1f u0 com.example.game/com.example.game.MainActivity}", "com.example.game/com.example.game.MainActivity"},
		{"  mCurrentFocus=null", ""},
		{"  mFocusedApp=AppWindowToken{...}", ""},
	}
	for _, tt := range tests {
		if got := parseCurrentFocus(tt.in); got != tt.want {
			t.Errorf("parseCurrentFocus(%q) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}

func TestInstallApp(t *testing.T) {
	tests := []struct {
		out     string
		wantErr bool
	}{
		{"Performing Streamed Install\nSuccess", false},
		{"Failure [INSTALL_FAILED_ALREADY_EXISTS]", true},
	}
	for _, tt := range tests {
		runner := &fakeRunner{handle: func(args []string) (string, string, error) {
			return tt.out, "", nil
		}}
		err := New(WithRunner(runner)).InstallApp(context.Background(), "game.apk")
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v", tt.out, err)
		}
	}
}

func TestPushPullFile(t *testing.T) {
	runner := &fakeRunner{handle: func(args []string) (string, string, error) {
		switch args[0] {
		case "push":
			return "a.txt: 1 file pushed, 0 skipped.", "", nil
		case "pull":
			return "", "", nil
		}
		return "", "", nil
	}}
	b := New(WithRunner(runner))

	if err := b.PushFile(context.Background(), "a.txt", "/sdcard/a.txt"); err != nil {
		t.Errorf("推送应成功: %v", err)
	}
	if err := b.PullFile(context.Background(), "/sdcard/a.txt", "a.txt"); err == nil {
		t.Error("输出不含 pulled 时应返回错误")
	}
}

func TestDeviceInfo(t *testing.T) {
	if _, err := New(WithRunner(&fakeRunner{})).DeviceInfo(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("未连接时应返回 ErrNotConnected: %v", err)
	}

	runner := &fakeRunner{}
	b := connectedBridge(t, runner)
	props := map[string]string{
		"ro.product.model":         "MuMu",
		"ro.product.manufacturer":  "Netease",
		"ro.build.version.release": "12",
		"ro.build.version.sdk":     "32",
	}
	runner.handle = func(args []string) (string, string, error) {
		args = stripSerial(args)
		if args[1] == "getprop" {
			return props[args[2]] + "\n", "", nil
		}
		return "Physical size: 1600x900", "", nil
	}

	info, err := b.DeviceInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := DeviceInfo{Serial: "127.0.0.1:16384", Model: "MuMu", Manufacturer: "Netease",
		AndroidVersion: "12", SDKVersion: "32", Width: 1600, Height: 900}
	if *info != want {
		t.Errorf("设备信息错误: %+v", info)
	}
}

func TestCheckADBAvailable(t *testing.T) {
	runner := &fakeRunner{handle: func(args []string) (string, string, error) {
		return "Android Debug Bridge version 1.0.41", "", nil
	}}
	if err := New(WithRunner(runner)).CheckADBAvailable(context.Background()); err != nil {
		t.Errorf("adb 应可用: %v", err)
	}
}
