package metrics

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/randomizedcoder/go-forklaunch/internal/launcher"
)

func newTestRecorder() *Recorder {
	r := NewRecorder("test", "./main_elf")
	r.now = func() time.Time { return time.Unix(1700000000, 0) }
	return r
}

func TestRecorder_ObserveNormalExit(t *testing.T) {
	r := newTestRecorder()
	r.ObserveOutcome(launcher.ExitOutcome{
		Kind:       launcher.NormalExit,
		Code:       7,
		Waited:     250 * time.Millisecond,
		UserTime:   2 * time.Second,
		SystemTime: 500 * time.Millisecond,
	})

	if got := testutil.ToFloat64(r.launches.WithLabelValues(ResultNormalExit)); got != 1 {
		t.Errorf("normal_exit launches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.launches.WithLabelValues(ResultAbnormal)); got != 0 {
		t.Errorf("abnormal launches = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.exitCode); got != 7 {
		t.Errorf("exit code = %v, want 7", got)
	}
	if got := testutil.ToFloat64(r.cpuSeconds.WithLabelValues("user")); got != 2 {
		t.Errorf("user cpu = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.cpuSeconds.WithLabelValues("system")); got != 0.5 {
		t.Errorf("system cpu = %v, want 0.5", got)
	}
	if got := testutil.ToFloat64(r.lastLaunch); got != 1700000000 {
		t.Errorf("last launch = %v", got)
	}
}

func TestRecorder_ObserveAbnormal(t *testing.T) {
	r := newTestRecorder()
	r.ObserveOutcome(launcher.ExitOutcome{Kind: launcher.AbnormalTermination})

	if got := testutil.ToFloat64(r.launches.WithLabelValues(ResultAbnormal)); got != 1 {
		t.Errorf("abnormal launches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.exitCode); got != -1 {
		t.Errorf("exit code = %v, want -1", got)
	}
}

func TestRecorder_ObserveFailure(t *testing.T) {
	for _, result := range []string{ResultForkFailed, ResultWaitFailed} {
		t.Run(result, func(t *testing.T) {
			r := newTestRecorder()
			r.ObserveFailure(result)
			if got := testutil.ToFloat64(r.launches.WithLabelValues(result)); got != 1 {
				t.Errorf("%s launches = %v, want 1", result, got)
			}
		})
	}
}

func TestRecorder_ResultSeriesPrecreated(t *testing.T) {
	r := newTestRecorder()
	if got := testutil.CollectAndCount(r.launches); got != 4 {
		t.Errorf("launch series = %d, want 4", got)
	}
}

func TestRecorder_RegistryIsPrivate(t *testing.T) {
	r := newTestRecorder()

	testCases := []struct {
		name string
		want int
	}{
		{"forklaunch_info", 1},
		{"forklaunch_launches_total", 4},
		{"forklaunch_child_exit_code", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := testutil.GatherAndCount(r.Registry(), tc.name)
			if err != nil {
				t.Fatalf("GatherAndCount: %v", err)
			}
			if got != tc.want {
				t.Errorf("%s series = %d, want %d", tc.name, got, tc.want)
			}
		})
	}

	if got, _ := testutil.GatherAndCount(prometheus.DefaultGatherer, "forklaunch_info"); got != 0 {
		t.Errorf("default registry has %d forklaunch_info series, want 0", got)
	}
}

func readFamilies(t *testing.T, path string) map[string]*dto.MetricFamily {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	families := make(map[string]*dto.MetricFamily)
	decoder := expfmt.NewDecoder(f, expfmt.FmtText)
	for {
		var mf dto.MetricFamily
		if err := decoder.Decode(&mf); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("decode error: %v", err)
		}
		families[mf.GetName()] = &mf
	}
	return families
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := newTestRecorder()
	r.ObserveOutcome(launcher.ExitOutcome{Kind: launcher.NormalExit, Code: 3, Waited: time.Second})

	dir := t.TempDir()
	path := filepath.Join(dir, "forklaunch.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}

	families := readFamilies(t, path)

	exit, ok := families["forklaunch_child_exit_code"]
	if !ok {
		t.Fatal("forklaunch_child_exit_code missing")
	}
	if got := exit.GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Errorf("exit code = %v, want 3", got)
	}

	wait, ok := families["forklaunch_child_wait_seconds"]
	if !ok {
		t.Fatal("forklaunch_child_wait_seconds missing")
	}
	if got := wait.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("wait sample count = %d, want 1", got)
	}

	info := families["forklaunch_info"]
	if info == nil {
		t.Fatal("forklaunch_info missing")
	}
	labels := map[string]string{}
	for _, lp := range info.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	if labels["target"] != "./main_elf" || labels["version"] != "test" {
		t.Errorf("info labels = %v", labels)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", st.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestRecorder_WriteTextfileMissingDir(t *testing.T) {
	r := newTestRecorder()
	path := filepath.Join(t.TempDir(), "missing", "forklaunch.prom")
	if err := r.WriteTextfile(path); err == nil {
		t.Error("expected error for missing directory")
	}
}
