package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidpress/internal/daemon"
	"vidpress/internal/events"
	"vidpress/internal/ipc"
	"vidpress/internal/jobs"
	"vidpress/internal/logging"
	"vidpress/internal/testsupport"
)

func startServer(t *testing.T) (*ipc.Client, *testsupport.Engine, *logging.StreamHub) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithoutAPI())
	logHub := logging.NewStreamHub(128)
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", OutputPaths: []string{filepath.Join(testsupport.BaseDir(cfg), "ipc-test.log")}, Hub: logHub})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	eng := testsupport.NewEngine()
	hub := events.NewHub(0)
	sup, err := jobs.New(eng, testsupport.NewInspector(),
		jobs.WithPublisher(events.NewPublisher(hub, logger)),
		jobs.WithScratchDir(cfg.Paths.ScratchDir),
		jobs.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("jobs.New: %v", err)
	}
	d, err := daemon.New(cfg, sup, hub, logger, daemon.WithLogStream(logHub))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		eng.Release()
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, eng, logHub
}

func TestIPCServerClient(t *testing.T) {
	client, eng, _ := startServer(t)

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}
	again, err := client.Start()
	if err != nil {
		t.Fatalf("second Start RPC failed: %v", err)
	}
	if again.Started || again.Message != "daemon already running" {
		t.Fatalf("unexpected second start response %#v", again)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || status.Engine != "scripted" || status.PID == 0 {
		t.Fatalf("unexpected status %#v", status)
	}

	job, err := client.StartJob(ipc.JobStartRequest{RequestID: "ipc-1", SourceURI: testsupport.SampleURI, Quality: "medium"})
	if err != nil {
		t.Fatalf("StartJob RPC failed: %v", err)
	}
	if job.Error != "" || !testsupport.IsGeneratedOutput(job.OutputPath, "", "mp4") {
		t.Fatalf("unexpected start response %#v", job)
	}

	dup, err := client.StartJob(ipc.JobStartRequest{RequestID: "ipc-1", SourceURI: testsupport.SampleURI})
	if err != nil {
		t.Fatalf("duplicate StartJob RPC failed: %v", err)
	}
	if dup.Code != "duplicate_request" || dup.Hint == "" {
		t.Fatalf("expected duplicate rejection, got %#v", dup)
	}

	bad, err := client.StartJob(ipc.JobStartRequest{RequestID: "ipc-bad", SourceURI: "/videos/missing.mkv"})
	if err != nil {
		t.Fatalf("bad StartJob RPC failed: %v", err)
	}
	if bad.Code != "source_read_failure" {
		t.Fatalf("expected source read rejection, got %#v", bad)
	}

	list, err := client.ListJobs(false)
	if err != nil {
		t.Fatalf("ListJobs RPC failed: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].RequestID != "ipc-1" || list.Jobs[0].Quality != "medium" {
		t.Fatalf("unexpected job list %#v", list.Jobs)
	}

	described, err := client.DescribeJob("ipc-1")
	if err != nil {
		t.Fatalf("DescribeJob RPC failed: %v", err)
	}
	if described.Job.State == "failed" || described.Job.Video == nil || described.Job.Video.Bitrate != 1_600_000 {
		t.Fatalf("unexpected job %#v", described.Job)
	}
	if _, err := client.DescribeJob("nope"); err == nil {
		t.Fatal("expected DescribeJob error for unknown job")
	}

	eng.Release()
	deadline := time.Now().Add(5 * time.Second)
	var since uint64
	var names []string
	for time.Now().Before(deadline) {
		resp, err := client.Events(ipc.EventsRequest{Since: since, WaitMillis: 500, RequestID: "ipc-1"})
		if err != nil {
			t.Fatalf("Events RPC failed: %v", err)
		}
		for _, evt := range resp.Events {
			names = append(names, evt.Name)
		}
		since = resp.Next
		if len(names) > 0 && names[len(names)-1] == "onSuccess" {
			break
		}
	}
	if len(names) == 0 || names[0] != "onStart" || names[len(names)-1] != "onSuccess" {
		t.Fatalf("unexpected event sequence %v", names)
	}

	recent, err := client.ListJobs(true)
	if err != nil {
		t.Fatalf("ListJobs recent RPC failed: %v", err)
	}
	if len(recent.Jobs) != 0 || len(recent.Recent) != 1 || recent.Recent[0].State != "completed" {
		t.Fatalf("unexpected recent list %#v", recent)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatalf("expected Stop to report stopped, got: %#v", stopResp)
	}
	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status after stop failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestIPCCancelAndLogs(t *testing.T) {
	client, _, _ := startServer(t)
	if _, err := client.Start(); err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}

	if resp, err := client.StartJob(ipc.JobStartRequest{RequestID: "ipc-cancel", SourceURI: testsupport.SampleURI}); err != nil || resp.Error != "" {
		t.Fatalf("StartJob failed: %v %#v", err, resp)
	}
	cancelResp, err := client.CancelJob("ipc-cancel")
	if err != nil {
		t.Fatalf("CancelJob RPC failed: %v", err)
	}
	if !cancelResp.Live {
		t.Fatalf("expected live cancel, got %#v", cancelResp)
	}

	resp, err := client.Events(ipc.EventsRequest{WaitMillis: 2000, RequestID: "ipc-cancel", Limit: 100})
	if err != nil {
		t.Fatalf("Events RPC failed: %v", err)
	}
	var sawCancel bool
	since := resp.Next
	for _, evt := range resp.Events {
		sawCancel = sawCancel || evt.Name == "onCancelled"
	}
	if !sawCancel {
		more, err := client.Events(ipc.EventsRequest{Since: since, WaitMillis: 2000, RequestID: "ipc-cancel"})
		if err != nil {
			t.Fatalf("Events RPC failed: %v", err)
		}
		for _, evt := range more.Events {
			sawCancel = sawCancel || evt.Name == "onCancelled"
		}
	}
	if !sawCancel {
		t.Fatal("expected onCancelled event")
	}

	logs, err := client.LogTail(ipc.LogTailRequest{Tail: true, Limit: 500, RequestID: "ipc-cancel"})
	if err != nil {
		t.Fatalf("LogTail RPC failed: %v", err)
	}
	if len(logs.Events) == 0 {
		t.Fatal("expected log lines for the cancelled job")
	}
	for _, evt := range logs.Events {
		if evt.RequestID != "ipc-cancel" {
			t.Fatalf("log filter leaked %#v", evt)
		}
	}
}
