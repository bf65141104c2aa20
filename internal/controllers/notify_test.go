package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/amaumene/seasonarr/internal/models"
	"github.com/sirupsen/logrus"
)

type fakeFinder struct {
	seasons []models.NewFinishedSeason
	calls   int
}

func (f *fakeFinder) FindNewFinishedSeasons(ctx context.Context) []models.NewFinishedSeason {
	f.calls++
	return f.seasons
}

type fakeProvider struct {
	sendOnEmpty bool
	payload     interface{}
	buildErr    error
	buildCalls  int
}

func (p *fakeProvider) Name() string            { return "fake" }
func (p *fakeProvider) ValidateConfig() error   { return nil }
func (p *fakeProvider) ShouldSendOnEmpty() bool { return p.sendOnEmpty }

func (p *fakeProvider) FormatMessage(seasons []models.NewFinishedSeason) string {
	return "message"
}

func (p *fakeProvider) BuildPayload(ctx context.Context, seasons []models.NewFinishedSeason) (interface{}, error) {
	p.buildCalls++
	if p.buildErr != nil {
		return nil, p.buildErr
	}
	return p.payload, nil
}

func (p *fakeProvider) Headers() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

type fakeSender struct {
	url     string
	payload interface{}
	headers map[string]string
	err     error
	calls   int
}

func (s *fakeSender) Send(ctx context.Context, url string, payload interface{}, headers map[string]string) error {
	s.calls++
	s.url = url
	s.payload = payload
	s.headers = headers
	return s.err
}

func foundSeasons() []models.NewFinishedSeason {
	return []models.NewFinishedSeason{
		{Show: "Breaking Bad", Season: 3, SeasonTitle: "Season 3", EpisodeCount: 13, RatingKey: "s3"},
	}
}

func newTestNotify(finder *fakeFinder, provider *fakeProvider, sender *fakeSender, webhookURL string) (*NotifyController, *bytes.Buffer) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctrl := NewNotifyController(finder, provider, sender, webhookURL, logger)
	buf := &bytes.Buffer{}
	ctrl.output = buf
	return ctrl, buf
}

func TestRunOnceDeliversWebhook(t *testing.T) {
	provider := &fakeProvider{payload: map[string]string{"message": "hi"}}
	sender := &fakeSender{}
	ctrl, _ := newTestNotify(&fakeFinder{seasons: foundSeasons()}, provider, sender, "http://hooks.example/x")

	if err := ctrl.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls)
	}
	if sender.url != "http://hooks.example/x" {
		t.Errorf("unexpected webhook URL %q", sender.url)
	}
	if sender.headers["Content-Type"] != "application/json" {
		t.Errorf("expected provider headers to be forwarded, got %v", sender.headers)
	}

	last := ctrl.LastRun()
	if last == nil {
		t.Fatal("expected a run summary")
	}
	if last.SeasonsFound != 1 {
		t.Errorf("expected 1 season found, got %d", last.SeasonsFound)
	}
	if !last.Sent {
		t.Error("expected the summary to record a delivery")
	}
	if last.Error != "" {
		t.Errorf("expected no error, got %q", last.Error)
	}
}

func TestRunOnceSkipsEmptyResult(t *testing.T) {
	provider := &fakeProvider{}
	sender := &fakeSender{}
	ctrl, _ := newTestNotify(&fakeFinder{}, provider, sender, "http://hooks.example/x")

	if err := ctrl.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.buildCalls != 0 {
		t.Errorf("expected no payload build, got %d", provider.buildCalls)
	}
	if sender.calls != 0 {
		t.Errorf("expected no send, got %d", sender.calls)
	}

	last := ctrl.LastRun()
	if last == nil || last.Sent {
		t.Errorf("expected a summary with nothing sent, got %+v", last)
	}
}

func TestRunOnceSendsEmptyWhenProviderAsks(t *testing.T) {
	provider := &fakeProvider{sendOnEmpty: true, payload: map[string]string{"message": "none"}}
	sender := &fakeSender{}
	ctrl, _ := newTestNotify(&fakeFinder{}, provider, sender, "http://hooks.example/x")

	if err := ctrl.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls)
	}
}

func TestRunOncePrintsWithoutWebhookURL(t *testing.T) {
	provider := &fakeProvider{}
	sender := &fakeSender{}
	ctrl, buf := newTestNotify(&fakeFinder{seasons: foundSeasons()}, provider, sender, "")

	if err := ctrl.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.calls != 0 {
		t.Errorf("expected no send, got %d", sender.calls)
	}
	if !strings.Contains(buf.String(), "Breaking Bad") {
		t.Errorf("expected the printed seasons to name the show, got %q", buf.String())
	}

	last := ctrl.LastRun()
	if last == nil || last.Sent {
		t.Errorf("expected a summary with nothing sent, got %+v", last)
	}
}

func TestRunOncePrintsNothingWhenEmpty(t *testing.T) {
	provider := &fakeProvider{sendOnEmpty: true}
	ctrl, buf := newTestNotify(&fakeFinder{}, provider, &fakeSender{}, "")

	if err := ctrl.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestRunOnceReportsDispatchFailure(t *testing.T) {
	provider := &fakeProvider{payload: map[string]string{"message": "hi"}}
	sender := &fakeSender{err: errors.New("connection refused")}
	ctrl, _ := newTestNotify(&fakeFinder{seasons: foundSeasons()}, provider, sender, "http://hooks.example/x")

	err := ctrl.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected the cause in the error, got %v", err)
	}

	last := ctrl.LastRun()
	if last == nil {
		t.Fatal("expected a run summary")
	}
	if last.Sent {
		t.Error("expected the summary to record the failure")
	}
	if last.Error == "" {
		t.Error("expected the summary to carry the error")
	}
}

func TestRunOnceReportsPayloadFailure(t *testing.T) {
	provider := &fakeProvider{buildErr: errors.New("bad template")}
	sender := &fakeSender{}
	ctrl, _ := newTestNotify(&fakeFinder{seasons: foundSeasons()}, provider, sender, "http://hooks.example/x")

	if err := ctrl.RunOnce(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if sender.calls != 0 {
		t.Errorf("expected no send after a payload failure, got %d", sender.calls)
	}
}

func TestRunOnceRejectsConcurrentRuns(t *testing.T) {
	ctrl, _ := newTestNotify(&fakeFinder{}, &fakeProvider{}, &fakeSender{}, "")
	ctrl.running.Store(true)

	if err := ctrl.RunOnce(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if !ctrl.Running() {
		t.Error("expected the original run to still be marked running")
	}
}

func TestLastRunBeforeFirstRun(t *testing.T) {
	ctrl, _ := newTestNotify(&fakeFinder{}, &fakeProvider{}, &fakeSender{}, "")

	if last := ctrl.LastRun(); last != nil {
		t.Fatalf("expected nil before the first run, got %+v", last)
	}
}
