package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/vidprofile/component"
	"github.com/kbukum/vidprofile/config"
	"github.com/kbukum/vidprofile/logger"
)

type testConfig struct {
	config.ServiceConfig
	failValidate bool
}

func (c *testConfig) Validate() error {
	if c.failValidate {
		return errors.New("bad config")
	}
	return c.ServiceConfig.Validate()
}

type mockComponent struct {
	name     string
	startErr error
	health   component.HealthStatus
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return nil
}

func (m *mockComponent) Health(context.Context) component.Health {
	status := m.health
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

func newApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "test", Version: "1.0.0"}}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newApp(t)
	if app.Name != "test" || app.Version != "1.0.0" {
		t.Errorf("name/version = %s/%s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: %q", app.Cfg.Environment)
	}
	if app.Components == nil || app.Summary == nil {
		t.Error("expected registry and summary")
	}
}

func TestNewApp_ValidationError(t *testing.T) {
	_, err := NewApp(&testConfig{failValidate: true}, WithLogger(logger.Nop()))
	if err == nil || !strings.Contains(err.Error(), "bad config") {
		t.Errorf("err = %v", err)
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	app := newApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "a", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "b", events: &events})
	app.OnStart(func(context.Context) error { events = append(events, "onStart"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		events = append(events, "configure:"+a.Cfg.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { events = append(events, "onReady"); return nil })
	app.OnStop(func(context.Context) error { events = append(events, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "start:a,start:b,onStart,configure:test,onReady,task,onStop,stop:b,stop:a"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s\nwant     %s", got, want)
	}
}

func TestRunTask_ReturnsTaskError(t *testing.T) {
	app := newApp(t)
	boom := errors.New("boom")
	if err := app.RunTask(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRunTask_StartupFailureStopsStarted(t *testing.T) {
	app := newApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "a", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "b", startErr: errors.New("down"), events: &events})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || ran {
		t.Fatalf("err = %v ran = %v", err, ran)
	}
	if got := strings.Join(events, ","); got != "start:a,start:b,stop:a" {
		t.Errorf("events = %s", got)
	}
}

func TestRunTask_ConfigureError(t *testing.T) {
	app := newApp(t)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("no providers") })
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "configuration failed") {
		t.Errorf("err = %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app := newApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "ok", events: &events})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = app.RegisterComponent(&mockComponent{name: "redis", health: component.StatusUnhealthy, events: &events})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "redis=unhealthy") {
		t.Errorf("err = %v", err)
	}
}

type describedComponent struct{ mockComponent }

func (d *describedComponent) Describe() component.Description {
	return component.Description{Name: "Redis", Type: "redis", Details: "localhost:6379"}
}

func TestSummary_Entries(t *testing.T) {
	var events []string
	reg := component.NewRegistry(logger.Nop())
	_ = reg.Register(&describedComponent{mockComponent{name: "redis", events: &events}})

	s := NewSummary("vidprofile", "dev")
	s.Track("groq", "provider", "transcribe,extract_profile", true)

	got := s.Entries(context.Background(), reg)
	if len(got) != 2 {
		t.Fatalf("entries = %+v", got)
	}
	if got[0].Name != "Redis" || got[0].Details != "localhost:6379" || !got[0].Healthy {
		t.Errorf("component entry = %+v", got[0])
	}
	if got[1].Name != "groq" || got[1].Type != "provider" {
		t.Errorf("tracked entry = %+v", got[1])
	}
}
