package topology

import (
	"testing"

	"github.com/virtclock/netsim/internal/config"
)

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any) {}
func (nullLogger) Debug(string)          {}
func (nullLogger) Infof(string, ...any)  {}
func (nullLogger) Info(string)           {}
func (nullLogger) Warnf(string, ...any)  {}
func (nullLogger) Warn(string)           {}

func starDocument() *Document {
	return &Document{
		Hosts:   []HostSpec{{ID: "client"}, {ID: "server"}},
		Routers: nil,
		Links: []LinkSpec{
			{ID: "link0", RateMbps: 10, DelayMs: 5, BufferKB: 64, EndpointAID: "client", EndpointBID: "server"},
		},
		Flows: []FlowSpec{
			{ID: "flow0", SourceHostID: "client", DestHostID: "server", TotalMB: 1, StartTimeS: 0},
		},
	}
}

func TestBuildWiresASimpleTopology(t *testing.T) {
	sim, err := Build(starDocument(), config.Default(), nullLogger{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sim == nil {
		t.Fatal("expected a non-nil simulation")
	}
}

func TestBuildRejectsUnknownLinkEndpoint(t *testing.T) {
	doc := starDocument()
	doc.Links[0].EndpointBID = "ghost"
	if _, err := Build(doc, config.Default(), nullLogger{}); err == nil {
		t.Fatal("expected an error for an unknown link endpoint")
	}
}

func TestBuildRejectsDuplicateHostID(t *testing.T) {
	doc := starDocument()
	doc.Hosts = append(doc.Hosts, HostSpec{ID: "client"})
	if _, err := Build(doc, config.Default(), nullLogger{}); err == nil {
		t.Fatal("expected an error for a duplicate host id")
	}
}
