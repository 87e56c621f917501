package infer

import (
	"log/slog"
	"strconv"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/ivars/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Listener is how a session reports its mutations to the inference that owns
// it. Calls are synchronous and happen in mutation order: a listener that adds
// bounds itself sees the effect before the mutating call returns.
type Listener interface {
	// OnBoundAdded is called once per (kind, type) pair that was new to the
	// class of v. isSubstitution is true when the caller says the bound is an
	// older bound re-expressed after a substitution.
	OnBoundAdded(v *Var, kind BoundKind, bound types.Type, isSubstitution bool)
	// OnIvarMerged is called once per completed AdoptAllBounds
	OnIvarMerged(mergedAway, survivor *Var)
}

var (
	_ Listener = NopListener{}
	_ Listener = Listeners{}
	_ Listener = (*Recorder)(nil)
	_ Listener = LogListener{}
	_ Listener = (*Metrics)(nil)
)

type NopListener struct{}

func (NopListener) OnBoundAdded(*Var, BoundKind, types.Type, bool) {}
func (NopListener) OnIvarMerged(*Var, *Var)                        {}

// Listeners notifies each of its elements in turn
type Listeners []Listener

func (ls Listeners) OnBoundAdded(v *Var, kind BoundKind, bound types.Type, isSubstitution bool) {
	for _, l := range ls {
		l.OnBoundAdded(v, kind, bound, isSubstitution)
	}
}

func (ls Listeners) OnIvarMerged(mergedAway, survivor *Var) {
	for _, l := range ls {
		l.OnIvarMerged(mergedAway, survivor)
	}
}

type EventKind uint8

const (
	EventBoundAdded EventKind = iota
	EventMerged
)

// Event is one notification, as stored by a Recorder
type Event struct {
	Kind EventKind
	// Var is the bounded variable, or the merged away one
	Var *Var
	// Survivor is only set for EventMerged
	Survivor *Var

	BoundKind      BoundKind
	Bound          types.Type
	IsSubstitution bool
}

func (e Event) String() string {
	if e.Kind == EventMerged {
		return "merge " + e.Var.Name() + " -> " + e.Survivor.Name()
	}
	return e.BoundKind.Format(e.Var, e.Bound)
}

// Recorder keeps every event it is notified of. Snapshots are persistent
// lists, so taking one is cheap and later events do not show up in it.
type Recorder struct {
	events *immutable.List[Event]
}

func NewRecorder() *Recorder {
	return &Recorder{events: immutable.NewList[Event]()}
}

func (r *Recorder) OnBoundAdded(v *Var, kind BoundKind, bound types.Type, isSubstitution bool) {
	r.events = r.events.Append(Event{
		Kind:           EventBoundAdded,
		Var:            v,
		BoundKind:      kind,
		Bound:          bound,
		IsSubstitution: isSubstitution,
	})
}

func (r *Recorder) OnIvarMerged(mergedAway, survivor *Var) {
	r.events = r.events.Append(Event{Kind: EventMerged, Var: mergedAway, Survivor: survivor})
}

func (r *Recorder) Snapshot() *immutable.List[Event] { return r.events }
func (r *Recorder) Len() int                         { return r.events.Len() }

// Since returns the events recorded after snapshot was taken
func (r *Recorder) Since(snapshot *immutable.List[Event]) []Event {
	return listSlice(r.events, snapshot.Len())
}

func (r *Recorder) Events() []Event {
	return listSlice(r.events, 0)
}

// Lines renders every event, one per line, as in an inference trace
func (r *Recorder) Lines() []string {
	lines := make([]string, 0, r.events.Len())
	for _, e := range r.Events() {
		lines = append(lines, e.String())
	}
	return lines
}

func listSlice[A any](l *immutable.List[A], from int) []A {
	if from >= l.Len() {
		return nil
	}
	out := make([]A, 0, l.Len()-from)
	itr := l.Iterator()
	itr.Seek(from)
	for !itr.Done() {
		_, e := itr.Next()
		out = append(out, e)
	}
	return out
}

// LogListener logs every event at debug level
type LogListener struct {
	Logger *slog.Logger
}

func (l LogListener) OnBoundAdded(v *Var, kind BoundKind, bound types.Type, isSubstitution bool) {
	l.Logger.Debug("bound added", "bound", kind.Format(v, bound), "substitution", isSubstitution)
}

func (l LogListener) OnIvarMerged(mergedAway, survivor *Var) {
	l.Logger.Debug("ivars merged", "away", mergedAway.Name(), "survivor", survivor.Name())
}

// Metrics counts events with prometheus counters
type Metrics struct {
	boundsAdded *prometheus.CounterVec
	merges      prometheus.Counter
}

// NewMetrics registers its counters with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		boundsAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ivars",
			Name:      "bounds_added_total",
			Help:      "Bounds recorded on inference variables.",
		}, []string{"kind", "substitution"}),
		merges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ivars",
			Name:      "merges_total",
			Help:      "Equivalence classes of inference variables merged.",
		}),
	}
}

func (m *Metrics) OnBoundAdded(_ *Var, kind BoundKind, _ types.Type, isSubstitution bool) {
	m.boundsAdded.WithLabelValues(kind.Name(), strconv.FormatBool(isSubstitution)).Inc()
}

func (m *Metrics) OnIvarMerged(*Var, *Var) {
	m.merges.Inc()
}

// BoundsAdded is the counter for one kind and substitution flag
func (m *Metrics) BoundsAdded(kind BoundKind, isSubstitution bool) prometheus.Counter {
	return m.boundsAdded.WithLabelValues(kind.Name(), strconv.FormatBool(isSubstitution))
}

func (m *Metrics) Merges() prometheus.Counter { return m.merges }
