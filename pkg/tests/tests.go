// Package tests provides scriptable actions and a trace recorder for tests.
package tests

import (
	"fmt"

	scripted "github.com/stateforward/go-scripted"
	"github.com/stateforward/go-scripted/embedded"
	"github.com/stateforward/go-scripted/queue"
)

// Log collects lifecycle calls shared by several actions.
type Log struct {
	entries []string
}

func (log *Log) add(label, hook string) {
	if log == nil {
		return
	}
	log.entries = append(log.entries, label+"."+hook)
}

func (log *Log) Entries() []string {
	if log == nil {
		return nil
	}
	return log.entries
}

func (log *Log) Reset() {
	log.entries = nil
}

// Action replays scripted results. Each hook consumes the next queued result;
// once a queue runs dry OnStart and OnEnd return true and Update repeats its
// last status, or Success when none was queued.
type Action struct {
	scripted.Base[*Log]
	Statuses     []scripted.EndStatus
	StartResults []bool
	EndResults   []bool

	Starts  int
	Updates int
	Ends    int
	Resets  int

	last scripted.EndStatus
}

func NewAction(label string, log *Log, statuses ...scripted.EndStatus) *Action {
	return &Action{
		Base:     scripted.NewBase(log, label),
		Statuses: statuses,
		last:     scripted.Success,
	}
}

func (action *Action) OnStart() bool {
	action.Starts++
	action.Owner().add(action.Label(), "OnStart")
	return pop(&action.StartResults, true)
}

func (action *Action) Update() scripted.EndStatus {
	action.Updates++
	action.Owner().add(action.Label(), "Update")
	action.last = pop(&action.Statuses, action.last)
	return action.last
}

func (action *Action) OnEnd() bool {
	action.Ends++
	action.Owner().add(action.Label(), "OnEnd")
	return pop(&action.EndResults, true)
}

func (action *Action) Reset() {
	action.Resets++
	action.Base.Reset()
}

func pop[T any](items *[]T, fallback T) T {
	if len(*items) == 0 {
		return fallback
	}
	item := (*items)[0]
	*items = (*items)[1:]
	return item
}

// Actions builds n actions labelled a0..an-1 sharing log.
func Actions(n int, log *Log, statuses ...scripted.EndStatus) ([]*Action, []scripted.Action) {
	typed := make([]*Action, n)
	actions := make([]scripted.Action, n)
	for i := range n {
		typed[i] = NewAction(fmt.Sprintf("a%d", i), log, statuses...)
		actions[i] = typed[i]
	}
	return typed, actions
}

/******* Recorder *******/

type Record struct {
	Step    string
	Names   []string
	Results []any
}

// Recorder queues every traced step once it ends.
type Recorder struct {
	queue *queue.Queue[Record]
}

func NewRecorder() *Recorder {
	return &Recorder{queue: queue.New[Record]()}
}

// Trace satisfies embedded.Trace.
func (recorder *Recorder) Trace(step string, elements ...embedded.Element) func(...any) {
	names := make([]string, len(elements))
	for i, element := range elements {
		if named, ok := element.(embedded.NamedElement); ok {
			names[i] = named.Name()
		} else {
			names[i] = element.Id()
		}
	}
	return func(results ...any) {
		recorder.queue.Push(Record{Step: step, Names: names, Results: results})
	}
}

// Records drains the recorded steps.
func (recorder *Recorder) Records() []Record {
	return recorder.queue.Drain()
}

// Steps drains the recorded steps matching step.
func (recorder *Recorder) Steps(step string) []Record {
	var records []Record
	for _, record := range recorder.queue.Drain() {
		if record.Step == step {
			records = append(records, record)
		}
	}
	return records
}
