// Package plantuml renders transition blocks as state diagrams and sequences as
// activity diagrams.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	"github.com/stateforward/go-scripted/embedded"
	"github.com/stateforward/go-scripted/kinds"
	"github.com/stateforward/go-scripted/pkg/set"
)

var replacer = strings.NewReplacer("-", "_", " ", "_", ".", "_", "/", "_", ">", "_")

func idFromName(name string) string {
	if name == "" {
		return "none"
	}
	return replacer.Replace(name)
}

func label(transition embedded.Transition) string {
	if kinds.IsKind(transition.Kind(), kinds.Default) {
		return "default"
	}
	text := fmt.Sprintf("%d scorers", transition.Scorers())
	if transition.Scorers() == 1 {
		text = "1 scorer"
	}
	if transition.Conditional() {
		text += " [condition]"
	}
	return text
}

func generateTransition(builder *strings.Builder, depth int, source string, transition embedded.Transition) {
	indent := strings.Repeat(" ", depth*2)
	arrow := "---->"
	if kinds.IsKind(transition.Kind(), kinds.Default) {
		arrow = "-[dashed]->"
	}
	fmt.Fprintf(builder, "%s%s %s %s : %s\n", indent, source, arrow, idFromName(transition.Target()), label(transition))
}

func states(block embedded.Block) *set.Set[string] {
	names := set.New[string]()
	for _, group := range block.Groups() {
		names.Add(group.Source())
		for _, transition := range group.Members() {
			names.Add(transition.Target())
		}
		if fallback := group.Fallback(); fallback != nil {
			names.Add(fallback.Target())
		}
	}
	if global := block.Global(); global != nil {
		for _, transition := range global.Members() {
			names.Add(transition.Target())
		}
	}
	return names
}

// Generate writes a state diagram of block. Global transitions originate from
// the initial pseudo state since they apply from anywhere.
func Generate(writer io.Writer, block embedded.Block) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "@startuml %s\n", idFromName(block.Name()))
	for name := range states(block).Items() {
		fmt.Fprintf(&builder, "state %s\n", idFromName(name))
	}
	if global := block.Global(); global != nil && kinds.IsKind(global.Kind(), kinds.Global) {
		for _, transition := range global.Members() {
			generateTransition(&builder, 0, "[*]", transition)
		}
	}
	for _, group := range block.Groups() {
		source := idFromName(group.Source())
		for _, transition := range group.Members() {
			generateTransition(&builder, 0, source, transition)
		}
		if fallback := group.Fallback(); fallback != nil {
			generateTransition(&builder, 0, source, fallback)
		}
	}
	fmt.Fprintln(&builder, "@enduml")
	_, err := writer.Write([]byte(builder.String()))
	return err
}

// GenerateSequence writes an activity diagram of sequence. The last action
// repeats since a sequence holds there once every action has succeeded.
func GenerateSequence(writer io.Writer, sequence embedded.Sequence) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "@startuml %s\n", idFromName(sequence.Name()))
	fmt.Fprintln(&builder, "start")
	slots := sequence.Slots()
	for i, slot := range slots {
		if i == len(slots)-1 {
			fmt.Fprintln(&builder, "repeat")
			fmt.Fprintf(&builder, "  :%s;\n", slot.Name())
			fmt.Fprintln(&builder, "repeat while (stop requested?) is (no)")
			continue
		}
		fmt.Fprintf(&builder, ":%s;\n", slot.Name())
	}
	fmt.Fprintln(&builder, "stop")
	fmt.Fprintln(&builder, "@enduml")
	_, err := writer.Write([]byte(builder.String()))
	return err
}
